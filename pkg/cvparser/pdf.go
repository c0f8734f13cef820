package cvparser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

var ErrInvalidPDF = errors.New("invalid pdf")

type Page struct {
	PageNumber int
	Text       string
}

// Document is the raw text of a PDF. Text is the page texts joined by a blank line.
type Document struct {
	Text     string
	NumPages int
	Pages    []Page
	Info     map[string]string
}

func ParsePDFFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pdf: %w", err)
	}
	return ParsePDF(f, stat.Size())
}

// ParsePDF extracts plain text page by page. The pdf reader panics on some
// malformed inputs; those are reported as ErrInvalidPDF.
func ParsePDF(r io.ReaderAt, size int64) (doc *Document, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", ErrInvalidPDF, rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	numPages := reader.NumPage()
	doc = &Document{
		NumPages: numPages,
		Pages:    make([]Page, 0, numPages),
		Info:     readInfo(reader),
	}

	texts := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrInvalidPDF, i, err)
		}
		doc.Pages = append(doc.Pages, Page{PageNumber: i, Text: text})
		texts = append(texts, text)
	}
	doc.Text = strings.Join(texts, "\n\n")

	return doc, nil
}

func readInfo(reader *pdf.Reader) map[string]string {
	info := make(map[string]string)
	v := reader.Trailer().Key("Info")
	if v.IsNull() {
		return info
	}
	for _, key := range v.Keys() {
		if text := v.Key(key).Text(); text != "" {
			info[key] = text
		}
	}
	return info
}
