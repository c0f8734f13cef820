// Package cvparser turns an uploaded CV PDF into plain text plus a
// best-effort split into the usual CV sections.
package cvparser

import (
	"fmt"
	"io"
)

type CV struct {
	Document       *Document
	Sections       Sections
	Classification Classification
}

func ParseCV(path string) (*CV, error) {
	doc, err := ParsePDFFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse cv: %w", err)
	}
	return fromDocument(doc), nil
}

func ParseCVReader(r io.ReaderAt, size int64) (*CV, error) {
	doc, err := ParsePDF(r, size)
	if err != nil {
		return nil, fmt.Errorf("parse cv: %w", err)
	}
	return fromDocument(doc), nil
}

func fromDocument(doc *Document) *CV {
	classification := DefaultClassifier.Classify(doc.Text)
	return &CV{
		Document:       doc,
		Sections:       classification.Sections,
		Classification: classification,
	}
}
