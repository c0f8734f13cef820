package cvparser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

type Section string

const (
	SectionContact    Section = "contact"
	SectionSummary    Section = "summary"
	SectionExperience Section = "experience"
	SectionEducation  Section = "education"
	SectionSkills     Section = "skills"
)

// Header lines must be shorter than this (after trimming) to count as headers.
const maxHeaderLength = 50

type Sections struct {
	Contact    string
	Summary    string
	Experience string
	Education  string
	Skills     string
}

func (s *Sections) Get(name Section) string {
	switch name {
	case SectionContact:
		return s.Contact
	case SectionSummary:
		return s.Summary
	case SectionExperience:
		return s.Experience
	case SectionEducation:
		return s.Education
	case SectionSkills:
		return s.Skills
	}
	return ""
}

func (s *Sections) set(name Section, body string) {
	switch name {
	case SectionContact:
		s.Contact = body
	case SectionSummary:
		s.Summary = body
	case SectionExperience:
		s.Experience = body
	case SectionEducation:
		s.Education = body
	case SectionSkills:
		s.Skills = body
	}
}

type HeaderMatch struct {
	Line    int // index among non-blank lines
	Text    string
	Section Section
}

// Classification is the result of a classifier pass. Headers and Duplicates
// let callers judge how trustworthy the split is.
type Classification struct {
	Sections   Sections
	Headers    []HeaderMatch
	Duplicates []Section
}

type SectionClassifier interface {
	Classify(text string) Classification
}

type sectionPattern struct {
	section Section
	pattern *regexp.Regexp
}

// RegexClassifier matches short lines against keyword patterns, in order.
// It is lossy: a header that also names another section goes to the first
// pattern that matches.
type RegexClassifier struct {
	patterns []sectionPattern
}

func NewRegexClassifier() *RegexClassifier {
	return &RegexClassifier{
		patterns: []sectionPattern{
			{SectionContact, regexp.MustCompile(`(?i)(?:contact|personal\s*info|personal\s*details)`)},
			{SectionSummary, regexp.MustCompile(`(?i)(?:summary|profile|objective|about\s*me|professional\s*summary)`)},
			{SectionExperience, regexp.MustCompile(`(?i)(?:experience|work\s*experience|employment|work\s*history|professional\s*experience)`)},
			{SectionEducation, regexp.MustCompile(`(?i)(?:education|academic|qualifications|degrees)`)},
			{SectionSkills, regexp.MustCompile(`(?i)(?:skills|technical\s*skills|competencies|expertise|technologies)`)},
		},
	}
}

var DefaultClassifier SectionClassifier = NewRegexClassifier()

func (c *RegexClassifier) header(line string) (Section, bool) {
	if utf8.RuneCountInString(strings.TrimSpace(line)) >= maxHeaderLength {
		return "", false
	}
	for _, p := range c.patterns {
		if p.pattern.MatchString(line) {
			return p.section, true
		}
	}
	return "", false
}

func (c *RegexClassifier) Classify(text string) Classification {
	var result Classification
	seen := make(map[Section]int)

	var current Section
	var body []string
	flush := func() {
		// A header with nothing under it leaves earlier content alone.
		if current != "" && len(body) > 0 {
			result.Sections.set(current, strings.TrimSpace(strings.Join(body, "\n")))
		}
	}

	idx := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if section, ok := c.header(line); ok {
			flush()
			current = section
			body = nil
			seen[section]++
			if seen[section] == 2 {
				result.Duplicates = append(result.Duplicates, section)
			}
			result.Headers = append(result.Headers, HeaderMatch{
				Line:    idx,
				Text:    strings.TrimSpace(line),
				Section: section,
			})
		} else if current != "" {
			body = append(body, line)
		}
		idx++
	}
	flush()

	return result
}

// ExtractSections splits CV text with the default classifier.
func ExtractSections(text string) Sections {
	return DefaultClassifier.Classify(text).Sections
}
