package model

import (
	"fmt"
	"strings"
	"unicode"
)

// AnswerType classifies how a check attribute is answered
type AnswerType string

const (
	AnswerBoolean          AnswerType = "boolean"
	AnswerCategorical      AnswerType = "categorical"
	AnswerMultiCategorical AnswerType = "multi_categorical"
)

// CheckAttribute is one user-defined extraction field.
// It is validated once at construction and immutable afterward.
type CheckAttribute struct {
	ID         string     `json:"id" yaml:"id"`
	Question   string     `json:"question" yaml:"question"`
	AnswerType AnswerType `json:"answer_type" yaml:"answer_type"`
	Categories []string   `json:"categories,omitempty" yaml:"categories,omitempty"`
	Definition string     `json:"definition,omitempty" yaml:"definition,omitempty"`
}

// NewCheckAttribute builds and validates a check attribute. An empty id is
// derived from the question so downstream maps have a stable key even when
// the question text is edited for presentation.
func NewCheckAttribute(id, question string, answerType AnswerType, categories []string, definition string) (CheckAttribute, error) {
	attr := CheckAttribute{
		ID:         strings.TrimSpace(id),
		Question:   strings.TrimSpace(question),
		AnswerType: answerType,
		Categories: categories,
		Definition: strings.TrimSpace(definition),
	}

	if attr.Question == "" {
		return CheckAttribute{}, fmt.Errorf("check attribute: question must not be empty")
	}
	if attr.ID == "" {
		attr.ID = SlugID(attr.Question)
	}

	switch answerType {
	case AnswerBoolean:
		if len(categories) > 0 {
			return CheckAttribute{}, fmt.Errorf("check attribute %q: categories are not allowed for boolean answers", attr.ID)
		}
	case AnswerCategorical, AnswerMultiCategorical:
		if len(categories) < 2 {
			return CheckAttribute{}, fmt.Errorf("check attribute %q: at least 2 categories required for %s answers", attr.ID, answerType)
		}
		seen := make(map[string]bool, len(categories))
		for _, c := range categories {
			if c == "" {
				return CheckAttribute{}, fmt.Errorf("check attribute %q: empty category name", attr.ID)
			}
			if seen[c] {
				return CheckAttribute{}, fmt.Errorf("check attribute %q: duplicate category %q", attr.ID, c)
			}
			seen[c] = true
		}
	default:
		return CheckAttribute{}, fmt.Errorf("check attribute %q: unknown answer type %q (supported: boolean, categorical, multi_categorical)", attr.ID, answerType)
	}

	return attr, nil
}

// SlugID derives a stable identifier from free text: lowercase, alphanumeric
// words joined with underscores, capped at 6 words.
func SlugID(text string) string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
		if len(words) >= 6 {
			break
		}
	}
	flush()

	if len(words) > 6 {
		words = words[:6]
	}
	if len(words) == 0 {
		return "check"
	}
	return strings.Join(words, "_")
}

// Schema is the ordered list of check attributes plus an ID lookup.
type Schema struct {
	attrs []CheckAttribute
	byID  map[string]CheckAttribute
}

// NewSchema validates attribute uniqueness and builds the lookup
func NewSchema(attrs []CheckAttribute) (*Schema, error) {
	byID := make(map[string]CheckAttribute, len(attrs))
	for _, attr := range attrs {
		if _, dup := byID[attr.ID]; dup {
			return nil, fmt.Errorf("schema: duplicate attribute id %q", attr.ID)
		}
		byID[attr.ID] = attr
	}
	return &Schema{attrs: attrs, byID: byID}, nil
}

// Attributes returns the attributes in declaration order
func (s *Schema) Attributes() []CheckAttribute {
	return s.attrs
}

// ByID looks up an attribute by its stable identifier
func (s *Schema) ByID(id string) (CheckAttribute, bool) {
	attr, ok := s.byID[id]
	return attr, ok
}

// ByQuestion looks up an attribute by its question text (case-insensitive).
// Used as a parsing fallback when the LLM echoes the question instead of the id.
func (s *Schema) ByQuestion(question string) (CheckAttribute, bool) {
	want := strings.ToLower(strings.TrimSpace(question))
	for _, attr := range s.attrs {
		if strings.ToLower(attr.Question) == want {
			return attr, true
		}
	}
	return CheckAttribute{}, false
}

// Len returns the number of attributes
func (s *Schema) Len() int {
	return len(s.attrs)
}
