package domain

import (
	"slices"
	"strings"
	"time"
)

// MultiText is a set of alternative forms of one text keyed by language code.
type MultiText map[string]string

// Get returns the form for lang, or "" if absent.
func (m MultiText) Get(lang string) string {
	return m[lang]
}

// IsEmpty reports whether every form is blank.
func (m MultiText) IsEmpty() bool {
	for _, v := range m {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Langs returns the language codes in sorted order.
func (m MultiText) Langs() []string {
	langs := make([]string, 0, len(m))
	for lang := range m {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}

// First returns the first non-blank form in language order.
func (m MultiText) First() string {
	for _, lang := range m.Langs() {
		if v := strings.TrimSpace(m[lang]); v != "" {
			return v
		}
	}
	return ""
}

// Clone returns an independent copy. A nil MultiText clones to nil.
func (m MultiText) Clone() MultiText {
	if m == nil {
		return nil
	}
	out := make(MultiText, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Compact drops blank forms and returns the receiver.
func (m MultiText) Compact() MultiText {
	for k, v := range m {
		if strings.TrimSpace(v) == "" {
			delete(m, k)
		}
	}
	return m
}

// Entry is a dictionary headword with its senses, mirroring a LIFT <entry>.
type Entry struct {
	ID              string               `json:"id" validate:"required,max=200"`
	GUID            string               `json:"guid,omitempty"`
	Order           int                  `json:"order,omitempty"`
	DateCreated     time.Time            `json:"date_created"`
	DateModified    time.Time            `json:"date_modified"`
	LexicalUnit     MultiText            `json:"lexical_unit" validate:"required,dive,keys,langcode,endkeys"`
	CitationForm    MultiText            `json:"citation_form,omitempty" validate:"dive,keys,langcode,endkeys"`
	MorphType       string               `json:"morph_type,omitempty"`
	GrammaticalInfo string               `json:"grammatical_info,omitempty"`
	Pronunciations  []Pronunciation      `json:"pronunciations,omitempty" validate:"dive"`
	Variants        []Variant            `json:"variants,omitempty" validate:"dive"`
	Senses          []Sense              `json:"senses,omitempty" validate:"dive"`
	Notes           map[string]MultiText `json:"notes,omitempty"`
	Relations       []Relation           `json:"relations,omitempty" validate:"dive"`
	Etymologies     []Etymology          `json:"etymologies,omitempty"`
	Traits          map[string]string    `json:"traits,omitempty"`
}

// Headword returns the display form of the entry: the form in preferredLang
// when present, otherwise the first non-blank lexical-unit form.
func (e *Entry) Headword(preferredLang string) string {
	if v := strings.TrimSpace(e.LexicalUnit.Get(preferredLang)); v != "" {
		return v
	}
	return e.LexicalUnit.First()
}

// SenseByID returns the top-level sense with the given id, or nil.
func (e *Entry) SenseByID(id string) *Sense {
	for i := range e.Senses {
		if e.Senses[i].ID == id {
			return &e.Senses[i]
		}
	}
	return nil
}

// CountExamples returns the number of examples across all senses, subsenses included.
func (e *Entry) CountExamples() int {
	n := 0
	var walk func(senses []Sense)
	walk = func(senses []Sense) {
		for _, s := range senses {
			n += len(s.Examples)
			walk(s.Subsenses)
		}
	}
	walk(e.Senses)
	return n
}

// Sense is one meaning of an entry.
type Sense struct {
	ID              string               `json:"id"`
	Order           int                  `json:"order,omitempty"`
	GrammaticalInfo string               `json:"grammatical_info,omitempty"`
	Gloss           MultiText            `json:"gloss,omitempty" validate:"dive,keys,langcode,endkeys"`
	Definition      MultiText            `json:"definition,omitempty" validate:"dive,keys,langcode,endkeys"`
	Examples        []Example            `json:"examples,omitempty" validate:"dive"`
	Notes           map[string]MultiText `json:"notes,omitempty"`
	Relations       []Relation           `json:"relations,omitempty" validate:"dive"`
	SemanticDomains []string             `json:"semantic_domains,omitempty"`
	Traits          map[string]string    `json:"traits,omitempty"`
	Subsenses       []Sense              `json:"subsenses,omitempty" validate:"dive"`
}

// Example is a usage example attached to a sense.
type Example struct {
	ID           string        `json:"id,omitempty"`
	Source       string        `json:"source,omitempty"`
	Form         MultiText     `json:"form" validate:"dive,keys,langcode,endkeys"`
	Translations []Translation `json:"translations,omitempty"`
	Note         MultiText     `json:"note,omitempty"`
}

// Translation is a translation of an example, optionally typed ("free", "literal").
type Translation struct {
	Type string    `json:"type,omitempty"`
	Form MultiText `json:"form"`
}

// Variant is an alternate form of the headword.
type Variant struct {
	Ref    string            `json:"ref,omitempty"`
	Form   MultiText         `json:"form,omitempty" validate:"dive,keys,langcode,endkeys"`
	Traits map[string]string `json:"traits,omitempty"`
}

// Pronunciation holds phonetic forms and optional media references.
type Pronunciation struct {
	Form  MultiText `json:"form,omitempty"`
	Media []string  `json:"media,omitempty"`
}

// Relation links an entry or sense to another entry or sense by id.
type Relation struct {
	Type  string `json:"type" validate:"required"`
	Ref   string `json:"ref" validate:"required"`
	Order int    `json:"order,omitempty"`
}

// Etymology describes the origin of an entry.
type Etymology struct {
	Type   string    `json:"type,omitempty"`
	Source string    `json:"source,omitempty"`
	Form   MultiText `json:"form,omitempty"`
	Gloss  MultiText `json:"gloss,omitempty"`
}

// Range is a LIFT range (a controlled vocabulary such as grammatical-info).
type Range struct {
	ID       string         `json:"id"`
	Href     string         `json:"href,omitempty"`
	Elements []RangeElement `json:"elements"`
}

// RangeElement is one value of a Range.
type RangeElement struct {
	ID          string    `json:"id"`
	Parent      string    `json:"parent,omitempty"`
	Label       MultiText `json:"label,omitempty"`
	Abbrev      MultiText `json:"abbrev,omitempty"`
	Description MultiText `json:"description,omitempty"`
}

// Statistics summarizes the dictionary contents.
type Statistics struct {
	Entries  int `json:"entries"`
	Senses   int `json:"senses"`
	Examples int `json:"examples"`
}
