package formdata

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

// MergeSenses builds the sense list of an updated entry.
//
// The incoming list decides which senses exist and in what order. A sense
// whose id matches a stored sense starts from the stored sense, so fields the
// form never edits (relations, subsenses) survive. For each critical field
// the stored value is kept when the incoming one is missing or blank; other
// fields take the incoming value even when blank. Senses without an id get a
// new one.
func MergeSenses(existing []domain.Sense, incoming []SenseForm, opts Options) []domain.Sense {
	byID := make(map[string]*domain.Sense, len(existing))
	for i := range existing {
		byID[existing[i].ID] = &existing[i]
	}
	critical := opts.critical()

	out := make([]domain.Sense, 0, len(incoming))
	for i, in := range incoming {
		var s domain.Sense
		prev := byID[in.ID]
		if prev != nil && in.ID != "" {
			s = prev.Clone()
		} else {
			prev = nil
			s.ID = in.ID
			if s.ID == "" {
				s.ID = opts.newID()
			}
		}
		s.Order = i

		s.GrammaticalInfo = in.GrammaticalInfo
		s.Gloss = in.Gloss
		s.Definition = in.Definition
		s.Notes = in.Notes
		s.SemanticDomains = in.SemanticDomains
		s.Examples = mergeExamples(prevExamples(prev), in.Examples)
		if in.Traits != nil || prev == nil {
			s.Traits = in.Traits
		}

		if prev != nil {
			preserve(&s, prev, in, critical)
		}
		out = append(out, s)
	}
	return out
}

func prevExamples(prev *domain.Sense) []domain.Example {
	if prev == nil {
		return nil
	}
	return prev.Examples
}

// preserve copies critical fields from prev into s where the form left them blank.
func preserve(s *domain.Sense, prev *domain.Sense, in SenseForm, critical []string) {
	for _, field := range critical {
		switch field {
		case FieldDefinition:
			if in.Definition.IsEmpty() {
				s.Definition = prev.Definition.Clone()
			}
		case FieldGloss:
			if in.Gloss.IsEmpty() {
				s.Gloss = prev.Gloss.Clone()
			}
		case FieldGrammaticalInfo:
			if in.GrammaticalInfo == "" {
				s.GrammaticalInfo = prev.GrammaticalInfo
			}
		case FieldExamples:
			if len(in.Examples) == 0 {
				s.Examples = domain.CloneExamples(prev.Examples)
			}
		case FieldNotes:
			if len(in.Notes) == 0 {
				s.Notes = domain.CloneNotes(prev.Notes)
			}
		case FieldSemanticDomains:
			if len(in.SemanticDomains) == 0 {
				s.SemanticDomains = slices.Clone(prev.SemanticDomains)
			}
		case FieldTraits:
			if len(in.Traits) == 0 {
				s.Traits = prev.Traits
			}
		}
	}
}

// mergeExamples converts form examples, keeping source and note of a stored
// example with the same id when the form leaves them blank.
func mergeExamples(prev []domain.Example, incoming []ExampleForm) []domain.Example {
	if len(incoming) == 0 {
		return nil
	}
	byID := make(map[string]domain.Example, len(prev))
	for _, ex := range prev {
		if ex.ID != "" {
			byID[ex.ID] = ex
		}
	}
	out := make([]domain.Example, 0, len(incoming))
	for _, in := range incoming {
		ex := domain.Example{ID: in.ID, Source: in.Source, Form: in.Form, Note: in.Note}
		if !in.Translation.IsEmpty() {
			ex.Translations = []domain.Translation{{Type: in.TranslationType, Form: in.Translation}}
		}
		if old, ok := byID[in.ID]; ok {
			if ex.Source == "" {
				ex.Source = old.Source
			}
			if ex.Note.IsEmpty() {
				ex.Note = old.Note.Clone()
			}
			if len(old.Translations) > 1 && len(ex.Translations) == 1 {
				// Only the first translation is editable; keep the rest.
				for _, tr := range old.Translations[1:] {
					ex.Translations = append(ex.Translations, domain.Translation{Type: tr.Type, Form: tr.Form.Clone()})
				}
			}
		}
		out = append(out, ex)
	}
	return out
}

// MergeEntry applies form values to a copy of existing. Top-level fields
// are replaced only when the form carries them; senses are merged with
// MergeSenses only when any senses key is present. The id is never changed.
func MergeEntry(existing *domain.Entry, values url.Values, opts Options) (*domain.Entry, error) {
	return mergeTree(existing.Clone(), Build(values), opts)
}

// EntryFromForm builds a new entry from form values alone. The id comes from
// the id field, or is generated.
func EntryFromForm(values url.Values, opts Options) (*domain.Entry, error) {
	tree := Build(values)
	id := tree.String("id")
	if id == "" {
		id = opts.newID()
	}
	return mergeTree(&domain.Entry{ID: id}, tree, opts)
}

func mergeTree(e *domain.Entry, tree Tree, opts Options) (*domain.Entry, error) {
	if tree.Has("lexical_unit") {
		e.LexicalUnit = multiTextFrom(tree["lexical_unit"], opts.vernacular())
	}
	if tree.Has("citation_form") {
		e.CitationForm = multiTextFrom(tree["citation_form"], opts.vernacular())
	}
	if tree.Has("grammatical_info") {
		e.GrammaticalInfo = tree.String("grammatical_info")
	}
	if tree.Has("morph_type") {
		e.MorphType = tree.String("morph_type")
	}
	if tree.Has("notes") {
		e.Notes = notesFrom(tree["notes"], opts.analysis())
	}
	if tree.Has("variants") {
		e.Variants = variantsFrom(tree["variants"], opts)
	}
	if tree.Has("pronunciations") {
		e.Pronunciations = pronunciationsFrom(tree["pronunciations"], opts)
	}
	if tree.Has("relations") {
		rels, err := relationsFrom(tree["relations"])
		if err != nil {
			return nil, err
		}
		e.Relations = rels
	}
	if tree.Has("senses") {
		forms, err := sensesFrom(tree["senses"], opts)
		if err != nil {
			return nil, err
		}
		e.Senses = MergeSenses(e.Senses, forms, opts)
	}
	return e, nil
}

func variantsFrom(v any, opts Options) []domain.Variant {
	var out []domain.Variant
	for _, item := range recordList(v, "ref", "form") {
		m, ok := item.(map[string]any)
		if !ok {
			if mt := multiTextFrom(item, opts.vernacular()); mt != nil {
				out = append(out, domain.Variant{Form: mt})
			}
			continue
		}
		var raw struct {
			Ref    string            `mapstructure:"ref"`
			Form   any               `mapstructure:"form"`
			Traits map[string]string `mapstructure:"traits"`
		}
		if err := decode(m, &raw); err != nil {
			continue
		}
		variant := domain.Variant{
			Ref:    strings.TrimSpace(raw.Ref),
			Form:   multiTextFrom(raw.Form, opts.vernacular()),
			Traits: raw.Traits,
		}
		if variant.Form.IsEmpty() && variant.Ref == "" {
			continue
		}
		out = append(out, variant)
	}
	return out
}

func pronunciationsFrom(v any, opts Options) []domain.Pronunciation {
	var out []domain.Pronunciation
	for _, item := range recordList(v, "form", "media") {
		m, ok := item.(map[string]any)
		if !ok {
			if mt := multiTextFrom(item, opts.vernacular()); mt != nil {
				out = append(out, domain.Pronunciation{Form: mt})
			}
			continue
		}
		var raw struct {
			Form  any      `mapstructure:"form"`
			Media []string `mapstructure:"media"`
		}
		if err := decode(m, &raw); err != nil {
			continue
		}
		p := domain.Pronunciation{Form: multiTextFrom(raw.Form, opts.vernacular())}
		for _, href := range raw.Media {
			if href = strings.TrimSpace(href); href != "" {
				p.Media = append(p.Media, href)
			}
		}
		if p.Form.IsEmpty() && len(p.Media) == 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}

func relationsFrom(v any) ([]domain.Relation, error) {
	var out []domain.Relation
	var errs []domain.FieldError
	for i, item := range recordList(v, "type", "ref") {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var raw struct {
			Type  string `mapstructure:"type"`
			Ref   string `mapstructure:"ref"`
			Order string `mapstructure:"order"`
		}
		if err := decode(m, &raw); err != nil {
			errs = append(errs, domain.FieldError{Field: fmt.Sprintf("relations[%d]", i), Message: err.Error()})
			continue
		}
		rel := domain.Relation{Type: strings.TrimSpace(raw.Type), Ref: strings.TrimSpace(raw.Ref)}
		if rel.Ref == "" {
			continue
		}
		if raw.Order != "" {
			n, err := strconv.Atoi(strings.TrimSpace(raw.Order))
			if err != nil {
				errs = append(errs, domain.FieldError{Field: fmt.Sprintf("relations[%d].order", i), Message: "must be an integer"})
				continue
			}
			rel.Order = n
		}
		out = append(out, rel)
	}
	if len(errs) > 0 {
		return nil, domain.NewValidationErrors(errs)
	}
	return out, nil
}
