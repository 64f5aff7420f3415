package lift

import (
	"slices"
	"strings"
	"time"

	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

// Trait names with a dedicated field in the domain model.
const (
	traitMorphType      = "morph-type"
	traitSemanticDomain = "semantic-domain-ddp4"
)

// DefaultNoteType is used for notes without a type attribute.
const DefaultNoteType = "general"

// ---------------------------------------------------------------------------
// XML -> domain
// ---------------------------------------------------------------------------

func toDomainEntry(x *xmlEntry) *domain.Entry {
	e := &domain.Entry{
		ID:             x.ID,
		GUID:           x.GUID,
		Order:          x.Order,
		DateCreated:    parseDate(x.DateCreated),
		DateModified:   parseDate(x.DateModified),
		LexicalUnit:    multiText(x.LexicalUnit),
		CitationForm:   multiText(x.Citation),
		Pronunciations: toPronunciations(x.Pronunciations),
		Variants:       toVariants(x.Variants),
		Senses:         toSenses(x.Senses),
		Notes:          toNotes(x.Notes),
		Relations:      toRelations(x.Relations),
		Etymologies:    toEtymologies(x.Etymologies),
	}
	if x.GrammaticalInfo != nil {
		e.GrammaticalInfo = x.GrammaticalInfo.Value
	}
	for _, t := range x.Traits {
		if t.Name == traitMorphType {
			e.MorphType = t.Value
			continue
		}
		if e.Traits == nil {
			e.Traits = make(map[string]string)
		}
		e.Traits[t.Name] = t.Value
	}
	return e
}

func toSenses(xs []xmlSense) []domain.Sense {
	if len(xs) == 0 {
		return nil
	}
	out := make([]domain.Sense, 0, len(xs))
	for _, x := range xs {
		s := domain.Sense{
			ID:         x.ID,
			Order:      x.Order,
			Gloss:      forms(x.Glosses),
			Definition: multiText(x.Definition),
			Examples:   toExamples(x.Examples),
			Notes:      toNotes(x.Notes),
			Relations:  toRelations(x.Relations),
			Subsenses:  toSenses(x.Subsenses),
		}
		if x.GrammaticalInfo != nil {
			s.GrammaticalInfo = x.GrammaticalInfo.Value
		}
		for _, t := range x.Traits {
			if t.Name == traitSemanticDomain {
				s.SemanticDomains = append(s.SemanticDomains, t.Value)
				continue
			}
			if s.Traits == nil {
				s.Traits = make(map[string]string)
			}
			s.Traits[t.Name] = t.Value
		}
		out = append(out, s)
	}
	return out
}

func toExamples(xs []xmlExample) []domain.Example {
	if len(xs) == 0 {
		return nil
	}
	out := make([]domain.Example, 0, len(xs))
	for _, x := range xs {
		ex := domain.Example{
			ID:     x.ID,
			Source: x.Source,
			Form:   forms(x.Forms),
		}
		for _, tr := range x.Translations {
			ex.Translations = append(ex.Translations, domain.Translation{Type: tr.Type, Form: forms(tr.Forms)})
		}
		// An example carries at most one note; further notes are merged by language.
		for _, n := range x.Notes {
			for lang, text := range forms(n.Forms) {
				if ex.Note == nil {
					ex.Note = make(domain.MultiText)
				}
				ex.Note[lang] = text
			}
		}
		out = append(out, ex)
	}
	return out
}

func toVariants(xs []xmlVariant) []domain.Variant {
	if len(xs) == 0 {
		return nil
	}
	out := make([]domain.Variant, 0, len(xs))
	for _, x := range xs {
		v := domain.Variant{Ref: x.Ref, Form: forms(x.Forms)}
		for _, t := range x.Traits {
			if v.Traits == nil {
				v.Traits = make(map[string]string)
			}
			v.Traits[t.Name] = t.Value
		}
		out = append(out, v)
	}
	return out
}

func toPronunciations(xs []xmlPronunciation) []domain.Pronunciation {
	if len(xs) == 0 {
		return nil
	}
	out := make([]domain.Pronunciation, 0, len(xs))
	for _, x := range xs {
		p := domain.Pronunciation{Form: forms(x.Forms)}
		for _, m := range x.Media {
			p.Media = append(p.Media, m.Href)
		}
		out = append(out, p)
	}
	return out
}

func toNotes(xs []xmlNote) map[string]domain.MultiText {
	if len(xs) == 0 {
		return nil
	}
	out := make(map[string]domain.MultiText, len(xs))
	for _, n := range xs {
		typ := n.Type
		if typ == "" {
			typ = DefaultNoteType
		}
		mt := out[typ]
		if mt == nil {
			mt = make(domain.MultiText)
		}
		for lang, text := range forms(n.Forms) {
			mt[lang] = text
		}
		out[typ] = mt
	}
	return out
}

func toRelations(xs []xmlRelation) []domain.Relation {
	if len(xs) == 0 {
		return nil
	}
	out := make([]domain.Relation, 0, len(xs))
	for _, r := range xs {
		out = append(out, domain.Relation{Type: r.Type, Ref: r.Ref, Order: r.Order})
	}
	return out
}

func toEtymologies(xs []xmlEtymology) []domain.Etymology {
	if len(xs) == 0 {
		return nil
	}
	out := make([]domain.Etymology, 0, len(xs))
	for _, x := range xs {
		out = append(out, domain.Etymology{
			Type:   x.Type,
			Source: x.Source,
			Form:   forms(x.Forms),
			Gloss:  forms(x.Glosses),
		})
	}
	return out
}

func toRange(x xmlRange) domain.Range {
	r := domain.Range{ID: x.ID, Href: x.Href, Elements: make([]domain.RangeElement, 0, len(x.Elements))}
	for _, el := range x.Elements {
		r.Elements = append(r.Elements, domain.RangeElement{
			ID:          el.ID,
			Parent:      el.Parent,
			Label:       multiText(el.Label),
			Abbrev:      multiText(el.Abbrev),
			Description: multiText(el.Description),
		})
	}
	return r
}

func multiText(x *xmlMultiText) domain.MultiText {
	if x == nil {
		return nil
	}
	return forms(x.Forms)
}

func forms(xs []xmlForm) domain.MultiText {
	if len(xs) == 0 {
		return nil
	}
	out := make(domain.MultiText, len(xs))
	for _, f := range xs {
		out[f.Lang] = textValue(f.Text)
	}
	return out
}

// parseDate accepts the timestamp layouts found in LIFT files.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// ---------------------------------------------------------------------------
// domain -> XML
// ---------------------------------------------------------------------------

func fromDomainEntry(e *domain.Entry) *xmlEntry {
	x := &xmlEntry{
		ID:             e.ID,
		GUID:           e.GUID,
		Order:          e.Order,
		DateCreated:    formatDate(e.DateCreated),
		DateModified:   formatDate(e.DateModified),
		LexicalUnit:    xmlMulti(e.LexicalUnit),
		Citation:       xmlMulti(e.CitationForm),
		Pronunciations: fromPronunciations(e.Pronunciations),
		Variants:       fromVariants(e.Variants),
		Senses:         fromSenses(e.Senses),
		Notes:          fromNotes(e.Notes),
		Relations:      fromRelations(e.Relations),
		Etymologies:    fromEtymologies(e.Etymologies),
	}
	if e.GrammaticalInfo != "" {
		x.GrammaticalInfo = &xmlGrammaticalInfo{Value: e.GrammaticalInfo}
	}
	if e.MorphType != "" {
		x.Traits = append(x.Traits, xmlTrait{Name: traitMorphType, Value: e.MorphType})
	}
	x.Traits = append(x.Traits, fromTraits(e.Traits)...)
	return x
}

func fromSenses(ss []domain.Sense) []xmlSense {
	if len(ss) == 0 {
		return nil
	}
	out := make([]xmlSense, 0, len(ss))
	for _, s := range ss {
		x := xmlSense{
			ID:         s.ID,
			Order:      s.Order,
			Glosses:    xmlForms(s.Gloss),
			Definition: xmlMulti(s.Definition),
			Examples:   fromExamples(s.Examples),
			Notes:      fromNotes(s.Notes),
			Relations:  fromRelations(s.Relations),
			Subsenses:  fromSenses(s.Subsenses),
		}
		if s.GrammaticalInfo != "" {
			x.GrammaticalInfo = &xmlGrammaticalInfo{Value: s.GrammaticalInfo}
		}
		for _, d := range s.SemanticDomains {
			x.Traits = append(x.Traits, xmlTrait{Name: traitSemanticDomain, Value: d})
		}
		x.Traits = append(x.Traits, fromTraits(s.Traits)...)
		out = append(out, x)
	}
	return out
}

func fromExamples(es []domain.Example) []xmlExample {
	if len(es) == 0 {
		return nil
	}
	out := make([]xmlExample, 0, len(es))
	for _, e := range es {
		x := xmlExample{ID: e.ID, Source: e.Source, Forms: xmlForms(e.Form)}
		for _, tr := range e.Translations {
			x.Translations = append(x.Translations, xmlTranslation{Type: tr.Type, Forms: xmlForms(tr.Form)})
		}
		if !e.Note.IsEmpty() {
			x.Notes = []xmlNote{{Forms: xmlForms(e.Note)}}
		}
		out = append(out, x)
	}
	return out
}

func fromVariants(vs []domain.Variant) []xmlVariant {
	if len(vs) == 0 {
		return nil
	}
	out := make([]xmlVariant, 0, len(vs))
	for _, v := range vs {
		out = append(out, xmlVariant{Ref: v.Ref, Forms: xmlForms(v.Form), Traits: fromTraits(v.Traits)})
	}
	return out
}

func fromPronunciations(ps []domain.Pronunciation) []xmlPronunciation {
	if len(ps) == 0 {
		return nil
	}
	out := make([]xmlPronunciation, 0, len(ps))
	for _, p := range ps {
		x := xmlPronunciation{Forms: xmlForms(p.Form)}
		for _, href := range p.Media {
			x.Media = append(x.Media, xmlMedia{Href: href})
		}
		out = append(out, x)
	}
	return out
}

func fromNotes(notes map[string]domain.MultiText) []xmlNote {
	if len(notes) == 0 {
		return nil
	}
	types := make([]string, 0, len(notes))
	for typ := range notes {
		types = append(types, typ)
	}
	slices.Sort(types)
	out := make([]xmlNote, 0, len(types))
	for _, typ := range types {
		if notes[typ].IsEmpty() {
			continue
		}
		out = append(out, xmlNote{Type: typ, Forms: xmlForms(notes[typ])})
	}
	return out
}

func fromRelations(rs []domain.Relation) []xmlRelation {
	if len(rs) == 0 {
		return nil
	}
	out := make([]xmlRelation, 0, len(rs))
	for _, r := range rs {
		out = append(out, xmlRelation{Type: r.Type, Ref: r.Ref, Order: r.Order})
	}
	return out
}

func fromEtymologies(es []domain.Etymology) []xmlEtymology {
	if len(es) == 0 {
		return nil
	}
	out := make([]xmlEtymology, 0, len(es))
	for _, e := range es {
		out = append(out, xmlEtymology{
			Type:    e.Type,
			Source:  e.Source,
			Forms:   xmlForms(e.Form),
			Glosses: xmlForms(e.Gloss),
		})
	}
	return out
}

func fromTraits(traits map[string]string) []xmlTrait {
	if len(traits) == 0 {
		return nil
	}
	names := make([]string, 0, len(traits))
	for name := range traits {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]xmlTrait, 0, len(names))
	for _, name := range names {
		out = append(out, xmlTrait{Name: name, Value: traits[name]})
	}
	return out
}

func fromRange(r domain.Range) xmlRange {
	x := xmlRange{ID: r.ID, Href: r.Href}
	for _, el := range r.Elements {
		x.Elements = append(x.Elements, xmlRangeElement{
			ID:          el.ID,
			Parent:      el.Parent,
			Label:       xmlMulti(el.Label),
			Abbrev:      xmlMulti(el.Abbrev),
			Description: xmlMulti(el.Description),
		})
	}
	return x
}

func xmlMulti(m domain.MultiText) *xmlMultiText {
	if m.IsEmpty() {
		return nil
	}
	return &xmlMultiText{Forms: xmlForms(m)}
}

// xmlForms writes forms in language order so output is deterministic.
func xmlForms(m domain.MultiText) []xmlForm {
	if len(m) == 0 {
		return nil
	}
	out := make([]xmlForm, 0, len(m))
	for _, lang := range m.Langs() {
		if strings.TrimSpace(m[lang]) == "" {
			continue
		}
		out = append(out, xmlForm{Lang: lang, Text: newText(m[lang])})
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
