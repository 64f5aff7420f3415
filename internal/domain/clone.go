package domain

import "maps"

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	out := *e
	out.LexicalUnit = e.LexicalUnit.Clone()
	out.CitationForm = e.CitationForm.Clone()
	out.Pronunciations = clonePronunciations(e.Pronunciations)
	out.Variants = cloneVariants(e.Variants)
	out.Senses = CloneSenses(e.Senses)
	out.Notes = CloneNotes(e.Notes)
	out.Relations = cloneSlice(e.Relations)
	out.Etymologies = cloneEtymologies(e.Etymologies)
	out.Traits = maps.Clone(e.Traits)
	return &out
}

// CloneSenses deep-copies a sense list.
func CloneSenses(senses []Sense) []Sense {
	if senses == nil {
		return nil
	}
	out := make([]Sense, len(senses))
	for i, s := range senses {
		out[i] = s.Clone()
	}
	return out
}

// Clone returns a deep copy of the sense.
func (s Sense) Clone() Sense {
	out := s
	out.Gloss = s.Gloss.Clone()
	out.Definition = s.Definition.Clone()
	out.Examples = CloneExamples(s.Examples)
	out.Notes = CloneNotes(s.Notes)
	out.Relations = cloneSlice(s.Relations)
	out.SemanticDomains = cloneSlice(s.SemanticDomains)
	out.Traits = maps.Clone(s.Traits)
	out.Subsenses = CloneSenses(s.Subsenses)
	return out
}

// CloneExamples deep-copies an example list.
func CloneExamples(examples []Example) []Example {
	if examples == nil {
		return nil
	}
	out := make([]Example, len(examples))
	for i, ex := range examples {
		out[i] = ex
		out[i].Form = ex.Form.Clone()
		out[i].Note = ex.Note.Clone()
		if ex.Translations != nil {
			out[i].Translations = make([]Translation, len(ex.Translations))
			for j, tr := range ex.Translations {
				out[i].Translations[j] = Translation{Type: tr.Type, Form: tr.Form.Clone()}
			}
		}
	}
	return out
}

// CloneNotes deep-copies a typed note map.
func CloneNotes(notes map[string]MultiText) map[string]MultiText {
	if notes == nil {
		return nil
	}
	out := make(map[string]MultiText, len(notes))
	for k, v := range notes {
		out[k] = v.Clone()
	}
	return out
}

func clonePronunciations(ps []Pronunciation) []Pronunciation {
	if ps == nil {
		return nil
	}
	out := make([]Pronunciation, len(ps))
	for i, p := range ps {
		out[i] = Pronunciation{Form: p.Form.Clone(), Media: cloneSlice(p.Media)}
	}
	return out
}

func cloneVariants(vs []Variant) []Variant {
	if vs == nil {
		return nil
	}
	out := make([]Variant, len(vs))
	for i, v := range vs {
		out[i] = Variant{Ref: v.Ref, Form: v.Form.Clone(), Traits: maps.Clone(v.Traits)}
	}
	return out
}

func cloneEtymologies(es []Etymology) []Etymology {
	if es == nil {
		return nil
	}
	out := make([]Etymology, len(es))
	for i, e := range es {
		out[i] = Etymology{Type: e.Type, Source: e.Source, Form: e.Form.Clone(), Gloss: e.Gloss.Clone()}
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
