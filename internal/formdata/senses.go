package formdata

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

// SenseForm is one sense as submitted by the entry form.
type SenseForm struct {
	ID              string
	GrammaticalInfo string
	Gloss           domain.MultiText
	Definition      domain.MultiText
	Examples        []ExampleForm
	Notes           map[string]domain.MultiText
	SemanticDomains []string
	Traits          map[string]string
}

// ExampleForm is one example of a SenseForm.
type ExampleForm struct {
	ID              string
	Source          string
	Form            domain.MultiText
	Translation     domain.MultiText
	TranslationType string
	Note            domain.MultiText
}

func (e ExampleForm) isBlank() bool {
	return e.Form.IsEmpty() && e.Translation.IsEmpty()
}

// rawSense is the mapstructure target for one element of the senses subtree.
// Multilingual fields stay untyped until the language defaults are applied.
type rawSense struct {
	ID              string            `mapstructure:"id"`
	GrammaticalInfo string            `mapstructure:"grammatical_info"`
	Gloss           any               `mapstructure:"gloss"`
	Definition      any               `mapstructure:"definition"`
	Examples        []rawExample      `mapstructure:"examples"`
	Notes           any               `mapstructure:"notes"`
	SemanticDomains []string          `mapstructure:"semantic_domains"`
	Traits          map[string]string `mapstructure:"traits"`
}

type rawExample struct {
	ID              string `mapstructure:"id"`
	Source          string `mapstructure:"source"`
	Text            any    `mapstructure:"text"`
	Form            any    `mapstructure:"form"`
	Translation     any    `mapstructure:"translation"`
	TranslationType string `mapstructure:"translation_type"`
	Note            any    `mapstructure:"note"`
}

// ProcessSenses extracts the senses subtree of the form. Sense order follows
// the form indices. A sense id repeated within one form is a validation error.
func ProcessSenses(values url.Values, opts Options) ([]SenseForm, error) {
	return sensesFrom(Build(values)["senses"], opts)
}

func sensesFrom(v any, opts Options) ([]SenseForm, error) {
	items := recordList(v, "id", FieldGloss, FieldDefinition)
	out := make([]SenseForm, 0, len(items))
	seen := make(map[string]int, len(items))
	var errs []domain.FieldError

	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if ex, ok := m["examples"]; ok {
			m["examples"] = examplesList(ex)
		}

		var raw rawSense
		if err := decode(m, &raw); err != nil {
			errs = append(errs, domain.FieldError{
				Field:   fmt.Sprintf("senses[%d]", i),
				Message: err.Error(),
			})
			continue
		}

		sf := raw.toForm(opts)
		if sf.ID != "" {
			if prev, dup := seen[sf.ID]; dup {
				errs = append(errs, domain.FieldError{
					Field:   fmt.Sprintf("senses[%d].id", i),
					Message: fmt.Sprintf("duplicate sense id %q (also senses[%d])", sf.ID, prev),
				})
				continue
			}
			seen[sf.ID] = i
		}
		out = append(out, sf)
	}

	if len(errs) > 0 {
		return nil, domain.NewValidationErrors(errs)
	}
	return out, nil
}

// examplesList normalizes the examples subtree to a list of maps. A bare
// string example is treated as its text.
func examplesList(v any) []any {
	items := recordList(v, "text", "form", "translation")
	out := make([]any, 0, len(items))
	for _, item := range items {
		switch x := item.(type) {
		case map[string]any:
			out = append(out, x)
		case string:
			out = append(out, map[string]any{"text": x})
		}
	}
	return out
}

func decode(input any, result any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           result,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func (r rawSense) toForm(opts Options) SenseForm {
	sf := SenseForm{
		ID:              strings.TrimSpace(r.ID),
		GrammaticalInfo: strings.TrimSpace(r.GrammaticalInfo),
		Gloss:           multiTextFrom(r.Gloss, opts.analysis()),
		Definition:      multiTextFrom(r.Definition, opts.analysis()),
		Notes:           notesFrom(r.Notes, opts.analysis()),
	}
	for _, d := range r.SemanticDomains {
		if d = strings.TrimSpace(d); d != "" {
			sf.SemanticDomains = append(sf.SemanticDomains, d)
		}
	}
	for k, val := range r.Traits {
		if val = strings.TrimSpace(val); val != "" {
			if sf.Traits == nil {
				sf.Traits = make(map[string]string)
			}
			sf.Traits[k] = val
		}
	}
	for _, re := range r.Examples {
		ex := ExampleForm{
			ID:              strings.TrimSpace(re.ID),
			Source:          strings.TrimSpace(re.Source),
			Form:            multiTextFrom([]any{re.Form, re.Text}, opts.vernacular()),
			Translation:     multiTextFrom(re.Translation, opts.analysis()),
			TranslationType: strings.TrimSpace(re.TranslationType),
			Note:            multiTextFrom(re.Note, opts.analysis()),
		}
		if !ex.isBlank() {
			sf.Examples = append(sf.Examples, ex)
		}
	}
	return sf
}
