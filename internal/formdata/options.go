package formdata

import "github.com/google/uuid"

// Sense fields a merge may carry forward from the stored sense.
const (
	FieldDefinition      = "definition"
	FieldGloss           = "gloss"
	FieldGrammaticalInfo = "grammatical_info"
	FieldExamples        = "examples"
	FieldNotes           = "notes"
	FieldSemanticDomains = "semantic_domains"
	FieldTraits          = "traits"
)

// DefaultCriticalFields are preserved when the form leaves them blank.
var DefaultCriticalFields = []string{
	FieldDefinition, FieldGloss, FieldGrammaticalInfo,
	FieldExamples, FieldNotes, FieldSemanticDomains,
}

// DefaultNoteType is the note type used when none is given.
const DefaultNoteType = "general"

// Options controls how form values are interpreted.
type Options struct {
	// AnalysisLang receives bare-string glosses, definitions, notes and translations.
	AnalysisLang string
	// VernacularLang receives bare-string lexical units and example texts.
	// Empty means AnalysisLang.
	VernacularLang string
	// CriticalFields lists the sense fields kept from the stored sense when
	// the incoming value is missing or blank. Nil means DefaultCriticalFields.
	CriticalFields []string
	// NewID generates ids for new entries and senses. Nil means uuid.NewString.
	NewID func() string
}

// DefaultOptions returns options with English analysis language.
func DefaultOptions() Options {
	return Options{AnalysisLang: "en"}
}

func (o Options) analysis() string {
	if o.AnalysisLang == "" {
		return "en"
	}
	return o.AnalysisLang
}

func (o Options) vernacular() string {
	if o.VernacularLang == "" {
		return o.analysis()
	}
	return o.VernacularLang
}

func (o Options) critical() []string {
	if o.CriticalFields == nil {
		return DefaultCriticalFields
	}
	return o.CriticalFields
}

func (o Options) newID() string {
	if o.NewID == nil {
		return uuid.NewString()
	}
	return o.NewID()
}
