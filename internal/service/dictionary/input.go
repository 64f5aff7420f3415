package dictionary

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

// ---------------------------------------------------------------------------
// ListInput
// ---------------------------------------------------------------------------

// ListInput pages through all entries.
type ListInput struct {
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

func (i ListInput) Validate() error {
	var errs []domain.FieldError
	errs = validateSort(errs, i.SortBy, i.SortOrder)
	errs = validatePage(errs, i.Limit, i.Offset)
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ---------------------------------------------------------------------------
// SearchInput
// ---------------------------------------------------------------------------

// SearchInput is a substring search over the chosen fields.
type SearchInput struct {
	Query     string
	Fields    []string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

func (i SearchInput) Validate() error {
	var errs []domain.FieldError

	if len(i.Query) > 500 {
		errs = append(errs, domain.FieldError{Field: "query", Message: "too long (max 500)"})
	}
	for idx, f := range i.Fields {
		if !domain.IsValidSearchField(f) {
			errs = append(errs, domain.FieldError{
				Field:   fieldIndex("fields", idx),
				Message: fmt.Sprintf("unknown field %q", f),
			})
		}
	}
	errs = validateSort(errs, i.SortBy, i.SortOrder)
	errs = validatePage(errs, i.Limit, i.Offset)

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ---------------------------------------------------------------------------
// CreateInput
// ---------------------------------------------------------------------------

// CreateInput carries a new entry. A blank entry id is generated.
type CreateInput struct {
	Entry *domain.Entry
}

func (i CreateInput) Validate() error {
	if i.Entry == nil {
		return domain.NewValidationError("entry", "required")
	}
	return nil
}

// ---------------------------------------------------------------------------
// ImportInput
// ---------------------------------------------------------------------------

// ImportInput selects how a LIFT import treats existing entries.
// An empty Mode means skip.
type ImportInput struct {
	Mode domain.ImportMode
}

func (i ImportInput) Validate() error {
	if i.Mode != "" && !i.Mode.IsValid() {
		return domain.NewValidationError("mode", fmt.Sprintf("must be skip, merge or replace, got %q", i.Mode))
	}
	return nil
}

func (i ImportInput) mode() domain.ImportMode {
	if i.Mode == "" {
		return domain.ImportModeSkip
	}
	return i.Mode
}

// ---------------------------------------------------------------------------
// ConcordanceInput
// ---------------------------------------------------------------------------

// ConcordanceInput asks for keyword-in-context lines. When EntryID is set
// the headword of that entry is used instead of Headword.
type ConcordanceInput struct {
	Texts    []string
	Headword string
	EntryID  string
	Width    int
}

func (i ConcordanceInput) Validate() error {
	var errs []domain.FieldError
	if len(i.Texts) == 0 {
		errs = append(errs, domain.FieldError{Field: "texts", Message: "required"})
	}
	if len(i.Texts) > maxCorpusTexts {
		errs = append(errs, domain.FieldError{Field: "texts", Message: fmt.Sprintf("too many texts (max %d)", maxCorpusTexts)})
	}
	if strings.TrimSpace(i.Headword) == "" && strings.TrimSpace(i.EntryID) == "" {
		errs = append(errs, domain.FieldError{Field: "headword", Message: "headword or entry_id required"})
	}
	if i.Width < 0 || i.Width > maxConcordanceWidth {
		errs = append(errs, domain.FieldError{Field: "width", Message: fmt.Sprintf("must be between 0 and %d", maxConcordanceWidth)})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func validateSort(errs []domain.FieldError, sortBy, sortOrder string) []domain.FieldError {
	switch sortBy {
	case "", "headword", "date_modified":
	default:
		errs = append(errs, domain.FieldError{Field: "sort_by", Message: "must be headword or date_modified"})
	}
	switch strings.ToUpper(sortOrder) {
	case "", "ASC", "DESC":
	default:
		errs = append(errs, domain.FieldError{Field: "sort_order", Message: "must be ASC or DESC"})
	}
	return errs
}

func validatePage(errs []domain.FieldError, limit, offset int) []domain.FieldError {
	if limit < 0 {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must not be negative"})
	}
	if offset < 0 {
		errs = append(errs, domain.FieldError{Field: "offset", Message: "must not be negative"})
	}
	return errs
}

func fieldIndex(field string, idx int) string {
	return fmt.Sprintf("%s[%d]", field, idx)
}
