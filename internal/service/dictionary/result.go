package dictionary

import "github.com/heartmarshall/dictionary-writing-system/internal/domain"

// ListResult is one page of entries.
type ListResult struct {
	Entries     []*domain.Entry `json:"entries"`
	TotalCount  int             `json:"total_count"`
	Limit       int             `json:"limit"`
	Offset      int             `json:"offset"`
	HasNextPage bool            `json:"has_next_page"`
}

// ImportResult contains the outcome of a LIFT import.
type ImportResult struct {
	Total    int           `json:"total"`
	Imported int           `json:"imported"`
	Updated  int           `json:"updated"`
	Skipped  int           `json:"skipped"`
	Stored   int           `json:"stored"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one entry that could not be imported.
type ImportError struct {
	Index   int    `json:"index"`
	EntryID string `json:"entry_id,omitempty"`
	Reason  string `json:"reason"`
}
