package domain

// Search fields accepted by EntryFilter.Fields.
const (
	SearchFieldHeadword   = "headword"
	SearchFieldGloss      = "gloss"
	SearchFieldDefinition = "definition"
	SearchFieldExample    = "example"
	SearchFieldNote       = "note"
)

// AllSearchFields lists every searchable field in canonical order.
var AllSearchFields = []string{
	SearchFieldHeadword, SearchFieldGloss, SearchFieldDefinition,
	SearchFieldExample, SearchFieldNote,
}

// IsValidSearchField reports whether f is a known search field.
func IsValidSearchField(f string) bool {
	for _, known := range AllSearchFields {
		if f == known {
			return true
		}
	}
	return false
}

// EntryFilter contains filtering/pagination parameters for entry listings and searches.
type EntryFilter struct {
	// Query is matched case-insensitively as a substring. Empty matches everything.
	Query string
	// Fields restricts which parts of an entry Query is matched against.
	// Empty means headword only.
	Fields []string
	// SortBy is "headword" or "date_modified". Default "headword".
	SortBy string
	// SortOrder is "ASC" or "DESC". Default "ASC".
	SortOrder string
	Limit     int
	Offset    int
}
