package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditRecord is one entry in the change history of a dictionary entry.
type AuditRecord struct {
	ID        uuid.UUID      `json:"id"`
	EntryID   string         `json:"entry_id"`
	Editor    string         `json:"editor,omitempty"`
	Action    AuditAction    `json:"action"`
	Changes   map[string]any `json:"changes,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditFilter narrows an audit listing.
type AuditFilter struct {
	EntryID string
	Editor  string
	Action  *AuditAction
	Since   *time.Time
	Limit   int
	Offset  int
}
