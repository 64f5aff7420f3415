package dictionary

import (
	"context"
	"fmt"
	"strings"

	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

// EntryHistory returns the most recent audit records of an entry, newest
// first. The entry need not exist any more.
func (s *Service) EntryHistory(ctx context.Context, entryID string, limit int) ([]domain.AuditRecord, error) {
	if strings.TrimSpace(entryID) == "" {
		return nil, domain.NewValidationError("entry_id", "required")
	}
	maxLimit := s.cfg.HistoryLimit
	if maxLimit <= 0 {
		maxLimit = 50
	}
	limit = clampLimit(limit, 1, maxLimit, maxLimit)

	records, err := s.audit.ListByEntry(ctx, entryID, limit)
	if err != nil {
		return nil, fmt.Errorf("entry history: %w", err)
	}
	if records == nil {
		records = []domain.AuditRecord{}
	}
	return records, nil
}
