package dictionary

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
	"github.com/heartmarshall/dictionary-writing-system/internal/formdata"
)

// CreateEntry stores a new entry. A blank id and blank sense ids are generated.
func (s *Service) CreateEntry(ctx context.Context, input CreateInput) (*domain.Entry, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	e := input.Entry.Clone()
	if strings.TrimSpace(e.ID) == "" {
		e.ID = uuid.NewString()
	}
	return s.create(ctx, e)
}

// CreateEntryFromForm builds a new entry from flat form values and stores it.
func (s *Service) CreateEntryFromForm(ctx context.Context, values url.Values) (*domain.Entry, error) {
	e, err := formdata.EntryFromForm(values, s.form)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, e)
}

func (s *Service) create(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	now := s.now()
	e.DateCreated = now
	e.DateModified = now
	normalizeEntry(e)

	if err := validateEntry(e); err != nil {
		return nil, err
	}
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}

	s.writeAudit(ctx, domain.AuditActionCreate, e.ID, map[string]any{
		"headword": s.headword(e),
		"senses":   len(e.Senses),
	})
	s.log.InfoContext(ctx, "entry created",
		slog.String("entry_id", e.ID),
		slog.String("headword", s.headword(e)),
	)
	return e, nil
}

// UpdateEntry replaces the stored entry with id. The creation date of the
// stored entry is kept.
func (s *Service) UpdateEntry(ctx context.Context, id string, entry *domain.Entry) (*domain.Entry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("id", "required")
	}
	if entry == nil {
		return nil, domain.NewValidationError("entry", "required")
	}
	if entry.ID != "" && entry.ID != id {
		return nil, domain.NewValidationError("id", fmt.Sprintf("body id %q does not match %q", entry.ID, id))
	}

	prev, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	next := entry.Clone()
	next.ID = id
	return s.update(ctx, prev, next)
}

// UpdateEntryFromForm merges flat form values into the stored entry. Senses
// absent from the form are removed; blank critical fields keep their stored
// values.
func (s *Service) UpdateEntryFromForm(ctx context.Context, id string, values url.Values) (*domain.Entry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("id", "required")
	}
	prev, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	next, err := formdata.MergeEntry(prev, values, s.form)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, prev, next)
}

func (s *Service) update(ctx context.Context, prev, next *domain.Entry) (*domain.Entry, error) {
	next.DateCreated = prev.DateCreated
	next.DateModified = s.now()
	normalizeEntry(next)

	if err := validateEntry(next); err != nil {
		return nil, err
	}
	if err := s.entries.Update(ctx, next); err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}

	changes := map[string]any{
		"headword": s.headword(next),
		"senses":   len(next.Senses),
	}
	if old := s.headword(prev); old != changes["headword"] {
		changes["old_headword"] = old
	}
	if len(prev.Senses) != len(next.Senses) {
		changes["old_senses"] = len(prev.Senses)
	}
	s.writeAudit(ctx, domain.AuditActionUpdate, next.ID, changes)
	return next, nil
}

// DeleteEntry removes an entry.
func (s *Service) DeleteEntry(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewValidationError("id", "required")
	}
	prev, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if err := s.entries.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	s.writeAudit(ctx, domain.AuditActionDelete, id, map[string]any{
		"headword": s.headword(prev),
	})
	s.log.InfoContext(ctx, "entry deleted", slog.String("entry_id", id))
	return nil
}

// normalizeEntry trims blank forms and fills in sense ids and order.
func normalizeEntry(e *domain.Entry) {
	e.ID = strings.TrimSpace(e.ID)
	if e.LexicalUnit != nil {
		e.LexicalUnit = e.LexicalUnit.Compact()
	}
	normalizeSenses(e.Senses)
}

func normalizeSenses(senses []domain.Sense) {
	for i := range senses {
		if strings.TrimSpace(senses[i].ID) == "" {
			senses[i].ID = uuid.NewString()
		}
		senses[i].Order = i
		normalizeSenses(senses[i].Subsenses)
	}
}
