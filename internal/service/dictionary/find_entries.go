package dictionary

import (
	"context"
	"fmt"
	"strings"

	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

// GetEntry returns a single entry by id.
func (s *Service) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("id", "required")
	}
	e, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// ListEntries returns one page of all entries.
func (s *Service) ListEntries(ctx context.Context, input ListInput) (*ListResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	filter := s.filter(input.SortBy, input.SortOrder, input.Limit, input.Offset)

	entries, total, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return newListResult(entries, total, filter), nil
}

// SearchEntries returns one page of entries matching the query. Pages of the
// same query are disjoint and their union is the full match set.
func (s *Service) SearchEntries(ctx context.Context, input SearchInput) (*ListResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	filter := s.filter(input.SortBy, input.SortOrder, input.Limit, input.Offset)
	filter.Query = strings.TrimSpace(input.Query)
	filter.Fields = input.Fields

	entries, total, err := s.entries.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	return newListResult(entries, total, filter), nil
}

// CountEntries returns the number of entries in the dictionary.
func (s *Service) CountEntries(ctx context.Context) (int, error) {
	n, err := s.entries.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Statistics summarizes the dictionary.
func (s *Service) Statistics(ctx context.Context) (domain.Statistics, error) {
	st, err := s.entries.Statistics(ctx)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("statistics: %w", err)
	}
	return st, nil
}

// Headwords returns the display headword of each existing entry in ids.
// Missing ids are absent from the result.
func (s *Service) Headwords(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	forms, err := s.entries.Headwords(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("headwords: %w", err)
	}
	for id, mt := range forms {
		e := domain.Entry{LexicalUnit: mt}
		out[id] = s.headword(&e)
	}
	return out, nil
}

func (s *Service) filter(sortBy, sortOrder string, limit, offset int) domain.EntryFilter {
	if sortBy == "" {
		sortBy = "headword"
	}
	order := strings.ToUpper(sortOrder)
	if order == "" {
		order = "ASC"
	}
	return domain.EntryFilter{
		SortBy:    sortBy,
		SortOrder: order,
		Limit:     clampLimit(limit, 1, s.cfg.MaxPageSize, s.cfg.DefaultPageSize),
		Offset:    offset,
	}
}

func newListResult(entries []*domain.Entry, total int, f domain.EntryFilter) *ListResult {
	if entries == nil {
		entries = []*domain.Entry{}
	}
	return &ListResult{
		Entries:     entries,
		TotalCount:  total,
		Limit:       f.Limit,
		Offset:      f.Offset,
		HasNextPage: f.Offset+len(entries) < total,
	}
}
