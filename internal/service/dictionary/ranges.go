package dictionary

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
	"github.com/heartmarshall/dictionary-writing-system/internal/lift"
)

// GetRanges returns every LIFT range.
func (s *Service) GetRanges(ctx context.Context) ([]domain.Range, error) {
	ranges, err := s.ranges.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("get ranges: %w", err)
	}
	if ranges == nil {
		ranges = []domain.Range{}
	}
	return ranges, nil
}

// GetRange returns one range by id.
func (s *Service) GetRange(ctx context.Context, id string) (domain.Range, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Range{}, domain.NewValidationError("id", "required")
	}
	r, err := s.ranges.Get(ctx, id)
	if err != nil {
		return domain.Range{}, fmt.Errorf("get range: %w", err)
	}
	return r, nil
}

// ImportRanges replaces the stored ranges with the ones in a .lift-ranges
// document and returns how many were stored.
func (s *Service) ImportRanges(ctx context.Context, r io.Reader) (int, error) {
	ranges, err := lift.DecodeRanges(r)
	if err != nil {
		return 0, domain.NewValidationError("file", err.Error())
	}

	seen := make(map[string]bool, len(ranges))
	for i, rng := range ranges {
		if strings.TrimSpace(rng.ID) == "" {
			return 0, domain.NewValidationError(fmt.Sprintf("ranges[%d].id", i), "required")
		}
		if seen[rng.ID] {
			return 0, domain.NewValidationError(fmt.Sprintf("ranges[%d].id", i), "duplicate range id")
		}
		seen[rng.ID] = true
	}

	if err := s.ranges.Replace(ctx, ranges); err != nil {
		return 0, fmt.Errorf("import ranges: %w", err)
	}
	s.log.InfoContext(ctx, "ranges imported", slog.Int("count", len(ranges)))
	return len(ranges), nil
}
