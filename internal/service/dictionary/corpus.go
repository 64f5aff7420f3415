package dictionary

import (
	"context"
	"fmt"

	"github.com/heartmarshall/dictionary-writing-system/internal/corpus"
	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

const (
	maxCorpusTexts          = 10000
	defaultConcordanceWidth = 40
	maxConcordanceWidth     = 200
)

// AnalyzeCorpus computes token statistics over a set of texts.
func (s *Service) AnalyzeCorpus(ctx context.Context, texts []string) (corpus.Summary, error) {
	if len(texts) == 0 {
		return corpus.Summary{}, domain.NewValidationError("texts", "required")
	}
	if len(texts) > maxCorpusTexts {
		return corpus.Summary{}, domain.NewValidationError("texts", fmt.Sprintf("too many texts (max %d)", maxCorpusTexts))
	}
	sum, err := s.corpus.Summarize(ctx, texts)
	if err != nil {
		return corpus.Summary{}, fmt.Errorf("analyze corpus: %w", err)
	}
	return sum, nil
}

// Concordance finds the headword in the texts and returns each occurrence
// with its context.
func (s *Service) Concordance(ctx context.Context, input ConcordanceInput) ([]corpus.Line, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	headword := input.Headword
	if input.EntryID != "" {
		e, err := s.entries.GetByID(ctx, input.EntryID)
		if err != nil {
			return nil, fmt.Errorf("concordance: %w", err)
		}
		headword = s.headword(e)
	}
	width := input.Width
	if width == 0 {
		width = defaultConcordanceWidth
	}

	lines, err := corpus.Concordance(ctx, input.Texts, headword, width)
	if err != nil {
		return nil, fmt.Errorf("concordance: %w", err)
	}
	if lines == nil {
		lines = []corpus.Line{}
	}
	return lines, nil
}
