package dictionary

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/heartmarshall/dictionary-writing-system/internal/config"
	"github.com/heartmarshall/dictionary-writing-system/internal/corpus"
	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockEntryRepo struct {
	GetByIDFunc     func(ctx context.Context, id string) (*domain.Entry, error)
	ExistingIDsFunc func(ctx context.Context, ids []string) (map[string]bool, error)
	HeadwordsFunc   func(ctx context.Context, ids []string) (map[string]domain.MultiText, error)
	ListFunc        func(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, int, error)
	SearchFunc      func(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, int, error)
	CountFunc       func(ctx context.Context) (int, error)
	StatisticsFunc  func(ctx context.Context) (domain.Statistics, error)
	CreateFunc      func(ctx context.Context, e *domain.Entry) error
	UpdateFunc      func(ctx context.Context, e *domain.Entry) error
	DeleteFunc      func(ctx context.Context, id string) error
	BulkCreateFunc  func(ctx context.Context, entries []*domain.Entry) error
	BulkUpsertFunc  func(ctx context.Context, entries []*domain.Entry) error
	ClearFunc       func(ctx context.Context) error
}

func (m *mockEntryRepo) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockEntryRepo) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	if m.ExistingIDsFunc != nil {
		return m.ExistingIDsFunc(ctx, ids)
	}
	return map[string]bool{}, nil
}

func (m *mockEntryRepo) Headwords(ctx context.Context, ids []string) (map[string]domain.MultiText, error) {
	if m.HeadwordsFunc != nil {
		return m.HeadwordsFunc(ctx, ids)
	}
	return map[string]domain.MultiText{}, nil
}

func (m *mockEntryRepo) List(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockEntryRepo) Search(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, int, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockEntryRepo) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *mockEntryRepo) Statistics(ctx context.Context) (domain.Statistics, error) {
	if m.StatisticsFunc != nil {
		return m.StatisticsFunc(ctx)
	}
	return domain.Statistics{}, nil
}

func (m *mockEntryRepo) Create(ctx context.Context, e *domain.Entry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, e)
	}
	return nil
}

func (m *mockEntryRepo) Update(ctx context.Context, e *domain.Entry) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, e)
	}
	return nil
}

func (m *mockEntryRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockEntryRepo) BulkCreate(ctx context.Context, entries []*domain.Entry) error {
	if m.BulkCreateFunc != nil {
		return m.BulkCreateFunc(ctx, entries)
	}
	return nil
}

func (m *mockEntryRepo) BulkUpsert(ctx context.Context, entries []*domain.Entry) error {
	if m.BulkUpsertFunc != nil {
		return m.BulkUpsertFunc(ctx, entries)
	}
	return nil
}

func (m *mockEntryRepo) Clear(ctx context.Context) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	return nil
}

type mockRangeRepo struct {
	ListFunc    func(ctx context.Context) ([]domain.Range, error)
	GetFunc     func(ctx context.Context, id string) (domain.Range, error)
	ReplaceFunc func(ctx context.Context, ranges []domain.Range) error
}

func (m *mockRangeRepo) List(ctx context.Context) ([]domain.Range, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockRangeRepo) Get(ctx context.Context, id string) (domain.Range, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return domain.Range{}, domain.ErrNotFound
}

func (m *mockRangeRepo) Replace(ctx context.Context, ranges []domain.Range) error {
	if m.ReplaceFunc != nil {
		return m.ReplaceFunc(ctx, ranges)
	}
	return nil
}

type mockAuditLog struct {
	mu      sync.Mutex
	records []domain.AuditRecord

	LogFunc         func(ctx context.Context, record domain.AuditRecord) error
	LogBatchFunc    func(ctx context.Context, records []domain.AuditRecord) error
	ListByEntryFunc func(ctx context.Context, entryID string, limit int) ([]domain.AuditRecord, error)
}

func (m *mockAuditLog) Log(ctx context.Context, record domain.AuditRecord) error {
	if m.LogFunc != nil {
		return m.LogFunc(ctx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *mockAuditLog) LogBatch(ctx context.Context, records []domain.AuditRecord) error {
	if m.LogBatchFunc != nil {
		return m.LogBatchFunc(ctx, records)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

func (m *mockAuditLog) ListByEntry(ctx context.Context, entryID string, limit int) ([]domain.AuditRecord, error) {
	if m.ListByEntryFunc != nil {
		return m.ListByEntryFunc(ctx, entryID, limit)
	}
	return nil, nil
}

func (m *mockAuditLog) recorded() []domain.AuditRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditRecord(nil), m.records...)
}

type mockCorpus struct {
	SummarizeFunc func(ctx context.Context, texts []string) (corpus.Summary, error)
}

func (m *mockCorpus) Summarize(ctx context.Context, texts []string) (corpus.Summary, error) {
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, texts)
	}
	return corpus.Summary{}, nil
}

// ===========================================================================
// Helpers
// ===========================================================================

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func testConfig() config.DictionaryConfig {
	return config.DictionaryConfig{
		DefaultPageSize: 20,
		MaxPageSize:     200,
		ImportChunkSize: 2,
		AnalysisLang:    "en",
		VernacularLang:  "seh",
		HistoryLimit:    50,
	}
}

func newTestService(entries *mockEntryRepo, audit *mockAuditLog) *Service {
	if entries == nil {
		entries = &mockEntryRepo{}
	}
	if audit == nil {
		audit = &mockAuditLog{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(logger, entries, &mockRangeRepo{}, audit, &mockCorpus{}, testConfig())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func testEntry(id, headword, gloss string) *domain.Entry {
	return &domain.Entry{
		ID:          id,
		LexicalUnit: domain.MultiText{"seh": headword},
		Senses: []domain.Sense{
			{ID: id + "-s1", Gloss: domain.MultiText{"en": gloss}},
		},
	}
}
