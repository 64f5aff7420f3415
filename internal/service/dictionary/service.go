package dictionary

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/dictionary-writing-system/internal/config"
	"github.com/heartmarshall/dictionary-writing-system/internal/corpus"
	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
	"github.com/heartmarshall/dictionary-writing-system/internal/formdata"
	"github.com/heartmarshall/dictionary-writing-system/internal/lift"
	"github.com/heartmarshall/dictionary-writing-system/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type entryRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	Headwords(ctx context.Context, ids []string) (map[string]domain.MultiText, error)
	List(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, int, error)
	Search(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, int, error)
	Count(ctx context.Context) (int, error)
	Statistics(ctx context.Context) (domain.Statistics, error)
	Create(ctx context.Context, e *domain.Entry) error
	Update(ctx context.Context, e *domain.Entry) error
	Delete(ctx context.Context, id string) error
	BulkCreate(ctx context.Context, entries []*domain.Entry) error
	BulkUpsert(ctx context.Context, entries []*domain.Entry) error
	Clear(ctx context.Context) error
}

type rangeRepo interface {
	List(ctx context.Context) ([]domain.Range, error)
	Get(ctx context.Context, id string) (domain.Range, error)
	Replace(ctx context.Context, ranges []domain.Range) error
}

type auditLog interface {
	Log(ctx context.Context, record domain.AuditRecord) error
	LogBatch(ctx context.Context, records []domain.AuditRecord) error
	ListByEntry(ctx context.Context, entryID string, limit int) ([]domain.AuditRecord, error)
}

type corpusProcessor interface {
	Summarize(ctx context.Context, texts []string) (corpus.Summary, error)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the dictionary business logic.
type Service struct {
	log     *slog.Logger
	entries entryRepo
	ranges  rangeRepo
	audit   auditLog
	corpus  corpusProcessor
	cfg     config.DictionaryConfig
	form    formdata.Options
	now     func() time.Time
}

// NewService creates a new Dictionary service. A nil audit disables the
// entry history.
func NewService(
	logger *slog.Logger,
	entries entryRepo,
	ranges rangeRepo,
	audit auditLog,
	corpus corpusProcessor,
	cfg config.DictionaryConfig,
) *Service {
	if audit == nil {
		audit = noopAudit{}
	}
	return &Service{
		log:     logger.With("service", "dictionary"),
		entries: entries,
		ranges:  ranges,
		audit:   audit,
		corpus:  corpus,
		cfg:     cfg,
		form: formdata.Options{
			AnalysisLang:   cfg.AnalysisLang,
			VernacularLang: cfg.VernacularLang,
			CriticalFields: cfg.CriticalFields,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// noopAudit is used when no audit store is configured.
type noopAudit struct{}

func (noopAudit) Log(context.Context, domain.AuditRecord) error        { return nil }
func (noopAudit) LogBatch(context.Context, []domain.AuditRecord) error { return nil }
func (noopAudit) ListByEntry(context.Context, string, int) ([]domain.AuditRecord, error) {
	return []domain.AuditRecord{}, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// clampLimit ensures a limit is within [min, max], defaulting from 0 to defaultVal.
func clampLimit(limit, min, max, defaultVal int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}

// auditRecord builds a record attributed to the editor in ctx.
func (s *Service) auditRecord(ctx context.Context, action domain.AuditAction, entryID string, changes map[string]any) domain.AuditRecord {
	editor, _ := ctxutil.EditorFromCtx(ctx)
	return domain.AuditRecord{
		ID:        uuid.New(),
		EntryID:   entryID,
		Editor:    editor,
		Action:    action,
		Changes:   changes,
		CreatedAt: s.now(),
	}
}

// writeAudit stores one audit record. Failures are logged, not returned:
// the entry change has already been committed.
func (s *Service) writeAudit(ctx context.Context, action domain.AuditAction, entryID string, changes map[string]any) {
	if err := s.audit.Log(ctx, s.auditRecord(ctx, action, entryID, changes)); err != nil {
		s.log.ErrorContext(ctx, "audit write failed",
			slog.String("entry_id", entryID),
			slog.String("action", action.String()),
			slog.String("error", err.Error()),
		)
	}
}

// headword returns the display headword of e without span markup.
func (s *Service) headword(e *domain.Entry) string {
	return lift.PlainText(e.Headword(s.cfg.VernacularLang))
}
