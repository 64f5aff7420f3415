// Package audit implements the entry history repository using PostgreSQL.
// Records are append-only.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/dictionary-writing-system/internal/adapter/postgres"
	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

const (
	table        = "audit_records"
	defaultLimit = 50
	maxLimit     = 500
)

var columns = []string{"id", "entry_id", "editor", "action", "changes", "created_at"}

// builder produces PostgreSQL ($n) placeholders.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides audit log persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	tx   *postgres.TxManager
}

// New creates a new audit repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, tx: postgres.NewTxManager(pool)}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new audit record and returns the persisted record.
func (r *Repo) Create(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error) {
	query, err := insertQuery(record)
	if err != nil {
		return domain.AuditRecord{}, err
	}
	sql, args, err := query.Suffix("RETURNING " + strings.Join(columns, ", ")).ToSql()
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("audit_record build insert: %w", err)
	}

	rec, err := scanRecord(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, sql, args...))
	if err != nil {
		return domain.AuditRecord{}, postgres.MapError(err, "audit_record", record.ID.String())
	}
	return rec, nil
}

// Log creates an audit record without returning it.
func (r *Repo) Log(ctx context.Context, record domain.AuditRecord) error {
	_, err := r.Create(ctx, record)
	return err
}

// LogBatch inserts records in one transaction: either all of them are
// stored or none.
func (r *Repo) LogBatch(ctx context.Context, records []domain.AuditRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		query, err := insertQuery(rec)
		if err != nil {
			return err
		}
		sql, args, err := query.ToSql()
		if err != nil {
			return fmt.Errorf("audit_record build insert: %w", err)
		}
		batch.Queue(sql, args...)
	}

	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		br := postgres.QuerierFromCtx(ctx, r.pool).SendBatch(ctx, batch)
		for _, rec := range records {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return postgres.MapError(err, "audit_record", rec.ID.String())
			}
		}
		return br.Close()
	})
}

func insertQuery(record domain.AuditRecord) (sq.InsertBuilder, error) {
	var changes []byte
	if record.Changes != nil {
		var err error
		if changes, err = json.Marshal(record.Changes); err != nil {
			return sq.InsertBuilder{}, fmt.Errorf("audit_record marshal changes: %w", err)
		}
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	query := builder.Insert(table).Columns(columns...)
	if record.CreatedAt.IsZero() {
		query = query.Values(record.ID, record.EntryID, record.Editor, string(record.Action), changes, sq.Expr("now()"))
	} else {
		query = query.Values(record.ID, record.EntryID, record.Editor, string(record.Action), changes, record.CreatedAt)
	}
	return query, nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// ListByEntry returns the change history of one entry, newest first,
// limited to limit records.
func (r *Repo) ListByEntry(ctx context.Context, entryID string, limit int) ([]domain.AuditRecord, error) {
	return r.List(ctx, domain.AuditFilter{EntryID: entryID, Limit: limit})
}

// List returns audit records matching filter, newest first.
func (r *Repo) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error) {
	query := builder.Select(columns...).From(table)

	if filter.EntryID != "" {
		query = query.Where(sq.Eq{"entry_id": filter.EntryID})
	}
	if filter.Editor != "" {
		query = query.Where(sq.Eq{"editor": filter.Editor})
	}
	if filter.Action != nil {
		query = query.Where(sq.Eq{"action": string(*filter.Action)})
	}
	if filter.Since != nil {
		query = query.Where(sq.GtOrEq{"created_at": *filter.Since})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)
	query = query.OrderBy("created_at DESC", "id DESC").Limit(uint64(limit))
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("audit_records build select: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "audit_records", "list")
	}
	defer rows.Close()

	records := make([]domain.AuditRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "audit_records", "list")
	}
	return records, nil
}

// ---------------------------------------------------------------------------
// Mapping helpers
// ---------------------------------------------------------------------------

func scanRecord(row pgx.Row) (domain.AuditRecord, error) {
	var (
		rec     domain.AuditRecord
		action  string
		changes []byte
	)
	if err := row.Scan(&rec.ID, &rec.EntryID, &rec.Editor, &action, &changes, &rec.CreatedAt); err != nil {
		return domain.AuditRecord{}, err
	}
	rec.Action = domain.AuditAction(action)
	rec.CreatedAt = rec.CreatedAt.UTC()

	if len(changes) > 0 {
		if err := json.Unmarshal(changes, &rec.Changes); err != nil {
			return domain.AuditRecord{}, fmt.Errorf("audit_record %s unmarshal changes: %w", rec.ID, err)
		}
	}
	return rec, nil
}
