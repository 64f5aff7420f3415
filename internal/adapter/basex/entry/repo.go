// Package entry implements the dictionary entry repository on BaseX.
// Entries live as <entry> children of the <lift> document of the
// configured database.
package entry

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/heartmarshall/dictionary-writing-system/internal/adapter/basex"
	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
	"github.com/heartmarshall/dictionary-writing-system/internal/lift"
)

// querier is the part of basex.Connector the repository uses.
type querier interface {
	Database() string
	ExecuteQuery(ctx context.Context, query string, vars map[string]string) (string, error)
	ExecuteUpdate(ctx context.Context, query string, vars map[string]string) error
}

// Repo provides entry persistence backed by BaseX.
type Repo struct {
	db querier
}

// New creates a new entry repository.
func New(db querier) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns the entry with the given id.
func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	out, err := r.db.ExecuteQuery(ctx, getQuery(r.db.Database()), map[string]string{"id": id})
	if err != nil {
		return nil, basex.MapError(err, "entry", id)
	}
	if strings.TrimSpace(out) == "" {
		return nil, fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
	}
	e, err := lift.UnmarshalEntry([]byte(out))
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", id, err)
	}
	return e, nil
}

// ExistingIDs returns the subset of ids that are stored.
func (r *Repo) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	out, err := r.db.ExecuteQuery(ctx, existingIDsQuery(r.db.Database()), map[string]string{"ids": joinIDs(ids)})
	if err != nil {
		return nil, basex.MapError(err, "entries", fmt.Sprintf("(%d ids)", len(ids)))
	}
	for _, id := range strings.Split(out, "\n") {
		if id = strings.TrimSpace(id); id != "" {
			found[id] = true
		}
	}
	return found, nil
}

type headwordsResult struct {
	Items []struct {
		ID    string `xml:"id,attr"`
		Forms []struct {
			Lang string `xml:"lang,attr"`
			Text string `xml:"text"`
		} `xml:"form"`
	} `xml:"hw"`
}

// Headwords returns the lexical-unit forms of the stored entries among ids
// as plain text, without span markup.
func (r *Repo) Headwords(ctx context.Context, ids []string) (map[string]domain.MultiText, error) {
	result := make(map[string]domain.MultiText, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	out, err := r.db.ExecuteQuery(ctx, headwordsQuery(r.db.Database()), map[string]string{"ids": joinIDs(ids)})
	if err != nil {
		return nil, basex.MapError(err, "headwords", fmt.Sprintf("(%d ids)", len(ids)))
	}
	var hw headwordsResult
	if err := xml.Unmarshal([]byte(out), &hw); err != nil {
		return nil, fmt.Errorf("headwords: decode: %w", err)
	}
	for _, item := range hw.Items {
		mt := make(domain.MultiText, len(item.Forms))
		for _, f := range item.Forms {
			mt[f.Lang] = strings.TrimSpace(f.Text)
		}
		result[item.ID] = mt
	}
	return result, nil
}

type pageResult struct {
	Total int    `xml:"total,attr"`
	Inner []byte `xml:",innerxml"`
}

// List returns one page of entries in filter order and the total count.
// The query is ignored; use Search to filter.
func (r *Repo) List(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, int, error) {
	filter.Query = ""
	return r.page(ctx, filter)
}

// Search returns one page of entries whose filter fields contain the query
// (case-insensitive) and the total number of matches.
func (r *Repo) Search(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, int, error) {
	return r.page(ctx, filter)
}

func (r *Repo) page(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, int, error) {
	vars := map[string]string{
		"q":      filter.Query,
		"offset": strconv.Itoa(max(filter.Offset, 0)),
		"limit":  strconv.Itoa(max(filter.Limit, 0)),
	}
	out, err := r.db.ExecuteQuery(ctx, pageQuery(r.db.Database(), filter), vars)
	if err != nil {
		return nil, 0, basex.MapError(err, "entries", "search")
	}
	var page pageResult
	if err := xml.Unmarshal([]byte(out), &page); err != nil {
		return nil, 0, fmt.Errorf("entries search: decode: %w", err)
	}
	entries, err := lift.UnmarshalEntries(page.Inner)
	if err != nil {
		return nil, 0, fmt.Errorf("entries search: %w", err)
	}
	return entries, page.Total, nil
}

// Count returns the number of stored entries.
func (r *Repo) Count(ctx context.Context) (int, error) {
	return r.count(ctx, countQuery(r.db.Database()), "count")
}

func (r *Repo) count(ctx context.Context, query, op string) (int, error) {
	out, err := r.db.ExecuteQuery(ctx, query, nil)
	if err != nil {
		return 0, basex.MapError(err, "entries", op)
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("entries %s: parse %q: %w", op, out, err)
	}
	return n, nil
}

// Statistics returns entry, sense and example counts in one round trip.
func (r *Repo) Statistics(ctx context.Context) (domain.Statistics, error) {
	out, err := r.db.ExecuteQuery(ctx, statisticsQuery(r.db.Database()), nil)
	if err != nil {
		return domain.Statistics{}, basex.MapError(err, "entries", "statistics")
	}
	var s struct {
		Entries  int `xml:"entries,attr"`
		Senses   int `xml:"senses,attr"`
		Examples int `xml:"examples,attr"`
	}
	if err := xml.Unmarshal([]byte(out), &s); err != nil {
		return domain.Statistics{}, fmt.Errorf("entries statistics: decode: %w", err)
	}
	return domain.Statistics{Entries: s.Entries, Senses: s.Senses, Examples: s.Examples}, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create stores a new entry. It fails with domain.ErrAlreadyExists when the
// id is taken.
func (r *Repo) Create(ctx context.Context, e *domain.Entry) error {
	return r.write(ctx, insertQuery(r.db.Database()), e)
}

// Update replaces a stored entry. It fails with domain.ErrNotFound when no
// entry has the id.
func (r *Repo) Update(ctx context.Context, e *domain.Entry) error {
	return r.write(ctx, replaceQuery(r.db.Database()), e)
}

func (r *Repo) write(ctx context.Context, query string, e *domain.Entry) error {
	data, err := lift.MarshalEntry(e)
	if err != nil {
		return fmt.Errorf("entry %s: %w", e.ID, err)
	}
	err = r.db.ExecuteUpdate(ctx, query, map[string]string{"id": e.ID, "xml": string(data)})
	return basex.MapError(err, "entry", e.ID)
}

// Delete removes the entry with the given id.
func (r *Repo) Delete(ctx context.Context, id string) error {
	err := r.db.ExecuteUpdate(ctx, deleteQuery(r.db.Database()), map[string]string{"id": id})
	return basex.MapError(err, "entry", id)
}

// BulkCreate stores entries whose ids are not taken, in one update.
// Entries with taken ids are left out silently.
func (r *Repo) BulkCreate(ctx context.Context, entries []*domain.Entry) error {
	return r.bulk(ctx, bulkInsertQuery(r.db.Database()), entries)
}

// BulkUpsert stores entries, replacing stored entries with the same id.
func (r *Repo) BulkUpsert(ctx context.Context, entries []*domain.Entry) error {
	return r.bulk(ctx, bulkUpsertQuery(r.db.Database()), entries)
}

func (r *Repo) bulk(ctx context.Context, query string, entries []*domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	data, err := lift.MarshalEntries(entries)
	if err != nil {
		return fmt.Errorf("entries bulk: %w", err)
	}
	err = r.db.ExecuteUpdate(ctx, query, map[string]string{"xml": string(data)})
	return basex.MapError(err, "entries", fmt.Sprintf("bulk (%d)", len(entries)))
}

// Clear removes every entry.
func (r *Repo) Clear(ctx context.Context) error {
	err := r.db.ExecuteUpdate(ctx, clearQuery(r.db.Database()), nil)
	return basex.MapError(err, "entries", "clear")
}

func joinIDs(ids []string) string {
	return strings.Join(ids, "\n")
}
