// Package ranges stores LIFT ranges in a lift-ranges document next to the
// dictionary document.
package ranges

import (
	"context"
	"fmt"
	"strings"

	"github.com/heartmarshall/dictionary-writing-system/internal/adapter/basex"
	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
	"github.com/heartmarshall/dictionary-writing-system/internal/lift"
)

// DocumentPath is the path of the ranges document inside the database.
const DocumentPath = "ranges.xml"

type querier interface {
	Database() string
	ExecuteQuery(ctx context.Context, query string, vars map[string]string) (string, error)
	ExecuteUpdate(ctx context.Context, query string, vars map[string]string) error
	AddDocument(ctx context.Context, path, xml string) error
}

// Repo provides range persistence backed by BaseX.
type Repo struct {
	db querier
}

// New creates a new ranges repository.
func New(db querier) *Repo {
	return &Repo{db: db}
}

func root(db string) string {
	return fmt.Sprintf("collection('%s')/lift-ranges", db)
}

// List returns every stored range in document order.
func (r *Repo) List(ctx context.Context) ([]domain.Range, error) {
	q := fmt.Sprintf("<lift-ranges>{%s/range}</lift-ranges>", root(r.db.Database()))
	out, err := r.db.ExecuteQuery(ctx, q, nil)
	if err != nil {
		return nil, basex.MapError(err, "ranges", "list")
	}
	return lift.DecodeRanges(strings.NewReader(out))
}

// Get returns the range with the given id.
func (r *Repo) Get(ctx context.Context, id string) (domain.Range, error) {
	q := fmt.Sprintf("declare variable $id external;\n(%s/range[@id = $id])[1]", root(r.db.Database()))
	out, err := r.db.ExecuteQuery(ctx, q, map[string]string{"id": id})
	if err != nil {
		return domain.Range{}, basex.MapError(err, "range", id)
	}
	if strings.TrimSpace(out) == "" {
		return domain.Range{}, fmt.Errorf("range %s: %w", id, domain.ErrNotFound)
	}
	return lift.UnmarshalRange([]byte(out))
}

// Replace stores ranges as the whole ranges document, creating the
// document on first use.
func (r *Repo) Replace(ctx context.Context, ranges []domain.Range) error {
	data, err := lift.MarshalRanges(ranges)
	if err != nil {
		return fmt.Errorf("ranges: %w", err)
	}

	out, err := r.db.ExecuteQuery(ctx, fmt.Sprintf("exists(%s)", root(r.db.Database())), nil)
	if err != nil {
		return basex.MapError(err, "ranges", "replace")
	}
	if strings.TrimSpace(out) != "true" {
		return basex.MapError(r.db.AddDocument(ctx, DocumentPath, string(data)), "ranges", "add")
	}

	q := "declare variable $xml external;\n" +
		fmt.Sprintf("replace node (%s)[1] with parse-xml($xml)/*", root(r.db.Database()))
	err = r.db.ExecuteUpdate(ctx, q, map[string]string{"xml": string(data)})
	return basex.MapError(err, "ranges", "replace")
}
