package dictionary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
	"github.com/heartmarshall/dictionary-writing-system/internal/lift"
)

type importItem struct {
	index int
	entry *domain.Entry
}

// ImportLIFT streams the entries of a LIFT document into the dictionary in
// chunks. Invalid entries and ids repeated within the document are reported
// in the result and skipped. A malformed document stops the import; chunks
// already written stay written. Replace mode reads the whole document
// before clearing the dictionary, so a document that does not parse leaves
// the stored entries untouched.
func (s *Service) ImportLIFT(ctx context.Context, r io.Reader, input ImportInput) (*ImportResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	mode := input.mode()
	start := time.Now()

	if mode == domain.ImportModeReplace {
		spool, err := spoolDocument(ctx, r)
		if err != nil {
			return nil, importError(err)
		}
		defer func() {
			_ = spool.Close()
			_ = os.Remove(spool.Name())
		}()
		if err := s.entries.Clear(ctx); err != nil {
			return nil, fmt.Errorf("import: clear: %w", err)
		}
		r = spool
	}

	before, err := s.entries.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("import: count: %w", err)
	}

	result := &ImportResult{Errors: []ImportError{}}
	chunkSize := s.cfg.ImportChunkSize
	if chunkSize <= 0 {
		chunkSize = 100
	}

	seen := make(map[string]int)
	chunk := make([]importItem, 0, chunkSize)

	err = streamDocument(r, func(index int, e *domain.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		result.Total++
		s.prepareImported(e)

		if prev, dup := seen[e.ID]; dup && e.ID != "" {
			result.skip(index, e.ID, fmt.Sprintf("duplicate id (also entry %d)", prev))
			return nil
		}
		seen[e.ID] = index

		if err := validateEntry(e); err != nil {
			result.skip(index, e.ID, err.Error())
			return nil
		}

		chunk = append(chunk, importItem{index: index, entry: e})
		if len(chunk) < chunkSize {
			return nil
		}
		err := s.importChunk(ctx, chunk, mode, result)
		chunk = chunk[:0]
		return err
	})
	if err == nil && len(chunk) > 0 {
		err = s.importChunk(ctx, chunk, mode, result)
	}
	if err != nil {
		return nil, importError(err)
	}

	after, err := s.entries.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("import: count: %w", err)
	}
	result.Stored = after
	if after != before+result.Imported {
		s.log.WarnContext(ctx, "entry count after import does not add up",
			slog.Int("before", before),
			slog.Int("imported", result.Imported),
			slog.Int("after", after),
		)
	}

	s.log.InfoContext(ctx, "lift import finished",
		slog.String("mode", mode.String()),
		slog.Int("total", result.Total),
		slog.Int("imported", result.Imported),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped),
		slog.Int("stored", result.Stored),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func importError(err error) error {
	if errors.Is(err, domain.ErrValidation) {
		return err
	}
	return fmt.Errorf("import: %w", err)
}

// spoolDocument copies r to a temporary file while checking that it parses.
// The returned file is positioned at its start; the caller removes it.
func spoolDocument(ctx context.Context, r io.Reader) (*os.File, error) {
	f, err := os.CreateTemp("", "dws-import-*.lift")
	if err != nil {
		return nil, fmt.Errorf("spool document: %w", err)
	}
	err = streamDocument(io.TeeReader(r, f), func(int, *domain.Entry) error {
		return ctx.Err()
	})
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, err
	}
	return f, nil
}

// streamDocument runs lift.Stream over r. Errors from fn are returned as is
// and a failing reader keeps its cause; any other decode failure is a
// validation error on "file".
func streamDocument(r io.Reader, fn func(index int, e *domain.Entry) error) error {
	src := &readErrReader{r: r}
	var fnErr error
	err := lift.Stream(src, func(index int, e *domain.Entry) error {
		fnErr = fn(index, e)
		return fnErr
	})
	switch {
	case err == nil:
		return nil
	case fnErr != nil:
		return fnErr
	case src.err != nil:
		return fmt.Errorf("read document: %w", src.err)
	default:
		return domain.NewValidationError("file", err.Error())
	}
}

// readErrReader remembers the last read error of r other than io.EOF.
type readErrReader struct {
	r   io.Reader
	err error
}

func (e *readErrReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		e.err = err
	}
	return n, err
}

// importChunk writes one chunk. Entry-level conflicts are reported in the
// result; a database failure aborts the import.
func (s *Service) importChunk(ctx context.Context, chunk []importItem, mode domain.ImportMode, result *ImportResult) error {
	ids := make([]string, len(chunk))
	for i, it := range chunk {
		ids[i] = it.entry.ID
	}
	existing, err := s.entries.ExistingIDs(ctx, ids)
	if err != nil {
		return err
	}

	var batch []*domain.Entry
	var created, updated []string
	for _, it := range chunk {
		switch {
		case !existing[it.entry.ID]:
			created = append(created, it.entry.ID)
		case mode == domain.ImportModeMerge:
			updated = append(updated, it.entry.ID)
		default:
			result.skip(it.index, it.entry.ID, "entry already exists")
			continue
		}
		batch = append(batch, it.entry)
	}
	if len(batch) == 0 {
		return nil
	}

	if mode == domain.ImportModeMerge {
		err = s.entries.BulkUpsert(ctx, batch)
	} else {
		err = s.entries.BulkCreate(ctx, batch)
	}
	if err != nil {
		return err
	}
	result.Imported += len(created)
	result.Updated += len(updated)

	records := make([]domain.AuditRecord, 0, len(batch))
	for _, id := range created {
		records = append(records, s.auditRecord(ctx, domain.AuditActionImport, id, map[string]any{"mode": mode.String()}))
	}
	for _, id := range updated {
		records = append(records, s.auditRecord(ctx, domain.AuditActionImport, id, map[string]any{"mode": mode.String(), "updated": true}))
	}
	if err := s.audit.LogBatch(ctx, records); err != nil {
		s.log.ErrorContext(ctx, "audit batch write failed",
			slog.Int("records", len(records)),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// prepareImported fills in what the LIFT file left out.
func (s *Service) prepareImported(e *domain.Entry) {
	now := s.now()
	if e.DateCreated.IsZero() {
		e.DateCreated = now
	}
	if e.DateModified.IsZero() {
		e.DateModified = e.DateCreated
	}
	if strings.TrimSpace(e.ID) == "" && e.GUID != "" {
		e.ID = e.GUID
	}
	normalizeEntry(e)
}

func (r *ImportResult) skip(index int, id, reason string) {
	r.Skipped++
	r.Errors = append(r.Errors, ImportError{Index: index, EntryID: id, Reason: reason})
}
