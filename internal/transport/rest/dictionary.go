package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/heartmarshall/dictionary-writing-system/internal/corpus"
	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
	"github.com/heartmarshall/dictionary-writing-system/internal/service/dictionary"
	"github.com/heartmarshall/dictionary-writing-system/internal/transport/rest/loader"
)

// dictionaryService defines the interface needed by DictionaryHandler.
type dictionaryService interface {
	GetEntry(ctx context.Context, id string) (*domain.Entry, error)
	ListEntries(ctx context.Context, input dictionary.ListInput) (*dictionary.ListResult, error)
	SearchEntries(ctx context.Context, input dictionary.SearchInput) (*dictionary.ListResult, error)
	CreateEntry(ctx context.Context, input dictionary.CreateInput) (*domain.Entry, error)
	UpdateEntry(ctx context.Context, id string, entry *domain.Entry) (*domain.Entry, error)
	CreateEntryFromForm(ctx context.Context, values url.Values) (*domain.Entry, error)
	UpdateEntryFromForm(ctx context.Context, id string, values url.Values) (*domain.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	CountEntries(ctx context.Context) (int, error)
	Statistics(ctx context.Context) (domain.Statistics, error)
	GetRanges(ctx context.Context) ([]domain.Range, error)
	GetRange(ctx context.Context, id string) (domain.Range, error)
	ImportLIFT(ctx context.Context, r io.Reader, input dictionary.ImportInput) (*dictionary.ImportResult, error)
	EntryHistory(ctx context.Context, entryID string, limit int) ([]domain.AuditRecord, error)
	AnalyzeCorpus(ctx context.Context, texts []string) (corpus.Summary, error)
	Concordance(ctx context.Context, input dictionary.ConcordanceInput) ([]corpus.Line, error)
}

// DictionaryHandler serves the dictionary REST endpoints.
type DictionaryHandler struct {
	svc       dictionaryService
	log       *slog.Logger
	maxUpload int64
}

// NewDictionaryHandler creates a DictionaryHandler. maxUpload bounds LIFT
// uploads; other request bodies are limited to maxJSONBody.
func NewDictionaryHandler(svc dictionaryService, logger *slog.Logger, maxUpload int64) *DictionaryHandler {
	return &DictionaryHandler{svc: svc, log: logger.With("handler", "dictionary"), maxUpload: maxUpload}
}

const maxJSONBody = 4 << 20

// ---------------------------------------------------------------------------
// Entries
// ---------------------------------------------------------------------------

// ListEntries handles GET /api/entries.
func (h *DictionaryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := pageParams(q)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	res, err := h.svc.ListEntries(r.Context(), dictionary.ListInput{
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SearchEntries handles GET /api/search?q=&fields=headword,gloss.
func (h *DictionaryHandler) SearchEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := pageParams(q)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	res, err := h.svc.SearchEntries(r.Context(), dictionary.SearchInput{
		Query:     q.Get("q"),
		Fields:    splitFields(q["fields"]),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetEntry handles GET /api/entries/{id}.
func (h *DictionaryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.GetEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// CreateEntry handles POST /api/entries with a JSON entry.
func (h *DictionaryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var e domain.Entry
	if !h.decodeJSON(w, r, &e) {
		return
	}
	created, err := h.svc.CreateEntry(r.Context(), dictionary.CreateInput{Entry: &e})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.Header().Set("Location", "/api/entries/"+url.PathEscape(created.ID))
	writeJSON(w, http.StatusCreated, created)
}

// UpdateEntry handles PUT /api/entries/{id} with a JSON entry.
func (h *DictionaryHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var e domain.Entry
	if !h.decodeJSON(w, r, &e) {
		return
	}
	updated, err := h.svc.UpdateEntry(r.Context(), r.PathValue("id"), &e)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// CreateEntryFromForm handles POST /api/entries/form with nested form keys.
func (h *DictionaryHandler) CreateEntryFromForm(w http.ResponseWriter, r *http.Request) {
	values, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	created, err := h.svc.CreateEntryFromForm(r.Context(), values)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.Header().Set("Location", "/api/entries/"+url.PathEscape(created.ID))
	writeJSON(w, http.StatusCreated, created)
}

// UpdateEntryFromForm handles POST /api/entries/{id}/form.
func (h *DictionaryHandler) UpdateEntryFromForm(w http.ResponseWriter, r *http.Request) {
	values, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	updated, err := h.svc.UpdateEntryFromForm(r.Context(), r.PathValue("id"), values)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteEntry handles DELETE /api/entries/{id}.
func (h *DictionaryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EntryHistory handles GET /api/entries/{id}/history?limit=.
func (h *DictionaryHandler) EntryHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	records, err := h.svc.EntryHistory(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// RelationTarget is a relation of an entry or one of its senses with the
// headword of the entry it points to. Headword is empty for dangling refs.
type RelationTarget struct {
	Sense    string `json:"sense,omitempty"`
	Type     string `json:"type"`
	Ref      string `json:"ref"`
	Headword string `json:"headword"`
}

// EntryRelations handles GET /api/entries/{id}/relations. Targets are
// resolved in one batch through the request's loaders.
func (h *DictionaryHandler) EntryRelations(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.GetEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	targets := make([]RelationTarget, 0, len(e.Relations))
	for _, rel := range e.Relations {
		targets = append(targets, RelationTarget{Type: rel.Type, Ref: rel.Ref})
	}
	var walk func(senses []domain.Sense)
	walk = func(senses []domain.Sense) {
		for _, s := range senses {
			for _, rel := range s.Relations {
				targets = append(targets, RelationTarget{Sense: s.ID, Type: rel.Type, Ref: rel.Ref})
			}
			walk(s.Subsenses)
		}
	}
	walk(e.Senses)

	refs := make([]string, len(targets))
	for i, t := range targets {
		refs[i] = t.Ref
	}
	headwords, err := loader.FromContext(r.Context()).Headwords(r.Context(), refs)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	for i := range targets {
		targets[i].Headword = headwords[i]
	}
	writeJSON(w, http.StatusOK, targets)
}

// ---------------------------------------------------------------------------
// Statistics and ranges
// ---------------------------------------------------------------------------

// CountEntries handles GET /api/entries/count.
func (h *DictionaryHandler) CountEntries(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.CountEntries(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

// Statistics handles GET /api/stats.
func (h *DictionaryHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Statistics(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Ranges handles GET /api/ranges.
func (h *DictionaryHandler) Ranges(w http.ResponseWriter, r *http.Request) {
	ranges, err := h.svc.GetRanges(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ranges)
}

// Range handles GET /api/ranges/{id}.
func (h *DictionaryHandler) Range(w http.ResponseWriter, r *http.Request) {
	rng, err := h.svc.GetRange(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rng)
}

// ---------------------------------------------------------------------------
// Import
// ---------------------------------------------------------------------------

// Import handles POST /api/import?mode=skip|merge|replace. The LIFT document
// is either the raw request body or the "file" part of a multipart form; it
// is streamed, never buffered whole.
func (h *DictionaryHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	body, err := liftBody(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	defer body.Close()

	res, err := h.svc.ImportLIFT(r.Context(), body, dictionary.ImportInput{
		Mode: domain.ImportMode(r.URL.Query().Get("mode")),
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func liftBody(r *http.Request) (io.ReadCloser, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, domain.NewValidationError("file", err.Error())
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, domain.NewValidationError("file", "required")
		}
		if err != nil {
			return nil, domain.NewValidationError("file", err.Error())
		}
		if part.FormName() == "file" {
			return part, nil
		}
		part.Close()
	}
}

// ---------------------------------------------------------------------------
// Corpus
// ---------------------------------------------------------------------------

type analyzeRequest struct {
	Texts []string `json:"texts"`
}

// AnalyzeCorpus handles POST /api/corpus/analyze.
func (h *DictionaryHandler) AnalyzeCorpus(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	sum, err := h.svc.AnalyzeCorpus(r.Context(), req.Texts)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

type concordanceRequest struct {
	Texts    []string `json:"texts"`
	Headword string   `json:"headword"`
	EntryID  string   `json:"entry_id"`
	Width    int      `json:"width"`
}

// Concordance handles POST /api/corpus/concordance.
func (h *DictionaryHandler) Concordance(w http.ResponseWriter, r *http.Request) {
	var req concordanceRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	lines, err := h.svc.Concordance(r.Context(), dictionary.ConcordanceInput{
		Texts:    req.Texts,
		Headword: req.Headword,
		EntryID:  req.EntryID,
		Width:    req.Width,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (h *DictionaryHandler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *DictionaryHandler) parseForm(w http.ResponseWriter, r *http.Request) (url.Values, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(maxJSONBody)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return nil, false
	}
	return r.PostForm, true
}

func pageParams(q url.Values) (limit, offset int, err error) {
	if limit, err = intParam(q, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = intParam(q, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func intParam(q url.Values, name string) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, domain.NewValidationError(name, fmt.Sprintf("must be an integer, got %q", v))
	}
	return n, nil
}

// splitFields accepts both ?fields=a,b and ?fields=a&fields=b.
func splitFields(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				out = append(out, f)
			}
		}
	}
	return out
}
