package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/dictionary-writing-system/internal/corpus"
	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
	"github.com/heartmarshall/dictionary-writing-system/internal/service/dictionary"
)

// ===========================================================================
// Mock service (moq-style with func fields)
// ===========================================================================

type mockDictionaryService struct {
	GetEntryFunc            func(ctx context.Context, id string) (*domain.Entry, error)
	ListEntriesFunc         func(ctx context.Context, input dictionary.ListInput) (*dictionary.ListResult, error)
	SearchEntriesFunc       func(ctx context.Context, input dictionary.SearchInput) (*dictionary.ListResult, error)
	CreateEntryFunc         func(ctx context.Context, input dictionary.CreateInput) (*domain.Entry, error)
	UpdateEntryFunc         func(ctx context.Context, id string, entry *domain.Entry) (*domain.Entry, error)
	CreateEntryFromFormFunc func(ctx context.Context, values url.Values) (*domain.Entry, error)
	UpdateEntryFromFormFunc func(ctx context.Context, id string, values url.Values) (*domain.Entry, error)
	DeleteEntryFunc         func(ctx context.Context, id string) error
	CountEntriesFunc        func(ctx context.Context) (int, error)
	StatisticsFunc          func(ctx context.Context) (domain.Statistics, error)
	GetRangesFunc           func(ctx context.Context) ([]domain.Range, error)
	GetRangeFunc            func(ctx context.Context, id string) (domain.Range, error)
	ImportLIFTFunc          func(ctx context.Context, r io.Reader, input dictionary.ImportInput) (*dictionary.ImportResult, error)
	EntryHistoryFunc        func(ctx context.Context, entryID string, limit int) ([]domain.AuditRecord, error)
	AnalyzeCorpusFunc       func(ctx context.Context, texts []string) (corpus.Summary, error)
	ConcordanceFunc         func(ctx context.Context, input dictionary.ConcordanceInput) ([]corpus.Line, error)
	HeadwordsFunc           func(ctx context.Context, ids []string) (map[string]string, error)
}

var errNotMocked = errors.New("not mocked")

func (m *mockDictionaryService) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	if m.GetEntryFunc != nil {
		return m.GetEntryFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockDictionaryService) ListEntries(ctx context.Context, input dictionary.ListInput) (*dictionary.ListResult, error) {
	if m.ListEntriesFunc != nil {
		return m.ListEntriesFunc(ctx, input)
	}
	return &dictionary.ListResult{Entries: []*domain.Entry{}}, nil
}

func (m *mockDictionaryService) SearchEntries(ctx context.Context, input dictionary.SearchInput) (*dictionary.ListResult, error) {
	if m.SearchEntriesFunc != nil {
		return m.SearchEntriesFunc(ctx, input)
	}
	return &dictionary.ListResult{Entries: []*domain.Entry{}}, nil
}

func (m *mockDictionaryService) CreateEntry(ctx context.Context, input dictionary.CreateInput) (*domain.Entry, error) {
	if m.CreateEntryFunc != nil {
		return m.CreateEntryFunc(ctx, input)
	}
	return nil, errNotMocked
}

func (m *mockDictionaryService) UpdateEntry(ctx context.Context, id string, entry *domain.Entry) (*domain.Entry, error) {
	if m.UpdateEntryFunc != nil {
		return m.UpdateEntryFunc(ctx, id, entry)
	}
	return nil, errNotMocked
}

func (m *mockDictionaryService) CreateEntryFromForm(ctx context.Context, values url.Values) (*domain.Entry, error) {
	if m.CreateEntryFromFormFunc != nil {
		return m.CreateEntryFromFormFunc(ctx, values)
	}
	return nil, errNotMocked
}

func (m *mockDictionaryService) UpdateEntryFromForm(ctx context.Context, id string, values url.Values) (*domain.Entry, error) {
	if m.UpdateEntryFromFormFunc != nil {
		return m.UpdateEntryFromFormFunc(ctx, id, values)
	}
	return nil, errNotMocked
}

func (m *mockDictionaryService) DeleteEntry(ctx context.Context, id string) error {
	if m.DeleteEntryFunc != nil {
		return m.DeleteEntryFunc(ctx, id)
	}
	return errNotMocked
}

func (m *mockDictionaryService) CountEntries(ctx context.Context) (int, error) {
	if m.CountEntriesFunc != nil {
		return m.CountEntriesFunc(ctx)
	}
	return 0, nil
}

func (m *mockDictionaryService) Statistics(ctx context.Context) (domain.Statistics, error) {
	if m.StatisticsFunc != nil {
		return m.StatisticsFunc(ctx)
	}
	return domain.Statistics{}, nil
}

func (m *mockDictionaryService) GetRanges(ctx context.Context) ([]domain.Range, error) {
	if m.GetRangesFunc != nil {
		return m.GetRangesFunc(ctx)
	}
	return []domain.Range{}, nil
}

func (m *mockDictionaryService) GetRange(ctx context.Context, id string) (domain.Range, error) {
	if m.GetRangeFunc != nil {
		return m.GetRangeFunc(ctx, id)
	}
	return domain.Range{}, domain.ErrNotFound
}

func (m *mockDictionaryService) ImportLIFT(ctx context.Context, r io.Reader, input dictionary.ImportInput) (*dictionary.ImportResult, error) {
	if m.ImportLIFTFunc != nil {
		return m.ImportLIFTFunc(ctx, r, input)
	}
	return nil, errNotMocked
}

func (m *mockDictionaryService) EntryHistory(ctx context.Context, entryID string, limit int) ([]domain.AuditRecord, error) {
	if m.EntryHistoryFunc != nil {
		return m.EntryHistoryFunc(ctx, entryID, limit)
	}
	return []domain.AuditRecord{}, nil
}

func (m *mockDictionaryService) AnalyzeCorpus(ctx context.Context, texts []string) (corpus.Summary, error) {
	if m.AnalyzeCorpusFunc != nil {
		return m.AnalyzeCorpusFunc(ctx, texts)
	}
	return corpus.Summary{}, nil
}

func (m *mockDictionaryService) Concordance(ctx context.Context, input dictionary.ConcordanceInput) ([]corpus.Line, error) {
	if m.ConcordanceFunc != nil {
		return m.ConcordanceFunc(ctx, input)
	}
	return []corpus.Line{}, nil
}

func (m *mockDictionaryService) Headwords(ctx context.Context, ids []string) (map[string]string, error) {
	if m.HeadwordsFunc != nil {
		return m.HeadwordsFunc(ctx, ids)
	}
	return map[string]string{}, nil
}

// ===========================================================================
// Helpers
// ===========================================================================

func newTestRouter(svc *mockDictionaryService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dict := NewDictionaryHandler(svc, logger, 1<<20)
	health := NewHealthHandler(logger, "test", Check{Name: "basex", Pinger: &dbPingerMock{}})
	return NewRouter(dict, health, svc)
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func sampleEntry(id string) *domain.Entry {
	return &domain.Entry{ID: id, LexicalUnit: domain.MultiText{"seh": id}}
}

// ===========================================================================
// Entries
// ===========================================================================

func TestGetEntry(t *testing.T) {
	t.Parallel()

	svc := &mockDictionaryService{
		GetEntryFunc: func(_ context.Context, id string) (*domain.Entry, error) {
			return sampleEntry(id), nil
		},
	}
	rec := do(t, newTestRouter(svc), http.MethodGet, "/api/entries/nyumba", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.Entry](t, rec)
	assert.Equal(t, "nyumba", got.ID)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: domain.ErrNotFound, want: http.StatusNotFound},
		{name: "already exists", err: domain.ErrAlreadyExists, want: http.StatusConflict},
		{name: "validation", err: domain.NewValidationError("id", "required"), want: http.StatusUnprocessableEntity},
		{name: "database", err: domain.NewDatabaseError("query", "dictionary", errors.New("reset")), want: http.StatusServiceUnavailable},
		{name: "deadline", err: context.DeadlineExceeded, want: http.StatusServiceUnavailable},
		{name: "unexpected", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockDictionaryService{
				GetEntryFunc: func(context.Context, string) (*domain.Entry, error) { return nil, tt.err },
			}
			rec := do(t, newTestRouter(svc), http.MethodGet, "/api/entries/x", nil, "")

			assert.Equal(t, tt.want, rec.Code)
			resp := decode[errorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
			assert.NotContains(t, resp.Error, "boom", "internal errors are hidden")
		})
	}
}

func TestValidationErrorFields(t *testing.T) {
	t.Parallel()

	svc := &mockDictionaryService{
		CreateEntryFunc: func(context.Context, dictionary.CreateInput) (*domain.Entry, error) {
			return nil, domain.NewValidationErrors([]domain.FieldError{
				{Field: "lexical_unit", Message: "required"},
				{Field: "senses[1].id", Message: "duplicate"},
			})
		},
	}
	rec := do(t, newTestRouter(svc), http.MethodPost, "/api/entries", strings.NewReader(`{"id":"x"}`), "application/json")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[errorResponse](t, rec)
	require.Len(t, resp.Fields, 2)
	assert.Equal(t, "senses[1].id", resp.Fields[1].Field)
}

func TestCreateEntry(t *testing.T) {
	t.Parallel()

	var got dictionary.CreateInput
	svc := &mockDictionaryService{
		CreateEntryFunc: func(_ context.Context, in dictionary.CreateInput) (*domain.Entry, error) {
			got = in
			return sampleEntry("nyumba"), nil
		},
	}
	body := `{"id":"nyumba","lexical_unit":{"seh":"nyumba"},"senses":[{"gloss":{"en":"house"}}]}`
	rec := do(t, newTestRouter(svc), http.MethodPost, "/api/entries", strings.NewReader(body), "application/json")

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/entries/nyumba", rec.Header().Get("Location"))
	require.NotNil(t, got.Entry)
	assert.Equal(t, domain.MultiText{"en": "house"}, got.Entry.Senses[0].Gloss)
}

func TestCreateEntry_BadJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{"id":`},
		{name: "unknown field", body: `{"headword":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := do(t, newTestRouter(&mockDictionaryService{}), http.MethodPost, "/api/entries", strings.NewReader(tt.body), "application/json")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateEntry(t *testing.T) {
	t.Parallel()

	var gotID string
	svc := &mockDictionaryService{
		UpdateEntryFunc: func(_ context.Context, id string, e *domain.Entry) (*domain.Entry, error) {
			gotID = id
			return e, nil
		},
	}
	rec := do(t, newTestRouter(svc), http.MethodPut, "/api/entries/nyumba", strings.NewReader(`{"lexical_unit":{"seh":"nyumba"}}`), "application/json")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nyumba", gotID)
}

func TestDeleteEntry(t *testing.T) {
	t.Parallel()

	var gotID string
	svc := &mockDictionaryService{
		DeleteEntryFunc: func(_ context.Context, id string) error {
			gotID = id
			return nil
		},
	}
	rec := do(t, newTestRouter(svc), http.MethodDelete, "/api/entries/nyumba", nil, "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "nyumba", gotID)
}

func TestCreateEntryFromForm(t *testing.T) {
	t.Parallel()

	var got url.Values
	svc := &mockDictionaryService{
		CreateEntryFromFormFunc: func(_ context.Context, values url.Values) (*domain.Entry, error) {
			got = values
			return sampleEntry("nyumba"), nil
		},
	}
	form := url.Values{
		"lexical_unit[seh]":         {"nyumba"},
		"senses[0][definition][en]": {"a house"},
	}
	rec := do(t, newTestRouter(svc), http.MethodPost, "/api/entries/form", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "a house", got.Get("senses[0][definition][en]"))
}

func TestUpdateEntryFromForm_Multipart(t *testing.T) {
	t.Parallel()

	var gotID string
	var got url.Values
	svc := &mockDictionaryService{
		UpdateEntryFromFormFunc: func(_ context.Context, id string, values url.Values) (*domain.Entry, error) {
			gotID, got = id, values
			return sampleEntry(id), nil
		},
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("senses[0][id]", "s1"))
	require.NoError(t, mw.WriteField("senses[0][gloss]", "home"))
	require.NoError(t, mw.Close())

	rec := do(t, newTestRouter(svc), http.MethodPost, "/api/entries/nyumba/form", &buf, mw.FormDataContentType())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nyumba", gotID)
	assert.Equal(t, "home", got.Get("senses[0][gloss]"))
}

// ===========================================================================
// Listing and search
// ===========================================================================

func TestSearchEntries_Params(t *testing.T) {
	t.Parallel()

	var got dictionary.SearchInput
	svc := &mockDictionaryService{
		SearchEntriesFunc: func(_ context.Context, in dictionary.SearchInput) (*dictionary.ListResult, error) {
			got = in
			return &dictionary.ListResult{Entries: []*domain.Entry{}, TotalCount: 0}, nil
		},
	}
	rec := do(t, newTestRouter(svc), http.MethodGet,
		"/api/search?q=nyu&fields=headword,gloss&fields=example&limit=5&offset=10&sort_order=desc", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nyu", got.Query)
	assert.Equal(t, []string{"headword", "gloss", "example"}, got.Fields)
	assert.Equal(t, 5, got.Limit)
	assert.Equal(t, 10, got.Offset)
	assert.Equal(t, "desc", got.SortOrder)
}

func TestListEntries_BadLimit(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestRouter(&mockDictionaryService{}), http.MethodGet, "/api/entries?limit=ten", nil, "")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[errorResponse](t, rec)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "limit", resp.Fields[0].Field)
}

// ===========================================================================
// Relations
// ===========================================================================

func TestEntryRelations_ResolvesHeadwordsInOneBatch(t *testing.T) {
	t.Parallel()

	calls := 0
	svc := &mockDictionaryService{
		GetEntryFunc: func(_ context.Context, id string) (*domain.Entry, error) {
			return &domain.Entry{
				ID:          id,
				LexicalUnit: domain.MultiText{"seh": "nyumba"},
				Relations:   []domain.Relation{{Type: "synonym", Ref: "khumbi"}},
				Senses: []domain.Sense{{
					ID:        "s1",
					Relations: []domain.Relation{{Type: "antonym", Ref: "gone"}},
				}},
			}, nil
		},
		HeadwordsFunc: func(_ context.Context, ids []string) (map[string]string, error) {
			calls++
			return map[string]string{"khumbi": "khumbi"}, nil
		},
	}
	rec := do(t, newTestRouter(svc), http.MethodGet, "/api/entries/nyumba/relations", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]RelationTarget](t, rec)
	assert.Equal(t, []RelationTarget{
		{Type: "synonym", Ref: "khumbi", Headword: "khumbi"},
		{Sense: "s1", Type: "antonym", Ref: "gone", Headword: ""},
	}, got)
	assert.Equal(t, 1, calls)
}

// ===========================================================================
// Import
// ===========================================================================

func TestImport_RawBody(t *testing.T) {
	t.Parallel()

	var gotMode domain.ImportMode
	var gotBody string
	svc := &mockDictionaryService{
		ImportLIFTFunc: func(_ context.Context, r io.Reader, in dictionary.ImportInput) (*dictionary.ImportResult, error) {
			gotMode = in.Mode
			b, err := io.ReadAll(r)
			require.NoError(t, err)
			gotBody = string(b)
			return &dictionary.ImportResult{Total: 1, Imported: 1, Errors: []dictionary.ImportError{}}, nil
		},
	}
	rec := do(t, newTestRouter(svc), http.MethodPost, "/api/import?mode=merge", strings.NewReader("<lift/>"), "application/xml")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ImportModeMerge, gotMode)
	assert.Equal(t, "<lift/>", gotBody)
	res := decode[dictionary.ImportResult](t, rec)
	assert.Equal(t, 1, res.Imported)
}

func TestImport_MultipartFile(t *testing.T) {
	t.Parallel()

	var gotBody string
	svc := &mockDictionaryService{
		ImportLIFTFunc: func(_ context.Context, r io.Reader, _ dictionary.ImportInput) (*dictionary.ImportResult, error) {
			b, err := io.ReadAll(r)
			require.NoError(t, err)
			gotBody = string(b)
			return &dictionary.ImportResult{Errors: []dictionary.ImportError{}}, nil
		},
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "ignored"))
	fw, err := mw.CreateFormFile("file", "dict.lift")
	require.NoError(t, err)
	_, err = fw.Write([]byte("<lift><entry id='a'/></lift>"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := do(t, newTestRouter(svc), http.MethodPost, "/api/import", &buf, mw.FormDataContentType())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<lift><entry id='a'/></lift>", gotBody)
}

func TestImport_MultipartWithoutFile(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file"))
	require.NoError(t, mw.Close())

	rec := do(t, newTestRouter(&mockDictionaryService{}), http.MethodPost, "/api/import", &buf, mw.FormDataContentType())

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// ===========================================================================
// Ranges, stats, corpus, history
// ===========================================================================

func TestRange_NotFound(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestRouter(&mockDictionaryService{}), http.MethodGet, "/api/ranges/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatistics(t *testing.T) {
	t.Parallel()

	svc := &mockDictionaryService{
		StatisticsFunc: func(context.Context) (domain.Statistics, error) {
			return domain.Statistics{Entries: 3, Senses: 5, Examples: 2}, nil
		},
	}
	rec := do(t, newTestRouter(svc), http.MethodGet, "/api/stats", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Statistics{Entries: 3, Senses: 5, Examples: 2}, decode[domain.Statistics](t, rec))
}

func TestCountEntries(t *testing.T) {
	t.Parallel()

	svc := &mockDictionaryService{
		CountEntriesFunc: func(context.Context) (int, error) { return 42, nil },
	}
	rec := do(t, newTestRouter(svc), http.MethodGet, "/api/entries/count", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int{"count": 42}, decode[map[string]int](t, rec))
}

func TestConcordance(t *testing.T) {
	t.Parallel()

	var got dictionary.ConcordanceInput
	svc := &mockDictionaryService{
		ConcordanceFunc: func(_ context.Context, in dictionary.ConcordanceInput) ([]corpus.Line, error) {
			got = in
			return []corpus.Line{{Text: 0, Left: "ndi ", Match: "nyumba", Right: ""}}, nil
		},
	}
	body := `{"texts":["ndi nyumba"],"entry_id":"nyumba","width":10}`
	rec := do(t, newTestRouter(svc), http.MethodPost, "/api/corpus/concordance", strings.NewReader(body), "application/json")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nyumba", got.EntryID)
	assert.Equal(t, 10, got.Width)
	lines := decode[[]corpus.Line](t, rec)
	require.Len(t, lines, 1)
	assert.Equal(t, "nyumba", lines[0].Match)
}

func TestEntryHistory_Limit(t *testing.T) {
	t.Parallel()

	var gotLimit int
	svc := &mockDictionaryService{
		EntryHistoryFunc: func(_ context.Context, _ string, limit int) ([]domain.AuditRecord, error) {
			gotLimit = limit
			return []domain.AuditRecord{}, nil
		},
	}
	rec := do(t, newTestRouter(svc), http.MethodGet, "/api/entries/nyumba/history?limit=7", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, gotLimit)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestRouter(&mockDictionaryService{}), http.MethodGet, "/metrics", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
