package rest

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartmarshall/dictionary-writing-system/internal/transport/rest/loader"
)

// headwordResolver is the part of the service the relation loaders use.
type headwordResolver interface {
	Headwords(ctx context.Context, ids []string) (map[string]string, error)
}

// NewRouter registers every route on a new ServeMux.
func NewRouter(dict *DictionaryHandler, health *HealthHandler, headwords headwordResolver) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", health.Live)
	mux.HandleFunc("GET /ready", health.Ready)
	mux.HandleFunc("GET /health", health.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/entries", dict.ListEntries)
	mux.HandleFunc("POST /api/entries", dict.CreateEntry)
	mux.HandleFunc("GET /api/entries/count", dict.CountEntries)
	mux.HandleFunc("POST /api/entries/form", dict.CreateEntryFromForm)
	mux.HandleFunc("GET /api/entries/{id}", dict.GetEntry)
	mux.HandleFunc("PUT /api/entries/{id}", dict.UpdateEntry)
	mux.HandleFunc("DELETE /api/entries/{id}", dict.DeleteEntry)
	mux.HandleFunc("POST /api/entries/{id}/form", dict.UpdateEntryFromForm)
	mux.HandleFunc("GET /api/entries/{id}/history", dict.EntryHistory)
	mux.Handle("GET /api/entries/{id}/relations", loader.Middleware(headwords)(http.HandlerFunc(dict.EntryRelations)))

	mux.HandleFunc("GET /api/search", dict.SearchEntries)
	mux.HandleFunc("GET /api/stats", dict.Statistics)
	mux.HandleFunc("GET /api/ranges", dict.Ranges)
	mux.HandleFunc("GET /api/ranges/{id}", dict.Range)
	mux.HandleFunc("POST /api/import", dict.Import)
	mux.HandleFunc("POST /api/corpus/analyze", dict.AnalyzeCorpus)
	mux.HandleFunc("POST /api/corpus/concordance", dict.Concordance)

	return mux
}
