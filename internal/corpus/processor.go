// Package corpus extracts simple lexical features from text chunks in
// parallel batches and builds keyword-in-context lines for headwords.
package corpus

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dws_corpus_cache_lookups_total",
	Help: "Corpus feature cache lookups by result",
}, []string{"result"})

// TokenCount is a token with its frequency.
type TokenCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// Features describes one text.
type Features struct {
	Tokens         int          `json:"tokens"`
	Types          int          `json:"types"`
	Sentences      int          `json:"sentences"`
	AvgTokenLength float64      `json:"avg_token_length"`
	TopTokens      []TokenCount `json:"top_tokens"`
}

// Config configures a Processor. Zero values fall back to defaults.
type Config struct {
	Workers   int
	BatchSize int
	CacheSize int
	TopN      int
}

const (
	defaultWorkers   = 4
	defaultBatchSize = 32
	defaultCacheSize = 1024
	defaultTopN      = 10
)

// Processor extracts Features from texts. It is safe for concurrent use.
type Processor struct {
	workers   int
	batchSize int
	topN      int
	cache     *lru.Cache[[sha256.Size]byte, Features]
	log       *slog.Logger
}

// NewProcessor creates a Processor with its own feature cache.
func NewProcessor(logger *slog.Logger, cfg Config) (*Processor, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.TopN <= 0 {
		cfg.TopN = defaultTopN
	}

	cache, err := lru.New[[sha256.Size]byte, Features](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("corpus: create cache: %w", err)
	}

	return &Processor{
		workers:   cfg.Workers,
		batchSize: cfg.BatchSize,
		topN:      cfg.TopN,
		cache:     cache,
		log:       logger.With("service", "corpus"),
	}, nil
}

// Analyze returns the features of one text, from the cache when the same
// content was seen before.
func (p *Processor) Analyze(text string) Features {
	key := sha256.Sum256([]byte(text))
	if f, ok := p.cache.Get(key); ok {
		cacheLookups.WithLabelValues("hit").Inc()
		return f.clone()
	}
	cacheLookups.WithLabelValues("miss").Inc()

	f := extract(text, p.topN)
	p.cache.Add(key, f)
	return f.clone()
}

// Process analyzes texts in batches of BatchSize, running at most Workers
// batches at a time. Results keep the order of texts. Cancelling ctx stops
// the remaining batches.
func (p *Processor) Process(ctx context.Context, texts []string) ([]Features, error) {
	results := make([]Features, len(texts))
	if len(texts) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for start := 0; start < len(texts); start += p.batchSize {
		end := min(start+p.batchSize, len(texts))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = p.Analyze(texts[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("corpus: process: %w", err)
	}

	p.log.DebugContext(ctx, "corpus processed",
		slog.Int("texts", len(texts)),
		slog.Int("cached", p.cache.Len()),
	)
	return results, nil
}

// Summary aggregates the features of several texts.
type Summary struct {
	Texts     int          `json:"texts"`
	Tokens    int          `json:"tokens"`
	Types     int          `json:"types"`
	Sentences int          `json:"sentences"`
	TopTokens []TokenCount `json:"top_tokens"`
	Features  []Features   `json:"features"`
}

// Summarize processes texts and aggregates the result. Types and TopTokens
// are computed over the whole corpus.
func (p *Processor) Summarize(ctx context.Context, texts []string) (Summary, error) {
	features, err := p.Process(ctx, texts)
	if err != nil {
		return Summary{}, err
	}

	counts := make(map[string]int)
	for _, text := range texts {
		for _, s := range tokenize(text) {
			counts[s.norm]++
		}
	}

	sum := Summary{Texts: len(texts), Types: len(counts), Features: features}
	for _, f := range features {
		sum.Tokens += f.Tokens
		sum.Sentences += f.Sentences
	}
	sum.TopTokens = topTokens(counts, p.topN)
	return sum, nil
}

func extract(text string, topN int) Features {
	spans := tokenize(text)
	counts := make(map[string]int, len(spans))
	runes := 0
	for _, s := range spans {
		counts[s.norm]++
		runes += len([]rune(s.norm))
	}

	f := Features{
		Tokens:    len(spans),
		Types:     len(counts),
		Sentences: countSentences(text),
		TopTokens: topTokens(counts, topN),
	}
	if len(spans) > 0 {
		f.AvgTokenLength = float64(runes) / float64(len(spans))
	}
	return f
}

// topTokens returns the n most frequent tokens, ties broken alphabetically.
func topTokens(counts map[string]int, n int) []TokenCount {
	out := make([]TokenCount, 0, len(counts))
	for tok, c := range counts {
		out = append(out, TokenCount{Token: tok, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Token < out[j].Token
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (f Features) clone() Features {
	f.TopTokens = append([]TokenCount(nil), f.TopTokens...)
	return f
}
