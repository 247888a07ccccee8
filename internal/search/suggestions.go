package search

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/zeebo/blake3"

	"github.com/comiclist/comiclist/internal/dispatch"
	"github.com/comiclist/comiclist/internal/observability"
)

const (
	defaultDebounce  = 300 * time.Millisecond
	defaultMinLength = 3
)

// SuggestionConfig holds configuration for the suggestion pipeline.
type SuggestionConfig struct {
	Catalog Catalog

	// UI is the queue suggestion deliveries land on.
	UI *dispatch.SerialQueue

	// OnSuggestions receives each delivered title list, on the UI queue.
	OnSuggestions func(titles []string)

	// Debounce is the quiescence window after the last keystroke before a
	// request is issued. Default: 300ms.
	Debounce time.Duration

	// MinLength is the minimum query length that triggers a fetch at all.
	// Default: 3 runes.
	MinLength int

	Logger *observability.Logger
}

// SuggestionPipeline turns a stream of keystrokes into at most one in-flight
// suggestion request.
//
// Per new query value: values shorter than the threshold are discarded
// before any request; the pipeline then waits out the debounce window,
// restarting it on every newer value; when the window settles, the previous
// in-flight fetch is cancelled and a new one issued, so only the most recent
// query's result is ever delivered; fetch errors degrade to an empty list;
// results are reduced to titles, deduplicated in first-seen order, and
// delivered on the UI queue.
//
// The last successful delivery is cached under a fingerprint of its query;
// a settled query with the same fingerprint is answered from the cache
// without touching the network. Any newer delivery replaces the cache.
type SuggestionPipeline struct {
	catalog   Catalog
	ui        *dispatch.SerialQueue
	deliver   func([]string)
	debounce  time.Duration
	minLength int
	log       *observability.Logger

	input chan string
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewSuggestionPipeline creates the pipeline and starts its state machine.
func NewSuggestionPipeline(cfg SuggestionConfig) *SuggestionPipeline {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = defaultMinLength
	}
	p := &SuggestionPipeline{
		catalog:   cfg.Catalog,
		ui:        cfg.UI,
		deliver:   cfg.OnSuggestions,
		debounce:  cfg.Debounce,
		minLength: cfg.MinLength,
		log:       cfg.Logger,
		input:     make(chan string, 16),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go p.run()
	return p
}

// SetQuery feeds one keystroke's worth of query text into the pipeline.
func (p *SuggestionPipeline) SetQuery(text string) {
	select {
	case p.input <- text:
	case <-p.quit:
	}
}

// Close stops the pipeline and cancels any in-flight fetch.
func (p *SuggestionPipeline) Close() {
	p.once.Do(func() {
		close(p.quit)
	})
	<-p.done
}

type fetchResult struct {
	gen         uint64
	fingerprint [32]byte
	titles      []string
	fromError   bool
}

type cachedDelivery struct {
	fingerprint [32]byte
	titles      []string
}

// run is the pipeline state machine: Idle, Debouncing (timer armed), and
// Fetching (one fetch in flight). A keystroke in any state restarts the
// debounce for the new value and abandons the prior fetch's effect.
func (p *SuggestionPipeline) run() {
	defer close(p.done)

	timer := time.NewTimer(p.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	timerArmed := false

	var (
		pending string
		gen     uint64
		cancel  context.CancelFunc
		cache   *cachedDelivery
	)
	results := make(chan fetchResult, 1)

	for {
		select {
		case <-p.quit:
			if cancel != nil {
				cancel()
			}
			if timerArmed && !timer.Stop() {
				<-timer.C
			}
			return

		case query := <-p.input:
			if utf8.RuneCountInString(query) < p.minLength {
				continue
			}
			pending = query
			gen++ // marks any in-flight fetch stale
			if cancel != nil {
				cancel()
				cancel = nil
			}
			if timerArmed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(p.debounce)
			timerArmed = true

		case <-timer.C:
			timerArmed = false
			fp := fingerprint(pending)
			if cache != nil && cache.fingerprint == fp {
				p.send(cache.titles)
				continue
			}
			ctx, cancelFetch := context.WithCancel(context.Background())
			cancel = cancelFetch
			go p.fetch(ctx, gen, pending, fp, results)

		case r := <-results:
			if r.gen != gen {
				continue // superseded while in flight
			}
			if cancel != nil {
				cancel()
				cancel = nil
			}
			if !r.fromError {
				cache = &cachedDelivery{fingerprint: r.fingerprint, titles: r.titles}
			}
			p.send(r.titles)
		}
	}
}

func (p *SuggestionPipeline) fetch(ctx context.Context, gen uint64, query string, fp [32]byte, out chan<- fetchResult) {
	volumes, err := p.catalog.SuggestedVolumes(ctx, query)

	r := fetchResult{gen: gen, fingerprint: fp}
	if err != nil {
		// Errors never reach the UI from here; they degrade to no
		// suggestions. Error results are not cached, so retyping the same
		// query retries.
		p.log.Debug("suggestion fetch failed", "query", query, "error", err)
		r.titles = []string{}
		r.fromError = true
	} else {
		titles := make([]string, 0, len(volumes))
		seen := make(map[string]bool, len(volumes))
		for _, v := range volumes {
			if seen[v.Title] {
				continue
			}
			seen[v.Title] = true
			titles = append(titles, v.Title)
		}
		r.titles = titles
	}

	select {
	case out <- r:
	case <-ctx.Done():
	}
}

func (p *SuggestionPipeline) send(titles []string) {
	p.ui.Async(func() {
		p.deliver(titles)
	})
}

// fingerprint keys the replay cache by the canonical query text.
func fingerprint(query string) [32]byte {
	return blake3.Sum256([]byte(query))
}
