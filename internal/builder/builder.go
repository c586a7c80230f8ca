// Package builder turns a stream of browser-debugger network and page
// lifecycle events into one HTTP Archive document. Events arrive in any
// order, possibly duplicated or partial; the output entry list is always
// ordered by derived start time.
package builder

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/UppaJung/hardy-har/internal/cdp"
	"github.com/UppaJung/hardy-har/internal/clock"
	"github.com/UppaJung/hardy-har/internal/domain"
	"github.com/UppaJung/hardy-har/internal/infrastructure/observability"
)

const creatorName = "hardy-har"

// Builder is the top-level dispatcher: Network.* events go to the entries
// correlator, Page.* events to the pages correlator. Ingestion is
// serialized by a single mutex; accumulator create-or-fetch is a
// read-modify-write that must not race.
type Builder struct {
	mu      sync.Mutex
	opts    Options
	log     zerolog.Logger
	metrics *observability.Metrics

	tl      *clock.TimeLord
	entries *EntriesBuilder
	pages   *PagesBuilder

	har *domain.HAR
}

func New(opts Options, log zerolog.Logger, metrics *observability.Metrics) *Builder {
	pol := policyFor(opts)
	tl := clock.New()
	return &Builder{
		opts:    opts,
		log:     log,
		metrics: metrics,
		tl:      tl,
		entries: NewEntriesBuilder(opts, pol, tl, log, metrics),
		pages:   NewPagesBuilder(pol, tl, log, metrics),
	}
}

// OnEvent ingests one raw (method, params) pair. Unrecognized methods and
// undecodable payloads are ignored; both are counted.
func (b *Builder) OnEvent(method string, params json.RawMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.har != nil {
		// Raw events are frozen once derivation has begun.
		b.log.Warn().Str("method", method).Msg("event ignored: archive already built")
		return
	}

	switch {
	case cdp.IsNetwork(method):
		b.metrics.EventsTotal.WithLabelValues("network").Inc()
		b.onNetworkEvent(method, params)
	case cdp.IsPage(method):
		b.metrics.EventsTotal.WithLabelValues("page").Inc()
		b.onPageEvent(method, params)
	default:
		b.metrics.EventsTotal.WithLabelValues("other").Inc()
	}
}

func (b *Builder) onNetworkEvent(method string, params json.RawMessage) {
	// Body attribution goes by payload shape, not event name: any network
	// payload carrying a request id and a body field delivers a body.
	if rb := cdp.ProbeBody(params); rb != nil {
		b.entries.AttachBody(rb)
		if method == cdp.MethodGetResponseBody {
			return
		}
	}

	ev, err := cdp.Decode(method, params)
	if err != nil {
		b.metrics.MalformedTotal.Inc()
		b.log.Debug().Err(err).Str("method", method).Msg("undecodable network event")
		return
	}
	if ev == nil {
		return
	}
	switch method {
	case cdp.MethodWebSocketFrameSent:
		b.entries.HandleWebSocketFrame(domain.WebSocketDirectionSend, ev.(*cdp.WebSocketFrameEvent))
	case cdp.MethodWebSocketFrameReceived:
		b.entries.HandleWebSocketFrame(domain.WebSocketDirectionReceive, ev.(*cdp.WebSocketFrameEvent))
	default:
		b.entries.HandleEvent(ev)
	}
}

func (b *Builder) onPageEvent(method string, params json.RawMessage) {
	ev, err := cdp.Decode(method, params)
	if err != nil {
		b.metrics.MalformedTotal.Inc()
		b.log.Debug().Err(err).Str("method", method).Msg("undecodable page event")
		return
	}
	if ev == nil {
		return
	}
	b.pages.HandleEvent(ev)
}

// HAR assembles the finished archive. Compute-once: the first call
// finalizes both correlators and freezes the accumulated events; later
// calls return the same document.
func (b *Builder) HAR() *domain.HAR {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.har != nil {
		return b.har
	}

	states := b.entries.Finalize()
	b.pages.AssignEntries(states)
	pages := b.pages.Finalize()
	entries := b.entries.Entries()

	b.har = &domain.HAR{Log: domain.Log{
		Version: "1.2",
		Creator: domain.Creator{Name: creatorName, Version: observability.Version},
		Pages:   pages,
		Entries: entries,
		Comment: b.tl.SkewReport(),
	}}
	return b.har
}
