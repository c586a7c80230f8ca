package builder

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/UppaJung/hardy-har/internal/cdp"
	"github.com/UppaJung/hardy-har/internal/clock"
	"github.com/UppaJung/hardy-har/internal/domain"
	"github.com/UppaJung/hardy-har/internal/infrastructure/observability"
)

// EntriesBuilder routes network events to per-transaction accumulators,
// keyed by request id with create-or-fetch semantics, and produces the
// final entry list. Redirect chains share one identifier: when an
// initiating event arrives for an id whose accumulator already holds one,
// the old accumulator is sealed with the embedded prior response and a
// fresh accumulator takes over the id.
type EntriesBuilder struct {
	opts    Options
	pol     policy
	tl      *clock.TimeLord
	log     zerolog.Logger
	metrics *observability.Metrics

	byID map[cdp.RequestID]*entryState
	all  []*entryState
	seq  int

	finalized bool
	final     []*entryState
}

func NewEntriesBuilder(opts Options, pol policy, tl *clock.TimeLord, log zerolog.Logger, metrics *observability.Metrics) *EntriesBuilder {
	return &EntriesBuilder{
		opts:    opts,
		pol:     pol,
		tl:      tl,
		log:     log,
		metrics: metrics,
		byID:    make(map[cdp.RequestID]*entryState),
	}
}

// lookup fetches or creates the accumulator owning id.
func (b *EntriesBuilder) lookup(id cdp.RequestID) *entryState {
	if st, ok := b.byID[id]; ok {
		return st
	}
	return b.create(id)
}

func (b *EntriesBuilder) create(id cdp.RequestID) *entryState {
	st := &entryState{requestID: id, seq: b.seq}
	b.seq++
	b.byID[id] = st
	b.all = append(b.all, st)
	return st
}

// HandleEvent applies one decoded network event. All effects are additive
// assignments; the only removal is the redirect split.
func (b *EntriesBuilder) HandleEvent(ev cdp.Event) {
	switch e := ev.(type) {
	case *cdp.RequestWillBeSent:
		b.handleRequestWillBeSent(e)
	case *cdp.ResponseReceived:
		b.lookup(e.RequestID).response = e
	case *cdp.RequestWillBeSentExtraInfo:
		b.lookup(e.RequestID).requestExtra = e
	case *cdp.ResponseReceivedExtraInfo:
		b.lookup(e.RequestID).responseExtra = e
	case *cdp.RequestServedFromCache:
		b.lookup(e.RequestID).servedFromCache = true
	case *cdp.DataReceived:
		st := b.lookup(e.RequestID)
		st.chunks = append(st.chunks, *e)
	case *cdp.LoadingFinished:
		b.lookup(e.RequestID).finished = e
	case *cdp.LoadingFailed:
		b.lookup(e.RequestID).failed = e
	case *cdp.ResourceChangedPriority:
		st := b.lookup(e.RequestID)
		st.priorities = append(st.priorities, *e)
	case *cdp.ResponseBody:
		b.AttachBody(e)
	default:
		b.log.Debug().Type("event", ev).Msg("unrouted network event")
	}
}

// HandleWebSocketFrame applies a frame event with its direction, which the
// event name rather than the payload carries.
func (b *EntriesBuilder) HandleWebSocketFrame(direction string, e *cdp.WebSocketFrameEvent) {
	st := b.lookup(e.RequestID)
	st.wsFrames = append(st.wsFrames, wsFrame{direction: direction, timestamp: e.Timestamp, frame: e.Response})
}

// AttachBody attaches a fetched response body to its transaction. Bodies
// attach by payload shape regardless of which named event carried them.
func (b *EntriesBuilder) AttachBody(e *cdp.ResponseBody) {
	b.lookup(e.RequestID).body = e
}

func (b *EntriesBuilder) handleRequestWillBeSent(e *cdp.RequestWillBeSent) {
	if e.RequestID == "" || e.Request == nil {
		b.log.Debug().Msg("initiating event missing request id or request; ignored")
		return
	}
	if float64(e.WallTime) > 0 {
		b.tl.Record(float64(e.Timestamp), float64(e.WallTime))
	}
	st := b.lookup(e.RequestID)
	if st.request != nil {
		// The id was redirected: seal the old accumulator with the
		// embedded prior response and hand the id to a fresh one.
		st.redirectResponse = e.RedirectResponse
		prior := st.priorRedirects
		st = b.create(e.RequestID)
		st.priorRedirects = prior + 1
	}
	st.request = e
}

// Finalize filters accumulators for archive eligibility and orders them by
// transaction start time. Compute-once: accumulation is over by the first
// call, and the result is cached.
func (b *EntriesBuilder) Finalize() []*entryState {
	if b.finalized {
		return b.final
	}
	b.finalized = true

	eligible := make([]*entryState, 0, len(b.all))
	for _, st := range b.all {
		if reason := st.ineligibleReason(b.opts, b.pol); reason != "" {
			b.metrics.EntriesFiltered.WithLabelValues(reason).Inc()
			b.log.Debug().Str("requestId", string(st.requestID)).Str("reason", reason).Msg("transaction excluded from archive")
			continue
		}
		eligible = append(eligible, st)
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		ti, tj := eligible[i].startTimestamp(), eligible[j].startTimestamp()
		if ti != tj {
			return ti < tj
		}
		return eligible[i].seq < eligible[j].seq
	})

	// Derive every entry now; accumulation is frozen so each result is
	// cached permanently on its state.
	for _, st := range eligible {
		d := entryDeriver{st: st, opts: b.opts, pol: b.pol, tl: b.tl}
		st.derived = d.derive()
		st.derivedDone = true
		if st.derived == nil {
			b.metrics.EntriesFiltered.WithLabelValues("derivation").Inc()
		}
	}

	b.final = eligible
	return b.final
}

// Entries returns the derived entry records in final order.
func (b *EntriesBuilder) Entries() []domain.Entry {
	states := b.Finalize()
	out := make([]domain.Entry, 0, len(states))
	for _, st := range states {
		if st.derived == nil {
			continue
		}
		out = append(out, *st.derived)
		b.metrics.EntriesEmitted.Inc()
	}
	return out
}
