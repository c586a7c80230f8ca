package builder

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/UppaJung/hardy-har/internal/cdp"
	"github.com/UppaJung/hardy-har/internal/clock"
	"github.com/UppaJung/hardy-har/internal/domain"
	"github.com/UppaJung/hardy-har/internal/infrastructure/observability"
)

// pageState is one in-progress page: a root frame, the frames attached
// under it, and the navigation/lifecycle facts gathered while events
// stream in. Entries are attached after the network side is finalized.
type pageState struct {
	seq       int
	rootFrame cdp.FrameID
	frames    map[cdp.FrameID]bool
	// pageless marks the synthesized page holding transactions whose frame
	// was never associated with a page.
	pageless bool

	navigationURL string
	onLoad        *float64
	onContentLoad *float64

	// entries in ascending start-time order; populated by AssignEntries.
	entries []*entryState
}

// anchor is the page's earliest eligible transaction. Reading it on a page
// with no entries is an internal invariant breach: id assignment filters
// such pages out before anything derives from them.
func (p *pageState) anchor() *entryState {
	if len(p.entries) == 0 {
		panic(fmt.Sprintf("hardy-har: page for frame %q read before any transaction was assigned", p.rootFrame))
	}
	return p.entries[0]
}

func (p *pageState) title() string {
	if p.navigationURL != "" {
		return p.navigationURL
	}
	return p.anchor().derived.Request.URL
}

// PagesBuilder groups transactions into pages via frame-hierarchy events.
type PagesBuilder struct {
	pol     policy
	tl      *clock.TimeLord
	log     zerolog.Logger
	metrics *observability.Metrics

	byFrame map[cdp.FrameID]*pageState
	// pages in creation order; the most recently created page is the one
	// non-frame-scoped lifecycle events attach to.
	pages []*pageState
}

func NewPagesBuilder(pol policy, tl *clock.TimeLord, log zerolog.Logger, metrics *observability.Metrics) *PagesBuilder {
	return &PagesBuilder{
		pol:     pol,
		tl:      tl,
		log:     log,
		metrics: metrics,
		byFrame: make(map[cdp.FrameID]*pageState),
	}
}

func (b *PagesBuilder) createPage(root cdp.FrameID) *pageState {
	p := &pageState{seq: len(b.pages), rootFrame: root, frames: map[cdp.FrameID]bool{}}
	if root != "" {
		p.frames[root] = true
		b.byFrame[root] = p
	}
	b.pages = append(b.pages, p)
	return p
}

// HandleEvent applies one decoded page event.
func (b *PagesBuilder) HandleEvent(ev cdp.Event) {
	switch e := ev.(type) {
	case *cdp.FrameAttached:
		b.handleFrameAttached(e)
	case *cdp.FrameStartedLoading:
		b.ensureRoot(e.FrameID)
	case *cdp.FrameRequestedNavigation:
		p := b.ensureRoot(e.FrameID)
		if p != nil && p.navigationURL == "" {
			p.navigationURL = e.URL
		}
	case *cdp.NavigatedWithinDocument:
		if p, ok := b.byFrame[e.FrameID]; ok {
			p.navigationURL = e.URL
		}
	case *cdp.LoadEventFired:
		if p := b.top(); p != nil {
			ts := float64(e.Timestamp)
			p.onLoad = &ts
		}
	case *cdp.DomContentEventFired:
		if p := b.top(); p != nil {
			ts := float64(e.Timestamp)
			p.onContentLoad = &ts
		}
	default:
		b.log.Debug().Type("event", ev).Msg("unrouted page event")
	}
}

func (b *PagesBuilder) handleFrameAttached(e *cdp.FrameAttached) {
	if e.FrameID == "" {
		return
	}
	if _, known := b.byFrame[e.FrameID]; known {
		return
	}
	// An empty or self-referential parent means the frame is itself a page
	// root.
	if e.ParentFrameID == "" || e.ParentFrameID == e.FrameID {
		b.createPage(e.FrameID)
		return
	}
	parent, ok := b.byFrame[e.ParentFrameID]
	if !ok {
		// Orphaned frame: no page owns the parent. Dropping it (and any
		// transactions reachable only through it) beats inventing a
		// misleading parent.
		b.metrics.OrphanFramesTotal.Inc()
		b.log.Debug().Str("frameId", string(e.FrameID)).Str("parent", string(e.ParentFrameID)).Msg("dropping frame with unknown parent")
		return
	}
	parent.frames[e.FrameID] = true
	b.byFrame[e.FrameID] = parent
}

// ensureRoot returns the page owning the frame, creating a root page for a
// previously-unseen frame id (a top-level navigation's main frame never
// gets a frameAttached event of its own).
func (b *PagesBuilder) ensureRoot(id cdp.FrameID) *pageState {
	if id == "" {
		return nil
	}
	if p, ok := b.byFrame[id]; ok {
		return p
	}
	return b.createPage(id)
}

// top is the most recently created page; load/DOMContentLoaded events are
// not frame-scoped upstream, so they attach here.
func (b *PagesBuilder) top() *pageState {
	if len(b.pages) == 0 {
		return nil
	}
	return b.pages[len(b.pages)-1]
}

// AssignEntries distributes finalized transactions to the pages owning
// their frames. Transactions with no owning page go to one synthesized
// pageless page. states must already be in ascending start-time order.
func (b *PagesBuilder) AssignEntries(states []*entryState) {
	var orphans []*entryState
	for _, st := range states {
		if st.derived == nil {
			continue
		}
		if p, ok := b.byFrame[st.frameID()]; ok && st.frameID() != "" {
			p.entries = append(p.entries, st)
			continue
		}
		orphans = append(orphans, st)
	}
	if len(orphans) > 0 {
		pageless := b.createPage("")
		pageless.pageless = true
		pageless.entries = orphans
	}
}

// Finalize filters pages to those with at least one usable transaction,
// orders them (anchor time, or creation order in compatibility mode),
// numbers them from 1, and stamps each member entry's pageref.
func (b *PagesBuilder) Finalize() []domain.Page {
	valid := make([]*pageState, 0, len(b.pages))
	for _, p := range b.pages {
		if len(p.entries) > 0 {
			valid = append(valid, p)
		}
	}
	if b.pol.OrderPagesByStartTime() {
		sort.SliceStable(valid, func(i, j int) bool {
			ti := valid[i].anchor().derived.RequestTime
			tj := valid[j].anchor().derived.RequestTime
			if ti != tj {
				return ti < tj
			}
			return valid[i].seq < valid[j].seq
		})
	}

	out := make([]domain.Page, 0, len(valid))
	for i, p := range valid {
		id := fmt.Sprintf("page_%d", i+1)
		anchor := p.anchor()
		anchorTS := anchor.derived.RequestTime
		page := domain.Page{
			ID:              id,
			StartedDateTime: anchor.derived.StartedDateTime,
			Title:           p.title(),
			PageTimings:     domain.PageTimings{OnContentLoad: -1, OnLoad: -1},
		}
		if p.onContentLoad != nil {
			page.PageTimings.OnContentLoad = roundMs((*p.onContentLoad - anchorTS) * 1000)
		}
		if p.onLoad != nil {
			page.PageTimings.OnLoad = roundMs((*p.onLoad - anchorTS) * 1000)
		}
		for _, st := range p.entries {
			st.derived.Pageref = id
		}
		out = append(out, page)
		b.metrics.PagesEmitted.Inc()
	}
	return out
}
