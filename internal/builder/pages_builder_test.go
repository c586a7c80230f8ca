package builder

import (
	"fmt"
	"testing"
)

func pageScenario(t *testing.T, mimic bool) *Builder {
	t.Helper()
	b := newTestBuilder(Options{MimicChromeHAR: mimic})

	// Page 1: root frame F1 with a subframe F2.
	feed(t, b, "Page.frameStartedLoading", `{"frameId":"F1"}`)
	feed(t, b, "Page.frameRequestedNavigation", `{"frameId":"F1","url":"https://one.example/","reason":"typed"}`)
	feed(t, b, "Page.frameAttached", `{"frameId":"F2","parentFrameId":"F1"}`)
	feed(t, b, "Network.requestWillBeSent", requestEvent("p1-main", "https://one.example/", 100, 1700000100, "F1"))
	feed(t, b, "Network.responseReceived", responseEvent("p1-main", "https://one.example/", 200, 100.5, ""))
	feed(t, b, "Network.requestWillBeSent", requestEvent("p1-sub", "https://one.example/frame", 101, 1700000101, "F2"))
	feed(t, b, "Network.responseReceived", responseEvent("p1-sub", "https://one.example/frame", 200, 101.5, ""))
	feed(t, b, "Page.domContentEventFired", `{"timestamp":100.8}`)
	feed(t, b, "Page.loadEventFired", `{"timestamp":101.2}`)

	// Page 2: created later but navigating earlier in monotonic time.
	feed(t, b, "Page.frameStartedLoading", `{"frameId":"G1"}`)
	feed(t, b, "Network.requestWillBeSent", requestEvent("p2-main", "https://two.example/", 50, 1700000050, "G1"))
	feed(t, b, "Network.responseReceived", responseEvent("p2-main", "https://two.example/", 200, 50.5, ""))

	// A transaction whose frame no page owns.
	feed(t, b, "Network.requestWillBeSent", requestEvent("stray", "https://stray.example/", 200, 1700000200, "ZZ"))
	feed(t, b, "Network.responseReceived", responseEvent("stray", "https://stray.example/", 200, 200.5, ""))
	return b
}

func TestPagesGroupingAndOrdering(t *testing.T) {
	har := pageScenario(t, false).HAR()
	pages := har.Log.Pages
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d: %+v", len(pages), pages)
	}
	// Anchor-time ordering puts the earlier navigation first despite later
	// creation.
	if pages[0].ID != "page_1" || pages[0].Title != "https://two.example/" {
		t.Fatalf("unexpected first page: %+v", pages[0])
	}
	if pages[1].Title != "https://one.example/" {
		t.Fatalf("unexpected second page: %+v", pages[1])
	}

	byID := map[string]string{}
	for _, e := range har.Log.Entries {
		byID[e.RequestID] = e.Pageref
	}
	if byID["p1-main"] != pages[1].ID || byID["p1-sub"] != pages[1].ID {
		t.Fatalf("frame-tree entries landed on wrong pages: %v", byID)
	}
	if byID["p2-main"] != pages[0].ID {
		t.Fatalf("page 2 entry misassigned: %v", byID)
	}
	if byID["stray"] != pages[2].ID {
		t.Fatalf("stray entry should land on the synthesized pageless page: %v", byID)
	}
}

func TestPageTimingsRelativeToAnchor(t *testing.T) {
	har := pageScenario(t, false).HAR()
	var page1 = har.Log.Pages[1] // https://one.example/, anchor ts 100
	if got := page1.PageTimings.OnContentLoad; got != 800 {
		t.Fatalf("onContentLoad = %v, want 800ms after anchor", got)
	}
	if got := page1.PageTimings.OnLoad; got != 1200 {
		t.Fatalf("onLoad = %v, want 1200ms after anchor", got)
	}
	// Page 2 never fired either event.
	if p := har.Log.Pages[0].PageTimings; p.OnLoad != -1 || p.OnContentLoad != -1 {
		t.Fatalf("missing lifecycle events should report -1, got %+v", p)
	}
}

func TestPagesCreationOrderInCompatibilityMode(t *testing.T) {
	har := pageScenario(t, true).HAR()
	pages := har.Log.Pages
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	// Creation order: one.example first even though two.example is earlier.
	if pages[0].Title != "https://one.example/" || pages[1].Title != "https://two.example/" {
		t.Fatalf("compatibility mode should keep creation order: %q, %q", pages[0].Title, pages[1].Title)
	}
}

func TestOrphanedFrameDropped(t *testing.T) {
	b := newTestBuilder(Options{})
	// Parent was never seen: the frame and its transaction are discarded
	// rather than invented a parent — the transaction lands pageless.
	feed(t, b, "Page.frameAttached", `{"frameId":"child","parentFrameId":"ghost"}`)
	feed(t, b, "Page.frameStartedLoading", `{"frameId":"root"}`)
	feed(t, b, "Network.requestWillBeSent", requestEvent("r", "https://example.com/", 100, 1700000100, "root"))
	feed(t, b, "Network.responseReceived", responseEvent("r", "https://example.com/", 200, 100.5, ""))
	feed(t, b, "Network.requestWillBeSent", requestEvent("c", "https://example.com/c", 101, 1700000101, "child"))
	feed(t, b, "Network.responseReceived", responseEvent("c", "https://example.com/c", 200, 101.5, ""))

	har := b.HAR()
	if len(har.Log.Pages) != 2 {
		t.Fatalf("expected root page plus pageless page, got %d pages", len(har.Log.Pages))
	}
	for _, e := range har.Log.Entries {
		if e.RequestID == "c" && e.Pageref == har.Log.Pages[0].ID {
			t.Fatalf("orphaned frame's entry attached to an invented parent: %+v", e)
		}
	}
}

func TestSelfReferentialParentIsRoot(t *testing.T) {
	b := newTestBuilder(Options{})
	feed(t, b, "Page.frameAttached", `{"frameId":"F1","parentFrameId":"F1"}`)
	feed(t, b, "Network.requestWillBeSent", requestEvent("1", "https://example.com/", 100, 1700000100, "F1"))
	feed(t, b, "Network.responseReceived", responseEvent("1", "https://example.com/", 200, 100.5, ""))
	har := b.HAR()
	if len(har.Log.Pages) != 1 {
		t.Fatalf("self-parented frame should create a root page, got %d pages", len(har.Log.Pages))
	}
	if har.Log.Entries[0].Pageref != har.Log.Pages[0].ID {
		t.Fatalf("entry should belong to the root page")
	}
}

func TestPageIDsSequential(t *testing.T) {
	har := pageScenario(t, false).HAR()
	for i, p := range har.Log.Pages {
		if want := fmt.Sprintf("page_%d", i+1); p.ID != want {
			t.Fatalf("page %d id = %q, want %q", i, p.ID, want)
		}
	}
}
