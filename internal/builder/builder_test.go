package builder

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/UppaJung/hardy-har/internal/domain"
	"github.com/UppaJung/hardy-har/internal/infrastructure/observability"
)

func newTestBuilder(opts Options) *Builder {
	return New(opts, zerolog.Nop(), observability.NewMetrics())
}

func feed(t *testing.T, b *Builder, method, params string) {
	t.Helper()
	if !json.Valid([]byte(params)) {
		t.Fatalf("test event for %s is not valid JSON: %s", method, params)
	}
	b.OnEvent(method, json.RawMessage(params))
}

func requestEvent(id, url string, ts, wall float64, frame string) string {
	return fmt.Sprintf(`{"requestId":%q,"frameId":%q,"request":{"url":%q,"method":"GET","headers":{"Host":"example.com"},"initialPriority":"High"},"timestamp":%g,"wallTime":%g,"initiator":{"type":"other"},"type":"Document"}`,
		id, frame, url, ts, wall)
}

func responseEvent(id, url string, status int, ts float64, extra string) string {
	return fmt.Sprintf(`{"requestId":%q,"timestamp":%g,"type":"Document","response":{"url":%q,"status":%d,"statusText":"OK","headers":{"Content-Type":"text/html"},"mimeType":"text/html","protocol":"http/1.1"%s}}`,
		id, ts, url, status, extra)
}

func TestEntriesSortedByStartTimeRegardlessOfArrival(t *testing.T) {
	b := newTestBuilder(Options{})
	// Later-starting transaction arrives first.
	feed(t, b, "Network.requestWillBeSent", requestEvent("late", "https://example.com/b", 200, 1700000200, "F1"))
	feed(t, b, "Network.responseReceived", responseEvent("late", "https://example.com/b", 200, 200.5, ""))
	feed(t, b, "Network.requestWillBeSent", requestEvent("early", "https://example.com/a", 100, 1700000100, "F1"))
	feed(t, b, "Network.responseReceived", responseEvent("early", "https://example.com/a", 200, 100.5, ""))

	entries := b.HAR().Log.Entries
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RequestID != "early" || entries[1].RequestID != "late" {
		t.Fatalf("entries not sorted by start time: %s, %s", entries[0].RequestID, entries[1].RequestID)
	}
	if entries[0].RequestTime > entries[1].RequestTime {
		t.Fatalf("_requestTime not ascending: %f > %f", entries[0].RequestTime, entries[1].RequestTime)
	}
}

func TestRedirectChainSplitsEntries(t *testing.T) {
	b := newTestBuilder(Options{})
	feed(t, b, "Network.requestWillBeSent", requestEvent("X", "https://example.com/a", 100, 1700000100, "F1"))
	// Second initiating event for the same id carries the prior response.
	feed(t, b, "Network.requestWillBeSent", fmt.Sprintf(
		`{"requestId":"X","frameId":"F1","request":{"url":"https://example.com/b","method":"GET","headers":{}},"timestamp":101,"wallTime":1700000101,"initiator":{"type":"other"},"redirectResponse":{"url":"https://example.com/a","status":302,"statusText":"Found","headers":{"Location":"https://example.com/b"},"protocol":"http/1.1"}}`))
	feed(t, b, "Network.responseReceived", responseEvent("X", "https://example.com/b", 200, 101.5, ""))

	entries := b.HAR().Log.Entries
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for the redirect chain, got %d", len(entries))
	}
	first, second := entries[0], entries[1]
	if first.RequestID != "X" || second.RequestID != "X" {
		t.Fatalf("entries should share the base id, got %q and %q", first.RequestID, second.RequestID)
	}
	if first.Request.URL != "https://example.com/a" || first.Response.Status != 302 {
		t.Fatalf("first entry should be url A with the embedded redirect status: %s %d", first.Request.URL, first.Response.Status)
	}
	if first.Response.RedirectURL != "https://example.com/b" {
		t.Fatalf("redirect target lost: %q", first.Response.RedirectURL)
	}
	if second.Request.URL != "https://example.com/b" || second.Response.Status != 200 {
		t.Fatalf("second entry should be url B with the later response: %s %d", second.Request.URL, second.Response.Status)
	}
	if first.PriorRedirects != 0 || second.PriorRedirects != 1 {
		t.Fatalf("redirect counts: %d, %d", first.PriorRedirects, second.PriorRedirects)
	}
}

func extraInfoOrderScenario(t *testing.T, extraFirst bool) domain.Entry {
	t.Helper()
	b := newTestBuilder(Options{})
	extra := `{"requestId":"1","headers":{"x-wire-only":"1","Cookie":"sid=abc"},"associatedCookies":[{"cookie":{"name":"sid","value":"abc","domain":".example.com","path":"/"},"blockedReasons":[]},{"cookie":{"name":"blocked","value":"no"},"blockedReasons":["SameSiteStrict"]}]}`
	resp := responseEvent("1", "https://example.com/", 200, 100.5, "")
	feed(t, b, "Network.requestWillBeSent", requestEvent("1", "https://example.com/", 100, 1700000100, "F1"))
	if extraFirst {
		feed(t, b, "Network.requestWillBeSentExtraInfo", extra)
		feed(t, b, "Network.responseReceived", resp)
	} else {
		feed(t, b, "Network.responseReceived", resp)
		feed(t, b, "Network.requestWillBeSentExtraInfo", extra)
	}
	entries := b.HAR().Log.Entries
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	return entries[0]
}

func TestExtraInfoOrderIndependence(t *testing.T) {
	before := extraInfoOrderScenario(t, true)
	after := extraInfoOrderScenario(t, false)
	if !reflect.DeepEqual(before.Request.Headers, after.Request.Headers) {
		t.Fatalf("headers differ by arrival order:\n%v\n%v", before.Request.Headers, after.Request.Headers)
	}
	if !reflect.DeepEqual(before.Request.Cookies, after.Request.Cookies) {
		t.Fatalf("cookies differ by arrival order:\n%v\n%v", before.Request.Cookies, after.Request.Cookies)
	}
	// The associated record enriched the header-parsed cookie.
	found := false
	for _, c := range before.Request.Cookies {
		if c.Name == "sid" && c.Domain == ".example.com" {
			found = true
		}
		if c.Name == "blocked" {
			t.Fatalf("blocked cookie leaked into the archive: %+v", c)
		}
	}
	if !found {
		t.Fatalf("associated cookie detail missing: %v", before.Request.Cookies)
	}
	if _, ok := findHeader(before.Request.Headers, "x-wire-only"); !ok {
		t.Fatalf("extra-info wire header missing: %v", before.Request.Headers)
	}
}

func TestCacheFiltering(t *testing.T) {
	run := func(include bool) []domain.Entry {
		b := newTestBuilder(Options{IncludeResourcesFromDiskCache: include})
		feed(t, b, "Network.requestWillBeSent", requestEvent("1", "https://example.com/", 100, 1700000100, "F1"))
		feed(t, b, "Network.responseReceived", responseEvent("1", "https://example.com/", 200, 100.5, `,"fromDiskCache":true`))
		feed(t, b, "Network.requestServedFromCache", `{"requestId":"1"}`)
		return b.HAR().Log.Entries
	}
	if entries := run(false); len(entries) != 0 {
		t.Fatalf("cache-served transaction should be filtered by default, got %d entries", len(entries))
	}
	entries := run(true)
	if len(entries) != 1 {
		t.Fatalf("cache-served transaction should be included on request, got %d entries", len(entries))
	}
	if entries[0].Cache.BeforeRequest == nil {
		t.Fatal("cache.beforeRequest should be populated for a cache hit")
	}
	if !entries[0].Response.FromDiskCache {
		t.Fatal("_fromDiskCache should be set")
	}
}

func TestMonotonicStartTimesUnderClockSkew(t *testing.T) {
	b := newTestBuilder(Options{})
	// Wall clock jumps backwards between the two transactions.
	feed(t, b, "Network.requestWillBeSent", requestEvent("a", "https://example.com/a", 100, 1700000100, "F1"))
	feed(t, b, "Network.responseReceived", responseEvent("a", "https://example.com/a", 200, 100.5, ""))
	feed(t, b, "Network.requestWillBeSent", requestEvent("b", "https://example.com/b", 110, 1700000050, "F1"))
	feed(t, b, "Network.responseReceived", responseEvent("b", "https://example.com/b", 200, 110.5, ""))

	entries := b.HAR().Log.Entries
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].StartedDateTime > entries[1].StartedDateTime {
		t.Fatalf("derived start times went backwards: %s then %s", entries[0].StartedDateTime, entries[1].StartedDateTime)
	}
}

func TestUnsupportedSchemeFiltered(t *testing.T) {
	b := newTestBuilder(Options{})
	feed(t, b, "Network.requestWillBeSent", requestEvent("f", "ftp://example.com/file", 100, 1700000100, "F1"))
	feed(t, b, "Network.responseReceived", responseEvent("f", "ftp://example.com/file", 200, 100.5, ""))
	if entries := b.HAR().Log.Entries; len(entries) != 0 {
		t.Fatalf("ftp transaction should be filtered, got %d entries", len(entries))
	}
}

func TestWebSocketSchemeByPolicy(t *testing.T) {
	run := func(mimic bool) []domain.Entry {
		b := newTestBuilder(Options{MimicChromeHAR: mimic})
		feed(t, b, "Network.requestWillBeSent", requestEvent("ws", "wss://example.com/socket", 100, 1700000100, "F1"))
		feed(t, b, "Network.responseReceived", responseEvent("ws", "wss://example.com/socket", 101, 100.5, ""))
		feed(t, b, "Network.webSocketFrameSent", `{"requestId":"ws","timestamp":100.6,"response":{"opcode":1,"payloadData":"hello"}}`)
		feed(t, b, "Network.webSocketFrameReceived", `{"requestId":"ws","timestamp":100.7,"response":{"opcode":9,"payloadData":"cGluZw=="}}`)
		return b.HAR().Log.Entries
	}
	entries := run(false)
	if len(entries) != 1 {
		t.Fatalf("wss transaction should be included outside compatibility mode, got %d", len(entries))
	}
	msgs := entries[0].WebSocketMessages
	if len(msgs) != 2 {
		t.Fatalf("expected 2 websocket messages, got %d", len(msgs))
	}
	if msgs[0].Type != "send" || msgs[0].Opcode != domain.WebSocketOpcodeText {
		t.Fatalf("unexpected first message: %+v", msgs[0])
	}
	// Any non-text opcode (here: ping) normalizes to binary.
	if msgs[1].Type != "receive" || msgs[1].Opcode != domain.WebSocketOpcodeBinary {
		t.Fatalf("unexpected second message: %+v", msgs[1])
	}
	if entries := run(true); len(entries) != 0 {
		t.Fatalf("wss transaction should be excluded in compatibility mode, got %d", len(entries))
	}
}

func TestBodySizeFallbackChain(t *testing.T) {
	b := newTestBuilder(Options{})
	feed(t, b, "Network.requestWillBeSent", requestEvent("1", "https://example.com/", 100, 1700000100, "F1"))
	// 304 with no captured body and no Content-Length.
	feed(t, b, "Network.responseReceived",
		`{"requestId":"1","timestamp":100.5,"response":{"url":"https://example.com/","status":304,"statusText":"Not Modified","headers":{"ETag":"\"x\""},"protocol":"http/1.1"}}`)
	entries := b.HAR().Log.Entries
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].Response.BodySize; got != 0 {
		t.Fatalf("304 bodySize = %d, want 0", got)
	}
}

func TestBodySizeFromContentLength(t *testing.T) {
	b := newTestBuilder(Options{})
	feed(t, b, "Network.requestWillBeSent", requestEvent("1", "https://example.com/", 100, 1700000100, "F1"))
	feed(t, b, "Network.responseReceived",
		`{"requestId":"1","timestamp":100.5,"response":{"url":"https://example.com/","status":200,"statusText":"OK","headers":{"Content-Length":"4242"},"protocol":"h2"}}`)
	entries := b.HAR().Log.Entries
	if got := entries[0].Response.BodySize; got != 4242 {
		t.Fatalf("bodySize = %d, want 4242 from Content-Length", got)
	}
	if got := entries[0].Response.HTTPVersion; got != "http/2.0" {
		t.Fatalf("httpVersion = %q, want http/2.0", got)
	}
	// h2 header size is unknown without wire text.
	if got := entries[0].Response.HeadersSize; got != -1 {
		t.Fatalf("h2 headersSize = %d, want -1", got)
	}
}

func TestBodyAttachmentByPayloadShape(t *testing.T) {
	b := newTestBuilder(Options{IncludeTextFromResponseBody: true})
	feed(t, b, "Network.requestWillBeSent", requestEvent("1", "https://example.com/", 100, 1700000100, "F1"))
	feed(t, b, "Network.responseReceived", responseEvent("1", "https://example.com/", 200, 100.5, ""))
	// The body rides an arbitrary network event name; the payload shape
	// decides attribution.
	feed(t, b, "Network.somethingCustom", `{"requestId":"1","body":"hello world","base64Encoded":false}`)

	entries := b.HAR().Log.Entries
	if got := entries[0].Response.Content.Text; got != "hello world" {
		t.Fatalf("content text = %q, want body attached by shape", got)
	}
	if got := entries[0].Response.BodySize; got != 11 {
		t.Fatalf("bodySize = %d, want literal captured length 11", got)
	}
	if got := entries[0].Response.Content.Size; got != 11 {
		t.Fatalf("content size = %d, want 11", got)
	}
}

func TestDataChunksDominateContentSize(t *testing.T) {
	b := newTestBuilder(Options{})
	feed(t, b, "Network.requestWillBeSent", requestEvent("1", "https://example.com/", 100, 1700000100, "F1"))
	feed(t, b, "Network.responseReceived", responseEvent("1", "https://example.com/", 200, 100.5, ""))
	feed(t, b, "Network.dataReceived", `{"requestId":"1","timestamp":100.6,"dataLength":300,"encodedDataLength":120}`)
	feed(t, b, "Network.dataReceived", `{"requestId":"1","timestamp":100.7,"dataLength":200,"encodedDataLength":80}`)
	feed(t, b, "Network.loadingFinished", `{"requestId":"1","timestamp":100.8,"encodedDataLength":200}`)

	entries := b.HAR().Log.Entries
	content := entries[0].Response.Content
	if content.Size != 500 {
		t.Fatalf("content size = %d, want chunk sum 500", content.Size)
	}
	if content.Compression == nil || *content.Compression != 300 {
		t.Fatalf("compression = %v, want 300 saved bytes", content.Compression)
	}
}

func TestCanceledTransactionFiltered(t *testing.T) {
	b := newTestBuilder(Options{})
	feed(t, b, "Network.requestWillBeSent", requestEvent("1", "https://example.com/", 100, 1700000100, "F1"))
	feed(t, b, "Network.responseReceived", responseEvent("1", "https://example.com/", 200, 100.5, ""))
	feed(t, b, "Network.loadingFailed", `{"requestId":"1","timestamp":100.9,"errorText":"net::ERR_FAILED","canceled":true}`)
	if entries := b.HAR().Log.Entries; len(entries) != 0 {
		t.Fatalf("non-abort cancellation should be filtered, got %d entries", len(entries))
	}

	b = newTestBuilder(Options{})
	feed(t, b, "Network.requestWillBeSent", requestEvent("2", "https://example.com/", 100, 1700000100, "F1"))
	feed(t, b, "Network.responseReceived", responseEvent("2", "https://example.com/", 200, 100.5, ""))
	feed(t, b, "Network.loadingFailed", `{"requestId":"2","timestamp":100.9,"errorText":"net::ERR_ABORTED","canceled":true}`)
	if entries := b.HAR().Log.Entries; len(entries) != 1 {
		t.Fatalf("aborted transaction should survive, got %d entries", len(entries))
	}
}

func TestPriorityChangeWins(t *testing.T) {
	b := newTestBuilder(Options{})
	feed(t, b, "Network.requestWillBeSent", requestEvent("1", "https://example.com/", 100, 1700000100, "F1"))
	feed(t, b, "Network.responseReceived", responseEvent("1", "https://example.com/", 200, 100.5, ""))
	feed(t, b, "Network.resourceChangedPriority", `{"requestId":"1","newPriority":"VeryHigh","timestamp":100.2}`)
	entries := b.HAR().Log.Entries
	if got := entries[0].Priority; got != "VeryHigh" {
		t.Fatalf("priority = %q, want VeryHigh", got)
	}
}

func TestUnrecognizedEventsIgnored(t *testing.T) {
	b := newTestBuilder(Options{})
	feed(t, b, "Debugger.paused", `{"reason":"other"}`)
	feed(t, b, "Network.requestWillBeSent", requestEvent("1", "https://example.com/", 100, 1700000100, "F1"))
	feed(t, b, "Network.responseReceived", responseEvent("1", "https://example.com/", 200, 100.5, ""))
	feed(t, b, "Page.javascriptDialogOpening", `{"message":"hi"}`)
	if entries := b.HAR().Log.Entries; len(entries) != 1 {
		t.Fatalf("unrecognized events should not disturb the archive, got %d entries", len(entries))
	}
}

func TestEventsAfterBuildIgnored(t *testing.T) {
	b := newTestBuilder(Options{})
	feed(t, b, "Network.requestWillBeSent", requestEvent("1", "https://example.com/", 100, 1700000100, "F1"))
	feed(t, b, "Network.responseReceived", responseEvent("1", "https://example.com/", 200, 100.5, ""))
	first := b.HAR()
	feed(t, b, "Network.requestWillBeSent", requestEvent("2", "https://example.com/late", 200, 1700000200, "F1"))
	second := b.HAR()
	if len(second.Log.Entries) != 1 {
		t.Fatalf("archive mutated after build: %d entries", len(second.Log.Entries))
	}
	if first != second {
		t.Fatal("HAR() should return the cached document")
	}
}

func findHeader(pairs []domain.NameValuePair, name string) (string, bool) {
	for _, p := range pairs {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}
