package headerutil

import (
	"testing"

	"github.com/UppaJung/hardy-har/internal/cdp"
	"github.com/UppaJung/hardy-har/internal/domain"
)

func TestFromWireSplitsJoinedValues(t *testing.T) {
	pairs := FromWire(cdp.Headers{
		"Set-Cookie":   "a=1\nb=2",
		"Content-Type": "text/html",
	})
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d: %v", len(pairs), pairs)
	}
	if got := Values(pairs, "set-cookie"); len(got) != 2 || got[0] != "a=1" || got[1] != "b=2" {
		t.Fatalf("unexpected set-cookie values: %v", got)
	}
}

func TestMergePrecedence(t *testing.T) {
	low := []domain.NameValuePair{{Name: "accept", Value: "*/*"}, {Name: "X-Low", Value: "1"}}
	mid := []domain.NameValuePair{{Name: "Accept", Value: "text/html"}}
	high := []domain.NameValuePair{{Name: "X-High", Value: "9"}}
	merged := Merge(low, mid, high)
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged headers, got %d: %v", len(merged), merged)
	}
	if v, ok := Get(merged, "ACCEPT"); !ok || v != "text/html" {
		t.Fatalf("later layer should win on collision, got %q ok=%v", v, ok)
	}
	// Collision keeps the earlier layer's position.
	if merged[0].Name != "Accept" {
		t.Fatalf("expected replaced header in original position, got %v", merged)
	}
}

func TestBlockSize(t *testing.T) {
	pairs := []domain.NameValuePair{{Name: "Host", Value: "example.com"}}
	// "GET / HTTP/1.1\r\n" (16) + "Host: example.com\r\n" (19) + "\r\n" (2)
	if got := BlockSize("GET / HTTP/1.1", pairs); got != 37 {
		t.Fatalf("block size = %d, want 37", got)
	}
}

func TestIsHTTP1x(t *testing.T) {
	if !IsHTTP1x("HTTP/1.1") || !IsHTTP1x("http/1.0") {
		t.Fatal("HTTP/1.x versions should match")
	}
	if IsHTTP1x("h2") || IsHTTP1x("h3") || IsHTTP1x("") {
		t.Fatal("non-1.x protocols should not match")
	}
}
