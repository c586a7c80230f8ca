package clock

import (
	"strings"
	"testing"
)

func TestAnchorAtSmallestTimestamp(t *testing.T) {
	tl := New()
	tl.Record(200.0, 1700000300.0)
	tl.Record(100.0, 1700000150.0) // smaller timestamp arrives later
	if got := tl.EstimateWallTime(100.0); got != 1700000150.0 {
		t.Fatalf("estimate at anchor = %f, want 1700000150", got)
	}
	if got := tl.EstimateWallTime(150.0); got != 1700000200.0 {
		t.Fatalf("estimate = %f, want 1700000200", got)
	}
}

func TestMonotonicEstimatesUnderSkew(t *testing.T) {
	tl := New()
	// Wall samples go backwards while monotonic time advances.
	tl.Record(10.0, 1700000020.0)
	tl.Record(11.0, 1700000019.0)
	tl.Record(12.0, 1700000023.0)
	prev := tl.EstimateWallTime(10.0)
	for _, ts := range []float64{10.5, 11.0, 11.5, 12.0, 13.0} {
		got := tl.EstimateWallTime(ts)
		if got < prev {
			t.Fatalf("estimate went backwards at ts=%f: %f < %f", ts, got, prev)
		}
		prev = got
	}
}

func TestNoSamples(t *testing.T) {
	tl := New()
	if got := tl.EstimateWallTime(42.0); got != 42.0 {
		t.Fatalf("estimate with no samples = %f, want passthrough 42", got)
	}
	if rep := tl.SkewReport(); !strings.Contains(rep, "no clock samples") {
		t.Fatalf("unexpected report: %q", rep)
	}
}

func TestSkewReportSpread(t *testing.T) {
	tl := New()
	tl.Record(1.0, 1000.0)   // offset 999
	tl.Record(2.0, 1001.002) // offset 999.002
	rep := tl.SkewReport()
	if !strings.Contains(rep, "2 samples") {
		t.Fatalf("unexpected report: %q", rep)
	}
	if !strings.Contains(rep, "2.000ms") {
		t.Fatalf("expected 2.000ms spread in report: %q", rep)
	}
}
