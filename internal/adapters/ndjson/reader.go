// Package ndjson replays a newline-delimited JSON event log into an event
// sink. Each line is one {"method": ..., "params": ...} object, the shape
// both the live debugger connection and common capture tools emit.
package ndjson

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/UppaJung/hardy-har/internal/cdp"
)

// Sink consumes raw events. *builder.Builder satisfies it.
type Sink interface {
	OnEvent(method string, params json.RawMessage)
}

// maxLineBytes bounds a single event line; response bodies inlined into
// captures can get large.
const maxLineBytes = 64 << 20

// Replay feeds every well-formed line of r into sink, in order. Blank and
// malformed lines are skipped and counted, not fatal: a truncated capture
// should still yield an archive from the lines before the damage.
func Replay(r io.Reader, sink Sink, log zerolog.Logger) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), maxLineBytes)

	var line, skipped int
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var env cdp.Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Method == "" {
			skipped++
			log.Debug().Int("line", line).Msg("skipping malformed event line")
			continue
		}
		sink.OnEvent(env.Method, env.Params)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read event log: %w", err)
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Int("lines", line).Msg("event log contained malformed lines")
	}
	return nil
}
