package builder

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/UppaJung/hardy-har/internal/cdp"
	"github.com/UppaJung/hardy-har/internal/domain"
)

// wsFrame is one captured WebSocket frame with its direction.
type wsFrame struct {
	direction string
	timestamp cdp.MonotonicTime
	frame     *cdp.WebSocketFrame
}

// entryState accumulates every event pertaining to one transaction. Events
// assign fields additively and in arbitrary arrival order; nothing is
// cleared except during redirect splitting in EntriesBuilder. Derivation
// into a domain.Entry happens once, after accumulation is complete.
type entryState struct {
	requestID cdp.RequestID
	seq       int
	// priorRedirects counts how many requests preceded this one under the
	// same identifier.
	priorRedirects int

	request *cdp.RequestWillBeSent
	// redirectResponse is the terminal response captured when a later
	// initiating event reused this identifier.
	redirectResponse *cdp.Response
	response         *cdp.ResponseReceived
	requestExtra     *cdp.RequestWillBeSentExtraInfo
	responseExtra    *cdp.ResponseReceivedExtraInfo
	servedFromCache  bool
	finished         *cdp.LoadingFinished
	failed           *cdp.LoadingFailed
	chunks           []cdp.DataReceived
	priorities       []cdp.ResourceChangedPriority
	wsFrames         []wsFrame
	body             *cdp.ResponseBody

	// derived is the compute-once output record; derivedDone distinguishes
	// "not derived yet" from "derived ineligible (nil)".
	derived     *domain.Entry
	derivedDone bool
}

// mustRequest returns the initiating event. Calling it on a state with no
// request is an internal invariant breach, not bad input: the eligibility
// filter keeps such states out of every derivation path.
func (s *entryState) mustRequest() *cdp.RequestWillBeSent {
	if s.request == nil || s.request.Request == nil {
		panic(fmt.Sprintf("hardy-har: entry %q read before its request event was set", s.requestID))
	}
	return s.request
}

// mustResponse returns the primary response, falling back to the terminal
// redirect response. Panics when neither exists; see mustRequest.
func (s *entryState) mustResponse() *cdp.Response {
	if s.response != nil && s.response.Response != nil {
		return s.response.Response
	}
	if s.redirectResponse != nil {
		return s.redirectResponse
	}
	panic(fmt.Sprintf("hardy-har: entry %q read before any response was set", s.requestID))
}

func (s *entryState) hasResponse() bool {
	return (s.response != nil && s.response.Response != nil) || s.redirectResponse != nil
}

func (s *entryState) frameID() cdp.FrameID {
	if s.request == nil {
		return ""
	}
	return s.request.FrameID
}

// fromCache reports whether the transaction was served from the browser
// cache (either the dedicated cache-hit event or the response flag).
func (s *entryState) fromCache() bool {
	if s.servedFromCache {
		return true
	}
	return s.hasResponse() && s.mustResponse().FromDiskCache
}

// wasPushed reports an HTTP/2 server push, which is never cache-filtered.
func (s *entryState) wasPushed() bool {
	if !s.hasResponse() {
		return false
	}
	t := s.mustResponse().Timing
	return t != nil && t.PushStart > 0
}

func (s *entryState) fromEarlyHints() bool {
	return s.hasResponse() && s.mustResponse().FromEarlyHints
}

// startTimestamp is the transaction's monotonic start: the response
// timing's requestTime when known, else the initiating event's timestamp.
func (s *entryState) startTimestamp() float64 {
	if s.hasResponse() {
		if t := s.mustResponse().Timing; t != nil && t.RequestTime > 0 {
			return t.RequestTime
		}
	}
	return float64(s.mustRequest().Timestamp)
}

func (s *entryState) scheme() string {
	u := s.mustRequest().Request.URL
	if i := strings.Index(u, ":"); i > 0 {
		return strings.ToLower(u[:i])
	}
	return ""
}

// ineligibleReason reports why the transaction is excluded from the
// archive, or "" if it is eligible.
func (s *entryState) ineligibleReason(opts Options, pol policy) string {
	if s.request == nil || s.request.Request == nil {
		return "no_request"
	}
	if !s.hasResponse() {
		return "no_response"
	}
	if s.failed != nil && s.failed.Canceled && s.failed.ErrorText != "net::ERR_ABORTED" {
		return "canceled"
	}
	switch s.scheme() {
	case "http", "https":
	case "ws", "wss":
		if !pol.IncludeWebSocketSchemes() {
			return "unsupported_scheme"
		}
	default:
		return "unsupported_scheme"
	}
	if s.fromCache() && !s.wasPushed() && !s.fromEarlyHints() && !opts.IncludeResourcesFromDiskCache {
		return "from_cache"
	}
	return ""
}

// decodedBodyLength is the captured body's byte length after undoing base64
// transport encoding. (-1, false) when no body was fetched.
func (s *entryState) decodedBodyLength() (int64, bool) {
	if s.body == nil || s.body.Body == nil {
		return -1, false
	}
	if s.body.Base64Encoded {
		if n, err := base64.StdEncoding.DecodeString(*s.body.Body); err == nil {
			return int64(len(n)), true
		}
		return int64(base64.StdEncoding.DecodedLen(len(*s.body.Body))), true
	}
	return int64(len(*s.body.Body)), true
}

// fullURL joins the request URL with its fragment, rendered per policy.
func (s *entryState) fullURL(pol policy) string {
	r := s.mustRequest().Request
	return pol.FormatURL(r.URL + r.URLFragment)
}

// queryPairs splits a URL's raw query into ordered name/value pairs,
// preserving duplicates and order (which net/url's Values map cannot).
func queryPairs(rawURL string) []domain.NameValuePair {
	out := []domain.NameValuePair{}
	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return out
	}
	for _, part := range strings.Split(u.RawQuery, "&") {
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		if n, err := url.QueryUnescape(name); err == nil {
			name = n
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		out = append(out, domain.NameValuePair{Name: name, Value: value})
	}
	return out
}
