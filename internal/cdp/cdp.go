// Package cdp defines the wire shapes of the DevTools-protocol events the
// builder consumes. Only the fields the builder reads are declared; unknown
// fields are dropped by the JSON decoder, and missing fields decode to zero
// values which the builder treats as "absent".
package cdp

import (
	"encoding/json"
	"sort"
	"strings"
)

// RequestID identifies one network transaction. Unique per transaction,
// except that an HTTP redirect reuses the id for the superseding request.
type RequestID string

// FrameID identifies a browsing-context frame.
type FrameID string

// MonotonicTime is seconds on the browser's monotonic clock.
type MonotonicTime float64

// WallTime is seconds since the Unix epoch as reported by the browser's
// wall clock. Less reliable than MonotonicTime; see the clock package.
type WallTime float64

// Headers is the protocol's header map. Duplicate header values (notably
// Set-Cookie) arrive joined with "\n" under a single key.
type Headers map[string]string

// Pairs flattens the header map into name/value pairs, splitting joined
// duplicate values back into individual pairs. Keys are sorted so output is
// deterministic across map iterations.
func (h Headers) Pairs() [][2]string {
	if len(h) == 0 {
		return nil
	}
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([][2]string, 0, len(h))
	for _, name := range names {
		for _, value := range strings.Split(h[name], "\n") {
			out = append(out, [2]string{name, value})
		}
	}
	return out
}

// Get returns the value for a header name, case-insensitively.
func (h Headers) Get(name string) (string, bool) {
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Request mirrors Network.Request.
type Request struct {
	URL              string  `json:"url"`
	URLFragment      string  `json:"urlFragment"`
	Method           string  `json:"method"`
	Headers          Headers `json:"headers"`
	PostData         string  `json:"postData"`
	HasPostData      bool    `json:"hasPostData"`
	MixedContentType string  `json:"mixedContentType"`
	InitialPriority  string  `json:"initialPriority"`
	ReferrerPolicy   string  `json:"referrerPolicy"`
	IsLinkPreload    bool    `json:"isLinkPreload"`
}

// Response mirrors Network.Response.
type Response struct {
	URL                string          `json:"url"`
	Status             int             `json:"status"`
	StatusText         string          `json:"statusText"`
	Headers            Headers         `json:"headers"`
	HeadersText        string          `json:"headersText"`
	MimeType           string          `json:"mimeType"`
	RequestHeaders     Headers         `json:"requestHeaders"`
	RequestHeadersText string          `json:"requestHeadersText"`
	ConnectionReused   bool            `json:"connectionReused"`
	ConnectionID       float64         `json:"connectionId"`
	RemoteIPAddress    string          `json:"remoteIPAddress"`
	RemotePort         int             `json:"remotePort"`
	FromDiskCache      bool            `json:"fromDiskCache"`
	FromServiceWorker  bool            `json:"fromServiceWorker"`
	FromPrefetchCache  bool            `json:"fromPrefetchCache"`
	FromEarlyHints     bool            `json:"fromEarlyHints"`
	EncodedDataLength  float64         `json:"encodedDataLength"`
	Timing             *ResourceTiming `json:"timing"`
	ResponseTime       float64         `json:"responseTime"`
	Protocol           string          `json:"protocol"`
	SecurityState      string          `json:"securityState"`
}

// ResourceTiming mirrors Network.ResourceTiming. RequestTime is a baseline
// in monotonic seconds; every other field is a millisecond offset from it,
// with -1 meaning "did not happen".
type ResourceTiming struct {
	RequestTime       float64 `json:"requestTime"`
	ProxyStart        float64 `json:"proxyStart"`
	ProxyEnd          float64 `json:"proxyEnd"`
	DNSStart          float64 `json:"dnsStart"`
	DNSEnd            float64 `json:"dnsEnd"`
	ConnectStart      float64 `json:"connectStart"`
	ConnectEnd        float64 `json:"connectEnd"`
	SSLStart          float64 `json:"sslStart"`
	SSLEnd            float64 `json:"sslEnd"`
	WorkerStart       float64 `json:"workerStart"`
	WorkerReady       float64 `json:"workerReady"`
	SendStart         float64 `json:"sendStart"`
	SendEnd           float64 `json:"sendEnd"`
	PushStart         float64 `json:"pushStart"`
	PushEnd           float64 `json:"pushEnd"`
	ReceiveHeadersEnd float64 `json:"receiveHeadersEnd"`
}

// Initiator mirrors Network.Initiator.
type Initiator struct {
	Type         string      `json:"type"`
	Stack        *StackTrace `json:"stack"`
	URL          string      `json:"url"`
	LineNumber   *float64    `json:"lineNumber"`
	ColumnNumber *float64    `json:"columnNumber"`

	// Raw preserves the initiator object verbatim for the archive's
	// _initiator_detail field.
	Raw json.RawMessage `json:"-"`
}

type StackTrace struct {
	Description string      `json:"description"`
	CallFrames  []CallFrame `json:"callFrames"`
	Parent      *StackTrace `json:"parent"`
}

type CallFrame struct {
	FunctionName string  `json:"functionName"`
	ScriptID     string  `json:"scriptId"`
	URL          string  `json:"url"`
	LineNumber   float64 `json:"lineNumber"`
	ColumnNumber float64 `json:"columnNumber"`
}

// UnmarshalJSON keeps a verbatim copy of the initiator payload alongside the
// decoded fields.
func (i *Initiator) UnmarshalJSON(data []byte) error {
	type alias Initiator
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*i = Initiator(a)
	i.Raw = append(i.Raw[:0], data...)
	return nil
}

// BlockedSetCookie mirrors Network.BlockedSetCookieWithReason.
type BlockedSetCookie struct {
	BlockedReasons []string     `json:"blockedReasons"`
	CookieLine     string       `json:"cookieLine"`
	Cookie         *StoreCookie `json:"cookie"`
}

// AssociatedCookie mirrors Network.AssociatedCookie: a cookie-store record
// the debugger associated with a request, possibly with block reasons.
type AssociatedCookie struct {
	Cookie         StoreCookie `json:"cookie"`
	BlockedReasons []string    `json:"blockedReasons"`
}

// Blocked reports whether the cookie carried at least one block reason.
func (a AssociatedCookie) Blocked() bool { return len(a.BlockedReasons) > 0 }

// StoreCookie mirrors Network.Cookie (the cookie-store shape, richer than a
// header-parsed cookie).
type StoreCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	Size     int     `json:"size"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	Session  bool    `json:"session"`
	SameSite string  `json:"sameSite"`
}

// WebSocketFrame mirrors Network.WebSocketFrame.
type WebSocketFrame struct {
	Opcode      float64 `json:"opcode"`
	Mask        bool    `json:"mask"`
	PayloadData string  `json:"payloadData"`
}
