package builder

import (
	"net/url"
	"strconv"

	"github.com/UppaJung/hardy-har/internal/domain"
	"github.com/UppaJung/hardy-har/internal/headerutil"
)

// bodySizeInputs carries everything the response body-size rule may consult.
type bodySizeInputs struct {
	bodyLen       int64
	haveBody      bool
	status        int
	contentLength string
	haveCL        bool
	encodedLength int64
	haveEncoded   bool
	headersSize   int64
}

// policy isolates the derivations that genuinely diverge between the
// corrected behavior and predecessor-tool compatibility. One implementation
// is injected at construction; nothing else branches on the mode.
type policy interface {
	// RequestHeadersSize applies when no raw request-header text was
	// captured. reconstructable is true for HTTP/1.x responses not served
	// from cache or early hints.
	RequestHeadersSize(startLine string, headers []domain.NameValuePair, reconstructable bool) int64

	// ResponseBodySize derives Response.BodySize.
	ResponseBodySize(in bodySizeInputs) int64

	// Compression returns the content-encoding savings to report, or nil
	// to omit the field.
	Compression(contentSize, encodedLength int64, haveEncoded bool) *int64

	// PreferAssociatedCookies reports whether cookie-store records
	// supersede header-parsed request cookies of the same name.
	PreferAssociatedCookies() bool

	// OrderPagesByStartTime reports whether pages are ordered by anchor
	// time (true) or creation order (false).
	OrderPagesByStartTime() bool

	// IncludeWebSocketSchemes reports whether ws/wss transactions are
	// archive-eligible.
	IncludeWebSocketSchemes() bool

	// FormatURL renders a request URL for the archive.
	FormatURL(raw string) string
}

func policyFor(opts Options) policy {
	if opts.MimicChromeHAR {
		return chromeHARPolicy{}
	}
	return correctedPolicy{}
}

// correctedPolicy is the default, technically-correct rule set.
type correctedPolicy struct{}

func (correctedPolicy) RequestHeadersSize(startLine string, headers []domain.NameValuePair, reconstructable bool) int64 {
	if !reconstructable {
		return -1
	}
	return headerutil.BlockSize(startLine, headers)
}

func (correctedPolicy) ResponseBodySize(in bodySizeInputs) int64 {
	if in.haveBody {
		return in.bodyLen
	}
	if statusForbidsBody(in.status) {
		return 0
	}
	if in.haveCL {
		if n, err := strconv.ParseInt(in.contentLength, 10, 64); err == nil {
			return n
		}
	}
	return -1
}

func (correctedPolicy) Compression(contentSize, encodedLength int64, haveEncoded bool) *int64 {
	if !haveEncoded {
		return nil
	}
	saved := contentSize - encodedLength
	if saved <= 0 {
		return nil
	}
	return &saved
}

func (correctedPolicy) PreferAssociatedCookies() bool { return true }
func (correctedPolicy) OrderPagesByStartTime() bool   { return true }
func (correctedPolicy) IncludeWebSocketSchemes() bool { return true }
func (correctedPolicy) FormatURL(raw string) string   { return raw }

// chromeHARPolicy reproduces the predecessor tool's output field-for-field,
// quirks included. Do not fix behavior here.
type chromeHARPolicy struct{}

func (chromeHARPolicy) RequestHeadersSize(string, []domain.NameValuePair, bool) int64 {
	// The predecessor never reconstructs a header block.
	return -1
}

func (chromeHARPolicy) ResponseBodySize(in bodySizeInputs) int64 {
	// Transfer length minus header size, even when that mixes encoded and
	// decoded byte counts.
	if !in.haveEncoded || in.headersSize < 0 {
		return -1
	}
	if size := in.encodedLength - in.headersSize; size >= 0 {
		return size
	}
	return -1
}

func (chromeHARPolicy) Compression(int64, int64, bool) *int64 { return nil }

func (chromeHARPolicy) PreferAssociatedCookies() bool { return false }
func (chromeHARPolicy) OrderPagesByStartTime() bool   { return false }
func (chromeHARPolicy) IncludeWebSocketSchemes() bool { return false }

func (chromeHARPolicy) FormatURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.String()
}

// statusForbidsBody reports status codes the HTTP spec defines as bodyless.
func statusForbidsBody(status int) bool {
	return (status >= 100 && status < 200) || status == 204 || status == 304
}
