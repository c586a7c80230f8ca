package builder

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/UppaJung/hardy-har/internal/cdp"
	"github.com/UppaJung/hardy-har/internal/clock"
	"github.com/UppaJung/hardy-har/internal/cookieutil"
	"github.com/UppaJung/hardy-har/internal/domain"
	"github.com/UppaJung/hardy-har/internal/headerutil"
	"github.com/UppaJung/hardy-har/pkg/shared/redact"
)

// entryDeriver computes every output field of one transaction from its
// frozen accumulated events. All derivations are pure reads of the state;
// derive runs once per state and the result is cached by the caller.
type entryDeriver struct {
	st   *entryState
	opts Options
	pol  policy
	tl   *clock.TimeLord
}

const startedDateTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// derive builds the archive entry. Returns nil when a defect surfaces that
// the eligibility check could not see (a request with an empty URL, for
// example); callers drop nil entries.
func (d *entryDeriver) derive() *domain.Entry {
	st := d.st
	req := st.mustRequest()
	resp := st.mustResponse()
	if req.Request.URL == "" {
		return nil
	}

	startTS := st.startTimestamp()
	entry := &domain.Entry{
		StartedDateTime: d.tl.EstimateTime(startTS).Format(startedDateTimeLayout),
		RequestID:       string(st.requestID),
		RequestTime:     startTS,
		PriorRedirects:  st.priorRedirects,
		ResourceType:    req.Type,
		ServerIPAddress: resp.RemoteIPAddress,
	}

	entry.Request = d.deriveRequest(req, resp)
	entry.Response = d.deriveResponse(resp)
	entry.Timings = d.deriveTimings(resp)
	entry.Time = totalTime(entry.Timings)
	entry.Priority = d.derivePriority(req)
	d.deriveInitiator(req, entry)
	entry.WebSocketMessages = d.deriveWebSocketMessages()
	entry.WasPushed = st.wasPushed()

	if st.fromCache() {
		entry.Response.FromDiskCache = true
		entry.Cache.BeforeRequest = &domain.CacheState{LastAccess: "", ETag: "", HitCount: 0}
	}
	if d.opts.RedactSensitive {
		redactEntry(entry)
	}
	return entry
}

func (d *entryDeriver) deriveRequest(req *cdp.RequestWillBeSent, resp *cdp.Response) domain.Request {
	st := d.st
	fullURL := st.fullURL(d.pol)

	// Header layers in increasing precedence: extra-info wire headers, the
	// response's captured request headers, the initiating event's own.
	var extraPairs []domain.NameValuePair
	if st.requestExtra != nil {
		extraPairs = headerutil.FromWire(st.requestExtra.Headers)
	}
	headers := headerutil.Merge(extraPairs,
		headerutil.FromWire(resp.RequestHeaders),
		headerutil.FromWire(req.Request.Headers))

	httpVersion := normalizeProtocol(resp.Protocol)
	out := domain.Request{
		Method:      req.Request.Method,
		URL:         fullURL,
		HTTPVersion: httpVersion,
		Headers:     headers,
		QueryString: queryPairs(req.Request.URL),
		Cookies:     d.deriveRequestCookies(headers),
	}

	// Raw wire text is authoritative for sizing; reconstruction is a
	// policy decision past that.
	if resp.RequestHeadersText != "" {
		out.HeadersSize = int64(len(resp.RequestHeadersText))
	} else {
		reconstructable := headerutil.IsHTTP1x(httpVersion) && !st.fromCache() && !st.fromEarlyHints()
		startLine := req.Request.Method + " " + fullURL + " " + strings.ToUpper(httpVersion)
		out.HeadersSize = d.pol.RequestHeadersSize(startLine, headers, reconstructable)
	}

	switch {
	case req.Request.PostData != "":
		out.PostData = derivePostData(req.Request.PostData, headers)
		out.BodySize = int64(len(req.Request.PostData))
	case req.Request.HasPostData:
		out.BodySize = -1
	default:
		out.BodySize = 0
	}
	return out
}

func (d *entryDeriver) deriveRequestCookies(headers []domain.NameValuePair) []domain.Cookie {
	st := d.st
	var fromHeader []domain.Cookie
	if v, ok := headerutil.Get(headers, "Cookie"); ok {
		fromHeader = cookieutil.FromRequestHeader(v)
	}

	blocked := map[string]bool{}
	var associated []domain.Cookie
	if st.requestExtra != nil {
		for _, ac := range st.requestExtra.AssociatedCookies {
			if ac.Blocked() {
				blocked[ac.Cookie.Name] = true
			} else {
				associated = append(associated, cookieutil.FromStore(ac.Cookie))
			}
		}
	}
	fromHeader = cookieutil.ExcludeNames(fromHeader, blocked)
	if !d.pol.PreferAssociatedCookies() {
		return ensureCookies(fromHeader)
	}
	return ensureCookies(cookieutil.PreferAssociated(fromHeader, associated))
}

func (d *entryDeriver) deriveResponse(resp *cdp.Response) domain.Response {
	st := d.st

	headers := headerutil.FromWire(resp.Headers)
	if len(headers) == 0 && st.responseExtra != nil {
		headers = headerutil.FromWire(st.responseExtra.Headers)
	}
	httpVersion := normalizeProtocol(resp.Protocol)

	out := domain.Response{
		Status:         resp.Status,
		StatusText:     resp.StatusText,
		HTTPVersion:    httpVersion,
		Headers:        headers,
		Cookies:        d.deriveResponseCookies(headers),
		FromEarlyHints: resp.FromEarlyHints,
	}
	if loc, ok := headerutil.Get(headers, "Location"); ok {
		out.RedirectURL = loc
	}

	out.HeadersSize = d.responseHeadersSize(resp, headers)

	bodyLen, haveBody := st.decodedBodyLength()
	cl, haveCL := headerutil.Get(headers, "Content-Length")
	in := bodySizeInputs{
		bodyLen:       bodyLen,
		haveBody:      haveBody,
		status:        resp.Status,
		contentLength: cl,
		haveCL:        haveCL,
		headersSize:   out.HeadersSize,
	}
	if st.finished != nil {
		in.encodedLength = int64(st.finished.EncodedDataLength)
		in.haveEncoded = true
		transfer := st.finished.EncodedDataLength
		out.TransferSize = &transfer
	}
	out.BodySize = d.pol.ResponseBodySize(in)
	out.Content = d.deriveContent(resp, in)
	return out
}

// responseHeadersSize: captured wire text wins; otherwise an approximate
// HTTP/1.x status block is measured; otherwise unknown.
func (d *entryDeriver) responseHeadersSize(resp *cdp.Response, headers []domain.NameValuePair) int64 {
	if resp.HeadersText != "" {
		return int64(len(resp.HeadersText))
	}
	if st := d.st; st.responseExtra != nil && st.responseExtra.HeadersText != "" {
		return int64(len(st.responseExtra.HeadersText))
	}
	httpVersion := normalizeProtocol(resp.Protocol)
	if headerutil.IsHTTP1x(httpVersion) && !d.st.fromCache() && !d.st.fromEarlyHints() {
		startLine := strings.ToUpper(httpVersion) + " " + strconv.Itoa(resp.Status) + " " + resp.StatusText
		return headerutil.BlockSize(startLine, headers)
	}
	return -1
}

func (d *entryDeriver) deriveContent(resp *cdp.Response, in bodySizeInputs) domain.Content {
	st := d.st
	content := domain.Content{MimeType: resp.MimeType}

	var chunkTotal int64
	for _, c := range st.chunks {
		chunkTotal += c.DataLength
	}
	switch {
	case len(st.chunks) > 0:
		content.Size = chunkTotal
	case in.haveBody:
		content.Size = in.bodyLen
	default:
		content.Size = 0
	}

	content.Compression = d.pol.Compression(content.Size, in.encodedLength, in.haveEncoded)

	if d.opts.IncludeTextFromResponseBody && st.body != nil && st.body.Body != nil {
		content.Text = *st.body.Body
		if st.body.Base64Encoded {
			content.Encoding = "base64"
		}
	}
	return content
}

func (d *entryDeriver) deriveResponseCookies(headers []domain.NameValuePair) []domain.Cookie {
	st := d.st
	var cookies []domain.Cookie
	for _, v := range headerutil.Values(headers, "Set-Cookie") {
		cookies = append(cookies, cookieutil.FromSetCookieHeader(v)...)
	}
	blocked := map[string]bool{}
	if st.responseExtra != nil {
		for _, bc := range st.responseExtra.BlockedCookies {
			if len(bc.BlockedReasons) == 0 {
				continue
			}
			switch {
			case bc.Cookie != nil:
				blocked[bc.Cookie.Name] = true
			case bc.CookieLine != "":
				if parsed := cookieutil.FromSetCookieHeader(bc.CookieLine); len(parsed) > 0 {
					blocked[parsed[0].Name] = true
				}
			}
		}
	}
	return ensureCookies(cookieutil.ExcludeNames(cookies, blocked))
}

// deriveTimings maps the raw timing object's phase pairs onto the archive
// breakdown. Each phase is -1 when an endpoint is absent or the difference
// would be negative.
func (d *entryDeriver) deriveTimings(resp *cdp.Response) domain.Timings {
	st := d.st
	timings := domain.Timings{Blocked: -1, DNS: -1, Connect: -1, Send: -1, Wait: -1, Receive: -1}
	t := resp.Timing
	if t == nil {
		return timings
	}

	timings.DNS = phase(t.DNSStart, t.DNSEnd)
	timings.Connect = phase(t.ConnectStart, t.ConnectEnd)
	timings.Send = phase(t.SendStart, t.SendEnd)
	timings.Wait = phase(t.SendEnd, t.ReceiveHeadersEnd)
	if ssl := phase(t.SSLStart, t.SSLEnd); ssl >= 0 {
		timings.SSL = &ssl
	}

	// blocked is the queueing gap before the first connection phase began.
	blocked := -1.0
	for _, start := range []float64{t.DNSStart, t.ConnectStart, t.SendStart} {
		if start >= 0 && (blocked < 0 || start < blocked) {
			blocked = start
		}
	}
	if blocked >= 0 {
		timings.Blocked = roundMs(blocked)
	}

	endTS := -1.0
	if st.finished != nil {
		endTS = float64(st.finished.Timestamp)
	} else if st.failed != nil {
		endTS = float64(st.failed.Timestamp)
	}
	if endTS >= 0 && t.RequestTime > 0 && t.ReceiveHeadersEnd >= 0 {
		receive := (endTS-t.RequestTime)*1000 - t.ReceiveHeadersEnd
		if receive < 0 {
			receive = 0
		}
		timings.Receive = roundMs(receive)
	}
	return timings
}

func (d *entryDeriver) derivePriority(req *cdp.RequestWillBeSent) string {
	if n := len(d.st.priorities); n > 0 {
		return d.st.priorities[n-1].NewPriority
	}
	return req.Request.InitialPriority
}

func (d *entryDeriver) deriveInitiator(req *cdp.RequestWillBeSent, entry *domain.Entry) {
	init := req.Initiator
	if init == nil {
		return
	}
	entry.InitiatorType = init.Type
	entry.InitiatorDetail = string(init.Raw)
	switch init.Type {
	case "parser":
		entry.InitiatorURL = init.URL
		entry.InitiatorLine = init.LineNumber
	case "script":
		if init.Stack == nil || len(init.Stack.CallFrames) == 0 {
			return
		}
		top := init.Stack.CallFrames[0]
		entry.InitiatorURL = top.URL
		line, col := top.LineNumber, top.ColumnNumber
		entry.InitiatorLine = &line
		entry.InitiatorColumn = &col
		entry.InitiatorFunction = top.FunctionName
		entry.InitiatorScriptID = top.ScriptID
	}
}

func (d *entryDeriver) deriveWebSocketMessages() []domain.WebSocketMessage {
	st := d.st
	if len(st.wsFrames) == 0 {
		return nil
	}
	out := make([]domain.WebSocketMessage, 0, len(st.wsFrames))
	for _, f := range st.wsFrames {
		if f.frame == nil {
			continue
		}
		opcode := int(f.frame.Opcode)
		if opcode != domain.WebSocketOpcodeText {
			// Only two opcodes ever reach the archive: UTF-8 text, and
			// base64 binary for everything else.
			opcode = domain.WebSocketOpcodeBinary
		}
		out = append(out, domain.WebSocketMessage{
			Type:   f.direction,
			Time:   d.tl.EstimateWallTime(float64(f.timestamp)),
			Opcode: opcode,
			Data:   f.frame.PayloadData,
		})
	}
	return out
}

// derivePostData renders the request body. Parseable urlencoded bodies get
// params; anything unparseable falls back to literal text with its declared
// MIME type.
func derivePostData(text string, headers []domain.NameValuePair) *domain.PostData {
	mime, _ := headerutil.Get(headers, "Content-Type")
	pd := &domain.PostData{MimeType: mime, Text: text}
	if strings.Contains(strings.ToLower(mime), "application/x-www-form-urlencoded") {
		if params, ok := parseFormParams(text); ok {
			pd.Params = params
		}
	}
	return pd
}

// parseFormParams splits an urlencoded body into ordered params. Returns
// false on any decoding failure so the caller keeps the literal text only.
func parseFormParams(text string) ([]domain.PostDataParam, bool) {
	if _, err := url.ParseQuery(text); err != nil {
		return nil, false
	}
	var out []domain.PostDataParam
	for _, part := range strings.Split(text, "&") {
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		n, err1 := url.QueryUnescape(name)
		v, err2 := url.QueryUnescape(value)
		if err1 != nil || err2 != nil {
			return nil, false
		}
		out = append(out, domain.PostDataParam{Name: n, Value: v})
	}
	return out, true
}

// redactEntry masks credential-bearing values in place.
func redactEntry(entry *domain.Entry) {
	maskPairs := func(pairs []domain.NameValuePair) {
		for i := range pairs {
			pairs[i].Value = redact.Mask(pairs[i].Name, pairs[i].Value)
		}
	}
	maskPairs(entry.Request.Headers)
	maskPairs(entry.Response.Headers)
	for i := range entry.Request.Cookies {
		entry.Request.Cookies[i].Value = redact.Masked
	}
	for i := range entry.Response.Cookies {
		entry.Response.Cookies[i].Value = redact.Masked
	}
	if entry.Response.Content.Text != "" && entry.Response.Content.Encoding == "" {
		entry.Response.Content.Text = redact.JSON(entry.Response.Content.Text)
	}
}

// totalTime sums the applicable phases, skipping -1 sentinels, per HAR's
// definition of entry.time.
func totalTime(t domain.Timings) float64 {
	sum := 0.0
	for _, v := range []float64{t.Blocked, t.DNS, t.Connect, t.Send, t.Wait, t.Receive} {
		if v > 0 {
			sum += v
		}
	}
	return roundMs(sum)
}

func phase(start, end float64) float64 {
	if start < 0 || end < 0 {
		return -1
	}
	if diff := end - start; diff >= 0 {
		return roundMs(diff)
	}
	return -1
}

// roundMs rounds a millisecond quantity to thousandths.
func roundMs(ms float64) float64 {
	return math.Round(ms*1000) / 1000
}

func normalizeProtocol(protocol string) string {
	switch strings.ToLower(protocol) {
	case "":
		return "unknown"
	case "h2":
		return "http/2.0"
	case "h3":
		return "http/3.0"
	default:
		return strings.ToLower(protocol)
	}
}

func ensureCookies(c []domain.Cookie) []domain.Cookie {
	if c == nil {
		return []domain.Cookie{}
	}
	return c
}
