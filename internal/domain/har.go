package domain

// HAR 1.2 document model produced by the builder.
// Field set follows http://www.softwareishard.com/blog/har-12-spec/ plus the
// underscore-prefixed custom fields DevTools-family tools conventionally emit.

type HAR struct {
	Log Log `json:"log"`
}

type Log struct {
	Version string  `json:"version"`
	Creator Creator `json:"creator"`
	Pages   []Page  `json:"pages"`
	Entries []Entry `json:"entries"`
	Comment string  `json:"comment,omitempty"`
}

type Creator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Page struct {
	// StartedDateTime is the page anchor time (ISO 8601), taken from the
	// page's earliest eligible entry.
	StartedDateTime string `json:"startedDateTime"`

	// ID is assigned after ordering, "page_1".."page_N".
	ID string `json:"id"`

	Title string `json:"title"`

	PageTimings PageTimings `json:"pageTimings"`
}

type PageTimings struct {
	// Milliseconds since StartedDateTime; -1 when the event never fired.
	OnContentLoad float64 `json:"onContentLoad"`
	OnLoad        float64 `json:"onLoad"`
}

type Entry struct {
	Pageref         string   `json:"pageref,omitempty"`
	StartedDateTime string   `json:"startedDateTime"`
	Time            float64  `json:"time"`
	Request         Request  `json:"request"`
	Response        Response `json:"response"`
	Cache           Cache    `json:"cache"`
	Timings         Timings  `json:"timings"`
	ServerIPAddress string   `json:"serverIPAddress,omitempty"`
	Connection      string   `json:"connection,omitempty"`

	// Custom fields. RequestTime is the monotonic start time in seconds and
	// doubles as the archive-wide sort key.
	RequestID         string             `json:"_requestId"`
	RequestTime       float64            `json:"_requestTime"`
	PriorRedirects    int                `json:"_priorRedirects,omitempty"`
	Priority          string             `json:"_priority,omitempty"`
	InitiatorType     string             `json:"_initiator_type,omitempty"`
	InitiatorURL      string             `json:"_initiator,omitempty"`
	InitiatorLine     *float64           `json:"_initiator_line,omitempty"`
	InitiatorColumn   *float64           `json:"_initiator_column,omitempty"`
	InitiatorFunction string             `json:"_initiator_function_name,omitempty"`
	InitiatorScriptID string             `json:"_initiator_script_id,omitempty"`
	InitiatorDetail   string             `json:"_initiator_detail,omitempty"`
	WasPushed         bool               `json:"_was_pushed,omitempty"`
	ResourceType      string             `json:"_resourceType,omitempty"`
	WebSocketMessages []WebSocketMessage `json:"_webSocketMessages,omitempty"`
}

type Request struct {
	Method      string          `json:"method"`
	URL         string          `json:"url"`
	HTTPVersion string          `json:"httpVersion"`
	Cookies     []Cookie        `json:"cookies"`
	Headers     []NameValuePair `json:"headers"`
	QueryString []NameValuePair `json:"queryString"`
	PostData    *PostData       `json:"postData,omitempty"`
	HeadersSize int64           `json:"headersSize"`
	BodySize    int64           `json:"bodySize"`
}

type Response struct {
	Status      int             `json:"status"`
	StatusText  string          `json:"statusText"`
	HTTPVersion string          `json:"httpVersion"`
	Cookies     []Cookie        `json:"cookies"`
	Headers     []NameValuePair `json:"headers"`
	Content     Content         `json:"content"`
	RedirectURL string          `json:"redirectURL"`
	HeadersSize int64           `json:"headersSize"`
	BodySize    int64           `json:"bodySize"`

	TransferSize   *float64 `json:"_transferSize,omitempty"`
	FromDiskCache  bool     `json:"_fromDiskCache,omitempty"`
	FromEarlyHints bool     `json:"_fromEarlyHints,omitempty"`
}

type Content struct {
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	// Compression is bytes saved by content encoding; omitted (never zero)
	// when unknown or not positive.
	Compression *int64 `json:"compression,omitempty"`
	Text        string `json:"text,omitempty"`
	Encoding    string `json:"encoding,omitempty"`
}

type Cache struct {
	BeforeRequest *CacheState `json:"beforeRequest,omitempty"`
	AfterRequest  *CacheState `json:"afterRequest,omitempty"`
}

type CacheState struct {
	Expires    string `json:"expires,omitempty"`
	LastAccess string `json:"lastAccess"`
	ETag       string `json:"eTag"`
	HitCount   int    `json:"hitCount"`
}

// Timings is the per-phase breakdown in milliseconds. -1 marks a phase that
// does not apply or could not be measured.
type Timings struct {
	Blocked float64  `json:"blocked"`
	DNS     float64  `json:"dns"`
	Connect float64  `json:"connect"`
	Send    float64  `json:"send"`
	Wait    float64  `json:"wait"`
	Receive float64  `json:"receive"`
	SSL     *float64 `json:"ssl,omitempty"`
}

type NameValuePair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type PostData struct {
	MimeType string          `json:"mimeType"`
	Text     string          `json:"text,omitempty"`
	Params   []PostDataParam `json:"params,omitempty"`
}

type PostDataParam struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}
