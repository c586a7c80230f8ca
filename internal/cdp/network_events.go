package cdp

// Network.* event payloads.

type RequestWillBeSent struct {
	RequestID        RequestID     `json:"requestId"`
	LoaderID         string        `json:"loaderId"`
	DocumentURL      string        `json:"documentURL"`
	Request          *Request      `json:"request"`
	Timestamp        MonotonicTime `json:"timestamp"`
	WallTime         WallTime      `json:"wallTime"`
	Initiator        *Initiator    `json:"initiator"`
	RedirectResponse *Response     `json:"redirectResponse"`
	Type             string        `json:"type"`
	FrameID          FrameID       `json:"frameId"`
	HasUserGesture   bool          `json:"hasUserGesture"`
}

type ResponseReceived struct {
	RequestID RequestID     `json:"requestId"`
	LoaderID  string        `json:"loaderId"`
	Timestamp MonotonicTime `json:"timestamp"`
	Type      string        `json:"type"`
	Response  *Response     `json:"response"`
	FrameID   FrameID       `json:"frameId"`
}

type RequestWillBeSentExtraInfo struct {
	RequestID         RequestID          `json:"requestId"`
	AssociatedCookies []AssociatedCookie `json:"associatedCookies"`
	Headers           Headers            `json:"headers"`
}

type ResponseReceivedExtraInfo struct {
	RequestID      RequestID          `json:"requestId"`
	BlockedCookies []BlockedSetCookie `json:"blockedCookies"`
	Headers        Headers            `json:"headers"`
	HeadersText    string             `json:"headersText"`
	StatusCode     int                `json:"statusCode"`
}

type RequestServedFromCache struct {
	RequestID RequestID `json:"requestId"`
}

type DataReceived struct {
	RequestID         RequestID     `json:"requestId"`
	Timestamp         MonotonicTime `json:"timestamp"`
	DataLength        int64         `json:"dataLength"`
	EncodedDataLength int64         `json:"encodedDataLength"`
}

type LoadingFinished struct {
	RequestID         RequestID     `json:"requestId"`
	Timestamp         MonotonicTime `json:"timestamp"`
	EncodedDataLength float64       `json:"encodedDataLength"`
}

type LoadingFailed struct {
	RequestID     RequestID     `json:"requestId"`
	Timestamp     MonotonicTime `json:"timestamp"`
	Type          string        `json:"type"`
	ErrorText     string        `json:"errorText"`
	Canceled      bool          `json:"canceled"`
	BlockedReason string        `json:"blockedReason"`
}

type ResourceChangedPriority struct {
	RequestID   RequestID     `json:"requestId"`
	NewPriority string        `json:"newPriority"`
	Timestamp   MonotonicTime `json:"timestamp"`
}

type WebSocketFrameEvent struct {
	RequestID RequestID       `json:"requestId"`
	Timestamp MonotonicTime   `json:"timestamp"`
	Response  *WebSocketFrame `json:"response"`
}

// ResponseBody is the synthetic meta-event carrying a fetched response body
// (the reply to a Network.getResponseBody command, re-keyed by request id).
// Attachment is decided by payload shape, not event name: any network event
// whose payload carries requestId plus a body field attaches a body.
type ResponseBody struct {
	RequestID     RequestID `json:"requestId"`
	Body          *string   `json:"body"`
	Base64Encoded bool      `json:"base64Encoded"`
}
