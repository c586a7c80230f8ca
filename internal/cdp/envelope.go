package cdp

import (
	"encoding/json"
	"strings"
)

// Recognized event methods.
const (
	MethodRequestWillBeSent          = "Network.requestWillBeSent"
	MethodResponseReceived           = "Network.responseReceived"
	MethodRequestWillBeSentExtraInfo = "Network.requestWillBeSentExtraInfo"
	MethodResponseReceivedExtraInfo  = "Network.responseReceivedExtraInfo"
	MethodRequestServedFromCache     = "Network.requestServedFromCache"
	MethodDataReceived               = "Network.dataReceived"
	MethodLoadingFinished            = "Network.loadingFinished"
	MethodLoadingFailed              = "Network.loadingFailed"
	MethodResourceChangedPriority    = "Network.resourceChangedPriority"
	MethodWebSocketFrameSent         = "Network.webSocketFrameSent"
	MethodWebSocketFrameReceived     = "Network.webSocketFrameReceived"
	// MethodGetResponseBody is the synthetic meta-event carrying the reply
	// to a Network.getResponseBody command, tagged with the request id.
	MethodGetResponseBody = "Network.getResponseBody"

	MethodFrameAttached            = "Page.frameAttached"
	MethodFrameStartedLoading      = "Page.frameStartedLoading"
	MethodFrameRequestedNavigation = "Page.frameRequestedNavigation"
	MethodNavigatedWithinDocument  = "Page.navigatedWithinDocument"
	MethodLoadEventFired           = "Page.loadEventFired"
	MethodDomContentEventFired     = "Page.domContentEventFired"
)

// Envelope is one raw event record: the method name plus its undecoded
// parameters. This is the shape NDJSON captures and live debugger sessions
// both deliver.
type Envelope struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Event is a decoded, typed event payload.
type Event interface{ isEvent() }

func (*RequestWillBeSent) isEvent()          {}
func (*ResponseReceived) isEvent()           {}
func (*RequestWillBeSentExtraInfo) isEvent() {}
func (*ResponseReceivedExtraInfo) isEvent()  {}
func (*RequestServedFromCache) isEvent()     {}
func (*DataReceived) isEvent()               {}
func (*LoadingFinished) isEvent()            {}
func (*LoadingFailed) isEvent()              {}
func (*ResourceChangedPriority) isEvent()    {}
func (*WebSocketFrameEvent) isEvent()        {}
func (*ResponseBody) isEvent()               {}
func (*FrameAttached) isEvent()              {}
func (*FrameStartedLoading) isEvent()        {}
func (*FrameRequestedNavigation) isEvent()   {}
func (*NavigatedWithinDocument) isEvent()    {}
func (*LoadEventFired) isEvent()             {}
func (*DomContentEventFired) isEvent()       {}

// IsNetwork reports whether the method belongs to the Network domain.
func IsNetwork(method string) bool { return strings.HasPrefix(method, "Network.") }

// IsPage reports whether the method belongs to the Page domain.
func IsPage(method string) bool { return strings.HasPrefix(method, "Page.") }

// Decode turns a raw (method, params) pair into a typed event. Unrecognized
// methods decode to (nil, nil); a decode error on a recognized method is
// returned so the caller can count and skip it.
func Decode(method string, params []byte) (Event, error) {
	var ev Event
	switch method {
	case MethodRequestWillBeSent:
		ev = &RequestWillBeSent{}
	case MethodResponseReceived:
		ev = &ResponseReceived{}
	case MethodRequestWillBeSentExtraInfo:
		ev = &RequestWillBeSentExtraInfo{}
	case MethodResponseReceivedExtraInfo:
		ev = &ResponseReceivedExtraInfo{}
	case MethodRequestServedFromCache:
		ev = &RequestServedFromCache{}
	case MethodDataReceived:
		ev = &DataReceived{}
	case MethodLoadingFinished:
		ev = &LoadingFinished{}
	case MethodLoadingFailed:
		ev = &LoadingFailed{}
	case MethodResourceChangedPriority:
		ev = &ResourceChangedPriority{}
	case MethodWebSocketFrameSent, MethodWebSocketFrameReceived:
		ev = &WebSocketFrameEvent{}
	case MethodGetResponseBody:
		ev = &ResponseBody{}
	case MethodFrameAttached:
		ev = &FrameAttached{}
	case MethodFrameStartedLoading:
		ev = &FrameStartedLoading{}
	case MethodFrameRequestedNavigation:
		ev = &FrameRequestedNavigation{}
	case MethodNavigatedWithinDocument:
		ev = &NavigatedWithinDocument{}
	case MethodLoadEventFired:
		ev = &LoadEventFired{}
	case MethodDomContentEventFired:
		ev = &DomContentEventFired{}
	default:
		return nil, nil
	}
	if err := json.Unmarshal(params, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// ProbeBody decodes the body-carrying shape out of any network payload.
// Returns nil unless the payload carries both a request id and a body field.
func ProbeBody(params []byte) *ResponseBody {
	var rb ResponseBody
	if err := json.Unmarshal(params, &rb); err != nil {
		return nil
	}
	if rb.RequestID == "" || rb.Body == nil {
		return nil
	}
	return &rb
}
