package cdp

// Page.* event payloads.

type FrameAttached struct {
	FrameID       FrameID `json:"frameId"`
	ParentFrameID FrameID `json:"parentFrameId"`
}

type FrameStartedLoading struct {
	FrameID FrameID `json:"frameId"`
}

type FrameRequestedNavigation struct {
	FrameID     FrameID `json:"frameId"`
	Reason      string  `json:"reason"`
	URL         string  `json:"url"`
	Disposition string  `json:"disposition"`
}

type NavigatedWithinDocument struct {
	FrameID FrameID `json:"frameId"`
	URL     string  `json:"url"`
}

type LoadEventFired struct {
	Timestamp MonotonicTime `json:"timestamp"`
}

type DomContentEventFired struct {
	Timestamp MonotonicTime `json:"timestamp"`
}
