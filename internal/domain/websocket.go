package domain

// WebSocket message opcodes as emitted in the archive. Only text and binary
// survive: every non-text frame is normalized to the base64 binary opcode.
const (
	WebSocketOpcodeText   = 1
	WebSocketOpcodeBinary = 2
)

type WebSocketMessage struct {
	// Type is "send" or "receive".
	Type string `json:"type"`
	// Time is the estimated wall-clock time in epoch seconds.
	Time   float64 `json:"time"`
	Opcode int     `json:"opcode"`
	Data   string  `json:"data"`
}

const (
	WebSocketDirectionSend    = "send"
	WebSocketDirectionReceive = "receive"
)
