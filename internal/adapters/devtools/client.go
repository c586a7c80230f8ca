// Package devtools streams network and page events from a live browser
// debugger session over its websocket endpoint.
package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/UppaJung/hardy-har/internal/cdp"
)

// Sink consumes raw events. *builder.Builder satisfies it.
type Sink interface {
	OnEvent(method string, params json.RawMessage)
}

// Options tunes the capture session.
type Options struct {
	// FetchResponseBodies issues a body-retrieval command for each finished
	// response and forwards the reply as a synthetic event.
	FetchResponseBodies bool
	// BodyMaxBytes skips body retrieval for responses whose transfer size
	// exceeds it. 0 means no cap.
	BodyMaxBytes int
}

const (
	writeTimeout     = 10 * time.Second
	handshakeTimeout = 15 * time.Second
)

// command is an outbound debugger command frame.
type command struct {
	ID     int             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// inbound is either an event (method set) or a command reply (id set).
type inbound struct {
	ID     int             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client is one capture session against a debugger endpoint.
type Client struct {
	conn    *websocket.Conn
	sink    Sink
	opts    Options
	log     zerolog.Logger
	session string

	nextID int
	// pendingBodies maps an in-flight body-retrieval command id to the
	// transaction it was issued for.
	pendingBodies map[int]cdp.RequestID
}

// Dial connects to the debugger endpoint and enables the Network and Page
// domains. The caller must Run the client to start delivering events.
func Dial(ctx context.Context, url string, sink Sink, opts Options, log zerolog.Logger) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial debugger endpoint %s: %w", url, err)
	}
	c := &Client{
		conn:          conn,
		sink:          sink,
		opts:          opts,
		log:           log,
		session:       uuid.NewString(),
		pendingBodies: map[int]cdp.RequestID{},
	}
	for _, method := range []string{"Network.enable", "Page.enable"} {
		if err := c.send(method, nil); err != nil {
			conn.Close()
			return nil, err
		}
	}
	c.log.Info().Str("session", c.session).Str("url", url).Msg("capture session opened")
	return c, nil
}

func (c *Client) send(method string, params json.RawMessage) error {
	c.nextID++
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(command{ID: c.nextID, Method: method, Params: params}); err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}
	return nil
}

// Run reads messages until the context is canceled or the connection
// closes, forwarding each event to the sink. A canceled context returns
// ctx.Err(); a remote close returns nil.
func (c *Client) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close()
		case <-done:
		}
	}()
	defer c.conn.Close()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Info().Str("session", c.session).Msg("debugger closed the connection")
				return nil
			}
			return fmt.Errorf("read debugger message: %w", err)
		}
		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Debug().Err(err).Msg("undecodable debugger frame")
			continue
		}
		switch {
		case msg.Method != "":
			c.handleEvent(msg.Method, msg.Params)
		case msg.ID != 0:
			c.handleReply(&msg)
		}
	}
}

func (c *Client) handleEvent(method string, params json.RawMessage) {
	c.sink.OnEvent(method, params)
	if c.opts.FetchResponseBodies && method == cdp.MethodLoadingFinished {
		c.requestBody(params)
	}
}

// requestBody issues a body-retrieval command for a finished transaction,
// unless its transfer size exceeds the configured cap.
func (c *Client) requestBody(params json.RawMessage) {
	var fin cdp.LoadingFinished
	if err := json.Unmarshal(params, &fin); err != nil || fin.RequestID == "" {
		return
	}
	if c.opts.BodyMaxBytes > 0 && fin.EncodedDataLength > float64(c.opts.BodyMaxBytes) {
		c.log.Debug().Str("requestId", string(fin.RequestID)).Float64("bytes", fin.EncodedDataLength).Msg("skipping oversized body")
		return
	}
	p, _ := json.Marshal(map[string]string{"requestId": string(fin.RequestID)})
	if err := c.send("Network.getResponseBody", p); err != nil {
		c.log.Debug().Err(err).Msg("body retrieval failed to send")
		return
	}
	c.pendingBodies[c.nextID] = fin.RequestID
}

// handleReply resolves body-retrieval replies: the result is re-keyed with
// the transaction id it answers for and forwarded as a synthetic event, so
// the archive side attributes it by payload shape like any other.
func (c *Client) handleReply(msg *inbound) {
	id, ok := c.pendingBodies[msg.ID]
	if !ok {
		return
	}
	delete(c.pendingBodies, msg.ID)
	if msg.Error != nil {
		// Bodies are routinely unavailable (evicted, no-content, redirect
		// targets); this is not a capture failure.
		c.log.Debug().Str("requestId", string(id)).Str("error", msg.Error.Message).Msg("body unavailable")
		return
	}
	var result struct {
		Body          string `json:"body"`
		Base64Encoded bool   `json:"base64Encoded"`
	}
	if err := json.Unmarshal(msg.Result, &result); err != nil {
		return
	}
	params, err := json.Marshal(cdp.ResponseBody{
		RequestID:     id,
		Body:          &result.Body,
		Base64Encoded: result.Base64Encoded,
	})
	if err != nil {
		return
	}
	c.sink.OnEvent(cdp.MethodGetResponseBody, params)
}
