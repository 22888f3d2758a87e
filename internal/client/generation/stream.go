// Package generation implements the client side of the generation-session
// streaming protocol: one websocket per job, a single outbound frame carrying
// the submitted configuration, and server-pushed progress events consumed in
// arrival order until exactly one terminal event (complete or error) ends
// the session.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tanvir-rifat007/maker-cli/internal/client/models"
	"github.com/tanvir-rifat007/maker-cli/internal/logging"
)

// State is the channel lifecycle. Teardown is a state transition here, not a
// flag buried in callbacks: events that arrive once the session left Open
// are dropped.
type State int

const (
	StateIdle State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// ErrTransport marks connection-level failures: dial errors, malformed
// frames, reads on a broken channel. Distinct from a server-reported job
// failure, which arrives as a regular error event.
var ErrTransport = errors.New("transport error")

// startFrame is the single outbound message: the generation request plus the
// requesting user's id as a string, matching the server's expectations.
type startFrame struct {
	models.GenerationRequest
	UserID string `json:"id"`
}

// session is the state of one open channel. A new one is created per Start;
// the old one is finished first so two channels never run concurrently.
type session struct {
	conn   Conn
	events chan models.ProgressEvent

	// closed signals teardown to the reader; done guards double-finish.
	closed chan struct{}
	done   bool
}

// Client runs generation sessions. At most one channel is open per Client;
// starting a new session tears the previous one down first.
type Client struct {
	dialer Dialer
	url    string
	log    logging.Logger

	mu          sync.Mutex
	state       State
	generating  bool
	cur         *session
	lines       []LogLine
	artifactURL string
	lastErr     error
}

func NewClient(dialer Dialer, url string, log logging.Logger) *Client {
	return &Client{
		dialer: dialer,
		url:    url,
		log:    log.With("component", "generation"),
		state:  StateIdle,
	}
}

// Start validates and normalizes the request, opens the streaming channel,
// and sends the one outbound frame. The returned channel yields inbound
// events in arrival order and is closed when the session ends, whether by a
// terminal event, a transport failure, or Close.
//
// Validation failures surface before any connection is opened.
func (c *Client) Start(ctx context.Context, req models.GenerationRequest, userID string) (<-chan models.ProgressEvent, error) {
	req = req.Normalized()
	if err := req.Validate().Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.cur != nil {
		c.finishLocked(c.cur, nil)
	}
	// new session: fresh log, fresh terminal state
	c.lines = nil
	c.artifactURL = ""
	c.lastErr = nil
	c.state = StateClosing // transitional until the dial settles
	c.mu.Unlock()

	conn, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		werr := fmt.Errorf("%w: %v", ErrTransport, err)
		c.mu.Lock()
		c.state = StateClosed
		c.lastErr = werr
		c.appendLocked(LineError, fmt.Sprintf("Connection error: %v", err))
		c.mu.Unlock()
		return nil, werr
	}

	frame := startFrame{GenerationRequest: req, UserID: userID}
	if err := conn.WriteJSON(frame); err != nil {
		_ = conn.Close()
		werr := fmt.Errorf("%w: %v", ErrTransport, err)
		c.mu.Lock()
		c.state = StateClosed
		c.lastErr = werr
		c.appendLocked(LineError, fmt.Sprintf("Connection error: %v", err))
		c.mu.Unlock()
		return nil, werr
	}

	s := &session{
		conn:   conn,
		events: make(chan models.ProgressEvent, 16),
		closed: make(chan struct{}),
	}

	c.mu.Lock()
	c.cur = s
	c.state = StateOpen
	c.generating = true
	c.appendLocked(LineInfo, "Connected to server. Starting code generation...")
	c.mu.Unlock()

	c.log.Info(ctx, "generation session opened", "project", req.ProjectName, "workers", req.WorkerCount)

	go c.readLoop(s)
	return s.events, nil
}

// readLoop is the only reader and the only sender on s.events, so event
// order on the channel equals network arrival order.
func (c *Client) readLoop(s *session) {
	defer close(s.events)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			// a read error after teardown or after the terminal event is the
			// expected channel shutdown, not a fault
			c.mu.Lock()
			if !s.done {
				werr := fmt.Errorf("%w: %v", ErrTransport, err)
				c.appendLocked(LineError, fmt.Sprintf("Connection error: %v", err))
				c.finishLocked(s, werr)
			}
			c.mu.Unlock()
			return
		}

		var ev models.ProgressEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.mu.Lock()
			if !s.done {
				werr := fmt.Errorf("%w: malformed frame: %v", ErrTransport, err)
				c.appendLocked(LineError, fmt.Sprintf("Connection error: malformed frame: %v", err))
				c.finishLocked(s, werr)
			}
			c.mu.Unlock()
			return
		}

		if !ev.Known() {
			continue
		}

		c.mu.Lock()
		if s.done {
			// torn down while the frame was in flight; drop it
			c.mu.Unlock()
			return
		}
		c.applyLocked(ev)
		c.mu.Unlock()

		select {
		case s.events <- ev:
		case <-s.closed:
			return
		}

		if ev.Terminal() {
			c.mu.Lock()
			c.finishLocked(s, nil)
			c.mu.Unlock()
			return
		}
	}
}

// applyLocked folds one inbound event into the progress log.
func (c *Client) applyLocked(ev models.ProgressEvent) {
	switch ev.Type {
	case models.EventStart:
		c.appendLocked(LineInfo, ev.Message)
	case models.EventFile:
		c.appendLocked(LineInfo, fmt.Sprintf("Writing file: %s", ev.File))
	case models.EventError:
		c.appendLocked(LineError, fmt.Sprintf("Error: %s", ev.Error))
	case models.EventComplete:
		c.appendLocked(LineSuccess, ev.Message)
		c.artifactURL = ev.ZipURL
	}
}

func (c *Client) appendLocked(kind LineKind, text string) {
	c.lines = append(c.lines, LogLine{Kind: kind, Text: text})
}

// finishLocked ends a session exactly once: closes the connection from the
// client side (the server may already have), flips the generating flag, and
// signals the reader. Must be called with c.mu held.
func (c *Client) finishLocked(s *session, err error) {
	if s.done {
		return
	}
	s.done = true
	close(s.closed)
	_ = s.conn.Close()

	if err != nil {
		c.lastErr = err
	}
	if c.cur == s {
		c.generating = false
		c.state = StateClosed
		c.cur = nil
	}
}

// Close tears down the open session, if any. Events already in flight are
// dropped; calling Close with no open session is a no-op.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return
	}
	c.state = StateClosing
	c.finishLocked(c.cur, nil)
}

// Generating reports whether a session is open and has not seen its terminal
// event yet.
func (c *Client) Generating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generating
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Log returns a snapshot of the progress log in arrival order.
func (c *Client) Log() []LogLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LogLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// ArtifactURL returns the download reference from the complete event, or ""
// while the session has not completed successfully.
func (c *Client) ArtifactURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.artifactURL
}

// Err returns the transport error that ended the last session, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
