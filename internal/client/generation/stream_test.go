package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanvir-rifat007/maker-cli/internal/client/models"
	"github.com/tanvir-rifat007/maker-cli/internal/logging"
	"github.com/tanvir-rifat007/maker-cli/internal/validator"
)

// ---- fakes ----

type fakeConn struct {
	mu       sync.Mutex
	wrote    []any
	writeErr error

	frames    chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wrote = append(f.wrote, v)
	return f.writeErr
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case b := <-f.frames:
		return 1, b, nil
	case <-f.closed:
		return 0, nil, errors.New("use of closed network connection")
	}
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeConn) push(t *testing.T, frame string) {
	t.Helper()
	select {
	case f.frames <- []byte(frame):
	case <-time.After(time.Second):
		t.Fatal("push timed out")
	}
}

type fakeDialer struct {
	conns   []*fakeConn
	dialErr error

	dialCount int
	lastURL   string
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.lastURL = url
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	conn := d.conns[d.dialCount]
	d.dialCount++
	return conn, nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testRequest() models.GenerationRequest {
	r := models.DefaultGenerationRequest()
	r.Prompt = "a todo app"
	return r
}

func startSession(t *testing.T) (*Client, *fakeConn, <-chan models.ProgressEvent) {
	t.Helper()
	conn := newFakeConn()
	d := &fakeDialer{conns: []*fakeConn{conn}}
	c := NewClient(d, "ws://localhost:3000/api/generate", testLogger())

	events, err := c.Start(context.Background(), testRequest(), "7")
	require.NoError(t, err)
	return c, conn, events
}

func drain(t *testing.T, events <-chan models.ProgressEvent) []models.ProgressEvent {
	t.Helper()
	var got []models.ProgressEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatal("event channel never closed")
		}
	}
}

// ---- TESTS ----

func TestStart_SendsSingleNormalizedFrame(t *testing.T) {
	conn := newFakeConn()
	d := &fakeDialer{conns: []*fakeConn{conn}}
	c := NewClient(d, "ws://localhost:3000/api/generate", testLogger())

	req := testRequest()
	req.ProjectName = ""
	_, err := c.Start(context.Background(), req, "7")
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "ws://localhost:3000/api/generate", d.lastURL)

	conn.mu.Lock()
	defer conn.mu.Unlock()
	require.Len(t, conn.wrote, 1)

	frame := conn.wrote[0].(startFrame)
	assert.Equal(t, "7", frame.UserID)
	assert.Equal(t, "go-project", frame.ProjectName)
	assert.Equal(t, 4, frame.WorkerCount)

	// wire shape: the user id travels as "id" next to the request fields
	b, err := json.Marshal(frame)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "7", m["id"])
	assert.Equal(t, "a todo app", m["prompt"])
}

func TestStart_WorkerCountOutOfRange(t *testing.T) {
	d := &fakeDialer{}
	c := NewClient(d, "ws://x/api/generate", testLogger())

	req := testRequest()
	req.WorkerCount = 9
	_, err := c.Start(context.Background(), req, "7")

	var ve *validator.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "workers")
	assert.Equal(t, 0, d.dialCount, "no channel may be opened for an invalid request")
}

func TestStart_DialFailure(t *testing.T) {
	d := &fakeDialer{dialErr: errors.New("connection refused")}
	c := NewClient(d, "ws://x/api/generate", testLogger())

	_, err := c.Start(context.Background(), testRequest(), "7")
	require.ErrorIs(t, err, ErrTransport)
	assert.False(t, c.Generating())
	assert.Equal(t, StateClosed, c.State())
}

func TestEvents_ArrivalOrderAndLogLength(t *testing.T) {
	c, conn, events := startSession(t)

	n := 5
	conn.push(t, `{"type":"start","message":"Starting generation"}`)
	for i := 1; i < n-1; i++ {
		conn.push(t, fmt.Sprintf(`{"type":"file","file":"main_%d.go"}`, i))
	}
	conn.push(t, `{"type":"complete","message":"Generation complete!","zipUrl":"/download/go-project.zip"}`)

	got := drain(t, events)
	require.Len(t, got, n)
	assert.Equal(t, models.EventStart, got[0].Type)
	assert.Equal(t, "main_1.go", got[1].File)
	assert.Equal(t, models.EventComplete, got[n-1].Type)

	// the log carries the "connected" line plus one line per event, in order
	lines := c.Log()
	require.Len(t, lines, n+1)
	assert.Equal(t, LineInfo, lines[0].Kind)
	assert.Equal(t, "Starting generation", lines[1].Text)
	assert.Equal(t, "Writing file: main_1.go", lines[2].Text)
	assert.Equal(t, LineSuccess, lines[n].Kind)
}

func TestComplete_TerminatesSession(t *testing.T) {
	c, conn, events := startSession(t)
	require.True(t, c.Generating())

	conn.push(t, `{"type":"complete","message":"done","zipUrl":"/download/go-project.zip"}`)
	drain(t, events)

	assert.False(t, c.Generating())
	assert.Equal(t, StateClosed, c.State())
	assert.True(t, conn.isClosed(), "client must close the channel on a terminal event")
	assert.Equal(t, "/download/go-project.zip", c.ArtifactURL())
	assert.NoError(t, c.Err())
}

func TestErrorEvent_IsJobFailureNotTransport(t *testing.T) {
	c, conn, events := startSession(t)

	conn.push(t, `{"type":"error","error":"model quota exceeded"}`)
	got := drain(t, events)

	require.Len(t, got, 1)
	assert.Equal(t, models.EventError, got[0].Type)
	assert.False(t, c.Generating())
	assert.NoError(t, c.Err(), "a server-reported job failure is not a transport fault")

	lines := c.Log()
	assert.Equal(t, LogLine{Kind: LineError, Text: "Error: model quota exceeded"}, lines[len(lines)-1])
}

func TestMalformedFrame_IsTransportError(t *testing.T) {
	c, conn, events := startSession(t)

	conn.push(t, `{not json`)
	got := drain(t, events)

	assert.Empty(t, got)
	assert.False(t, c.Generating())
	require.ErrorIs(t, c.Err(), ErrTransport)
}

func TestUnknownEventTypesAreIgnored(t *testing.T) {
	c, conn, events := startSession(t)

	conn.push(t, `{"type":"heartbeat"}`)
	conn.push(t, `{"type":"complete","message":"done"}`)
	got := drain(t, events)

	require.Len(t, got, 1)
	assert.Equal(t, models.EventComplete, got[0].Type)
	assert.Len(t, c.Log(), 2) // connected + complete
}

func TestClose_DropsInFlightEvents(t *testing.T) {
	c, conn, events := startSession(t)

	conn.push(t, `{"type":"start","message":"Starting"}`)
	ev, ok := <-events
	require.True(t, ok)
	assert.Equal(t, models.EventStart, ev.Type)

	c.Close()
	conn.push(t, `{"type":"file","file":"late.go"}`)

	got := drain(t, events)
	assert.Empty(t, got)
	assert.False(t, c.Generating())
	assert.Equal(t, StateClosed, c.State())

	// no line for the late event
	lines := c.Log()
	require.Len(t, lines, 2)
	assert.Equal(t, "Starting", lines[1].Text)
}

func TestClose_Idempotent(t *testing.T) {
	c, _, events := startSession(t)
	c.Close()
	c.Close()
	drain(t, events)
	assert.Equal(t, StateClosed, c.State())
}

func TestStart_TearsDownPreviousSession(t *testing.T) {
	conn1 := newFakeConn()
	conn2 := newFakeConn()
	d := &fakeDialer{conns: []*fakeConn{conn1, conn2}}
	c := NewClient(d, "ws://x/api/generate", testLogger())

	events1, err := c.Start(context.Background(), testRequest(), "7")
	require.NoError(t, err)
	conn1.push(t, `{"type":"start","message":"first"}`)
	<-events1

	events2, err := c.Start(context.Background(), testRequest(), "7")
	require.NoError(t, err)

	assert.True(t, conn1.isClosed(), "previous channel must be torn down first")
	assert.Equal(t, 2, d.dialCount)

	// the log was cleared for the new session
	drain(t, events1)
	lines := c.Log()
	require.Len(t, lines, 1)
	assert.Equal(t, LineInfo, lines[0].Kind)

	conn2.push(t, `{"type":"complete","message":"done"}`)
	got := drain(t, events2)
	require.Len(t, got, 1)
	assert.False(t, c.Generating())
}

func TestWriteFailure_IsTransportError(t *testing.T) {
	conn := newFakeConn()
	conn.writeErr = errors.New("broken pipe")
	d := &fakeDialer{conns: []*fakeConn{conn}}
	c := NewClient(d, "ws://x/api/generate", testLogger())

	_, err := c.Start(context.Background(), testRequest(), "7")
	require.ErrorIs(t, err, ErrTransport)
	assert.True(t, conn.isClosed())
	assert.False(t, c.Generating())
}
