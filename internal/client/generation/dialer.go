package generation

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
)

// Conn is the subset of a websocket connection the session client uses.
// *websocket.Conn satisfies it; tests provide scripted fakes.
type Conn interface {
	WriteJSON(v any) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens one streaming connection per generation session.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials with gorilla/websocket. The jar carries the session
// cookie so the handshake is credentialed like the HTTP calls; nil is fine
// for servers that authenticate from the first frame instead.
type WebsocketDialer struct {
	d *websocket.Dialer
}

func NewWebsocketDialer(jar http.CookieJar) *WebsocketDialer {
	d := *websocket.DefaultDialer
	d.Jar = jar
	return &WebsocketDialer{d: &d}
}

func (w *WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := w.d.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}
