package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/gorilla/websocket"
)

// SocketPath is where the chat endpoint is served.
const SocketPath = "/socket"

// Transport carries whole encoded messages, one per frame.
type Transport interface {
	// ReadFrame returns io.EOF once the remote side has closed the stream.
	ReadFrame() ([]byte, error)
	WriteFrame(frame []byte) error
	LocalAddr() string
	Close() error
}

// Dialer opens a Transport to addr (host:port).
type Dialer interface {
	Dial(ctx context.Context, addr string) (Transport, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, addr string) (Transport, error)

func (f DialerFunc) Dial(ctx context.Context, addr string) (Transport, error) {
	return f(ctx, addr)
}

// WebSocketDialer dials ws://<addr>/socket.
type WebSocketDialer struct {
	Dialer *websocket.Dialer
}

func SocketURL(addr string) string {
	u := url.URL{Scheme: "ws", Host: addr, Path: SocketPath}
	return u.String()
}

func (d WebSocketDialer) Dial(ctx context.Context, addr string) (Transport, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, SocketURL(addr), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %s)", SocketURL(addr), err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", SocketURL(addr), err)
	}
	return &wsTransport{conn: conn}, nil
}

type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) ReadFrame() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	if err != nil {
		if isStreamEnd(err) {
			return nil, io.EOF
		}
		return nil, err
	}
	return data, nil
}

func (t *wsTransport) WriteFrame(frame []byte) error {
	return t.conn.WriteMessage(websocket.TextMessage, frame)
}

func (t *wsTransport) LocalAddr() string {
	return t.conn.LocalAddr().String()
}

// Close drops the connection without a close frame.
func (t *wsTransport) Close() error {
	return t.conn.Close()
}

func isStreamEnd(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) || errors.Is(err, io.EOF)
}
