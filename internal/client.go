package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Option configures a Client.
type Option func(*Client)

// WithInput sets the operator's input stream. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(c *Client) { c.input = r }
}

// WithOutput sets where prompts and rendered messages go. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Client) { c.output = newSink(w) }
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithLogger sets the diagnostics logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithOnReady registers a callback run once the server has assigned a name.
func WithOnReady(fn func(name string)) Option {
	return func(c *Client) { c.onReady = fn }
}

func NewClient(addr string, opts ...Option) *Client {
	c := &Client{
		addr:   addr,
		input:  os.Stdin,
		output: newSink(os.Stdout),
		dialer: WebSocketDialer{},
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Addr returns the endpoint address the client was built with.
func (c *Client) Addr() string { return c.addr }

// Name returns the server-assigned name, or "" before the handshake is done.
func (c *Client) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

type pumpResult struct {
	pump string
	err  error
}

// Connect dials the endpoint, waits for a name, then pumps messages both
// ways until either direction finishes. The first pump to finish ends the
// session; the other is cut off by closing the transport. A Client runs a
// single session.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrSessionUsed
	}
	c.started = true
	c.mu.Unlock()

	transport, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer transport.Close()

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(sessionCtx, func() { transport.Close() })
	defer stop()

	name, err := c.awaitIdentity(transport)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
	if c.onReady != nil {
		c.onReady(name)
	}

	box := newOutbox()
	go c.readInput(sessionCtx, box, name, transport.LocalAddr())

	done := make(chan pumpResult, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		done <- pumpResult{pump: "outbound", err: c.pumpOutbound(sessionCtx, box, transport)}
	}()
	go func() {
		defer wg.Done()
		done <- pumpResult{pump: "inbound", err: c.pumpInbound(transport)}
	}()

	var res pumpResult
	select {
	case res = <-done:
	case <-ctx.Done():
	}
	if ctx.Err() != nil {
		res = pumpResult{pump: "context", err: ctx.Err()}
	}
	cancel()
	wg.Wait()

	if res.err != nil {
		c.log.Error("Session failed", zap.String("pump", res.pump), zap.Error(res.err))
	} else {
		c.log.Info("Session ended", zap.String("pump", res.pump))
	}
	return res.err
}

// pumpOutbound writes queued messages to the transport in order. It finishes
// cleanly once the input reader has closed the outbox and it is drained.
func (c *Client) pumpOutbound(ctx context.Context, box *outbox, transport Transport) error {
	for {
		msg, ok, err := box.Pop(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		frame, err := Encode(msg)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSend, err)
		}
		if err := transport.WriteFrame(frame); err != nil {
			return fmt.Errorf("%w: %v", ErrSend, err)
		}
		c.log.Debug("Sent frame", zap.ByteString("frame", frame), zap.Int("queued", box.Len()))
	}
}

// pumpInbound renders frames in arrival order until the stream ends. A frame
// that does not decode ends the session.
func (c *Client) pumpInbound(transport Transport) error {
	for {
		frame, err := transport.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%w: %v", ErrTransport, err)
		}
		c.log.Debug("Received frame", zap.ByteString("frame", frame))

		msg, err := Decode(frame)
		if err != nil {
			return err
		}
		if err := c.output.render(msg); err != nil {
			return err
		}
	}
}
