package internal

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// open dials the endpoint. A failure here is fatal; there is no retry.
func (c *Client) open(ctx context.Context) (Transport, error) {
	transport, err := c.dialer.Dial(ctx, c.addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	c.log.Info("Connected", zap.String("endpoint", SocketURL(c.addr)),
		zap.String("local_addr", transport.LocalAddr()))

	if err := c.output.print("WebSocket handshake has been successfully completed.\n"); err != nil {
		transport.Close()
		return nil, err
	}
	return transport, nil
}

// awaitIdentity reads frames until the server assigns this client a name
// and returns it. Every other frame is dropped unseen. Nothing is sent and there is no
// timeout: a server that never assigns a name blocks here forever.
func (c *Client) awaitIdentity(transport Transport) (string, error) {
	for {
		frame, err := transport.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%w: closed before a name was assigned", ErrConnect)
			}
			return "", fmt.Errorf("%w: %v", ErrTransport, err)
		}

		msg, err := Decode(frame)
		if err != nil {
			return "", err
		}

		assign, ok := msg.Type.(PeerNameAssign)
		if !ok {
			c.log.Debug("Dropped frame before name assignment", zap.String("from", msg.SrcName))
			continue
		}

		if err := c.output.print(fmt.Sprintf("\n[Chat] Welcome to peerchat, %s!", assign.Name)); err != nil {
			return "", err
		}
		c.log.Info("Name assigned", zap.String("name", assign.Name))
		return assign.Name, nil
	}
}
