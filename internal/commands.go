package internal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Local command prefixes
const (
	privatePrefix   = "pm: "
	peerInfoCommand = "peerdatarequest"
)

// ParseCommand maps one input line onto the message it sends.
//
//	pm: <name> <word>   private message; only the first word of the body is kept
//	peerdatarequest     roster request
//	anything else       broadcast text
func ParseCommand(line, name, addr string) Message {
	msg := Message{SrcName: name, SrcAddr: addr}

	switch {
	case strings.HasPrefix(line, privatePrefix):
		parts := strings.Split(line, " ")
		msg.Type = Private{To: token(parts, 1)}
		msg.Text = token(parts, 2)
	case strings.HasPrefix(line, peerInfoCommand):
		msg.Type = PeerInfoRequest{}
	default:
		msg.Type = Text{}
		msg.Text = line
	}
	return msg
}

func token(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

// trimLineEnding strips a trailing "\n" and, only then, a "\r" before it.
func trimLineEnding(line string) string {
	if !strings.HasSuffix(line, "\n") {
		return line
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// readInput prompts, reads and parses lines until input ends, pushing each
// message into box. It closes box when it stops.
func (c *Client) readInput(ctx context.Context, box *outbox, name, localAddr string) {
	reader := bufio.NewReader(c.input)
	prompt := fmt.Sprintf("\n[Chat] %s: ", name)

	for {
		if ctx.Err() != nil {
			box.Close(nil)
			return
		}
		if err := c.output.print(prompt); err != nil {
			box.Close(err)
			return
		}

		line, err := reader.ReadString('\n')
		if line != "" {
			if !utf8.ValidString(line) {
				box.Close(fmt.Errorf("%w: line is not valid UTF-8", ErrInput))
				return
			}
			msg := ParseCommand(trimLineEnding(line), name, localAddr)
			if !box.Push(msg) {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.log.Warn("Input read failed", zap.Error(err))
			}
			box.Close(nil)
			return
		}
	}
}
