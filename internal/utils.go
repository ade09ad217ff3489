package internal

import (
	"fmt"
	"io"

	"go.uber.org/zap/zapcore"
)

func formatMessage(msg Message) string {
	switch t := msg.Type.(type) {
	case NewPeer:
		return fmt.Sprintf("\n[Chat] %s: %s has connected.", msg.SrcName, t.Name)
	case DisconPeer:
		return fmt.Sprintf("\n[Chat] %s: %s has disconnected.", msg.SrcName, t.Name)
	case Text:
		return fmt.Sprintf("\n[Chat] %s: %s", msg.SrcName, msg.Text)
	case PeerInfoRequest:
		return fmt.Sprintf("\n[PeerDataRequest] %s: %s", msg.SrcName, msg.Text)
	case PeerInfoReply:
		return fmt.Sprintf("\n[PeerDataReply] %s: %s", msg.SrcName, t.Info)
	case PeerNameAssign:
		return fmt.Sprintf("\n[PeerName] %s: %s, %s", msg.SrcName, msg.Text, t.Name)
	case Private:
		return fmt.Sprintf("\n[PM] %s: %s: %s", msg.SrcName, msg.Text, t.To)
	default:
		return fmt.Sprintf("\n[Chat] %s: %s", msg.SrcName, msg.Text)
	}
}

// sink is the operator-facing output. Writes are serialized so a prompt and
// a rendered line never interleave.
type sink struct {
	ws       zapcore.WriteSyncer
	buffered bool
}

type flusher interface {
	Flush() error
}

// flushSyncer maps Sync onto Flush for buffered writers.
type flushSyncer struct {
	io.Writer
	f flusher
}

func (f flushSyncer) Sync() error { return f.f.Flush() }

func newSink(w io.Writer) *sink {
	if f, ok := w.(flusher); ok {
		return &sink{ws: zapcore.Lock(flushSyncer{Writer: w, f: f}), buffered: true}
	}
	return &sink{ws: zapcore.Lock(zapcore.AddSync(w))}
}

// print writes text and flushes it. Sync errors on unbuffered writers are
// ignored: terminals reject fsync.
func (s *sink) print(text string) error {
	if _, err := io.WriteString(s.ws, text); err != nil {
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}
	if err := s.ws.Sync(); err != nil && s.buffered {
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}
	return nil
}

func (s *sink) render(msg Message) error {
	return s.print(formatMessage(msg))
}
