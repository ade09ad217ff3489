package internal

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// peerServer is a small stand-in for the real peer server: it names each
// connection, announces joins and leaves, relays text, routes private
// messages and answers roster requests.
type peerServer struct {
	*httptest.Server
	upgrader   websocket.Upgrader
	mutex      sync.Mutex
	clients    map[*websocket.Conn]string
	maxClients int
	nextID     int
	received   chan Message
}

func newPeerServer(t *testing.T, maxClients int) *peerServer {
	s := &peerServer{
		clients:    make(map[*websocket.Conn]string),
		maxClients: maxClients,
		received:   make(chan Message, 64),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(SocketPath, s.handleConnection)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Addr returns the host:port the client should be built with.
func (s *peerServer) Addr() string {
	return strings.TrimPrefix(s.URL, "http://")
}

func (s *peerServer) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.mutex.Lock()
	if len(s.clients) >= s.maxClients {
		s.mutex.Unlock()
		return
	}
	s.nextID++
	name := fmt.Sprintf("peer-%d", s.nextID)
	s.clients[conn] = name
	s.mutex.Unlock()

	s.reply(conn, Message{SrcName: "server", SrcAddr: r.Host, Type: PeerNameAssign{Name: name}})
	s.broadcast(Message{SrcName: "server", SrcAddr: r.Host, Type: NewPeer{Name: name}}, conn)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			break
		}
		msg, err := Decode(frame)
		if err != nil {
			break
		}
		s.received <- msg

		switch t := msg.Type.(type) {
		case Text:
			s.broadcast(msg, conn)
		case Private:
			s.sendPrivateMessage(msg, t.To)
		case PeerInfoRequest:
			info := s.peerInfo(conn)
			s.reply(conn, Message{SrcName: "server", SrcAddr: r.Host, Type: PeerInfoReply{Info: info}})
		}
	}

	s.mutex.Lock()
	delete(s.clients, conn)
	s.mutex.Unlock()
	s.broadcast(Message{SrcName: "server", SrcAddr: r.Host, Type: DisconPeer{Name: name}}, nil)
}

// send writes one message; callers hold s.mutex so a connection never has
// two writers.
func (s *peerServer) send(conn *websocket.Conn, msg Message) {
	frame, err := Encode(msg)
	if err != nil {
		return
	}
	conn.WriteMessage(websocket.TextMessage, frame)
}

func (s *peerServer) reply(conn *websocket.Conn, msg Message) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.send(conn, msg)
}

func (s *peerServer) broadcast(msg Message, exclude *websocket.Conn) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for conn := range s.clients {
		if conn != exclude {
			s.send(conn, msg)
		}
	}
}

func (s *peerServer) sendPrivateMessage(msg Message, to string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for conn, name := range s.clients {
		if name == to {
			s.send(conn, msg)
			return
		}
	}
}

func (s *peerServer) peerInfo(requester *websocket.Conn) PeerInfo {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	names := NewPeerSet()
	for conn, name := range s.clients {
		if conn != requester {
			names[name] = struct{}{}
		}
	}
	return PeerInfo{
		PeersOnline:   int32(len(s.clients)),
		PeerSpotsLeft: int32(s.maxClients - len(s.clients)),
		PeerNames:     names,
	}
}

// scriptServer serves a fixed sequence of frames to each connection and then
// runs after, which may be nil.
func scriptServer(t *testing.T, frames []string, after func(conn *websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc(SocketPath, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		if after != nil {
			after(conn)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func encodeFrame(t *testing.T, msg Message) string {
	t.Helper()
	frame, err := Encode(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(frame)
}

// closeNormally sends a normal close frame and waits for the peer to hang up.
func closeNormally(conn *websocket.Conn) {
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// readUntilClosed drains the connection until the client drops it.
func readUntilClosed(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
