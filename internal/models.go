package internal

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Client represents one chat session against a single endpoint
type Client struct {
	addr string

	mu      sync.Mutex
	name    string
	started bool

	input   io.Reader
	output  *sink
	dialer  Dialer
	log     *zap.Logger
	onReady func(name string)
}

// Message represents one unit of protocol exchange
type Message struct {
	SrcName string
	SrcAddr string
	Type    MessageType
	Text    string
}

// MessageType is the closed set of message kinds. The only implementations
// are the seven types below; every switch over it must handle all of them.
type MessageType interface {
	isMessageType()
}

// NewPeer announces that a peer has connected.
type NewPeer struct{ Name string }

// DisconPeer announces that a peer has disconnected.
type DisconPeer struct{ Name string }

// PeerNameAssign carries the name the server assigned to the receiving client.
type PeerNameAssign struct{ Name string }

// PeerInfoRequest asks the server for the current roster.
type PeerInfoRequest struct{}

// PeerInfoReply is the server's answer to a PeerInfoRequest.
type PeerInfoReply struct{ Info PeerInfo }

// Private is a message directed at a single peer; Text holds the body.
type Private struct{ To string }

// Text is a broadcast chat message; Text holds the body.
type Text struct{}

func (NewPeer) isMessageType()         {}
func (DisconPeer) isMessageType()      {}
func (PeerNameAssign) isMessageType()  {}
func (PeerInfoRequest) isMessageType() {}
func (PeerInfoReply) isMessageType()   {}
func (Private) isMessageType()         {}
func (Text) isMessageType()            {}

// PeerSet holds distinct peer names.
type PeerSet map[string]struct{}

// NewPeerSet builds a set from names, dropping duplicates.
func NewPeerSet(names ...string) PeerSet {
	set := make(PeerSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Sorted returns the names in ascending order.
func (s PeerSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PeerInfo is a roster snapshot. PeerNames excludes the requesting peer.
type PeerInfo struct {
	PeersOnline   int32
	PeerSpotsLeft int32
	PeerNames     PeerSet
}

func (p PeerInfo) String() string {
	quoted := make([]string, 0, len(p.PeerNames))
	for _, name := range p.PeerNames.Sorted() {
		quoted = append(quoted, fmt.Sprintf("%q", name))
	}
	return fmt.Sprintf("PeerInfo { peers_online: %d, peer_spots_left: %d, peer_names: {%s} }",
		p.PeersOnline, p.PeerSpotsLeft, strings.Join(quoted, ", "))
}

// Variant names as they appear on the wire
const (
	tagNewPeer         = "NewPeer"
	tagDisconPeer      = "DisconPeer"
	tagPeerNameAssign  = "PeerNameAssign"
	tagPeerInfoRequest = "PeerInfoRequest"
	tagPeerInfoReply   = "PeerInfoReply"
	tagPrivate         = "Private"
	tagText            = "Text"
)
