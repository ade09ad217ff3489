package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

type wireMessage struct {
	SrcName string          `json:"src_name"`
	SrcAddr string          `json:"src_addr"`
	MsgType json.RawMessage `json:"msg_type"`
	Text    string          `json:"text"`
}

// Every field is a pointer so a missing field can be told apart from a zero one.
type wireFrame struct {
	SrcName *string         `json:"src_name"`
	SrcAddr *string         `json:"src_addr"`
	MsgType json.RawMessage `json:"msg_type"`
	Text    *string         `json:"text"`
}

type wirePeerInfo struct {
	PeersOnline   int32    `json:"peers_online"`
	PeerSpotsLeft int32    `json:"peer_spots_left"`
	PeerNames     []string `json:"peer_names"`
}

type wirePeerInfoFrame struct {
	PeersOnline   *int32    `json:"peers_online"`
	PeerSpotsLeft *int32    `json:"peer_spots_left"`
	PeerNames     *[]string `json:"peer_names"`
}

// Encode turns a message into one text frame.
func Encode(msg Message) ([]byte, error) {
	msgType, err := encodeType(msg.Type)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{
		SrcName: msg.SrcName,
		SrcAddr: msg.SrcAddr,
		MsgType: msgType,
		Text:    msg.Text,
	})
}

func encodeType(t MessageType) (json.RawMessage, error) {
	switch v := t.(type) {
	case NewPeer:
		return encodeTagged(tagNewPeer, v.Name)
	case DisconPeer:
		return encodeTagged(tagDisconPeer, v.Name)
	case PeerNameAssign:
		return encodeTagged(tagPeerNameAssign, v.Name)
	case PeerInfoRequest:
		return json.Marshal(tagPeerInfoRequest)
	case PeerInfoReply:
		names := v.Info.PeerNames.Sorted()
		return encodeTagged(tagPeerInfoReply, wirePeerInfo{
			PeersOnline:   v.Info.PeersOnline,
			PeerSpotsLeft: v.Info.PeerSpotsLeft,
			PeerNames:     names,
		})
	case Private:
		return encodeTagged(tagPrivate, v.To)
	case Text:
		return json.Marshal(tagText)
	default:
		return nil, fmt.Errorf("unknown message type %T", t)
	}
}

func encodeTagged(tag string, payload any) (json.RawMessage, error) {
	return json.Marshal(map[string]any{tag: payload})
}

// Decode parses one frame. Any error wraps ErrDecode.
func Decode(frame []byte) (Message, error) {
	if !utf8.Valid(frame) {
		return Message{}, fmt.Errorf("%w: frame is not valid UTF-8", ErrDecode)
	}
	if first(frame) != '{' {
		return Message{}, fmt.Errorf("%w: frame is not an object", ErrDecode)
	}

	var wf wireFrame
	if err := json.Unmarshal(frame, &wf); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	switch {
	case wf.SrcName == nil:
		return Message{}, fmt.Errorf("%w: missing field src_name", ErrDecode)
	case wf.SrcAddr == nil:
		return Message{}, fmt.Errorf("%w: missing field src_addr", ErrDecode)
	case wf.MsgType == nil:
		return Message{}, fmt.Errorf("%w: missing field msg_type", ErrDecode)
	case wf.Text == nil:
		return Message{}, fmt.Errorf("%w: missing field text", ErrDecode)
	}

	msgType, err := decodeType(wf.MsgType)
	if err != nil {
		return Message{}, fmt.Errorf("%w: msg_type: %v", ErrDecode, err)
	}
	return Message{
		SrcName: *wf.SrcName,
		SrcAddr: *wf.SrcAddr,
		Type:    msgType,
		Text:    *wf.Text,
	}, nil
}

// decodeType accepts "Tag" for unit variants and {"Tag": payload} for all of
// them, with a null payload for unit variants.
func decodeType(raw json.RawMessage) (MessageType, error) {
	switch first(raw) {
	case '"':
		var tag string
		if err := json.Unmarshal(raw, &tag); err != nil {
			return nil, err
		}
		switch tag {
		case tagPeerInfoRequest:
			return PeerInfoRequest{}, nil
		case tagText:
			return Text{}, nil
		case tagNewPeer, tagDisconPeer, tagPeerNameAssign, tagPeerInfoReply, tagPrivate:
			return nil, fmt.Errorf("variant %s requires a payload", tag)
		default:
			return nil, fmt.Errorf("unknown variant %q", tag)
		}
	case '{':
	default:
		return nil, fmt.Errorf("expected a variant tag")
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return nil, err
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("expected exactly one variant tag, got %d", len(tagged))
	}

	for tag, payload := range tagged {
		switch tag {
		case tagNewPeer:
			name, err := decodeString(tag, payload)
			return NewPeer{Name: name}, err
		case tagDisconPeer:
			name, err := decodeString(tag, payload)
			return DisconPeer{Name: name}, err
		case tagPeerNameAssign:
			name, err := decodeString(tag, payload)
			return PeerNameAssign{Name: name}, err
		case tagPrivate:
			to, err := decodeString(tag, payload)
			return Private{To: to}, err
		case tagPeerInfoReply:
			info, err := decodePeerInfo(payload)
			return PeerInfoReply{Info: info}, err
		case tagPeerInfoRequest:
			return PeerInfoRequest{}, decodeUnit(tag, payload)
		case tagText:
			return Text{}, decodeUnit(tag, payload)
		default:
			return nil, fmt.Errorf("unknown variant %q", tag)
		}
	}
	return nil, fmt.Errorf("expected a variant tag")
}

func decodeString(tag string, payload json.RawMessage) (string, error) {
	if first(payload) != '"' {
		return "", fmt.Errorf("variant %s expects a string payload", tag)
	}
	var s string
	if err := json.Unmarshal(payload, &s); err != nil {
		return "", err
	}
	return s, nil
}

func decodeUnit(tag string, payload json.RawMessage) error {
	if !bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return fmt.Errorf("variant %s takes no payload", tag)
	}
	return nil
}

func decodePeerInfo(payload json.RawMessage) (PeerInfo, error) {
	if first(payload) != '{' {
		return PeerInfo{}, fmt.Errorf("variant %s expects an object payload", tagPeerInfoReply)
	}
	var wp wirePeerInfoFrame
	if err := json.Unmarshal(payload, &wp); err != nil {
		return PeerInfo{}, err
	}
	switch {
	case wp.PeersOnline == nil:
		return PeerInfo{}, fmt.Errorf("missing field peers_online")
	case wp.PeerSpotsLeft == nil:
		return PeerInfo{}, fmt.Errorf("missing field peer_spots_left")
	case wp.PeerNames == nil:
		return PeerInfo{}, fmt.Errorf("missing field peer_names")
	case *wp.PeersOnline < 0:
		return PeerInfo{}, fmt.Errorf("peers_online is negative")
	case *wp.PeerSpotsLeft < 0:
		return PeerInfo{}, fmt.Errorf("peer_spots_left is negative")
	}

	names := NewPeerSet(*wp.PeerNames...)
	if len(names) != len(*wp.PeerNames) {
		return PeerInfo{}, fmt.Errorf("peer_names contains duplicates")
	}
	return PeerInfo{
		PeersOnline:   *wp.PeersOnline,
		PeerSpotsLeft: *wp.PeerSpotsLeft,
		PeerNames:     names,
	}, nil
}

// first returns the first non-space byte of b, or 0.
func first(b []byte) byte {
	b = bytes.TrimLeft(b, " \t\r\n")
	if len(b) == 0 {
		return 0
	}
	return b[0]
}
