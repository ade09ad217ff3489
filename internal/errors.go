package internal

import "errors"

var (
	// ErrConnect is returned when the transport cannot be established or
	// closes before the server assigns a name.
	ErrConnect = errors.New("connection failed")
	// ErrDecode is returned when a frame is not a valid encoded Message.
	ErrDecode = errors.New("malformed frame")
	// ErrSend is returned when an outbound message cannot be written.
	ErrSend = errors.New("send failed")
	// ErrTransport is returned when reading from the transport fails.
	ErrTransport = errors.New("transport read failed")
	// ErrInput is returned when local input cannot be used.
	ErrInput = errors.New("input failed")
	// ErrOutput is returned when the output sink rejects a write.
	ErrOutput = errors.New("output failed")
	// ErrSessionUsed is returned by a second call to Connect.
	ErrSessionUsed = errors.New("client already connected once")
)
