// Package protocol defines the broker wire format.
//
// A Message is a type tag plus a fixed 255-byte payload. On the wire it travels
// as an envelope: 8 bytes of little-endian type followed by the payload.
//
// Requests are framed with a 12-byte header:
//
//	[0:4]  command tag, ASCII "SEND" or "RECV"
//	[4]    version
//	[5]    flags
//	[6:8]  reserved
//	[8:12] body length, uint32 little-endian
//
// A SEND body is exactly one envelope; the broker answers with a bodyless
// "SENT" frame once the message is queued, so a sender that waits for it
// observes its messages queued in the order it sent them. A RECV body is
// empty and the broker answers it with a bare envelope, no header.
package protocol
