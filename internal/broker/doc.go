// Package broker exposes the bounded message queue over a Unix-domain stream socket.
//
// The broker removes any stale file at its socket path, binds, and serves every
// accepted connection on its own goroutine. A connection carries a stream of
// frames (see package protocol):
//
//   - SEND enqueues the envelope carried in the frame body, blocking while the
//     queue is full. No reply is written.
//   - RECV dequeues the oldest message, blocking while the queue is empty, and
//     writes the bare envelope back on the same connection.
//
// Frames with an unknown command, an unsupported version or a malformed SEND
// body are dropped without a reply; a client waiting for one stalls. This is
// kept for compatibility with legacy clients. A read error or end of stream
// ends the session. Accept errors are logged and the loop continues.
package broker
