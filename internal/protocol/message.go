package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// PayloadSize is the fixed size of Message.Text.
	PayloadSize = 255

	typeSize = 8

	// EnvelopeSize is the encoded size of a Message.
	EnvelopeSize = typeSize + PayloadSize
)

var ErrShortEnvelope = errors.New("envelope too short")

// Message is the unit stored by the broker queue.
type Message struct {
	Type int64
	Text [PayloadSize]byte
}

// NewMessage builds a Message from payload, zero-padding the remainder.
// Payloads longer than PayloadSize are rejected rather than truncated.
func NewMessage(msgType int64, payload []byte) (Message, error) {
	if len(payload) > PayloadSize {
		return Message{}, fmt.Errorf("payload of %d bytes exceeds %d", len(payload), PayloadSize)
	}
	m := Message{Type: msgType}
	copy(m.Text[:], payload)
	return m, nil
}

// MarshalTo encodes m into dst, which must hold at least EnvelopeSize bytes.
func (m *Message) MarshalTo(dst []byte) {
	_ = dst[EnvelopeSize-1]
	binary.LittleEndian.PutUint64(dst[:typeSize], uint64(m.Type))
	copy(dst[typeSize:EnvelopeSize], m.Text[:])
}

// Marshal returns the envelope encoding of m.
func (m *Message) Marshal() []byte {
	b := make([]byte, EnvelopeSize)
	m.MarshalTo(b)
	return b
}

// Unmarshal decodes an envelope. Bytes past EnvelopeSize are ignored.
func (m *Message) Unmarshal(b []byte) error {
	if len(b) < EnvelopeSize {
		return fmt.Errorf("%w: %d bytes", ErrShortEnvelope, len(b))
	}
	m.Type = int64(binary.LittleEndian.Uint64(b[:typeSize]))
	copy(m.Text[:], b[typeSize:EnvelopeSize])
	return nil
}

// ReadMessage reads exactly one envelope from r.
func ReadMessage(r io.Reader) (Message, error) {
	var buf [EnvelopeSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Message{}, err
	}
	var m Message
	_ = m.Unmarshal(buf[:])
	return m, nil
}

// WriteMessage writes m as one envelope.
func WriteMessage(w io.Writer, m Message) error {
	var buf [EnvelopeSize]byte
	m.MarshalTo(buf[:])
	return writeFull(w, buf[:])
}

// writeFull keeps writing until b is drained, tolerating writers that report
// a short count without an error.
func writeFull(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		b = b[n:]
	}
	return nil
}
