package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Command is the 4-byte ASCII tag that opens every frame.
type Command [4]byte

var (
	CmdSend = Command{'S', 'E', 'N', 'D'}
	CmdRecv = Command{'R', 'E', 'C', 'V'}

	// CmdSent is the broker's reply once a SEND is queued.
	CmdSent = Command{'S', 'E', 'N', 'T'}
)

func (c Command) String() string {
	return string(c[:])
}

const (
	// Version is the only frame version this package produces and accepts.
	Version uint8 = 1

	// HeaderSize is the encoded size of FrameHeader.
	HeaderSize = 12

	// MaxBodySize bounds the declared body length. A larger declaration means
	// the stream cannot be trusted and the session must end.
	MaxBodySize = 4096
)

var (
	ErrFrameTooLarge = errors.New("frame body exceeds limit")
	ErrBodyTooLarge  = errors.New("body too large to frame")
	ErrUnexpectedAck = errors.New("unexpected reply to SEND")
)

// FrameHeader is the fixed request header.
type FrameHeader struct {
	Command Command
	Version uint8
	Flags   uint8
	Length  uint32
}

// Frame is a decoded request.
type Frame struct {
	FrameHeader
	Body []byte
}

func encodeHeaderTo(dst *[HeaderSize]byte, h FrameHeader) {
	b := dst[:]
	copy(b[0:4], h.Command[:])
	b[4] = h.Version
	b[5] = h.Flags
	b[6], b[7] = 0, 0
	binary.LittleEndian.PutUint32(b[8:12], h.Length)
}

func decodeHeader(b []byte) (FrameHeader, error) {
	if len(b) < HeaderSize {
		return FrameHeader{}, errors.New("frame header too short")
	}
	var h FrameHeader
	copy(h.Command[:], b[0:4])
	h.Version = b[4]
	h.Flags = b[5]
	h.Length = binary.LittleEndian.Uint32(b[8:12])
	return h, nil
}

// ReadFrame reads one complete frame. The body is consumed even when the
// command or version is unknown, so callers can skip the frame and stay in
// sync with the stream.
func ReadFrame(r io.Reader) (Frame, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, err
	}
	h, err := decodeHeader(hdr[:])
	if err != nil {
		return Frame{}, err
	}
	if h.Length > MaxBodySize {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, h.Length)
	}

	f := Frame{FrameHeader: h}
	if h.Length > 0 {
		f.Body = make([]byte, h.Length)
		if _, err := io.ReadFull(r, f.Body); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return Frame{}, err
		}
	}
	return f, nil
}

// WriteFrame writes a version-1 frame carrying body.
func WriteFrame(w io.Writer, cmd Command, body []byte) error {
	if len(body) > MaxBodySize {
		return fmt.Errorf("%w: %d bytes", ErrBodyTooLarge, len(body))
	}

	buf := make([]byte, HeaderSize+len(body))
	var hdr [HeaderSize]byte
	encodeHeaderTo(&hdr, FrameHeader{Command: cmd, Version: Version, Length: uint32(len(body))})
	copy(buf, hdr[:])
	copy(buf[HeaderSize:], body)
	return writeFull(w, buf)
}

// WriteSend frames m as a SEND request.
func WriteSend(w io.Writer, m Message) error {
	return WriteFrame(w, CmdSend, m.Marshal())
}

// WriteRecv writes a bodyless RECV request.
func WriteRecv(w io.Writer) error {
	return WriteFrame(w, CmdRecv, nil)
}

// WriteAck confirms that a SEND has been queued.
func WriteAck(w io.Writer) error {
	return WriteFrame(w, CmdSent, nil)
}

// ReadAck waits for the broker to confirm a SEND.
func ReadAck(r io.Reader) error {
	f, err := ReadFrame(r)
	if err != nil {
		return err
	}
	if f.Command != CmdSent || f.Version != Version || len(f.Body) != 0 {
		return fmt.Errorf("%w: %s v%d, %d byte body", ErrUnexpectedAck, f.Command, f.Version, len(f.Body))
	}
	return nil
}
