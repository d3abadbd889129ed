package broker

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/protocol"
)

// Reasons a frame is dropped without reply
const (
	ignoreUnknownCommand = "unknown_command"
	ignoreVersion        = "unsupported_version"
	ignoreBadLength      = "bad_length"
)

// errClientGone ends a session whose client hung up during a RECV wait
var errClientGone = errors.New("client hung up while waiting")

// serveSession processes frames from conn until it closes or fails
func (s *Server) serveSession(ctx context.Context, conn net.Conn) {
	sid := s.ids.NewSessionID()
	log := s.logger.With(zap.String("session", sid.String()))

	s.metrics.SessionOpened()
	defer s.metrics.SessionClosed()
	defer conn.Close()

	br := bufio.NewReaderSize(conn, protocol.HeaderSize+protocol.EnvelopeSize)

	log.Debug("Session opened")
	for {
		f, err := protocol.ReadFrame(br)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				log.Debug("Session closed by client")
			case errors.Is(err, protocol.ErrFrameTooLarge):
				log.Warn("Dropping session on oversized frame", zap.Error(err))
			case errors.Is(err, net.ErrClosed):
				log.Debug("Session closed by broker")
			default:
				log.Debug("Session read failed", zap.Error(err))
			}
			return
		}

		if err := s.dispatch(ctx, conn, br, f, log); err != nil {
			log.Debug("Session ended", zap.Error(err))
			return
		}
	}
}

// dispatch handles one frame. A non-nil error ends the session.
func (s *Server) dispatch(ctx context.Context, conn net.Conn, br *bufio.Reader, f protocol.Frame, log *logging.Logger) error {
	if f.Version != protocol.Version {
		s.ignore(log, f, ignoreVersion)
		return nil
	}

	switch f.Command {
	case protocol.CmdSend:
		if len(f.Body) != protocol.EnvelopeSize {
			s.ignore(log, f, ignoreBadLength)
			return nil
		}
		var m protocol.Message
		if err := m.Unmarshal(f.Body); err != nil {
			s.ignore(log, f, ignoreBadLength)
			return nil
		}

		timer := monitoring.NewTimer(s.metrics, "enqueue")
		if err := s.queue.Enqueue(ctx, m); err != nil {
			return err
		}
		timer.Stop()

		s.metrics.RecordFrame(protocol.CmdSend.String())
		s.metrics.SetQueueDepth(s.queue.Len())
		log.Debug("Message queued", zap.Int64("type", m.Type))

		// the message stays queued even if the sender is gone
		if err := protocol.WriteAck(conn); err != nil {
			return err
		}

	case protocol.CmdRecv:
		timer := monitoring.NewTimer(s.metrics, "dequeue")
		m, err := s.awaitMessage(ctx, conn, br)
		if err != nil {
			return err
		}
		timer.Stop()

		s.metrics.RecordFrame(protocol.CmdRecv.String())

		if err := protocol.WriteMessage(conn, m); err != nil {
			s.requeue(ctx, m, log, err)
			return err
		}
		s.metrics.SetQueueDepth(s.queue.Len())
		log.Debug("Message delivered", zap.Int64("type", m.Type))

	default:
		s.ignore(log, f, ignoreUnknownCommand)
	}
	return nil
}

// awaitMessage dequeues for a parked RECV. The wait is abandoned as soon as
// the client hangs up, so a dead session never takes a message. A client
// that pipelines another frame behind its RECV is no longer watched.
func (s *Server) awaitMessage(ctx context.Context, conn net.Conn, br *bufio.Reader) (protocol.Message, error) {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watched := make(chan struct{})
	go func() {
		defer close(watched)
		if _, err := br.Peek(1); err != nil {
			cancel()
		}
	}()

	m, err := s.queue.Dequeue(wctx)

	// unblock the watcher and hand the reader back to the session
	conn.SetReadDeadline(time.Now())
	<-watched
	conn.SetReadDeadline(time.Time{})

	if err != nil {
		if ctx.Err() == nil {
			return protocol.Message{}, errClientGone
		}
		return protocol.Message{}, err
	}
	return m, nil
}

// requeue returns an undeliverable message to the head of the queue
func (s *Server) requeue(ctx context.Context, m protocol.Message, log *logging.Logger, cause error) {
	if err := s.queue.PushFront(ctx, m); err != nil {
		log.Warn("Message lost, client gone and broker stopping",
			zap.Int64("type", m.Type),
			zap.NamedError("write_error", cause),
			zap.Error(err),
		)
		return
	}
	s.metrics.RecordRequeue()
	s.metrics.SetQueueDepth(s.queue.Len())
	log.Debug("Requeued undeliverable message", zap.Int64("type", m.Type), zap.Error(cause))
}

func (s *Server) ignore(log *logging.Logger, f protocol.Frame, reason string) {
	s.metrics.RecordIgnored(reason)
	log.Debug("Ignoring frame",
		zap.String("command", f.Command.String()),
		zap.Uint8("version", f.Version),
		zap.Int("body_len", len(f.Body)),
		zap.String("reason", reason),
	)
}
