//go:build unix

package main

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/msgshim"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/shmshim"
)

// shim is the process-wide interception state.
type shim struct {
	logger *logging.Logger
	table  *shmshim.Table
	client *msgshim.Client
}

var (
	current     *shim
	currentOnce sync.Once
)

// instance builds the shim state on the first intercepted call.
func instance() *shim {
	currentOnce.Do(func() {
		cfg := config.LoadOrDefault()
		logger, err := logging.New(logging.ShimConfig(cfg.Logging.Level))
		if err != nil {
			logger = logging.NewNop()
		}
		current = newShim(cfg, logger.Named("shim"))
	})
	return current
}

func newShim(cfg *config.Config, logger *logging.Logger) *shim {
	return &shim{
		logger: logger,
		table: shmshim.NewTable(shmshim.Options{
			Dir:    cfg.Shm.Dir,
			Prefix: cfg.Shm.Prefix,
			Slots:  cfg.Shm.Slots,
		}),
		client: msgshim.NewClient(cfg.Broker.SocketPath,
			msgshim.WithDialTimeout(cfg.Broker.DialTimeout),
			msgshim.WithLogger(logger.Named("msg")),
		),
	}
}

func (s *shim) trace(call string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.logger.Debug(call, fields...)
}

func (s *shim) shmget(key, size, flags int) (int, error) {
	id, err := s.table.Create(key, size, flags)
	s.trace("shmget", err, zap.Int("key", key), zap.Int("size", size), zap.Int("id", id))
	return id, err
}

func (s *shim) shmat(id int) ([]byte, error) {
	mem, err := s.table.Attach(id)
	s.trace("shmat", err, zap.Int("id", id))
	return mem, err
}

func (s *shim) shmdt(addr uintptr) error {
	err := s.table.Detach(addr)
	s.trace("shmdt", err, zap.Uintptr("addr", addr))
	return err
}

func (s *shim) shmctl(id, cmd int) error {
	err := s.table.Control(id, cmd)
	s.trace("shmctl", err, zap.Int("id", id), zap.Int("cmd", cmd))
	return err
}

func (s *shim) msgget(key, flags int) (int, error) {
	id, err := s.client.Get(key, flags)
	s.trace("msgget", err, zap.Int("key", key), zap.Int("id", id))
	return id, err
}

func (s *shim) msgsnd(id int, mtype int64, text []byte, flags int) error {
	err := s.client.Send(context.Background(), id, mtype, text, flags)
	s.trace("msgsnd", err, zap.Int("id", id), zap.Int64("type", mtype), zap.Int("size", len(text)))
	return err
}

func (s *shim) msgrcv(id int, buf []byte, mtype int64, flags int) (int, int64, error) {
	n, got, err := s.client.Receive(context.Background(), id, buf, mtype, flags)
	s.trace("msgrcv", err, zap.Int("id", id), zap.Int64("type", got), zap.Int("copied", n))
	return n, got, err
}

func (s *shim) msgctl(id, cmd int) error {
	err := s.client.Control(id, cmd)
	s.trace("msgctl", err, zap.Int("id", id), zap.Int("cmd", cmd))
	return err
}
