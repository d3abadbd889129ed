package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/api/client"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/msgshim"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/protocol"
)

var errUsage = errors.New("usage: ipcctl [-socket PATH] [-admin ADDR] send|recv|stats|health [args]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "ipcctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg := config.LoadOrDefault()

	fs := flag.NewFlagSet("ipcctl", flag.ContinueOnError)
	socket := fs.String("socket", cfg.Broker.SocketPath, "Broker socket path")
	admin := fs.String("admin", cfg.Admin.Addr, "Broker admin address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "send":
		return send(ctx, msgshim.NewClient(*socket, msgshim.WithDialTimeout(cfg.Broker.DialTimeout)), rest)
	case "recv":
		return recv(ctx, msgshim.NewClient(*socket, msgshim.WithDialTimeout(cfg.Broker.DialTimeout)), rest, out)
	case "stats":
		snap, err := client.New(*admin, cfg.Broker.DialTimeout).Stats(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, snap)
	case "health":
		h, err := client.New(*admin, cfg.Broker.DialTimeout).Health(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, h)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func send(ctx context.Context, c *msgshim.Client, args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	mtype := fs.Int64("type", 1, "Message type")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}
	return c.Send(ctx, msgshim.QueueID, *mtype, []byte(fs.Arg(0)), 0)
}

func recv(ctx context.Context, c *msgshim.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("recv", flag.ContinueOnError)
	size := fs.Int("size", protocol.PayloadSize, "Maximum payload bytes to print")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *size < 0 {
		return errUsage
	}

	buf := make([]byte, *size)
	n, mtype, err := c.Receive(ctx, msgshim.QueueID, buf, 0, 0)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%d\t%s\n", mtype, bytes.TrimRight(buf[:n], "\x00"))
	return err
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
