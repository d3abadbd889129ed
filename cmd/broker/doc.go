// Package main is the entry point for the IPC broker daemon.
//
// The broker owns the single bounded message queue that every intercepted
// msgsnd/msgrcv call is redirected to. Clients reach it over a Unix-domain
// stream socket; each connection is served on its own goroutine.
//
// Configuration:
//   - Environment variables (IPC_*, LOG_*)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Defaults: /tmp/ipc_service_socket, capacity 10, admin on 127.0.0.1:9105
//	./broker
//
//	# Custom socket and capacity, no admin endpoint
//	./broker -socket /run/ipc.sock -capacity 64 -admin ""
//
//	# Development mode (colored logs, debug level)
//	./broker -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown (pending waits are released, socket unlinked)
package main
