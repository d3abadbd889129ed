// Package main is ipcctl, a command-line client for the IPC broker.
//
// Usage:
//
//	ipcctl send [-type N] TEXT     queue TEXT with message type N
//	ipcctl recv [-size N]          block for the oldest message and print it
//	ipcctl stats                   print broker counters from the admin endpoint
//	ipcctl health                  check the admin endpoint
//
// The socket path and admin address come from IPC_SOCKET_PATH and
// IPC_ADMIN_ADDR, or from the -socket and -admin flags.
package main
