// Package config provides 12-factor configuration for the broker and the shim.
//
// Configuration is loaded from environment variables with sensible defaults.
// The broker's CLI flags override environment variables. The shim has no
// flags, so inside a client process the environment is the only source.
//
// Configuration Sections:
//   - Broker: socket path and client dial timeout
//   - Queue: message queue capacity
//   - Shm: shared-memory directory, object name prefix and table size
//   - Admin: HTTP admin/metrics endpoint
//   - Logging: log level and output format
//
// Environment Variables:
//   - IPC_SOCKET_PATH, IPC_DIAL_TIMEOUT, IPC_QUEUE_CAPACITY
//   - IPC_SHM_DIR, IPC_SHM_PREFIX, IPC_SHM_SLOTS
//   - IPC_ADMIN_ADDR, IPC_ADMIN_ENABLED
//   - LOG_LEVEL, LOG_DEV
package config
