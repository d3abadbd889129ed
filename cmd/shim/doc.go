// Command shim builds the preloadable interception library.
//
//	go build -buildmode=c-shared -o libipcshim.so ./cmd/shim
//	LD_PRELOAD=./libipcshim.so ./legacy-client
//
// The library defines shmget, shmat, shmdt, shmctl, msgget, msgsnd, msgrcv
// and msgctl with their legacy C signatures. Shared-memory calls are served by
// POSIX shared-memory objects in the calling process; message-queue calls are
// forwarded to the broker over its Unix socket.
//
// Failures follow the legacy convention: -1 (or (void *)-1 from shmat) with
// errno set to ENOSPC, EINVAL, the underlying errno, or EIO.
//
// The library reads the same IPC_* and LOG_* environment variables as the
// broker on first use. Intercepted calls are logged at debug level to stderr.
//
// msgsnd returns once the broker has queued the message, blocking while the
// queue is full. msgrcv returns the number of bytes copied, min(msgsz, 255),
// not the length the sender passed: the envelope carries no length, and
// shorter payloads arrive zero-padded to 255 bytes.
//
// Not supported: IPC_NOWAIT (msgrcv always blocks), the msgrcv type selector,
// shmat address hints, and any shmctl command other than IPC_RMID.
package main
