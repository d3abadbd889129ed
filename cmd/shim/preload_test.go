//go:build linux

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPreloadedClient builds the shared library, compiles a legacy C client
// against the system headers and runs it with the library preloaded.
func TestPreloadedClient(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the shared library")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go tool not on PATH")
	}
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("no C compiler")
	}

	dir := t.TempDir()
	lib := filepath.Join(dir, "libipcshim.so")
	client := filepath.Join(dir, "client")

	build := exec.Command(goBin, "build", "-buildmode=c-shared", "-o", lib, ".")
	build.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := build.CombinedOutput()
	require.NoError(t, err, "build shared library: %s", out)

	out, err = exec.Command(cc, "-o", client, filepath.Join("testdata", "client.c")).CombinedOutput()
	require.NoError(t, err, "compile client: %s", out)

	shmDir := filepath.Join(dir, "shm")
	require.NoError(t, os.Mkdir(shmDir, 0o755))
	socket := filepath.Join(dir, "ipc.sock")
	startBroker(t, socket)

	run := exec.Command(client)
	run.Env = append(os.Environ(),
		"LD_PRELOAD="+lib,
		"IPC_SOCKET_PATH="+socket,
		"IPC_SHM_DIR="+shmDir,
		"LOG_LEVEL=error",
	)
	out, err = run.CombinedOutput()
	require.NoError(t, err, "client: %s", out)

	assert.Equal(t, "shm=shared\n"+
		"shmat_removed=-1 errno=EINVAL\n"+
		"mtype=7 n=255 text=hello\n"+
		"msgsnd_oversized=-1 errno=EINVAL\n", string(out))

	entries, err := os.ReadDir(shmDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "removed segment left its backing object")
}
