// Package shmshim backs legacy shared-memory calls with POSIX shared-memory
// objects.
//
// A Table maps small integer ids to mappings created with shm_open semantics
// (an O_CREAT file in the shm directory, sized with ftruncate and mapped
// MAP_SHARED). Object names combine the owning pid and the slot index so two
// processes never collide.
//
// Ids are indexes into a process-local table. Unlike real System-V segment
// ids they mean nothing to any other process, and a segment is only reachable
// from the process that created it.
//
// Deviations from the legacy calls:
//   - Control implements only CmdRemove; every other command succeeds as a no-op.
//   - Detach only validates the address; it neither unmaps nor reference counts.
//   - A process that exits without removing its segments leaks their backing
//     objects in the shm directory.
package shmshim
