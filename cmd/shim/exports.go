//go:build unix

package main

/*
#include <stddef.h>
#include <sys/types.h>
*/
import "C"

import (
	"math"
	"unsafe"

	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/shared/ipcerr"
)

// The go* functions are called by the C definitions in shim.c, which turn a
// failure into the legacy return value and set errno on the C side.

func fail(errp *C.int, err error) C.int {
	*errp = C.int(ipcerr.Errno(err))
	return -1
}

// text returns the mtext bytes that follow the long mtype field.
func text(msgp unsafe.Pointer, size C.size_t) []byte {
	return unsafe.Slice((*byte)(unsafe.Add(msgp, unsafe.Sizeof(C.long(0)))), int(size))
}

//export goShmget
func goShmget(key C.int, size C.size_t, flags C.int, errp *C.int) C.int {
	if uint64(size) > math.MaxInt32 {
		return fail(errp, ipcerr.ErrInvalidArgument)
	}
	id, err := instance().shmget(int(key), int(size), int(flags))
	if err != nil {
		return fail(errp, err)
	}
	return C.int(id)
}

//export goShmat
func goShmat(id C.int, errp *C.int) unsafe.Pointer {
	mem, err := instance().shmat(int(id))
	if err != nil {
		fail(errp, err)
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(mem))
}

//export goShmdt
func goShmdt(addr unsafe.Pointer, errp *C.int) C.int {
	if err := instance().shmdt(uintptr(addr)); err != nil {
		return fail(errp, err)
	}
	return 0
}

//export goShmctl
func goShmctl(id, cmd C.int, errp *C.int) C.int {
	if err := instance().shmctl(int(id), int(cmd)); err != nil {
		return fail(errp, err)
	}
	return 0
}

//export goMsgget
func goMsgget(key, flags C.int, errp *C.int) C.int {
	id, err := instance().msgget(int(key), int(flags))
	if err != nil {
		return fail(errp, err)
	}
	return C.int(id)
}

//export goMsgsnd
func goMsgsnd(id C.int, msgp unsafe.Pointer, size C.size_t, flags C.int, errp *C.int) C.int {
	if msgp == nil || uint64(size) > math.MaxInt32 {
		return fail(errp, ipcerr.ErrInvalidArgument)
	}
	mtype := int64(*(*C.long)(msgp))
	if err := instance().msgsnd(int(id), mtype, text(msgp, size), int(flags)); err != nil {
		return fail(errp, err)
	}
	return 0
}

//export goMsgrcv
func goMsgrcv(id C.int, msgp unsafe.Pointer, size C.size_t, msgtyp C.long, flags C.int, errp *C.int) C.ssize_t {
	if msgp == nil || uint64(size) > math.MaxInt32 {
		return C.ssize_t(fail(errp, ipcerr.ErrInvalidArgument))
	}
	n, mtype, err := instance().msgrcv(int(id), text(msgp, size), int64(msgtyp), int(flags))
	if err != nil {
		return C.ssize_t(fail(errp, err))
	}
	*(*C.long)(msgp) = C.long(mtype)
	return C.ssize_t(n)
}

//export goMsgctl
func goMsgctl(id, cmd C.int, errp *C.int) C.int {
	if err := instance().msgctl(int(id), int(cmd)); err != nil {
		return fail(errp, err)
	}
	return 0
}

func main() {}
