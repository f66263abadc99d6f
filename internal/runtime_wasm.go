//go:build wasm

package internal

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID reads the id from the stack header ("goroutine 7 [running]:").
// wasm runs on one thread but goroutines still interleave whenever a
// listener blocks, so ownership must be per goroutine.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}

	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		panic("sodium: cannot read goroutine id: " + err.Error())
	}

	return id
}
