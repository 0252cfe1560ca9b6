package errors

import (
	"fmt"
	"sync"
)

// registry 保存所有已声明的错误码，保证同一个码只声明一次。
var registry = struct {
	sync.RWMutex
	byCode map[int]*Errno
}{byCode: make(map[int]*Errno)}

// Register records e under its code and returns it, so declarations read
// `var ErrX = Register(New(...))`. A duplicate code panics at init time.
func Register(e *Errno) *Errno {
	registry.Lock()
	defer registry.Unlock()

	if prev, dup := registry.byCode[e.Code]; dup {
		panic(fmt.Sprintf("errno: code %d declared twice (%q, %q)", e.Code, prev.MessageEN, e.MessageEN))
	}
	registry.byCode[e.Code] = e
	return e
}

// Lookup finds a declared Errno by code.
func Lookup(code int) (*Errno, bool) {
	registry.RLock()
	e, ok := registry.byCode[code]
	registry.RUnlock()
	return e, ok
}
