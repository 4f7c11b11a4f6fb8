// Package logsite provides the identities used to key per-call-site state:
// a Site for a source location, and specialized keys that split one site
// into several independently rate-limited streams.
package logsite

import (
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"

	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
)

// Key identifies a stream of log statements. Implementations must be
// comparable since keys index a shared map.
type Key interface {
	fmt.Stringer
	isKey()
}

// Site is the source location of a log statement.
type Site struct {
	Function string
	File     string
	Line     int
}

func (Site) isKey() {}

func (s Site) String() string {
	if s.File == "" {
		return s.Function
	}
	return fmt.Sprintf("%s:%s:%d", s.Function, filepath.Base(s.File), s.Line)
}

// Invalid is the zero Site, used when the caller cannot be determined.
var Invalid = Site{Function: "<unknown>"}

// Caller returns the Site of the function skip frames above the caller of
// Caller. Caller(0) identifies the line that called Caller.
func Caller(skip int) Site {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Invalid
	}
	name := "<unknown>"
	if fn := runtime.FuncForPC(pc); fn != nil {
		name = fn.Name()
	}
	return Site{Function: name, File: file, Line: line}
}

// Injected returns a Site for an identifier supplied by the caller, for code
// generators and tests that want a stable key without stack inspection.
func Injected(id string) Site {
	return Site{Function: id}
}

type specialized struct {
	parent    Key
	qualifier any
}

func (specialized) isKey() {}

func (s specialized) String() string {
	return fmt.Sprintf("%s[%v]", s.parent, s.qualifier)
}

// Specialize derives a key distinct from parent for each distinct qualifier.
// Specializing the same key with equal qualifiers yields equal keys. It
// panics with a ValidationError if qualifier is not comparable.
func Specialize(parent Key, qualifier any) Key {
	if parent == nil {
		panic(slerrors.NewValidationError("log site key cannot be nil", nil))
	}
	if qualifier == nil {
		return parent
	}
	if !reflect.TypeOf(qualifier).Comparable() {
		panic(slerrors.NewValidationError(fmt.Sprintf("log site qualifier of type %T is not comparable", qualifier), nil))
	}
	return specialized{parent: parent, qualifier: qualifier}
}
