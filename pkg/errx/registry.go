package errx

import (
	"fmt"
	"sync"
)

// ErrorCode is a code registered in a Registry.
type ErrorCode struct {
	Code       string
	Type       Type
	HTTPStatus int
	Message    string
}

// Registry owns the error codes of one package. Full codes are
// PREFIX_CODE, e.g. AUTH_INVALID_CREDENTIALS.
type Registry struct {
	prefix string
	mu     sync.RWMutex
	codes  map[string]*ErrorCode
}

func NewRegistry(prefix string) *Registry {
	return &Registry{prefix: prefix, codes: make(map[string]*ErrorCode)}
}

// Register adds code. A zero status falls back to the type's default.
func (r *Registry) Register(code string, t Type, status int, message string) *ErrorCode {
	r.mu.Lock()
	defer r.mu.Unlock()

	if status == 0 {
		status = t.Status()
	}
	ec := &ErrorCode{
		Code:       fmt.Sprintf("%s_%s", r.prefix, code),
		Type:       t,
		HTTPStatus: status,
		Message:    message,
	}
	r.codes[code] = ec
	return ec
}

// New returns a fresh *Error for code; callers may decorate it freely.
func (r *Registry) New(code *ErrorCode) *Error {
	return &Error{
		Code:       code.Code,
		Message:    code.Message,
		Type:       code.Type,
		HTTPStatus: code.HTTPStatus,
	}
}

func (r *Registry) NewWithMessage(code *ErrorCode, message string) *Error {
	e := r.New(code)
	e.Message = message
	return e
}

func (r *Registry) NewWithCause(code *ErrorCode, cause error) *Error {
	return r.New(code).WithCause(cause)
}

func (r *Registry) Get(code string) (*ErrorCode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ec, ok := r.codes[code]
	return ec, ok
}

// Codes returns a copy of the registered codes keyed by short code.
func (r *Registry) Codes() map[string]*ErrorCode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*ErrorCode, len(r.codes))
	for k, v := range r.codes {
		out[k] = v
	}
	return out
}
