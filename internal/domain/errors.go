package domain

import (
	"errors"
	"fmt"
)

// Store level sentinels. Services turn them into coded errors.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

type Kind uint8

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindDuplicate
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDuplicate:
		return "duplicate"
	case KindUnauthorized:
		return "unauthorized"
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Error is a client facing failure with a machine readable code. Fields
// carry request context echoed back to the client (ids, names, choices).
// A NotFound error never reveals whether the resource exists for someone else.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]any
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// With returns a copy of e with key set in its context fields.
func (e *Error) With(key string, value any) *Error {
	out := *e
	out.Fields = make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		out.Fields[k] = v
	}
	out.Fields[key] = value
	return &out
}

func NewError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// IsCode reports whether err is a domain error carrying code.
func IsCode(err error, code string) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}
