package billing

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind classifies a rejected bill computation.
type ErrorKind int

const (
	InvalidQuantity ErrorKind = iota + 1
	InvalidCharge
	RoundingOverflow
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidQuantity:
		return "InvalidQuantity"
	case InvalidCharge:
		return "InvalidCharge"
	case RoundingOverflow:
		return "RoundingOverflow"
	default:
		return "Unknown"
	}
}

func (k ErrorKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

var (
	// ErrInvalidQuantity is returned when a line quantity is zero or negative.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidCharge is returned for a negative price, tax amount, transport charge or credit.
	ErrInvalidCharge = errors.New("invalid charge")
	// ErrRoundingOverflow is returned when an amount is not finite or exceeds MaxAmount.
	ErrRoundingOverflow = errors.New("rounding overflow")
)

var sentinels = map[ErrorKind]error{
	InvalidQuantity:  ErrInvalidQuantity,
	InvalidCharge:    ErrInvalidCharge,
	RoundingOverflow: ErrRoundingOverflow,
}

// Error describes which input rejected a computation.
type Error struct {
	Kind  ErrorKind `json:"kind"`
	Field string    `json:"field"`
	Value string    `json:"value,omitempty"`
}

func (e *Error) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("billing: %s: %s (value: %s)", sentinels[e.Kind], e.Field, e.Value)
	}
	return fmt.Sprintf("billing: %s: %s", sentinels[e.Kind], e.Field)
}

// Is lets errors.Is match an *Error against the sentinel of its kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

func newError(kind ErrorKind, field string, value fmt.Stringer) *Error {
	e := &Error{Kind: kind, Field: field}
	if value != nil {
		e.Value = value.String()
	}
	return e
}

// KindOf returns the ErrorKind carried by err, or 0 when err is not a billing error.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	for kind, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return 0
}
