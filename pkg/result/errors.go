package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

// Kind identifies the cause of a probe failure.
// The numeric order is the status precedence: a higher Kind outranks a lower one.
type Kind int

const (
	// KindIO means an underlying I/O operation failed.
	KindIO Kind = iota + 1
	// KindNotFound means a required file, command or resource is absent.
	KindNotFound
	// KindMalformed means data was read but did not have the expected shape.
	KindMalformed
	// KindEncoding means a value could not be serialized.
	KindEncoding
)

// ErrMalformed can be wrapped by probes to mark a parse failure as malformed data.
var ErrMalformed = errors.New("malformed data")

// String returns the stable wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindNotFound:
		return "not_found"
	case KindMalformed:
		return "malformed"
	case KindEncoding:
		return "encoding"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) describe() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindMalformed:
		return "malformed data"
	case KindEncoding:
		return "encoding failed"
	default:
		return "i/o failure"
	}
}

// MarshalText makes Kind serialize as its wire name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Error is a single attributed probe failure.
type Error struct {
	// Kind is the failure cause.
	Kind Kind

	// Key names the probe or report field that produced the error (e.g. "cpuinfo").
	Key string

	// Err is the underlying cause. It may be nil.
	Err error
}

// NotFound returns a KindNotFound error for key.
func NotFound(key string, err error) *Error {
	return &Error{Kind: KindNotFound, Key: key, Err: err}
}

// IO returns a KindIO error for key.
func IO(key string, err error) *Error {
	return &Error{Kind: KindIO, Key: key, Err: err}
}

// Malformed returns a KindMalformed error for key.
func Malformed(key string, err error) *Error {
	return &Error{Kind: KindMalformed, Key: key, Err: err}
}

// Encoding returns a KindEncoding error for key.
func Encoding(key string, err error) *Error {
	return &Error{Kind: KindEncoding, Key: key, Err: err}
}

func (e *Error) Error() string {
	var msg string
	switch {
	case e.Err == nil:
		msg = e.Kind.describe()
	case e.Kind == KindMalformed && errors.Is(e.Err, ErrMalformed):
		msg = e.Err.Error()
	default:
		msg = e.Kind.describe() + ": " + e.Err.Error()
	}
	if e.Key == "" {
		return msg
	}
	return e.Key + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the error as {"kind":..,"key":..,"message":..}.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.wire())
}

// ErrorBody is the serialized shape of an Error, shared by all codecs.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

func (e *Error) wire() ErrorBody {
	return ErrorBody{Kind: e.Kind.String(), Key: e.Key, Message: e.Error()}
}

// Classify converts an arbitrary error into an attributed *Error.
// Errors that already are or wrap an *Error keep its kind and key; an empty
// key is filled in. Context added by wrapping the *Error is kept in front
// of its cause.
func Classify(key string, err error) *Error {
	if err == nil {
		return nil
	}

	var re *Error
	if errors.As(err, &re) {
		if err == error(re) && re.Key != "" {
			return re
		}
		out := &Error{Kind: re.Kind, Key: re.Key, Err: re.Err}
		if out.Key == "" {
			out.Key = key
		}
		if err != error(re) {
			out.Err = withContext(err, re)
		}
		return out
	}

	var (
		syntaxErr      *json.SyntaxError
		typeErr        *json.UnmarshalTypeError
		unsupportedVal *json.UnsupportedValueError
		unsupportedTyp *json.UnsupportedTypeError
		marshalerErr   *json.MarshalerError
	)

	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, exec.ErrNotFound):
		return NotFound(key, err)
	case errors.Is(err, ErrMalformed), errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return Malformed(key, err)
	case errors.As(err, &unsupportedVal), errors.As(err, &unsupportedTyp), errors.As(err, &marshalerErr):
		return Encoding(key, err)
	default:
		return IO(key, err)
	}
}

// withContext returns inner's cause prefixed by the messages that outer
// adds around inner, e.g. "reading config" for fmt.Errorf("reading config: %w", inner).
// If outer does not end with inner's message it is kept whole.
func withContext(outer error, inner *Error) error {
	msg := outer.Error()
	prefix, ok := strings.CutSuffix(msg, ": "+inner.Error())
	if !ok || prefix == "" {
		return outer
	}
	if inner.Err == nil {
		return errors.New(prefix)
	}
	return fmt.Errorf("%s: %w", prefix, inner.Err)
}

// Errors is an ordered collection of probe failures. Insertion order is kept
// and duplicates are never removed. The zero value is an empty collection.
type Errors struct {
	list []*Error
}

// From wraps a single error into a collection. A nil error yields an
// empty collection.
func From(err *Error) Errors {
	if err == nil {
		return Errors{}
	}
	return Errors{list: []*Error{err}}
}

// Concat returns a new collection holding e's errors followed by other's.
// Neither input is modified.
func (e Errors) Concat(other Errors) Errors {
	if len(other.list) == 0 {
		return e
	}
	if len(e.list) == 0 {
		return other
	}
	merged := make([]*Error, 0, len(e.list)+len(other.list))
	merged = append(merged, e.list...)
	merged = append(merged, other.list...)
	return Errors{list: merged}
}

// Errors returns a copy of the collected errors in insertion order.
func (e Errors) Errors() []*Error {
	out := make([]*Error, len(e.list))
	copy(out, e.list)
	return out
}

// Len returns the number of collected errors.
func (e Errors) Len() int {
	return len(e.list)
}

// Keys returns the attribution key of every error in order.
func (e Errors) Keys() []string {
	keys := make([]string, len(e.list))
	for i, err := range e.list {
		keys[i] = err.Key
	}
	return keys
}

// Error joins all messages with "; " for logging.
func (e Errors) Error() string {
	msgs := make([]string, len(e.list))
	for i, err := range e.list {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// MarshalJSON renders the collection as a JSON array of error objects.
func (e Errors) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Wire())
}

// Wire returns the codec-neutral serialized form of the collection.
func (e Errors) Wire() []ErrorBody {
	out := make([]ErrorBody, len(e.list))
	for i, err := range e.list {
		out[i] = err.wire()
	}
	return out
}
