// Package result implements the outcome algebra used to merge the results
// of many independent probes into one response.
//
// An Outcome is either a Success carrying an opaque payload or a Failure
// carrying a non-empty, ordered collection of attributed errors. Outcomes
// are merged with Combine, which is associative, has Empty as its identity,
// always lets a Failure win and concatenates errors left to right.
package result

// UnknownKey attributes an error whose producer is not known.
const UnknownKey = "unknown"

// Outcome is the result of one probe, or of a fold over many.
// The zero value is Empty.
type Outcome struct {
	payload any
	errs    Errors
}

// Success returns a successful outcome carrying payload.
func Success(payload any) Outcome {
	return Outcome{payload: payload}
}

// Empty returns the identity element: a success without payload.
func Empty() Outcome {
	return Outcome{}
}

// Failure returns a failed outcome holding err followed by more, in order.
// Nil errors are skipped; if every argument is nil the outcome still fails
// with a generic I/O error keyed UnknownKey so a Failure is never empty.
func Failure(err *Error, more ...*Error) Outcome {
	list := make([]*Error, 0, 1+len(more))
	if err != nil {
		list = append(list, err)
	}
	for _, e := range more {
		if e != nil {
			list = append(list, e)
		}
	}
	if len(list) == 0 {
		list = append(list, IO(UnknownKey, nil))
	}
	return Outcome{errs: Errors{list: list}}
}

// Of lifts a (value, error) pair into an Outcome, classifying err under key.
func Of[T any](key string, value T, err error) Outcome {
	if err != nil {
		return Failure(Classify(key, err))
	}
	return Success(value)
}

// Ok reports whether the outcome is a success.
func (o Outcome) Ok() bool {
	return o.errs.Len() == 0
}

// Payload returns the success payload, or nil for a failure.
func (o Outcome) Payload() any {
	if !o.Ok() {
		return nil
	}
	return o.payload
}

// Errors returns the error collection; it is empty for a success.
func (o Outcome) Errors() Errors {
	return o.errs
}

// Status returns the response status implied by the outcome.
func (o Outcome) Status() int {
	return o.errs.Status()
}

// Combine merges two outcomes.
//
//	Success(x) + Success(y) = Success(first non-nil of x, y)
//	Success    + Failure(E) = Failure(E)
//	Failure(E) + Success    = Failure(E)
//	Failure(A) + Failure(B) = Failure(A ++ B)
func Combine(a, b Outcome) Outcome {
	switch {
	case a.Ok() && b.Ok():
		if a.payload != nil {
			return a
		}
		return b
	case a.Ok():
		return b
	case b.Ok():
		return a
	default:
		return Outcome{errs: a.errs.Concat(b.errs)}
	}
}

// Fold combines outcomes left to right starting from Empty.
func Fold(outcomes ...Outcome) Outcome {
	acc := Empty()
	for _, o := range outcomes {
		acc = Combine(acc, o)
	}
	return acc
}

// With replaces the payload of a successful outcome and leaves failures untouched.
func (o Outcome) With(payload any) Outcome {
	if !o.Ok() {
		return o
	}
	return Success(payload)
}
