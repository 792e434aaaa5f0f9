package result

import "net/http"

// StatusOK is the response status of a successful outcome.
const StatusOK = http.StatusOK

// Status maps a kind to its HTTP response status.
//
//	encoding   500 Internal Server Error
//	malformed  422 Unprocessable Entity
//	not_found  404 Not Found
//	io         503 Service Unavailable
//
// Unknown kinds are treated as io.
func (k Kind) Status() int {
	switch k {
	case KindEncoding:
		return http.StatusInternalServerError
	case KindMalformed:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

// precedence normalizes unknown kinds to KindIO so the ordering stays total.
func (k Kind) precedence() Kind {
	if k < KindIO || k > KindEncoding {
		return KindIO
	}
	return k
}

// Kind returns the highest-precedence kind present in the collection,
// or 0 when it is empty.
func (e Errors) Kind() Kind {
	var top Kind
	for _, err := range e.list {
		if k := err.Kind.precedence(); k > top {
			top = k
		}
	}
	return top
}

// Status returns the response status for the collection: the status of the
// highest-precedence kind present, regardless of where it sits in the order.
// An empty collection reports StatusOK.
func (e Errors) Status() int {
	if len(e.list) == 0 {
		return StatusOK
	}
	return e.Kind().Status()
}
