// Package response renders outcomes as wire responses.
//
// Encode is total: every outcome, including one whose payload cannot be
// serialized, yields exactly one status and body. A success is rendered
// with status 200, a failure as an array of errors with the status of its
// highest-precedence error kind, and a serialization failure as a fixed
// plain-text body with status 500.
package response

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/conqp/digsigctl/pkg/result"
)

const (
	// FallbackBody is sent when neither payload nor errors could be serialized.
	FallbackBody = "Cannot serialize message."

	// FallbackContentType is the media type of the fallback body.
	FallbackContentType = "text/plain; charset=utf-8"
)

// Response is an encoded status and body pair.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Fallback reports whether r is the plain-text internal failure response.
func (r Response) Fallback() bool {
	return r.ContentType == FallbackContentType
}

// Encode serializes outcome with codec.
// A nil codec selects JSON.
func Encode(outcome result.Outcome, codec Codec) Response {
	if codec == nil {
		codec = JSON
	}

	status := http.StatusOK
	build := outcome.Payload
	if !outcome.Ok() {
		errs := outcome.Errors()
		status = errs.Status()
		build = func() any { return errs.Wire() }
	}

	body, err := marshal(codec, build)
	if err != nil {
		return fallback()
	}
	return Response{
		Status:      status,
		ContentType: codec.ContentType(),
		Body:        body,
	}
}

// marshal builds the value and runs the codec. A panic in either step,
// such as an error cause whose Error method panics, becomes an error.
func marshal(codec Codec, build func() any) (body []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("marshal panicked: %v", r)
		}
	}()
	return codec.Marshal(build())
}

func fallback() Response {
	return Response{
		Status:      http.StatusInternalServerError,
		ContentType: FallbackContentType,
		Body:        []byte(FallbackBody),
	}
}

// Write sends r on w.
func Write(w http.ResponseWriter, r Response) {
	w.Header().Set("Content-Type", r.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(r.Body)))
	w.WriteHeader(r.Status)
	w.Write(r.Body)
}
