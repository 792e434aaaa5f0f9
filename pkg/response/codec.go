package response

import (
	"encoding/json"
	"mime"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Codec serializes values into a structured wire format.
type Codec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
}

type jsonCodec struct{}

func (jsonCodec) ContentType() string { return "application/json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

type cborCodec struct {
	mode cbor.EncMode
}

func (c cborCodec) ContentType() string { return "application/cbor" }

func (c cborCodec) Marshal(v any) ([]byte, error) {
	return c.mode.Marshal(v)
}

// JSON is the default codec.
var JSON Codec = jsonCodec{}

// CBOR encodes with RFC 8949 core deterministic encoding.
var CBOR Codec = newCBOR()

func newCBOR() Codec {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		// The options are static; this cannot fail at runtime.
		panic(err)
	}
	return cborCodec{mode: mode}
}

// Negotiate picks a codec for an Accept header value.
// CBOR is used only when explicitly requested; everything else gets JSON.
func Negotiate(accept string) Codec {
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case "application/cbor":
			return CBOR
		case "application/json":
			return JSON
		}
	}
	return JSON
}

// ByName returns the codec for a short format name ("json" or "cbor").
func ByName(name string) (Codec, bool) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSON, true
	case "cbor":
		return CBOR, true
	default:
		return nil, false
	}
}
