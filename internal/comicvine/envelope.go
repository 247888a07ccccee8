package comicvine

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCouldNotDecodeJSON reports a response body that could not be parsed, an
// envelope missing its required keys, or a payload that does not map to the
// shape the caller asked for.
var ErrCouldNotDecodeJSON = errors.New("comicvine: could not decode JSON")

// BadStatusError reports an API-level rejection. The catalog always answers
// HTTP 200 and signals failure through the envelope's own status code.
type BadStatusError struct {
	Status  uint
	Message string
}

func (e *BadStatusError) Error() string {
	return fmt.Sprintf("comicvine: bad status %d: %s", e.Status, e.Message)
}

// TransportError wraps a connectivity failure (DNS, TLS, cancellation, ...).
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("comicvine: transport: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// envelopeStatusOK is the catalog's success sentinel, unrelated to HTTP
// status codes.
const envelopeStatusOK = 1

// Envelope is the catalog API's uniform response wrapper. The payload is
// either one JSON object or an array of them; the consumer knows which shape
// its request produces.
type Envelope struct {
	StatusCode uint
	Message    string

	payload any
}

// Succeeded reports whether the envelope carries a successful response,
// independent of the message content.
func (e Envelope) Succeeded() bool {
	return e.StatusCode == envelopeStatusOK
}

// Result returns the payload as a single JSON object.
func (e Envelope) Result() (JSONObject, bool) {
	obj, ok := e.payload.(map[string]any)
	if !ok {
		return nil, false
	}
	return JSONObject(obj), true
}

// Results returns the payload as an array of JSON objects. Like the single
// accessor, the whole cast fails if any element has the wrong shape.
func (e Envelope) Results() ([]JSONObject, bool) {
	items, ok := e.payload.([]any)
	if !ok {
		return nil, false
	}
	objs := make([]JSONObject, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		objs = append(objs, JSONObject(obj))
	}
	return objs, true
}

// decodeEnvelope parses a response body into an Envelope. The top level must
// be an object carrying "status_code" (unsigned integer) and "error"
// (string); "results" is carried through verbatim as the opaque payload.
func decodeEnvelope(data []byte) (Envelope, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Envelope{}, ErrCouldNotDecodeJSON
	}

	status, ok := raw["status_code"].(float64)
	if !ok || status < 0 || status != float64(uint(status)) {
		return Envelope{}, ErrCouldNotDecodeJSON
	}
	message, ok := raw["error"].(string)
	if !ok {
		return Envelope{}, ErrCouldNotDecodeJSON
	}

	return Envelope{
		StatusCode: uint(status),
		Message:    message,
		payload:    raw["results"],
	}, nil
}
