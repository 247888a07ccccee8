package comicvine

import (
	"context"
	"io"
	"net/http"

	"github.com/klauspost/compress/gzip"
)

// transport executes one HTTP request and returns the raw response body.
//
// One call is exactly one network request: no retries, no timeout of its
// own. Cancellation comes from the caller's context; once the context is
// cancelled no result is delivered.
type transport struct {
	client *http.Client
}

func newTransport(client *http.Client) *transport {
	if client == nil {
		client = &http.Client{Timeout: 0}
	}
	return &transport{client: client}
}

// do executes req and returns the body bytes, or a *TransportError.
//
// Compression is negotiated explicitly: asking for gzip ourselves disables
// Go's transparent handling, keeping the raw-bytes contract observable. The
// catalog answers HTTP 200 even for failed calls and signals errors through
// the envelope, so the HTTP status is deliberately not checked here.
func (t *transport) do(ctx context.Context, req *http.Request) ([]byte, error) {
	req = req.WithContext(ctx)
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, &TransportError{Cause: err}
		}
		defer gz.Close()
		body = gz
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	return data, nil
}
