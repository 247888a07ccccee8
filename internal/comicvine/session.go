// Package comicvine is the Comic Vine catalog client: request descriptions,
// transport, response-envelope decoding, and typed domain records.
//
// Every operation composes the same layers — build a Resource, execute it,
// decode the envelope, then decode the payload — and propagates errors from
// whichever layer produced them. Nothing here retries.
package comicvine

import (
	"context"
	"net/http"

	"github.com/comiclist/comiclist/internal/observability"
)

const defaultBaseURL = "https://comicvine.gamespot.com/api"

// Option configures a Session.
type Option func(*Session)

// WithBaseURL overrides the API base URL (useful for testing).
func WithBaseURL(base string) Option {
	return func(s *Session) {
		s.baseURL = base
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) {
		s.transport = newTransport(c)
	}
}

// WithLogger sets the session's logger.
func WithLogger(log *observability.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// Session is the Comic Vine catalog client.
type Session struct {
	key       string
	baseURL   string
	transport *transport
	log       *observability.Logger
}

// NewSession creates a catalog client authenticated with the given API key.
func NewSession(key string, opts ...Option) *Session {
	s := &Session{
		key:       key,
		baseURL:   defaultBaseURL,
		transport: newTransport(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// envelope executes the request described by res and decodes the response
// wrapper, classifying failures into the package's error taxonomy.
func (s *Session) envelope(ctx context.Context, res Resource) (Envelope, error) {
	req := res.Request(s.baseURL)

	body, err := s.transport.do(ctx, req)
	if err != nil {
		s.log.Debug("request failed", "path", res.Path(), "error", err)
		return Envelope{}, err
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return Envelope{}, err
	}
	if !env.Succeeded() {
		return Envelope{}, &BadStatusError{Status: env.StatusCode, Message: env.Message}
	}
	return env, nil
}

// SuggestedVolumes returns name-only volumes matching query, for
// search-as-you-type. Invalid items in the payload are dropped, not fatal.
func (s *Session) SuggestedVolumes(ctx context.Context, query string) ([]Volume, error) {
	env, err := s.envelope(ctx, SuggestionsResource(s.key, query))
	if err != nil {
		return nil, err
	}
	results, ok := env.Results()
	if !ok {
		return nil, ErrCouldNotDecodeJSON
	}
	return decodeMany(results, decodeVolume), nil
}

// SearchVolumes returns one page of raw search-result objects. They are left
// undecoded on purpose: the store's insert path runs the single decode pass
// that both builds the persisted entity and records its insertion date.
func (s *Session) SearchVolumes(ctx context.Context, query string, page uint) ([]JSONObject, error) {
	env, err := s.envelope(ctx, SearchResource(s.key, query, page))
	if err != nil {
		return nil, err
	}
	results, ok := env.Results()
	if !ok {
		return nil, ErrCouldNotDecodeJSON
	}
	return results, nil
}

// VolumeDetail returns the detail record for one volume.
func (s *Session) VolumeDetail(ctx context.Context, identifier int) (VolumeDetail, error) {
	env, err := s.envelope(ctx, VolumeDetailResource(s.key, identifier))
	if err != nil {
		return VolumeDetail{}, err
	}
	result, ok := env.Result()
	if !ok {
		return VolumeDetail{}, ErrCouldNotDecodeJSON
	}
	detail, ok := decodeVolumeDetail(result)
	if !ok {
		return VolumeDetail{}, ErrCouldNotDecodeJSON
	}
	return detail, nil
}

// VolumeIssues returns the issues belonging to one volume.
func (s *Session) VolumeIssues(ctx context.Context, identifier int) ([]Issue, error) {
	env, err := s.envelope(ctx, VolumeIssuesResource(s.key, identifier))
	if err != nil {
		return nil, err
	}
	results, ok := env.Results()
	if !ok {
		return nil, ErrCouldNotDecodeJSON
	}
	return decodeMany(results, decodeIssue), nil
}
