package comicvine

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// volumeTypePrefix is the catalog's resource-type prefix for volume records,
// interpolated into single-volume paths.
const volumeTypePrefix = "4050"

type resourceKind int

const (
	kindSuggestions resourceKind = iota
	kindSearch
	kindVolumeDetail
	kindVolumeIssues
)

// Resource describes one catalog API call — path and parameters — before it
// is bound to a transport. The four operations are the only values; there is
// no open extension point.
type Resource struct {
	kind       resourceKind
	key        string
	query      string
	page       uint
	identifier int
}

// SuggestionsResource describes a name-only volume search capped at ten
// results, used for search-as-you-type.
func SuggestionsResource(key, query string) Resource {
	return Resource{kind: kindSuggestions, key: key, query: query}
}

// SearchResource describes one page of a full volume search. Pages are
// 1-based.
func SearchResource(key, query string, page uint) Resource {
	return Resource{kind: kindSearch, key: key, query: query, page: page}
}

// VolumeDetailResource describes the detail fetch for a single volume.
func VolumeDetailResource(key string, identifier int) Resource {
	return Resource{kind: kindVolumeDetail, key: key, identifier: identifier}
}

// VolumeIssuesResource describes the issue listing for a single volume,
// filtered server-side.
func VolumeIssuesResource(key string, identifier int) Resource {
	return Resource{kind: kindVolumeIssues, key: key, identifier: identifier}
}

// Path returns the request path relative to the API base.
func (r Resource) Path() string {
	switch r.kind {
	case kindSuggestions, kindSearch:
		return "search"
	case kindVolumeDetail:
		return fmt.Sprintf("volume/%s-%d", volumeTypePrefix, r.identifier)
	case kindVolumeIssues:
		return "issues"
	}
	panic(fmt.Sprintf("comicvine: unknown resource kind %d", r.kind))
}

// Parameters returns the query parameters for the call. The API key is just
// another parameter; no other credentials exist.
func (r Resource) Parameters() map[string]string {
	switch r.kind {
	case kindSuggestions:
		return map[string]string{
			"api_key":    r.key,
			"format":     "json",
			"field_list": "name",
			"limit":      "10",
			"page":       "1",
			"query":      r.query,
			"resources":  "volume",
		}
	case kindSearch:
		return map[string]string{
			"api_key":    r.key,
			"format":     "json",
			"field_list": "id,image,name,publisher",
			"limit":      "20",
			"page":       strconv.FormatUint(uint64(r.page), 10),
			"query":      r.query,
			"resources":  "volume",
		}
	case kindVolumeDetail:
		return map[string]string{
			"api_key":    r.key,
			"format":     "json",
			"field_list": "name,description",
		}
	case kindVolumeIssues:
		return map[string]string{
			"api_key":    r.key,
			"format":     "json",
			"field_list": "id,image,name",
			"filter":     fmt.Sprintf("volume:%d", r.identifier),
		}
	}
	panic(fmt.Sprintf("comicvine: unknown resource kind %d", r.kind))
}

// URL assembles the canonical absolute request URL: base, path, and the
// query string in sorted key order. An unparsable base is a configuration
// bug, not a runtime condition, and panics.
func (r Resource) URL(base string) *url.URL {
	u, err := url.Parse(base)
	if err != nil {
		panic(fmt.Sprintf("comicvine: invalid base URL %q: %v", base, err))
	}
	u = u.JoinPath(r.Path())

	values := url.Values{}
	for name, value := range r.Parameters() {
		values.Set(name, value)
	}
	u.RawQuery = values.Encode()
	return u
}

// Request builds the transport-level GET request for this resource. The
// catalog API is read-only; no other verb exists.
func (r Resource) Request(base string) *http.Request {
	req, err := http.NewRequest(http.MethodGet, r.URL(base).String(), nil)
	if err != nil {
		panic(fmt.Sprintf("comicvine: building request for %q: %v", r.Path(), err))
	}
	return req
}
