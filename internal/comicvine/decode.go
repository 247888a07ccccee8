package comicvine

import "net/url"

// JSONObject is one decoded JSON object from the catalog API.
type JSONObject map[string]any

// stringField returns the string value stored under key, if present and
// actually a string.
func stringField(obj JSONObject, key string) (string, bool) {
	s, ok := obj[key].(string)
	return s, ok
}

// intField returns the integer value stored under key. encoding/json decodes
// numbers as float64, so both representations are accepted.
func intField(obj JSONObject, key string) (int, bool) {
	switch v := obj[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// nestedString resolves obj[outer][inner] as a string. An absent, null, or
// wrong-typed parent simply means the value is absent.
func nestedString(obj JSONObject, outer, inner string) (string, bool) {
	parent, ok := obj[outer].(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := parent[inner].(string)
	return s, ok
}

// decodeVolume maps a suggestion result to a Volume. "name" is required.
func decodeVolume(obj JSONObject) (Volume, bool) {
	title, ok := stringField(obj, "name")
	if !ok {
		return Volume{}, false
	}
	return Volume{Title: title}, true
}

// decodeVolumeDetail maps a volume record to its detail projection.
// "name" is required; a missing description decodes as empty.
func decodeVolumeDetail(obj JSONObject) (VolumeDetail, bool) {
	title, ok := stringField(obj, "name")
	if !ok {
		return VolumeDetail{}, false
	}
	description, _ := stringField(obj, "description")
	return VolumeDetail{Title: title, Description: description}, true
}

// decodeIssue maps an issue record. "name" is required; the cover image is
// kept only when image.small_url is present and parses as a URL.
func decodeIssue(obj JSONObject) (Issue, bool) {
	title, ok := stringField(obj, "name")
	if !ok {
		return Issue{}, false
	}
	issue := Issue{Title: title}
	if raw, ok := nestedString(obj, "image", "small_url"); ok {
		if u, err := url.Parse(raw); err == nil {
			issue.ImageURL = u.String()
		}
	}
	return issue, true
}

// DecodeVolumeSummary maps a raw search result to a VolumeSummary.
// "id" and "name" are required; publisher.name and image.small_url are
// optional. The store's insert path runs this same mapping, so one decode
// pass covers both display and persistence.
func DecodeVolumeSummary(obj JSONObject) (VolumeSummary, bool) {
	identifier, ok := intField(obj, "id")
	if !ok {
		return VolumeSummary{}, false
	}
	title, ok := stringField(obj, "name")
	if !ok {
		return VolumeSummary{}, false
	}
	summary := VolumeSummary{Identifier: identifier, Title: title}
	summary.PublisherName, _ = nestedString(obj, "publisher", "name")
	summary.ImageURL, _ = nestedString(obj, "image", "small_url")
	return summary, true
}

// decodeMany decodes a batch best-effort: items that fail their required
// field checks are dropped, order is preserved, and the batch never fails.
func decodeMany[T any](objs []JSONObject, one func(JSONObject) (T, bool)) []T {
	decoded := make([]T, 0, len(objs))
	for _, obj := range objs {
		v, ok := one(obj)
		if !ok {
			continue
		}
		decoded = append(decoded, v)
	}
	return decoded
}
