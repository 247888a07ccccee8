package comicvine

// Volume is the minimal volume record returned by suggestion queries.
type Volume struct {
	Title string
}

// VolumeSummary carries every field needed to persist or display one volume.
// It is the value type handed across queue boundaries; no persisted entity
// ever crosses one.
type VolumeSummary struct {
	Identifier    int
	Title         string
	ImageURL      string // empty when the catalog has no cover
	PublisherName string // empty when unknown
}

// VolumeDetail is the detail-screen record for a single volume.
type VolumeDetail struct {
	Title       string
	Description string
}

// Issue is one issue belonging to a volume.
type Issue struct {
	Title    string
	ImageURL string // empty when absent or unparsable
}

// SearchResult is the list-cell projection of a persisted volume.
type SearchResult struct {
	ImageURL      string
	Title         string
	PublisherName string
}
