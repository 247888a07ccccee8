package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/comiclist/comiclist/internal/comicvine"
)

// Volume is one persisted catalog volume.
//
// InsertionDate is assigned when the record is created in a write context
// and never changes afterwards; it is the default ascending sort key.
type Volume struct {
	rowID         int64 // database row, 0 until committed
	Identifier    int
	Title         string
	Publisher     string
	imageURL      string
	InsertionDate time.Time
}

// newVolume builds a pending entity from a decoded summary, stamping the
// insertion date.
func newVolume(sum comicvine.VolumeSummary, at time.Time) Volume {
	return Volume{
		Identifier:    sum.Identifier,
		Title:         sum.Title,
		Publisher:     sum.PublisherName,
		imageURL:      sum.ImageURL,
		InsertionDate: at,
	}
}

// ImageURL returns the cover URL parsed, or nil when absent or invalid.
func (v Volume) ImageURL() *url.URL {
	if v.imageURL == "" {
		return nil
	}
	u, err := url.Parse(v.imageURL)
	if err != nil {
		return nil
	}
	return u
}

// Summary projects the entity to the cross-queue value type.
func (v Volume) Summary() comicvine.VolumeSummary {
	return comicvine.VolumeSummary{
		Identifier:    v.Identifier,
		Title:         v.Title,
		ImageURL:      v.imageURL,
		PublisherName: v.Publisher,
	}
}

// SearchResult projects the entity to its list-cell form.
func (v Volume) SearchResult() comicvine.SearchResult {
	return comicvine.SearchResult{
		ImageURL:      v.imageURL,
		Title:         v.Title,
		PublisherName: v.Publisher,
	}
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// scanVolumes drains rows into entities.
func scanVolumes(rows *sql.Rows) ([]Volume, error) {
	var volumes []Volume
	for rows.Next() {
		var (
			v         Volume
			publisher sql.NullString
			imageURL  sql.NullString
			inserted  int64
		)
		if err := rows.Scan(&v.rowID, &v.Identifier, &v.Title, &publisher, &imageURL, &inserted); err != nil {
			return nil, fmt.Errorf("store: scan volume: %w", err)
		}
		v.Publisher = publisher.String
		v.imageURL = imageURL.String
		v.InsertionDate = time.Unix(0, inserted)
		volumes = append(volumes, v)
	}
	return volumes, rows.Err()
}
