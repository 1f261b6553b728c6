package catalog

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"

	"github.com/swiden/trackstore/app/models"
)

const (
	DefaultUnitAmount int64 = 200 // €2
	DefaultCurrency         = "eur"
)

// ErrTrackNotFound is returned for identifiers that are not in the catalog.
var ErrTrackNotFound = errors.New("track not found")

// Catalog is the immutable identifier -> track mapping.
type Catalog struct {
	tracks map[string]models.Track
	order  []string
}

// New builds a catalog from tracks. Later duplicates replace earlier ones.
func New(tracks ...models.Track) *Catalog {
	c := &Catalog{tracks: make(map[string]models.Track, len(tracks))}
	for _, t := range tracks {
		t.ID = strings.TrimSpace(t.ID)
		if t.ID == "" {
			continue
		}
		if t.UnitAmount <= 0 {
			t.UnitAmount = DefaultUnitAmount
		}
		if t.Currency == "" {
			t.Currency = DefaultCurrency
		}
		if t.Format == "" {
			t.Format = FormatFromName(t.File)
		}
		if _, seen := c.tracks[t.ID]; !seen {
			c.order = append(c.order, t.ID)
		}
		c.tracks[t.ID] = t
	}
	return c
}

// Default is the bundled catalog shipped with the site.
func Default() *Catalog {
	return New(
		models.Track{ID: "1", Title: "Sample 1", File: "track1.mp3", PreviewURL: "/audio/sample1.mp3", SizeMB: 8.5},
		models.Track{ID: "2", Title: "Sample 2", File: "track2.mp3", PreviewURL: "/audio/sample2.mp3", SizeMB: 9.2},
		models.Track{ID: "3", Title: "Sample 3", File: "track3.mp3", PreviewURL: "/audio/sample3.mp3", SizeMB: 6.8},
		models.Track{ID: "4", Title: "Sample 4", File: "track4.mp3", PreviewURL: "/audio/sample4.mp3", SizeMB: 7.4},
	)
}

// Lookup resolves an identifier.
func (c *Catalog) Lookup(id string) (models.Track, error) {
	t, ok := c.tracks[strings.TrimSpace(id)]
	if !ok {
		return models.Track{}, ErrTrackNotFound
	}
	return t, nil
}

// All returns the tracks in insertion order.
func (c *Catalog) All() []models.Track {
	out := make([]models.Track, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.tracks[id])
	}
	return out
}

// IDs returns the sorted identifiers, mostly for logging.
func (c *Catalog) IDs() []string {
	ids := append([]string(nil), c.order...)
	sort.Strings(ids)
	return ids
}

// FormatFromName derives the display format tag from a file name, e.g. "MP3".
func FormatFromName(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "MP3"
	}
	return strings.ToUpper(ext)
}
