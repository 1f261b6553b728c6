package models

// Track is a purchasable piece of music. Tracks are reference data and are
// never written by the service.
type Track struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	File       string  `json:"-"`
	PreviewURL string  `json:"preview_url"`
	Format     string  `json:"format"`
	SizeMB     float64 `json:"size_mb"`
	UnitAmount int64   `json:"unit_amount"` // minor currency units
	Currency   string  `json:"currency"`
}

// SizeBytes converts the catalog size to bytes (decimal megabytes).
func (t Track) SizeBytes() int64 {
	return int64(t.SizeMB * 1_000_000)
}
