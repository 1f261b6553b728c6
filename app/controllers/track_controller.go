package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/swiden/trackstore/internal/pkg/catalog"
	"github.com/swiden/trackstore/internal/pkg/storage"
)

type TrackController struct {
	catalog *catalog.Catalog
	store   storage.AssetStore
}

func NewTrackController(cat *catalog.Catalog, store storage.AssetStore) *TrackController {
	return &TrackController{catalog: cat, store: store}
}

type trackResponse struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	PreviewURL string `json:"previewUrl"`
	Format     string `json:"format"`
	SizeBytes  int64  `json:"sizeBytes"`
	Size       string `json:"size"`
	Duration   string `json:"duration"`
	UnitAmount int64  `json:"unitAmount"`
	Currency   string `json:"currency"`
}

func (tc *TrackController) HandleListTracks(c *fiber.Ctx) error {
	tracks := tc.catalog.All()
	out := make([]trackResponse, 0, len(tracks))
	for _, t := range tracks {
		size := t.SizeBytes()
		if tc.store != nil {
			info, err := tc.store.Stat(c.UserContext(), t.File)
			if err == nil && info.Size > 0 {
				size = info.Size
			} else if err != nil {
				log.Debugf("[Tracks] Stat %s: %v", t.File, err)
			}
		}
		out = append(out, trackResponse{
			ID:         t.ID,
			Title:      t.Title,
			PreviewURL: t.PreviewURL,
			Format:     t.Format,
			SizeBytes:  size,
			Size:       formatSize(size),
			Duration:   catalog.FormatDuration(catalog.EstimateDuration(size, t.Format)),
			UnitAmount: t.UnitAmount,
			Currency:   t.Currency,
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"tracks": out})
}

func formatSize(bytes int64) string {
	if bytes <= 0 {
		return "—"
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/1e6)
}
