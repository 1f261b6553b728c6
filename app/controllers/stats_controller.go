package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/swiden/trackstore/internal/pkg/catalog"
	"github.com/swiden/trackstore/internal/pkg/metrics/counter"
)

// HandleDownloadStats reports downloads per catalog track. Tracks that were
// never downloaded are listed with zero.
func HandleDownloadStats(stats counter.DownloadStats, cat *catalog.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		counts, err := stats.Downloads(c.UserContext())
		if err != nil {
			log.Errorf("[Stats] Could not read download counters: %v", err)
			return jsonError(c, fiber.StatusServiceUnavailable, "Download statistics unavailable")
		}

		downloads := make(map[string]int64, len(counts))
		var total int64
		for _, id := range cat.IDs() {
			downloads[id] = counts[id]
			total += counts[id]
		}
		return c.JSON(fiber.Map{
			"downloads": downloads,
			"total":     total,
		})
	}
}
