package controllers

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/swiden/trackstore/internal/pkg/catalog"
	"github.com/swiden/trackstore/internal/pkg/metrics/counter"
	"github.com/swiden/trackstore/internal/pkg/security"
	"github.com/swiden/trackstore/internal/pkg/storage"
)

// GrantVerifier checks download grants issued after payment.
type GrantVerifier interface {
	Verify(token, trackID string) (*security.DownloadTokenClaims, error)
}

// DownloadController streams purchased tracks.
type DownloadController struct {
	catalog *catalog.Catalog
	store   storage.AssetStore
	grants  GrantVerifier
	counter counter.DownloadCounter
}

// NewDownloadController creates the controller. With a nil verifier any
// non-empty token is accepted.
func NewDownloadController(cat *catalog.Catalog, store storage.AssetStore, grants GrantVerifier) *DownloadController {
	return &DownloadController{catalog: cat, store: store, grants: grants}
}

// WithCounter records every served download in c.
func (dc *DownloadController) WithCounter(c counter.DownloadCounter) *DownloadController {
	dc.counter = c
	return dc
}

func (dc *DownloadController) HandleDownload(c *fiber.Ctx) error {
	// query values alias the request buffer and outlive it in the counter
	token := utils.CopyString(strings.TrimSpace(c.Query("token")))
	trackID := utils.CopyString(strings.TrimSpace(c.Query("track")))
	if token == "" || trackID == "" {
		return jsonError(c, fiber.StatusBadRequest, msgDownloadParams)
	}

	track, err := dc.catalog.Lookup(trackID)
	if err != nil {
		log.Infof("[Download] %v: %q", err, trackID)
		return jsonError(c, fiber.StatusNotFound, msgTrackNotFound)
	}

	if dc.grants != nil {
		claims, err := dc.grants.Verify(token, trackID)
		if err != nil {
			log.Warnf("[Download] Rejected token for track %s from %s: %v", trackID, ClientIP(c), err)
			return jsonError(c, fiber.StatusForbidden, msgInvalidToken)
		}
		log.Infof("[Download] Grant %s (order %s) used for track %s", claims.TokenID, claims.OrderRef, trackID)
	} else {
		log.Infof("[Download] Track %s requested without grant verification", trackID)
	}

	asset, err := dc.store.Open(c.UserContext(), track.File)
	if err != nil {
		if !errors.Is(err, storage.ErrFileUnavailable) {
			err = fmt.Errorf("%w: %w", storage.ErrFileUnavailable, err)
		}
		log.Errorf("[Download] %s backend could not open %s: %v", dc.store.Backend(), track.File, err)
		return jsonError(c, fiber.StatusNotFound, msgFileUnavailable)
	}

	fileName := path.Base(track.File)
	contentType := asset.ContentType
	if contentType == "" {
		contentType = storage.ContentType(fileName)
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
	c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")

	if dc.counter != nil {
		if err := dc.counter.AddDownload(c.UserContext(), trackID); err != nil {
			log.Warnf("[Download] Could not count download of track %s: %v", trackID, err)
		}
	}

	log.Infof("[Download] Streaming %s (%d bytes) from %s", fileName, asset.Size, dc.store.Backend())
	// sets Content-Length from the size; fasthttp closes the body when done
	return c.SendStream(asset.Body, int(asset.Size))
}
