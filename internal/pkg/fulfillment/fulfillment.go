package fulfillment

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/template/html/v2"

	"github.com/swiden/trackstore/internal/pkg/mail"
)

//go:embed emails/*.html
var emailTemplates embed.FS

const (
	Subject          = "Your track is ready — thank you for your purchase"
	fulfillmentEmail = "emails/fulfillment"
)

var ErrFulfillmentFailed = errors.New("fulfillment failed")

// Fulfillment describes one purchase to deliver.
type Fulfillment struct {
	Recipient   string
	TrackTitle  string
	DownloadURL string
	OrderRef    string
	// ExpiresIn is how long DownloadURL stays valid; zero means no expiry.
	ExpiresIn time.Duration
}

// Notifier delivers the download link to the buyer.
type Notifier interface {
	Notify(ctx context.Context, f Fulfillment) error
}

// Service renders the fulfillment email and hands it to a mailer.
type Service struct {
	mailer mail.Mailer
	views  *html.Engine
}

func NewService(mailer mail.Mailer) (*Service, error) {
	views := html.NewFileSystem(http.FS(emailTemplates), ".html")
	if err := views.Load(); err != nil {
		return nil, fmt.Errorf("load email templates: %w", err)
	}
	return &Service{mailer: mailer, views: views}, nil
}

func (s *Service) Notify(ctx context.Context, f Fulfillment) error {
	if strings.TrimSpace(f.Recipient) == "" || strings.TrimSpace(f.DownloadURL) == "" {
		return fmt.Errorf("%w: recipient and download url are required", ErrFulfillmentFailed)
	}

	body, err := s.Render(f)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFulfillmentFailed, err)
	}

	err = s.mailer.Send(ctx, mail.Message{To: f.Recipient, Subject: Subject, HTML: body})
	if err != nil {
		return fmt.Errorf("%w: send via %s: %v", ErrFulfillmentFailed, s.mailer.Name(), err)
	}
	log.Infof("[Fulfillment] Download link for order %s sent to %s", f.OrderRef, f.Recipient)
	return nil
}

// Render returns the HTML body for f. Values are escaped by html/template.
func (s *Service) Render(f Fulfillment) (string, error) {
	var buf bytes.Buffer
	data := fiber.Map{
		"TrackTitle":  f.TrackTitle,
		"DownloadURL": f.DownloadURL,
		"OrderRef":    f.OrderRef,
		"ExpiresIn":   humanizeTTL(f.ExpiresIn),
	}
	if err := s.views.Render(&buf, fulfillmentEmail, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func humanizeTTL(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d%(24*time.Hour) == 0:
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	case d%time.Hour == 0:
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	default:
		return d.String()
	}
}
