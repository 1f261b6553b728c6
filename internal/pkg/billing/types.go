package billing

import "errors"

const (
	MetadataTrackID = "trackId"
	MetadataSource  = "src"
	MetadataEmail   = "email"
)

var (
	ErrNotConfigured         = errors.New("payment gateway not configured")
	ErrSessionCreationFailed = errors.New("checkout session creation failed")
	ErrMissingSignature      = errors.New("missing webhook signature")
	ErrInvalidSignature      = errors.New("invalid webhook signature")
)

// CheckoutRequest is the provider-agnostic input for a hosted payment page
// selling a single track.
type CheckoutRequest struct {
	TrackID       string
	ProductName   string
	Source        string
	UnitAmount    int64
	Currency      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is what the gateway returned. Nothing is kept after the
// URL has been handed to the client.
type CheckoutSession struct {
	ID      string
	URL     string
	TrackID string
}

// Event is a verified gateway event. The concrete type is either
// PaymentCompleted or IgnoredEvent.
type Event interface {
	ID() string
	Type() string
}

// PaymentCompleted is a checkout whose payment has been collected.
type PaymentCompleted struct {
	EventID     string
	EventType   string
	SessionID   string
	Email       string
	TrackID     string
	Source      string
	AmountTotal int64
	Currency    string
}

func (e PaymentCompleted) ID() string   { return e.EventID }
func (e PaymentCompleted) Type() string { return e.EventType }

// IgnoredEvent is any verified event that does not trigger fulfillment.
type IgnoredEvent struct {
	EventID   string
	EventType string
	Reason    string
}

func (e IgnoredEvent) ID() string   { return e.EventID }
func (e IgnoredEvent) Type() string { return e.EventType }
