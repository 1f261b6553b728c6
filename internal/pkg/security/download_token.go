package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSecretRequired = errors.New("secret is required for download tokens")
	ErrInvalidToken   = errors.New("invalid download token")
	ErrTokenExpired   = errors.New("download token expired")
	ErrTrackMismatch  = errors.New("download token issued for another track")
)

// DownloadTokenClaims is the payload of a download grant. The grant is not
// stored anywhere; the signature is the only proof of purchase.
type DownloadTokenClaims struct {
	TokenID   string `json:"jti"`
	TrackID   string `json:"track_id"`
	OrderRef  string `json:"order_ref,omitempty"`
	ExpiresAt int64  `json:"exp"`
}

// DownloadSigner issues and verifies download grants with a shared secret.
type DownloadSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewDownloadSigner returns a signer; ttl <= 0 falls back to seven days.
func NewDownloadSigner(secret string, ttl time.Duration) (*DownloadSigner, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrSecretRequired
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &DownloadSigner{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (s *DownloadSigner) TTL() time.Duration { return s.ttl }

// Generate creates a token granting access to trackID for the signer's TTL.
func (s *DownloadSigner) Generate(trackID, orderRef string) (string, error) {
	trackID = strings.TrimSpace(trackID)
	if trackID == "" {
		return "", errors.New("track id is required for token generation")
	}
	claims := DownloadTokenClaims{
		TokenID:   uuid.NewString(),
		TrackID:   trackID,
		OrderRef:  strings.TrimSpace(orderRef),
		ExpiresAt: s.now().Add(s.ttl).Unix(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	token := fmt.Sprintf("%s.%s",
		base64.RawURLEncoding.EncodeToString(payload),
		base64.RawURLEncoding.EncodeToString(s.sign(payload)),
	)
	return token, nil
}

// Verify checks the signature, expiry and that the grant covers trackID.
func (s *DownloadSigner) Verify(token, trackID string) (*DownloadTokenClaims, error) {
	parts := strings.SplitN(strings.TrimSpace(token), ".", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: format", ErrInvalidToken)
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: payload encoding", ErrInvalidToken)
	}
	sigBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: signature encoding", ErrInvalidToken)
	}
	if !hmac.Equal(sigBytes, s.sign(payloadBytes)) {
		return nil, fmt.Errorf("%w: signature", ErrInvalidToken)
	}
	var claims DownloadTokenClaims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return nil, fmt.Errorf("%w: payload", ErrInvalidToken)
	}
	if s.now().Unix() > claims.ExpiresAt {
		return nil, ErrTokenExpired
	}
	if claims.TrackID != strings.TrimSpace(trackID) {
		return nil, ErrTrackMismatch
	}
	return &claims, nil
}

func (s *DownloadSigner) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}
