package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FlexibleID accepts a JSON string or number and keeps its text form.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("trackId must be a string or number: %w", err)
		}
		*f = FlexibleID(n.String())
	}
	return nil
}

func (f FlexibleID) String() string { return string(f) }

// CheckoutInput is the body of a checkout request.
type CheckoutInput struct {
	TrackID       FlexibleID `json:"trackId" validate:"required"`
	Title         string     `json:"title" validate:"max=200"`
	Src           string     `json:"src" validate:"max=2048"`
	Amount        *float64   `json:"amount"`
	Currency      string     `json:"currency" validate:"omitempty,len=3,alpha"`
	CustomerEmail string     `json:"customerEmail" validate:"omitempty,email"`
}

var checkoutValidator = newJSONValidator()

func newJSONValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (in *CheckoutInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Src = strings.TrimSpace(in.Src)
	in.Currency = strings.TrimSpace(in.Currency)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	return checkoutValidator.Struct(in)
}

// InvalidField names the first field that failed validation, or "".
func InvalidField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}

// PositiveAmount reports the requested amount when it is a positive integer.
func (in *CheckoutInput) PositiveAmount() (int64, bool) {
	if in.Amount == nil {
		return 0, false
	}
	a := *in.Amount
	if a <= 0 || a != math.Trunc(a) || a > math.MaxInt32 {
		return 0, false
	}
	return int64(a), true
}
