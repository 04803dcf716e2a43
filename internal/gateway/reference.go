package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedReference is returned when external_reference is not a JSON
// object describing a known intent shape.
var ErrMalformedReference = errors.New("gateway: malformed external reference")

// Intent types carried in external_reference.
const (
	IntentSubscription = "subscription"
	IntentDeposit      = "deposit"
)

// Subscription billing frequencies.
const (
	FrequencyMonthly = "MONTHLY"
	FrequencyYearly  = "YEARLY"
)

// Intent is the decoded external_reference.
type Intent struct {
	Type             string `json:"type"`
	ProfessionalID   string `json:"professionalId,omitempty"`
	PlanID           string `json:"planId,omitempty"`
	Frequency        string `json:"frequency,omitempty"`
	BookingReference string `json:"bookingReference,omitempty"`
	AppointmentID    string `json:"appointmentId,omitempty"`
}

// ParseReference decodes raw. Unknown intent types decode successfully so the
// caller can report them distinctly; known types must carry their ids.
func ParseReference(raw string) (*Intent, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformedReference)
	}
	var in Intent
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReference, err)
	}
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))

	switch in.Type {
	case IntentSubscription:
		if in.ProfessionalID == "" || in.PlanID == "" {
			return nil, fmt.Errorf("%w: subscription without professionalId or planId", ErrMalformedReference)
		}
		in.Frequency = strings.ToUpper(strings.TrimSpace(in.Frequency))
		switch in.Frequency {
		case "":
			in.Frequency = FrequencyMonthly
		case FrequencyMonthly, FrequencyYearly:
		default:
			return nil, fmt.Errorf("%w: unsupported frequency %q", ErrMalformedReference, in.Frequency)
		}
	case IntentDeposit:
		if in.BookingReference == "" {
			return nil, fmt.Errorf("%w: deposit without bookingReference", ErrMalformedReference)
		}
	}
	return &in, nil
}
