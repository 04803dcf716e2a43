package notify

import (
	"context"

	"github.com/tbourn/go-booking-engine/internal/mq"
)

// Realtime forwards slot and appointment events to the topic exchange so the
// booking pages of a professional can refresh their slot grid.
type Realtime struct {
	Pub mq.JSONPublisher
}

// Notify publishes ev under its kind as routing key.
func (r Realtime) Notify(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case SlotHeld, SlotReleased:
		return r.Pub.PublishJSON(ctx, string(ev.Kind), ev.slotPayload())
	case AppointmentCreated, AppointmentStatusChanged:
		if ev.Appointment == nil {
			return nil
		}
		return r.Pub.PublishJSON(ctx, string(ev.Kind), ev.appointmentPayload())
	}
	return nil
}
