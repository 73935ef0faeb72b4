// Package notify routes lifecycle events to the right audience: one user,
// or the dynamic set of providers watching an area/category room. Delivery
// is best-effort; a failed emit never fails the mutation that triggered it.
package notify

import (
	"context"

	"github.com/google/uuid"
)

// Notifier is injected into the lifecycle services so they carry no
// dependency on the transport, the push gateway, or any process-wide handle.
type Notifier interface {
	// NotifyUser writes a durable notification record for the user, emits on
	// their realtime channel, and attempts a push if they registered a token.
	NotifyUser(ctx context.Context, userID uuid.UUID, event, title, body string, data interface{})

	// NotifyArea emits to the providers subscribed to the area/category room.
	// No durable records are written: the audience is dynamic and the job
	// itself is discoverable through listings.
	NotifyArea(ctx context.Context, city, district, category, event string, data interface{})
}
