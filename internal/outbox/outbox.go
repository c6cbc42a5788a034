package outbox

import (
	"context"
	"log"
	"time"
)

// Outbox runs fire-and-forget side effects (view tracking, pending-profile
// journaling) off the request path. Record never returns an error and never
// blocks the caller; failures are logged and dropped.
type Outbox struct {
	timeout time.Duration
}

func New(timeout time.Duration) *Outbox {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Outbox{timeout: timeout}
}

func (o *Outbox) Record(name string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("outbox: %s: %v", name, err)
		}
	}()
}
