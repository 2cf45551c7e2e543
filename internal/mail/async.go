// AngelaMos | 2026
// async.go

package mail

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Async sends in the background so request handlers never wait on delivery.
// Failures are logged and never returned.
type Async struct {
	next    Sender
	logger  *slog.Logger
	timeout time.Duration
	slots   chan struct{}
	wg      sync.WaitGroup
}

func NewAsync(next Sender, logger *slog.Logger, timeout time.Duration, concurrency int) *Async {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if concurrency < 1 {
		concurrency = 4
	}
	return &Async{
		next:    next,
		logger:  logger,
		timeout: timeout,
		slots:   make(chan struct{}, concurrency),
	}
}

func (a *Async) SendOTP(_ context.Context, to, code string) error {
	a.dispatch("otp", to, func(ctx context.Context) error {
		return a.next.SendOTP(ctx, to, code)
	})
	return nil
}

func (a *Async) SendWelcome(_ context.Context, to, url string) error {
	a.dispatch("welcome", to, func(ctx context.Context) error {
		return a.next.SendWelcome(ctx, to, url)
	})
	return nil
}

func (a *Async) SendResetPassword(_ context.Context, to, url string) error {
	a.dispatch("reset_password", to, func(ctx context.Context) error {
		return a.next.SendResetPassword(ctx, to, url)
	})
	return nil
}

func (a *Async) dispatch(kind, to string, send func(context.Context) error) {
	a.wg.Add(1)

	go func() {
		defer a.wg.Done()

		a.slots <- struct{}{}
		defer func() { <-a.slots }()

		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.safeSend(ctx, send); err != nil {
			a.logger.Error("email delivery failed",
				"kind", kind,
				"to", to,
				"error", err,
			)
		}
	}()
}

func (a *Async) safeSend(ctx context.Context, send func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return send(ctx)
}

// Wait blocks until in-flight deliveries finish or ctx ends.
func (a *Async) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for email delivery: %w", ctx.Err())
	}
}

var _ Sender = (*Async)(nil)
