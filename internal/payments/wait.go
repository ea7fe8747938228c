package payments

import (
	"context"
	"errors"
	"time"
)

// ErrWaitTimeout reports that a payment stayed pending for the whole wait
// window. The intent itself may still resolve later.
var ErrWaitTimeout = errors.New("timed out waiting for payment")

// WaitOptions tunes WaitForPayment. Zero values get the defaults.
type WaitOptions struct {
	Timeout  time.Duration
	Interval time.Duration
}

const (
	defaultWaitTimeout  = 30 * time.Second
	defaultWaitInterval = 2 * time.Second
)

// WaitForPayment polls a reference until it reaches a terminal status, the
// window elapses, or ctx is cancelled. On timeout the last observed result
// is returned alongside ErrWaitTimeout.
func (s *Service) WaitForPayment(ctx context.Context, reference string, opts WaitOptions) (Result, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultWaitTimeout
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultWaitInterval
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	last := Result{Status: StatusPending, Reference: reference}
	for {
		result, err := s.Status(ctx, reference)
		if err != nil {
			return last, err
		}
		last = result
		if result.Status.Terminal() {
			return result, nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return last, ErrWaitTimeout
			}
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}
