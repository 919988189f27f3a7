package helper

import "context"

// CheckDeadline returns the context error once the context is done.
func CheckDeadline(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
