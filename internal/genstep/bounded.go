package genstep

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vansh-04/buildfirst/internal/llm"
)

// ErrValidationExhausted is returned when every attempt was rejected.
var ErrValidationExhausted = errors.New("genstep: attempts exhausted")

// AttemptFunc produces one candidate; n is 1-based.
type AttemptFunc func(ctx context.Context, n int) (string, error)

// Bounded calls attempt up to maxAttempts times and returns the first
// candidate that passes validate, with the number of attempts used.
// Capability errors count as failed attempts. A cancelled context or
// llm.ErrUnavailable stops the loop early.
func Bounded(ctx context.Context, maxAttempts int, attempt AttemptFunc, validate func(string) error) (string, int, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var last error
	n := 0
	for n < maxAttempts {
		if err := ctx.Err(); err != nil {
			return "", n, err
		}
		n++
		out, err := attempt(ctx, n)
		if err != nil {
			last = err
			if errors.Is(err, llm.ErrUnavailable) || ctx.Err() != nil {
				break
			}
			continue
		}
		if err := validate(out); err != nil {
			last = err
			continue
		}
		return out, n, nil
	}
	return "", n, fmt.Errorf("%w after %d attempt(s): %v", ErrValidationExhausted, n, last)
}
