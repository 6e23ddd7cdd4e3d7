package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/taan/internal/services"
	"github.com/desertthunder/taan/internal/shared"
)

// CallWithRetry invokes call until it succeeds or fails with an error that cannot be recovered here.
//
// A 401 or an expired token derives a new bearer token and retries. A 429 waits for Retry-After (zero when the
// header is absent) and retries. Anything else is returned at once as a transport error. Retries are unbounded
// unless [shared.RetryConfig.MaxAttempts] is set. The cap never stops the first derive and retry after a 401.
func CallWithRetry[T any](ctx context.Context, c *Coordinator, call func(context.Context) (T, error)) (T, error) {
	var zero T
	derived := false
	for attempt := 1; ; attempt++ {
		v, err := call(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, shared.NewAuthError(shared.KindTransport, "api", ctx.Err())
		}

		refresh := needsRefresh(err)
		limited := services.StatusOf(err) == http.StatusTooManyRequests
		if !refresh && !limited {
			return zero, shared.NewAuthError(shared.KindOf(err), "api", err)
		}

		capped := c.retry.MaxAttempts > 0 && attempt >= c.retry.MaxAttempts
		if capped && (limited || derived) {
			kind := shared.KindTransport
			if refresh {
				kind = shared.KindUnauthenticated
			}
			return zero, shared.NewAuthError(kind, "api", fmt.Errorf("%w after %d attempts: %w", shared.ErrTooManyAttempts, attempt, err))
		}

		if refresh {
			c.logger.Debug("bearer token rejected, deriving a new one", "attempt", attempt, "error", err)
			if derr := c.DeriveWebToken(ctx); derr != nil {
				return zero, derr
			}
			derived = true
			continue
		}

		var he *services.HTTPError
		errors.As(err, &he)
		wait := shared.CapWait(shared.ParseRetryAfter(he.Headers), c.retry.MaxWait())
		c.logger.Info("rate limited", "retry_after", wait, "attempt", attempt)
		if serr := c.sleep(ctx, wait); serr != nil {
			return zero, shared.NewAuthError(shared.KindTransport, "api", serr)
		}
	}
}

func needsRefresh(err error) bool {
	return services.StatusOf(err) == http.StatusUnauthorized || errors.Is(err, shared.ErrTokenExpired)
}
