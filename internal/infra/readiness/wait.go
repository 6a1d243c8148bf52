// Package readiness ждёт, пока хранилище начнёт отвечать, перед стартом HTTP.
package readiness

import (
	"context"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/errors"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Wait повторяет Ping с экспоненциальной задержкой, пока хранилище
// недоступно. Прочие ошибки не повторяются.
func Wait(ctx context.Context, p Pinger, attempts uint64, base time.Duration, log *zap.Logger) error {
	backoff := retry.WithMaxRetries(attempts, retry.NewExponential(base))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := p.Ping(ctx)
		switch {
		case err == nil:
			return nil
		case customErrors.IsUnavailable(err):
			log.Warn("session store not ready, retrying", zap.Error(err))
			return retry.RetryableError(err)
		default:
			return err
		}
	})
}
