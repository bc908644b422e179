package pipeline

import (
	"context"
	"time"
)

// Settler ждёт, пока отчёт закончит пересчёт и перерисовку визуалов.
// Сигнала о завершении перерисовки портал не даёт, поэтому пока это фиксированная пауза.
type Settler interface {
	Settle(ctx context.Context) error
}

// FixedDelay: слепое ожидание заданной длительности.
type FixedDelay time.Duration

func (d FixedDelay) Settle(ctx context.Context) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(time.Duration(d))
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
