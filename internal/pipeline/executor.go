package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"powerbi-capture/internal/browser"
	"powerbi-capture/internal/observability"
)

type Status int

const (
	NotFoundWithinTimeout Status = iota
	Found
)

func (s Status) String() string {
	if s == Found {
		return "found"
	}
	return "not_found_within_timeout"
}

// Resolution: итог поиска по списку кандидатов.
type Resolution struct {
	Status  Status
	Index   int
	Locator browser.Locator
	Element browser.Element
}

func (r Resolution) Found() bool {
	return r.Status == Found
}

var notFound = Resolution{Status: NotFoundWithinTimeout, Index: -1}

// Action выполняется над найденным элементом.
type Action func(ctx context.Context, el browser.Element) error

func Click(ctx context.Context, el browser.Element) error {
	return el.Click(ctx)
}

// Executor перебирает кандидатов по порядку: побеждает первое структурное совпадение.
type Executor struct {
	page   browser.Page
	logger *observability.Logger
}

func NewExecutor(page browser.Page, logger *observability.Logger) *Executor {
	return &Executor{page: page, logger: logger}
}

// Attempt ищет кандидатов без ожидания. Для первого найденного выполняет action
// и ждёт успокоения страницы не дольше settleTimeout (0: не ждать).
// Если action упал, кандидат не повторяется: переходим к следующему.
func (x *Executor) Attempt(ctx context.Context, candidates []browser.Locator, action Action, settleTimeout time.Duration) Resolution {
	for i, loc := range candidates {
		if ctx.Err() != nil {
			return notFound
		}

		el, ok, err := x.page.Find(ctx, loc)
		if err != nil {
			x.logger.Debug("Candidate lookup failed", "index", i, "locator", loc.String(), "error", err.Error())
			continue
		}
		if !ok {
			continue
		}

		if err := action(ctx, el); err != nil {
			x.logger.Warn("Action on candidate failed", "index", i, "locator", loc.String(), "error", err.Error())
			continue
		}

		x.settle(ctx, settleTimeout)
		return Resolution{Status: Found, Index: i, Locator: loc, Element: el}
	}

	return notFound
}

// WaitFor ждёт, пока один из кандидатов станет видимым. Срок timeout общий для
// всех: кандидаты проверяются по кругу, так что поздно появившийся не теряется.
// Отсутствие является нормальным исходом, а не ошибкой;
// ошибка возвращается только если страница недоступна или контекст отменён.
func (x *Executor) WaitFor(ctx context.Context, candidates []browser.Locator, timeout time.Duration) (Resolution, error) {
	if len(candidates) == 0 {
		return notFound, nil
	}

	i, el, err := x.page.WaitVisible(ctx, candidates, timeout)
	if err != nil {
		if errors.Is(err, browser.ErrNotFound) {
			return notFound, nil
		}
		if ctx.Err() != nil {
			return notFound, ctx.Err()
		}
		return notFound, fmt.Errorf("wait for %d candidates: %w", len(candidates), err)
	}
	return Resolution{Status: Found, Index: i, Locator: candidates[i], Element: el}, nil
}

// Act выполняет action над уже найденным элементом и ждёт успокоения страницы.
func (x *Executor) Act(ctx context.Context, el browser.Element, action Action, settleTimeout time.Duration) error {
	if err := action(ctx, el); err != nil {
		return err
	}
	x.settle(ctx, settleTimeout)
	return nil
}

func (x *Executor) settle(ctx context.Context, timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	if err := x.page.WaitSettle(ctx, timeout); err != nil {
		// Навигации могло и не быть: это не повод останавливаться.
		x.logger.Debug("Page did not settle", "timeout", timeout.String(), "error", err.Error())
	}
}
