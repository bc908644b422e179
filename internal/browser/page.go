package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound: элемент не появился за отведённое время.
var ErrNotFound = errors.New("element not found")

// Page описывает операции над живой страницей, которыми пользуются стадии пайплайна.
type Page interface {
	Navigate(ctx context.Context, url string) error

	// Find ищет элемент без ожидания. ok=false, если совпадений нет.
	Find(ctx context.Context, loc Locator) (el Element, ok bool, err error)

	// WaitVisible ждёт, пока один из кандидатов станет видимым; срок timeout общий.
	// Если видимы несколько, побеждает более ранний. По таймауту возвращает ErrNotFound.
	WaitVisible(ctx context.Context, candidates []Locator, timeout time.Duration) (index int, el Element, err error)

	// WaitSettle ждёт затишья сети и DOM не дольше timeout.
	WaitSettle(ctx context.Context, timeout time.Duration) error

	PressEnter(ctx context.Context) error

	HTML(ctx context.Context) (string, error)

	Close() error
}

type Element interface {
	Click(ctx context.Context) error
	Type(ctx context.Context, text string) error

	// Eval вызывает JS-функцию с this = элемент и возвращает строковый результат.
	Eval(ctx context.Context, js string, args ...interface{}) (string, error)

	// Screenshot рендерит границы элемента в PNG.
	Screenshot(ctx context.Context) ([]byte, error)
}
