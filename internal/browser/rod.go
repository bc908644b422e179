package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"powerbi-capture/internal/observability"
)

type Options struct {
	ChromePath      string
	Headless        bool
	NoSandbox       bool
	ViewportWidth   int
	ViewportHeight  int
	WaitLoadTimeout time.Duration
	// PageTimeout ограничивает каждое действие над элементом.
	PageTimeout time.Duration
}

// domQuietWindow: сколько сеть и DOM должны молчать, чтобы считать страницу успокоившейся.
const domQuietWindow = 500 * time.Millisecond

const defaultPageTimeout = 60 * time.Second

// Session владеет процессом Chrome и единственной вкладкой.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	opts     Options
	logger   *observability.Logger
}

var _ Page = (*Session)(nil)

// Launch запускает Chrome и открывает пустую вкладку.
func Launch(ctx context.Context, opts Options, logger *observability.Logger) (*Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		NoSandbox(opts.NoSandbox)
	if opts.NoSandbox {
		l = l.Set("disable-setuid-sandbox")
	}
	if opts.ChromePath != "" {
		l = l.Bin(opts.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch chrome: %w", err)
	}

	b := rod.New().Context(ctx).ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.ViewportWidth,
		Height:            opts.ViewportHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	if opts.PageTimeout <= 0 {
		opts.PageTimeout = defaultPageTimeout
	}

	logger.Debug("Browser launched", "control_url", controlURL, "headless", opts.Headless)

	return &Session{
		launcher: l,
		browser:  b,
		page:     page,
		opts:     opts,
		logger:   logger,
	}, nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx).Timeout(s.opts.WaitLoadTimeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	// Портал догружает SPA после load; тишину сети ждём без фатала.
	if err := s.WaitSettle(ctx, s.opts.WaitLoadTimeout); err != nil {
		s.logger.Debug("Initial settle incomplete", "url", url, "error", err.Error())
	}
	return nil
}

func (s *Session) Find(ctx context.Context, loc Locator) (Element, bool, error) {
	p := s.page.Context(ctx)

	var (
		found bool
		el    *rod.Element
		err   error
	)
	switch loc.Kind {
	case KindCSS:
		found, el, err = p.Has(loc.Expr)
	case KindXPath:
		found, el, err = p.HasX(loc.Expr)
	default:
		return nil, false, fmt.Errorf("unsupported locator kind: %q", loc.Kind)
	}
	if err != nil {
		return nil, false, fmt.Errorf("find %s: %w", loc, err)
	}
	if !found {
		return nil, false, nil
	}
	return s.wrap(el), true, nil
}

// WaitVisible гоняет всех кандидатов по кругу под одним сроком: побеждает
// первый по порядку кандидат, который уже есть в DOM и видим.
func (s *Session) WaitVisible(ctx context.Context, candidates []Locator, timeout time.Duration) (int, Element, error) {
	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	index := -1
	race := p.Race()
	for i, loc := range candidates {
		if err := loc.Validate(); err != nil {
			return -1, nil, err
		}
		race = race.ElementFunc(func(p *rod.Page) (*rod.Element, error) {
			return visibleElement(p, loc)
		}).Handle(func(*rod.Element) error {
			index = i
			return nil
		})
	}

	el, err := race.Do()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return -1, nil, fmt.Errorf("%d candidates within %s: %w", len(candidates), timeout, ErrNotFound)
		}
		return -1, nil, fmt.Errorf("wait visible: %w", err)
	}
	return index, s.wrap(el), nil
}

// visibleElement не ждёт: невидимый или пропавший узел считается ненайденным,
// чтобы гонка перешла к следующему кандидату.
func visibleElement(p *rod.Page, loc Locator) (*rod.Element, error) {
	var (
		el  *rod.Element
		err error
	)
	if loc.Kind == KindXPath {
		el, err = p.ElementX(loc.Expr)
	} else {
		el, err = p.Element(loc.Expr)
	}
	if err != nil {
		return nil, err
	}

	visible, err := el.Visible()
	if err != nil || !visible {
		return nil, &rod.ElementNotFoundError{}
	}
	return el, nil
}

func (s *Session) WaitSettle(ctx context.Context, timeout time.Duration) error {
	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	err := p.WaitStable(domQuietWindow)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		// SPA-переход без навигации не ошибка, просто дождались таймаута.
		return nil
	}
	return err
}

func (s *Session) PressEnter(ctx context.Context) error {
	return s.page.Context(ctx).Keyboard.Press(input.Enter)
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

// Close закрывает вкладку, браузер и чистит профиль. Безопасно вызывать повторно.
func (s *Session) Close() error {
	if s.browser == nil {
		return nil
	}

	var errs []error
	if err := s.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close page: %w", err))
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
		s.launcher.Kill()
	}
	s.launcher.Cleanup()
	s.browser = nil

	return errors.Join(errs...)
}

func (s *Session) wrap(el *rod.Element) *rodElement {
	return &rodElement{el: el, timeout: s.opts.PageTimeout}
}

// rodElement: каждое действие ограничено timeout. Click и Input внутри rod
// ждут, пока элемент станет доступным, и без срока висят под оверлеем.
type rodElement struct {
	el      *rod.Element
	timeout time.Duration
}

func (e *rodElement) bound(ctx context.Context) *rod.Element {
	return e.el.Context(ctx).Timeout(e.timeout)
}

func (e *rodElement) Click(ctx context.Context) error {
	el := e.bound(ctx)
	defer el.CancelTimeout()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Type(ctx context.Context, text string) error {
	el := e.bound(ctx)
	defer el.CancelTimeout()
	return el.Input(text)
}

func (e *rodElement) Eval(ctx context.Context, js string, args ...interface{}) (string, error) {
	el := e.bound(ctx)
	defer el.CancelTimeout()

	obj, err := el.Eval(js, args...)
	if err != nil {
		return "", err
	}
	return obj.Value.Str(), nil
}

func (e *rodElement) Screenshot(ctx context.Context) ([]byte, error) {
	el := e.bound(ctx)
	defer el.CancelTimeout()
	return el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
}
