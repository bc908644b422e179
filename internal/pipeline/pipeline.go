package pipeline

import (
	"context"
	"fmt"
	"time"

	"powerbi-capture/internal/browser"
	"powerbi-capture/internal/checksum"
	"powerbi-capture/internal/config"
	"powerbi-capture/internal/observability"
	"powerbi-capture/internal/passcode"
)

type Options struct {
	StartURL  string
	Selectors *config.Selectors
	Captures  []config.CaptureTarget

	EmailTimeout        time.Duration
	PasswordTimeout     time.Duration
	TotpTimeout         time.Duration
	StaySignedInTimeout time.Duration
	DateFieldTimeout    time.Duration
	NavigationTimeout   time.Duration

	FieldSettle   Settler
	VisualsSettle Settler

	Now          func() time.Time
	GenerateCode func(secret string, t time.Time) (string, error)
}

func OptionsFromConfig(cfg *config.Config, sel *config.Selectors) Options {
	return Options{
		StartURL:            cfg.Portal.StartURL,
		Selectors:           sel,
		Captures:            cfg.Captures,
		EmailTimeout:        cfg.GetEmailFieldTimeout(),
		PasswordTimeout:     cfg.GetPasswordFieldTimeout(),
		TotpTimeout:         cfg.GetTotpFieldTimeout(),
		StaySignedInTimeout: cfg.GetStaySignedInTimeout(),
		DateFieldTimeout:    cfg.GetDateFieldTimeout(),
		NavigationTimeout:   cfg.GetNavigationTimeout(),
		FieldSettle:         FixedDelay(cfg.GetFieldSettle()),
		VisualsSettle:       FixedDelay(cfg.GetVisualsSettle()),
	}
}

// Pipeline проводит одну сессию через стадии строго по порядку:
// логин → диалог "оставаться в системе" → навигация → даты → снимки.
type Pipeline struct {
	opts     Options
	logger   *observability.Logger
	checksum *checksum.Generator
}

func New(opts Options, logger *observability.Logger) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.GenerateCode == nil {
		opts.GenerateCode = passcode.Generate
	}
	if opts.FieldSettle == nil {
		opts.FieldSettle = FixedDelay(0)
	}
	if opts.VisualsSettle == nil {
		opts.VisualsSettle = FixedDelay(0)
	}
	return &Pipeline{
		opts:     opts,
		logger:   logger,
		checksum: checksum.NewGenerator(),
	}
}

func (p *Pipeline) captureNames() []string {
	names := make([]string, 0, len(p.opts.Captures))
	for _, t := range p.opts.Captures {
		names = append(names, t.Name)
	}
	return names
}

// Run прогоняет все стадии на открытой странице. Страницу не закрывает.
func (p *Pipeline) Run(ctx context.Context, page browser.Page, creds config.Credentials) *Result {
	p.logger.Info("Opening portal", "url", p.opts.StartURL)
	if err := page.Navigate(ctx, p.opts.StartURL); err != nil {
		return p.fail(fmt.Errorf("open portal: %w", err))
	}

	auth, err := p.Authenticate(ctx, page, creds)
	if err != nil {
		return p.fail(err)
	}

	steps := []struct {
		name string
		run  func(context.Context, *Authenticated)
	}{
		{"stay_signed_in", p.DismissStaySignedIn},
		{"navigation", p.NavigateToReport},
		{"parameters", func(ctx context.Context, a *Authenticated) { p.InjectDates(ctx, a) }},
	}
	for _, step := range steps {
		step.run(ctx, auth)
		if ctx.Err() != nil {
			return p.fail(fmt.Errorf("%s: %w", step.name, ctx.Err()))
		}
	}

	artifacts := p.Capture(ctx, auth)
	if ctx.Err() != nil {
		return p.fail(fmt.Errorf("capture: %w", ctx.Err()))
	}

	return &Result{Artifacts: artifacts}
}

func (p *Pipeline) fail(err error) *Result {
	p.logger.Error("Run aborted", "error", err.Error())
	return Failed(p.captureNames(), err)
}
