package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"powerbi-capture/internal/browser"
	"powerbi-capture/internal/config"
)

// ErrMandatoryField: обязательное поле логина не появилось вовремя.
var ErrMandatoryField = errors.New("mandatory login field not found")

type AuthState int

const (
	AwaitingEmailField AuthState = iota
	EmailSubmitted
	AwaitingPasswordField
	PasswordSubmitted
	AwaitingTotpOrSkip
	AuthComplete
)

func (s AuthState) String() string {
	switch s {
	case AwaitingEmailField:
		return "awaiting_email_field"
	case EmailSubmitted:
		return "email_submitted"
	case AwaitingPasswordField:
		return "awaiting_password_field"
	case PasswordSubmitted:
		return "password_submitted"
	case AwaitingTotpOrSkip:
		return "awaiting_totp_or_skip"
	case AuthComplete:
		return "authenticated"
	default:
		return fmt.Sprintf("auth_state(%d)", int(s))
	}
}

// Authenticated: сессия после логина. Получить её можно только из Authenticate,
// поэтому последующие стадии не запустятся раньше времени.
type Authenticated struct {
	page browser.Page
	exec *Executor
}

// Authenticate вводит email, пароль и, если портал спросит, одноразовый код.
// Отсутствие полей email/пароля фатально, отсутствие поля кода нет.
func (p *Pipeline) Authenticate(ctx context.Context, page browser.Page, creds config.Credentials) (*Authenticated, error) {
	exec := NewExecutor(page, p.logger)
	sel := p.opts.Selectors

	p.enter(AwaitingEmailField)
	if err := p.fillAndSubmit(ctx, exec, "email", sel.EmailInput, sel.EmailSubmit, creds.Username, p.opts.EmailTimeout); err != nil {
		return nil, err
	}
	p.enter(EmailSubmitted)

	p.enter(AwaitingPasswordField)
	if err := p.fillAndSubmit(ctx, exec, "password", sel.PasswordInput, sel.PasswordSubmit, creds.Password, p.opts.PasswordTimeout); err != nil {
		return nil, err
	}
	p.enter(PasswordSubmitted)

	p.enter(AwaitingTotpOrSkip)
	if err := p.handleTotp(ctx, exec, page, creds.TOTPSecret); err != nil {
		return nil, err
	}
	p.enter(AuthComplete)

	return &Authenticated{page: page, exec: exec}, nil
}

func (p *Pipeline) enter(state AuthState) {
	p.logger.Info("Authentication", "state", state.String())
}

func (p *Pipeline) fillAndSubmit(
	ctx context.Context,
	exec *Executor,
	field string,
	input, submit []browser.Locator,
	value string,
	timeout time.Duration,
) error {
	res, err := exec.WaitFor(ctx, input, timeout)
	if err != nil {
		return fmt.Errorf("%s field: %w", field, err)
	}
	if !res.Found() {
		return fmt.Errorf("%s field not visible within %s: %w", field, timeout, ErrMandatoryField)
	}

	if err := res.Element.Type(ctx, value); err != nil {
		return fmt.Errorf("type %s: %w", field, err)
	}

	if !exec.Attempt(ctx, submit, Click, p.opts.NavigationTimeout).Found() {
		return fmt.Errorf("%s submit control not found: %w", field, ErrMandatoryField)
	}
	return nil
}

// handleTotp: 2FA необязательна. Код генерируется прямо перед вводом;
// если он попадёт на границу окна и портал его отвергнет, повторов нет.
func (p *Pipeline) handleTotp(ctx context.Context, exec *Executor, page browser.Page, secret string) error {
	res, err := exec.WaitFor(ctx, p.opts.Selectors.TotpInput, p.opts.TotpTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("totp: %w", ctx.Err())
		}
		p.logger.Warn("TOTP field lookup failed, continuing", "error", err.Error())
		return nil
	}
	if !res.Found() {
		p.logger.Info("No TOTP step found, continuing")
		return nil
	}

	code, err := p.opts.GenerateCode(secret, p.opts.Now())
	if err != nil {
		p.logger.Warn("Failed to generate TOTP code, continuing", "error", err.Error())
		return nil
	}
	if err := res.Element.Type(ctx, code); err != nil {
		p.logger.Warn("Failed to type TOTP code, continuing", "error", err.Error())
		return nil
	}

	if exec.Attempt(ctx, p.opts.Selectors.TotpContinue, Click, p.opts.NavigationTimeout).Found() {
		p.logger.Info("TOTP entered", "submit", "continue_button")
		return nil
	}

	if err := page.PressEnter(ctx); err != nil {
		p.logger.Warn("Failed to submit TOTP with Enter", "error", err.Error())
		return nil
	}
	if err := page.WaitSettle(ctx, p.opts.NavigationTimeout); err != nil {
		p.logger.Debug("Page did not settle after TOTP", "error", err.Error())
	}
	p.logger.Info("TOTP entered", "submit", "enter_key")
	return nil
}
