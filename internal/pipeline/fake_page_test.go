package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"powerbi-capture/internal/browser"
	"powerbi-capture/internal/config"
	"powerbi-capture/internal/observability"
)

// fakePage держит страницу в памяти: элементы адресуются выражением локатора.
type fakePage struct {
	mu       sync.Mutex
	elements map[string]*fakeElement
	actions  []string
	waits    map[string]time.Duration
	html     string
	navErr   error
	closed   bool
}

func newFakePage() *fakePage {
	return &fakePage{
		elements: make(map[string]*fakeElement),
		waits:    make(map[string]time.Duration),
	}
}

func (p *fakePage) add(expr string) *fakeElement {
	el := &fakeElement{page: p, name: expr, png: []byte("png:" + expr)}
	p.elements[expr] = el
	return el
}

func (p *fakePage) record(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, fmt.Sprintf(format, args...))
}

func (p *fakePage) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.record("navigate %s", url)
	return p.navErr
}

func (p *fakePage) Find(ctx context.Context, loc browser.Locator) (browser.Element, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	el, ok := p.elements[loc.Expr]
	if !ok {
		return nil, false, nil
	}
	return el, true, nil
}

func (p *fakePage) WaitVisible(ctx context.Context, candidates []browser.Locator, timeout time.Duration) (int, browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return -1, nil, err
	}
	p.mu.Lock()
	for _, loc := range candidates {
		p.waits[loc.Expr] = timeout
	}
	p.mu.Unlock()

	for i, loc := range candidates {
		if el, ok := p.elements[loc.Expr]; ok {
			return i, el, nil
		}
	}
	return -1, nil, fmt.Errorf("%d candidates: %w", len(candidates), browser.ErrNotFound)
}

func (p *fakePage) WaitSettle(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func (p *fakePage) PressEnter(_ context.Context) error {
	p.record("press enter")
	return nil
}

func (p *fakePage) HTML(_ context.Context) (string, error) {
	return p.html, nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeElement struct {
	page     *fakePage
	name     string
	clickErr error
	png      []byte
	pngErr   error
	evalMode string
}

func (e *fakeElement) Click(_ context.Context) error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.page.record("click %s", e.name)
	return nil
}

func (e *fakeElement) Type(_ context.Context, text string) error {
	e.page.record("type %s %s", e.name, text)
	return nil
}

func (e *fakeElement) Eval(_ context.Context, _ string, args ...interface{}) (string, error) {
	e.page.record("eval %s %v", e.name, args)
	if e.evalMode == "" {
		return "input", nil
	}
	return e.evalMode, nil
}

func (e *fakeElement) Screenshot(_ context.Context) ([]byte, error) {
	if e.pngErr != nil {
		return nil, e.pngErr
	}
	e.page.record("screenshot %s", e.name)
	return e.png, nil
}

var errBoom = errors.New("boom")

// countingSettler считает вызовы вместо реального ожидания.
type countingSettler struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSettler) Settle(ctx context.Context) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return ctx.Err()
}

func (s *countingSettler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

const (
	exprEmail       = "#email"
	exprEmailSubmit = "#submitBtn"
	exprPassword    = "#i0118"
	exprPassSubmit  = "#idSIButton9"
	exprTotp        = `input[type="tel"]`
	exprTotpCont    = "#idSubmit_SAOTCC_Continue"
	exprStayNo      = "#idBtn_Back"
	exprHubUnicode  = `//a[contains(., "McDonald’s Analytics Platform (MAP) - Franchisee")]`
	exprHubASCII    = `//a[contains(., "McDonald's Analytics Platform (MAP) - Franchisee")]`
	exprHubLoose    = `//*[contains(., 'McDonald') and contains(., 'MAP')]`
	exprReport      = `//a[contains(., 'Service Time Report') or contains(., 'Service Time')]`
	dateFieldA      = "505ef34d-f37b-80b8-bf4d-ad065c2ffc38"
	dateFieldB      = "7a295df6-68e2-a36c-a98e-a042d764f071"
	titleR2P        = "Average R2P by Store (in second)"
	titleOEPE       = "Average OEPE by Store (in second)"
)

func testSelectors() *config.Selectors {
	return &config.Selectors{
		EmailInput:          []browser.Locator{browser.CSS(exprEmail)},
		EmailSubmit:         []browser.Locator{browser.CSS(exprEmailSubmit)},
		PasswordInput:       []browser.Locator{browser.CSS(exprPassword)},
		PasswordSubmit:      []browser.Locator{browser.CSS(exprPassSubmit)},
		TotpInput:           []browser.Locator{browser.CSS(exprTotp)},
		TotpContinue:        []browser.Locator{browser.CSS(exprTotpCont)},
		StaySignedInDecline: []browser.Locator{browser.CSS(exprStayNo)},
		HubLink: []browser.Locator{
			browser.XPath(exprHubUnicode),
			browser.XPath(exprHubASCII),
			browser.XPath(exprHubLoose),
		},
		ReportLink:    []browser.Locator{browser.XPath(exprReport)},
		DateFieldIDs:  []string{dateFieldA, dateFieldB},
		VisualClasses: []string{"visualContainer", "visual"},
	}
}

type harness struct {
	page     *fakePage
	pipeline *Pipeline
	field    *countingSettler
	visuals  *countingSettler
	captures []config.CaptureTarget
	codes    []time.Time
}

var fixedNow = time.Date(2025, time.March, 1, 9, 30, 0, 0, time.Local)

func newHarness(dir string) *harness {
	h := &harness{
		page:    newFakePage(),
		field:   &countingSettler{},
		visuals: &countingSettler{},
		captures: []config.CaptureTarget{
			{Name: "r2p", Title: titleR2P, Output: dir + "/r2p.png"},
			{Name: "oepe", Title: titleOEPE, Output: dir + "/oepe.png"},
		},
	}
	sel := testSelectors()

	h.pipeline = New(Options{
		StartURL:            "https://app.powerbi.com/",
		Selectors:           sel,
		Captures:            h.captures,
		EmailTimeout:        30 * time.Second,
		PasswordTimeout:     30 * time.Second,
		TotpTimeout:         15 * time.Second,
		StaySignedInTimeout: 15 * time.Second,
		DateFieldTimeout:    10 * time.Second,
		NavigationTimeout:   time.Second,
		FieldSettle:         h.field,
		VisualsSettle:       h.visuals,
		Now:                 func() time.Time { return fixedNow },
		GenerateCode: func(secret string, t time.Time) (string, error) {
			h.codes = append(h.codes, t)
			return "123456", nil
		},
	}, observability.Nop())
	return h
}

// withLogin добавляет поля email/пароля и их кнопки.
func (h *harness) withLogin() *harness {
	for _, expr := range []string{exprEmail, exprEmailSubmit, exprPassword, exprPassSubmit} {
		h.page.add(expr)
	}
	return h
}

// withReport добавляет ссылки навигации, поля дат и графики.
func (h *harness) withReport() *harness {
	h.page.add(exprHubUnicode)
	h.page.add(exprReport)
	h.page.add(dateFieldLocator(dateFieldA).Expr)
	h.page.add(dateFieldLocator(dateFieldB).Expr)
	for _, t := range h.captures {
		h.page.add(visualLocator(t.Title, testSelectors().VisualClasses).Expr)
	}
	return h
}

var testCreds = config.Credentials{
	Username:   "franchisee@example.com",
	Password:   "s3cret",
	TOTPSecret: "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ",
}
