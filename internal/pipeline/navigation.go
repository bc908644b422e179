package pipeline

import (
	"context"

	"powerbi-capture/internal/browser"
	"powerbi-capture/internal/diagnostics"
)

const maxLoggedLinks = 25

// NavigateToReport: главная портала → рабочая область → отчёт.
// Любой промах только логируется, дальше работаем с тем, что на экране.
func (p *Pipeline) NavigateToReport(ctx context.Context, a *Authenticated) {
	p.follow(ctx, a, "hub", p.opts.Selectors.HubLink)
	p.follow(ctx, a, "report", p.opts.Selectors.ReportLink)
}

func (p *Pipeline) follow(ctx context.Context, a *Authenticated, name string, candidates []browser.Locator) {
	res := a.exec.Attempt(ctx, candidates, Click, p.opts.NavigationTimeout)
	if res.Found() {
		p.logger.Info("Followed link", "link", name, "candidate", res.Index, "locator", res.Locator.String())
		return
	}

	p.logger.Warn("Link not found by any candidate, selectors may need adjusting",
		"link", name,
		"candidates", len(candidates),
	)
	p.logVisibleLinks(ctx, a.page)
}

func (p *Pipeline) logVisibleLinks(ctx context.Context, page browser.Page) {
	html, err := page.HTML(ctx)
	if err != nil {
		p.logger.Debug("Failed to read page HTML", "error", err.Error())
		return
	}
	links, err := diagnostics.LinkTexts(html, maxLoggedLinks)
	if err != nil {
		p.logger.Debug("Failed to parse page HTML", "error", err.Error())
		return
	}
	p.logger.Info("Links on current page", "count", len(links), "links", links)
}
