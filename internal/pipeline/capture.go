package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"powerbi-capture/internal/browser"
	"powerbi-capture/internal/config"
)

// visualLocator находит ближайший к заголовку контейнер визуала:
// самый глубокий div с текстом заголовка, затем его ближайший предок с классом визуала.
// Класс сравнивается целым токеном: visualTitleArea не считается визуалом.
func visualLocator(title string, classes []string) browser.Locator {
	lit := browser.XPathLiteral(title)

	conds := make([]string, 0, len(classes))
	for _, c := range classes {
		conds = append(conds, "contains(concat(' ', normalize-space(@class), ' '), "+browser.XPathLiteral(" "+c+" ")+")")
	}

	return browser.XPath(fmt.Sprintf(
		"(//div[contains(., %s) and not(.//div[contains(., %s)])]/ancestor::div[%s][1])[1]",
		lit, lit, strings.Join(conds, " or "),
	))
}

// Capture снимает каждый целевой график в свой файл. Старый файл удаляется
// заранее, так что ненайденный график не оставит устаревший снимок.
func (p *Pipeline) Capture(ctx context.Context, a *Authenticated) []Artifact {
	artifacts := make([]Artifact, 0, len(p.opts.Captures))
	for _, target := range p.opts.Captures {
		artifacts = append(artifacts, p.captureOne(ctx, a, target))
	}
	return artifacts
}

func (p *Pipeline) captureOne(ctx context.Context, a *Authenticated, target config.CaptureTarget) Artifact {
	art := Artifact{Name: target.Name}

	if err := os.Remove(target.Output); err != nil && !errors.Is(err, fs.ErrNotExist) {
		p.logger.Warn("Failed to remove previous capture", "target", target.Name, "path", target.Output, "error", err.Error())
	}

	save := func(ctx context.Context, el browser.Element) error {
		png, err := el.Screenshot(ctx)
		if err != nil {
			return fmt.Errorf("screenshot: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(target.Output), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		if err := os.WriteFile(target.Output, png, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", target.Output, err)
		}
		art.Path = target.Output
		art.SHA256 = p.checksum.Sum(png)
		return nil
	}

	loc := visualLocator(target.Title, p.opts.Selectors.VisualClasses)
	if !a.exec.Attempt(ctx, []browser.Locator{loc}, save, 0).Found() {
		p.logger.Warn("Chart not found", "target", target.Name, "title", target.Title)
		return Artifact{Name: target.Name}
	}

	p.logger.Info("Saved chart", "target", target.Name, "path", art.Path, "sha256", art.SHA256)
	return art
}
