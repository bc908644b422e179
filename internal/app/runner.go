package app

import (
	"context"
	"fmt"

	"powerbi-capture/internal/browser"
	"powerbi-capture/internal/checksum"
	"powerbi-capture/internal/config"
	"powerbi-capture/internal/observability"
	"powerbi-capture/internal/pipeline"
)

// LaunchFunc открывает новую сессию браузера.
type LaunchFunc func(ctx context.Context) (browser.Page, error)

// Publisher отдаёт артефакт внешнему хранилищу и возвращает публичную ссылку.
type Publisher interface {
	Upload(ctx context.Context, path string) (string, error)
}

type Runner struct {
	cfg       *config.Config
	logger    *observability.Logger
	launch    LaunchFunc
	pipeline  *pipeline.Pipeline
	publisher Publisher
	checksum  *checksum.Generator
}

// NewRunner собирает прогон. publisher может быть nil, если выгрузка не нужна.
func NewRunner(
	cfg *config.Config,
	logger *observability.Logger,
	launch LaunchFunc,
	p *pipeline.Pipeline,
	publisher Publisher,
) *Runner {
	return &Runner{
		cfg:       cfg,
		logger:    logger,
		launch:    launch,
		pipeline:  p,
		publisher: publisher,
		checksum:  checksum.NewGenerator(),
	}
}

// RodLauncher запускает настоящий Chrome.
func RodLauncher(cfg *config.Config, logger *observability.Logger) LaunchFunc {
	return func(ctx context.Context) (browser.Page, error) {
		session, err := browser.Launch(ctx, browserOptions(cfg), logger)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
}

func browserOptions(cfg *config.Config) browser.Options {
	return browser.Options{
		ChromePath:      cfg.Rod.ChromePath,
		Headless:        cfg.Rod.Headless,
		NoSandbox:       cfg.Rod.NoSandbox,
		ViewportWidth:   cfg.Rod.ViewportWidth,
		ViewportHeight:  cfg.Rod.ViewportHeight,
		WaitLoadTimeout: cfg.GetRodWaitLoadTimeout(),
		PageTimeout:     cfg.GetRodPageTimeout(),
	}
}

// Run выполняет один прогон и всегда возвращает результат.
// Сессия закрывается на любом пути, до выгрузки артефактов.
func (r *Runner) Run(ctx context.Context, creds config.Credentials) *pipeline.Result {
	result := r.capture(ctx, creds)

	if r.cfg.Output.Mode == config.OutputModeUpload && result.Error == "" {
		r.publish(ctx, result)
	}

	r.logger.Info("Run completed",
		"mode", r.cfg.Output.Mode,
		"error", result.Error,
		"artifacts", countPresent(result),
	)
	return result
}

func (r *Runner) capture(ctx context.Context, creds config.Credentials) *pipeline.Result {
	page, err := r.launch(ctx)
	if err != nil {
		r.logger.Error("Failed to start browser", "error", err.Error())
		return pipeline.Failed(captureNames(r.cfg), fmt.Errorf("start browser: %w", err))
	}
	defer func() {
		if err := page.Close(); err != nil {
			r.logger.Warn("Failed to close browser", "error", err.Error())
		}
	}()

	return r.pipeline.Run(ctx, page, creds)
}

// publish: ошибка выгрузки оставляет ссылку пустой, прогон не проваливает.
func (r *Runner) publish(ctx context.Context, result *pipeline.Result) {
	if r.publisher == nil {
		r.logger.Warn("Upload requested but no publisher configured")
		return
	}

	for i := range result.Artifacts {
		art := &result.Artifacts[i]
		if !art.Present() {
			continue
		}

		ok, err := r.checksum.VerifyFile(art.SHA256, art.Path)
		if err != nil || !ok {
			r.logger.Warn("Artifact changed on disk, skipping upload", "target", art.Name, "path", art.Path)
			continue
		}

		link, err := r.publisher.Upload(ctx, art.Path)
		if err != nil {
			r.logger.Warn("Upload failed", "target", art.Name, "path", art.Path, "error", err.Error())
			continue
		}
		art.URL = link
		r.logger.Info("Uploaded", "target", art.Name, "url", link)
	}
}

func captureNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Captures))
	for _, t := range cfg.Captures {
		names = append(names, t.Name)
	}
	return names
}

func countPresent(result *pipeline.Result) int {
	n := 0
	for _, a := range result.Artifacts {
		if a.Present() {
			n++
		}
	}
	return n
}
