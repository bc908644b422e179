package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"powerbi-capture/internal/app"
	"powerbi-capture/internal/config"
	"powerbi-capture/internal/observability"
	"powerbi-capture/internal/pipeline"
	"powerbi-capture/internal/upload"
)

const (
	resultBegin = "-> RESULT-JSON-BEGIN"
	resultEnd   = "-> RESULT-JSON-END"
)

// defaultCaptureNames задают ключи результата, когда конфиг прочитать не удалось:
// вызывающий скрипт всегда получает r2p_* и oepe_*.
var defaultCaptureNames = []string{"r2p", "oepe"}

type flags struct {
	configPath string
	envFile    string
	upload     bool
}

func main() {
	f := &flags{}

	cmd := &cobra.Command{
		Use:           "pbi-capture",
		Short:         "Log in to Power BI, set report dates to yesterday and capture the R2P/OEPE charts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "configs/config.yaml", "path to config file")
	cmd.Flags().StringVar(&f.envFile, "env-file", ".env", "optional dotenv file with PBI_USER, PBI_PASS, PBI_TOTP_SECRET")
	cmd.Flags().BoolVar(&f.upload, "upload", false, "upload captured charts and report public URLs (overrides output.mode)")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f *flags) error {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		emit(os.Stdout, failedResult(nil, err))
		return err
	}
	if f.upload {
		cfg.Output.Mode = config.OutputModeUpload
		if err := cfg.Validate(); err != nil {
			emit(os.Stdout, failedResult(cfg, err))
			return err
		}
	}

	logger := observability.NewLogger(cfg.Observability.LogPath, cfg.Observability.LogLevel)
	defer func() { _ = logger.Close() }()

	selectors, err := cfg.LoadSelectorsFile(f.configPath)
	if err != nil {
		logger.Error("Failed to load selectors", "error", err.Error())
		emit(os.Stdout, failedResult(cfg, err))
		return err
	}

	creds := config.LoadCredentials(f.envFile)

	ctx, cancel := app.GracefulShutdown(ctx, logger)
	defer cancel()

	var publisher app.Publisher
	if cfg.Output.Mode == config.OutputModeUpload {
		publisher = upload.NewUploader(cfg, logger)
	}

	p := pipeline.New(pipeline.OptionsFromConfig(cfg, selectors), logger)
	runner := app.NewRunner(cfg, logger, app.RodLauncher(cfg, logger), p, publisher)

	result := runner.Run(ctx, creds)
	emit(os.Stdout, result)

	if result.Error != "" {
		return fmt.Errorf("run failed: %s", result.Error)
	}
	return nil
}

// failedResult перечисляет все цели, чтобы ключи результата не зависели от того, где упал прогон.
func failedResult(cfg *config.Config, err error) *pipeline.Result {
	names := defaultCaptureNames
	if cfg != nil && len(cfg.Captures) > 0 {
		names = make([]string, 0, len(cfg.Captures))
		for _, t := range cfg.Captures {
			names = append(names, t.Name)
		}
	}
	return pipeline.Failed(names, err)
}

// emit печатает результат между маркерами, чтобы вызывающий скрипт мог его вырезать.
func emit(w io.Writer, result *pipeline.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}
	fmt.Fprintln(w, resultBegin)
	fmt.Fprintln(w, string(data))
	fmt.Fprintln(w, resultEnd)
}
