package config

import (
	"fmt"
	"time"
)

const (
	OutputModeLocal  = "local"
	OutputModeUpload = "upload"
)

type Config struct {
	Rod           RodConfig           `yaml:"rod"`
	Portal        PortalConfig        `yaml:"portal"`
	Timeouts      TimeoutsConfig      `yaml:"timeouts"`
	SelectorsFile string              `yaml:"selectors_file"`
	Captures      []CaptureTarget     `yaml:"captures"`
	Output        OutputConfig        `yaml:"output"`
	Upload        UploadConfig        `yaml:"upload"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type RodConfig struct {
	ChromePath       string `yaml:"chrome_path"`
	Headless         bool   `yaml:"headless"`
	NoSandbox        bool   `yaml:"no_sandbox"`
	ViewportWidth    int    `yaml:"viewport_width"`
	ViewportHeight   int    `yaml:"viewport_height"`
	PageTimeoutS     int    `yaml:"page_timeout_s"`
	WaitLoadTimeoutS int    `yaml:"wait_load_timeout_s"`
}

type PortalConfig struct {
	StartURL string `yaml:"start_url"`
}

// TimeoutsConfig задаёт ожидания отдельных шагов. Нули заменяются значениями по умолчанию.
type TimeoutsConfig struct {
	EmailFieldS     int `yaml:"email_field_s"`
	PasswordFieldS  int `yaml:"password_field_s"`
	TotpFieldS      int `yaml:"totp_field_s"`
	StaySignedInS   int `yaml:"stay_signed_in_s"`
	DateFieldS      int `yaml:"date_field_s"`
	NavigationS     int `yaml:"navigation_s"`
	FieldSettleMS   int `yaml:"field_settle_ms"`
	VisualsSettleMS int `yaml:"visuals_settle_ms"`
}

// CaptureTarget описывает график, который ищем по тексту заголовка.
type CaptureTarget struct {
	Name   string `yaml:"name"`
	Title  string `yaml:"title"`
	Output string `yaml:"output"`
}

type OutputConfig struct {
	Mode string `yaml:"mode"`
}

type UploadConfig struct {
	Endpoint     string `yaml:"endpoint"`
	TimeoutMS    int    `yaml:"timeout_ms"`
	MaxRetries   int    `yaml:"max_retries"`
	BackoffMinMS int    `yaml:"backoff_min_ms"`
	BackoffMaxMS int    `yaml:"backoff_max_ms"`
	JitterPct    int    `yaml:"jitter_pct"`
}

type ObservabilityConfig struct {
	LogPath  string `yaml:"log_path"`
	LogLevel string `yaml:"log_level"`
}

// ApplyDefaults заполняет незаданные таймауты значениями, под которые настроен портал.
func (c *Config) ApplyDefaults() {
	t := &c.Timeouts
	setDefault(&t.EmailFieldS, 30)
	setDefault(&t.PasswordFieldS, 30)
	setDefault(&t.TotpFieldS, 15)
	setDefault(&t.StaySignedInS, 15)
	setDefault(&t.DateFieldS, 10)
	setDefault(&t.NavigationS, 60)
	setDefault(&t.FieldSettleMS, 800)
	setDefault(&t.VisualsSettleMS, 8000)

	setDefault(&c.Rod.ViewportWidth, 1600)
	setDefault(&c.Rod.ViewportHeight, 1000)
	setDefault(&c.Rod.PageTimeoutS, 60)
	setDefault(&c.Rod.WaitLoadTimeoutS, 60)

	if c.Output.Mode == "" {
		c.Output.Mode = OutputModeLocal
	}
	setDefault(&c.Upload.TimeoutMS, 60000)
	setDefault(&c.Upload.BackoffMinMS, 500)
	setDefault(&c.Upload.BackoffMaxMS, 5000)
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

// Validation
func (c *Config) Validate() error {
	if c.Portal.StartURL == "" {
		return fmt.Errorf("portal.start_url is required")
	}
	if c.SelectorsFile == "" {
		return fmt.Errorf("selectors_file is required")
	}
	if len(c.Captures) == 0 {
		return fmt.Errorf("captures must not be empty")
	}
	seen := make(map[string]bool, len(c.Captures))
	for i, target := range c.Captures {
		if target.Name == "" {
			return fmt.Errorf("captures[%d].name is required", i)
		}
		if seen[target.Name] {
			return fmt.Errorf("captures[%d].name %q is duplicated", i, target.Name)
		}
		seen[target.Name] = true
		if target.Title == "" {
			return fmt.Errorf("captures[%d].title is required", i)
		}
		if target.Output == "" {
			return fmt.Errorf("captures[%d].output is required", i)
		}
	}
	if c.Output.Mode != OutputModeLocal && c.Output.Mode != OutputModeUpload {
		return fmt.Errorf("output.mode must be 'local' or 'upload'")
	}
	if c.Output.Mode == OutputModeUpload && c.Upload.Endpoint == "" {
		return fmt.Errorf("upload.endpoint is required when output.mode is 'upload'")
	}
	if c.Upload.MaxRetries < 0 {
		return fmt.Errorf("upload.max_retries must be >= 0")
	}
	if c.Upload.BackoffMinMS > c.Upload.BackoffMaxMS {
		return fmt.Errorf("upload.backoff_min_ms must be <= upload.backoff_max_ms")
	}
	if c.Upload.JitterPct < 0 || c.Upload.JitterPct > 100 {
		return fmt.Errorf("upload.jitter_pct must be between 0 and 100")
	}
	if c.Rod.ViewportWidth <= 0 || c.Rod.ViewportHeight <= 0 {
		return fmt.Errorf("rod.viewport_width and rod.viewport_height must be > 0")
	}
	if c.Rod.PageTimeoutS <= 0 {
		return fmt.Errorf("rod.page_timeout_s must be > 0")
	}
	if c.Rod.WaitLoadTimeoutS <= 0 {
		return fmt.Errorf("rod.wait_load_timeout_s must be > 0")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	return nil
}

// Getters
func (c *Config) GetEmailFieldTimeout() time.Duration {
	return time.Duration(c.Timeouts.EmailFieldS) * time.Second
}

func (c *Config) GetPasswordFieldTimeout() time.Duration {
	return time.Duration(c.Timeouts.PasswordFieldS) * time.Second
}

func (c *Config) GetTotpFieldTimeout() time.Duration {
	return time.Duration(c.Timeouts.TotpFieldS) * time.Second
}

func (c *Config) GetStaySignedInTimeout() time.Duration {
	return time.Duration(c.Timeouts.StaySignedInS) * time.Second
}

func (c *Config) GetDateFieldTimeout() time.Duration {
	return time.Duration(c.Timeouts.DateFieldS) * time.Second
}

func (c *Config) GetNavigationTimeout() time.Duration {
	return time.Duration(c.Timeouts.NavigationS) * time.Second
}

func (c *Config) GetFieldSettle() time.Duration {
	return time.Duration(c.Timeouts.FieldSettleMS) * time.Millisecond
}

func (c *Config) GetVisualsSettle() time.Duration {
	return time.Duration(c.Timeouts.VisualsSettleMS) * time.Millisecond
}

func (c *Config) GetRodPageTimeout() time.Duration {
	return time.Duration(c.Rod.PageTimeoutS) * time.Second
}

func (c *Config) GetRodWaitLoadTimeout() time.Duration {
	return time.Duration(c.Rod.WaitLoadTimeoutS) * time.Second
}

func (c *Config) GetUploadTimeout() time.Duration {
	return time.Duration(c.Upload.TimeoutMS) * time.Millisecond
}

func (c *Config) GetUploadBackoffMin() time.Duration {
	return time.Duration(c.Upload.BackoffMinMS) * time.Millisecond
}

func (c *Config) GetUploadBackoffMax() time.Duration {
	return time.Duration(c.Upload.BackoffMaxMS) * time.Millisecond
}
