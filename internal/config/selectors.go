package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"powerbi-capture/internal/browser"
)

// Selectors содержит списки кандидатов для каждого шага. Порядок важен: побеждает первое совпадение.
type Selectors struct {
	EmailInput          []browser.Locator `yaml:"email_input"`
	EmailSubmit         []browser.Locator `yaml:"email_submit"`
	PasswordInput       []browser.Locator `yaml:"password_input"`
	PasswordSubmit      []browser.Locator `yaml:"password_submit"`
	TotpInput           []browser.Locator `yaml:"totp_input"`
	TotpContinue        []browser.Locator `yaml:"totp_continue"`
	StaySignedInDecline []browser.Locator `yaml:"stay_signed_in_decline"`
	HubLink             []browser.Locator `yaml:"hub_link"`
	ReportLink          []browser.Locator `yaml:"report_link"`
	DateFieldIDs        []string          `yaml:"date_field_ids"`
	VisualClasses       []string          `yaml:"visual_classes"`
}

// LoadSelectors загружает селекторы из YAML файла
func LoadSelectors(filePath string) (*Selectors, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close selectors file: %v\n", closeErr)
		}
	}()

	var selectors Selectors
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateSelectors(&selectors); err != nil {
		return nil, err
	}

	return &selectors, nil
}

// LoadSelectorsFile берёт путь из конфига; относительный считается от каталога конфига.
func (c *Config) LoadSelectorsFile(configPath string) (*Selectors, error) {
	filePath := c.SelectorsFile
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(filepath.Dir(configPath), filePath)
	}
	return LoadSelectors(filePath)
}

// validateSelectors проверяет минимальный набор селекторов
func validateSelectors(s *Selectors) error {
	required := []struct {
		name  string
		cands []browser.Locator
	}{
		{"email_input", s.EmailInput},
		{"email_submit", s.EmailSubmit},
		{"password_input", s.PasswordInput},
		{"password_submit", s.PasswordSubmit},
		{"totp_input", s.TotpInput},
		{"stay_signed_in_decline", s.StaySignedInDecline},
		{"hub_link", s.HubLink},
		{"report_link", s.ReportLink},
	}
	for _, r := range required {
		if len(r.cands) == 0 {
			return fmt.Errorf("%s is required", r.name)
		}
		for i, loc := range r.cands {
			if err := loc.Validate(); err != nil {
				return fmt.Errorf("%s[%d]: %w", r.name, i, err)
			}
		}
	}
	for i, loc := range s.TotpContinue {
		if err := loc.Validate(); err != nil {
			return fmt.Errorf("totp_continue[%d]: %w", i, err)
		}
	}
	if len(s.VisualClasses) == 0 {
		return fmt.Errorf("visual_classes is required")
	}

	return nil
}
