package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

func LoadConfig(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			// Логируем, но не возвращаем — иначе перезапишем основную ошибку
			log.Printf("Warning: failed to close config file: %v", closeErr)
		}
	}()

	var cfg Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &cfg, nil
}

// Credentials хранит учётные данные портала. Только из окружения, нигде не сохраняются.
type Credentials struct {
	Username   string
	Password   string
	TOTPSecret string
}

const (
	EnvUser       = "PBI_USER"
	EnvPass       = "PBI_PASS"
	EnvTOTPSecret = "PBI_TOTP_SECRET"
)

// LoadCredentials подтягивает .env (если есть) и читает переменные окружения.
// Пустые значения не проверяются: стадия логина упадёт сама на обязательном поле.
func LoadCredentials(envFiles ...string) Credentials {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				log.Printf("Warning: failed to load %s: %v", f, err)
			}
		}
	}

	return Credentials{
		Username:   os.Getenv(EnvUser),
		Password:   os.Getenv(EnvPass),
		TOTPSecret: os.Getenv(EnvTOTPSecret),
	}
}
