package checksum

import (
	"crypto/sha256"
	"fmt"
	"os"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Sum возвращает hex SHA256 содержимого артефакта.
func (g *Generator) Sum(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// SumFile считает SHA256 файла на диске.
func (g *Generator) SumFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return g.Sum(data), nil
}

// VerifyFile проверяет, что файл на диске не изменился с момента снимка.
func (g *Generator) VerifyFile(expectedHash, path string) (bool, error) {
	computed, err := g.SumFile(path)
	if err != nil {
		return false, err
	}
	return computed == expectedHash, nil
}
