package passcode

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Параметры совпадают с Microsoft Authenticator и большинством приложений.
var opts = totp.ValidateOpts{
	Period:    30,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// Generate возвращает 6-значный TOTP-код для момента t.
// Секрет в base32, пробелы и регистр не важны.
func Generate(secret string, t time.Time) (string, error) {
	secret = NormalizeSecret(secret)
	if secret == "" {
		return "", fmt.Errorf("totp secret is empty")
	}

	code, err := totp.GenerateCodeCustom(secret, t, opts)
	if err != nil {
		return "", fmt.Errorf("failed to generate totp code: %w", err)
	}
	return code, nil
}

func NormalizeSecret(secret string) string {
	secret = strings.ToUpper(secret)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '\t' {
			return -1
		}
		return r
	}, secret)
}
