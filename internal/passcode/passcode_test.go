package passcode

import (
	"testing"
	"time"
)

// RFC 6238, приложение B: секрет "12345678901234567890" в base32.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestGenerateRFCVectors(t *testing.T) {
	tests := []struct {
		unix int64
		want string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
	}

	for _, tt := range tests {
		got, err := Generate(rfcSecret, time.Unix(tt.unix, 0).UTC())
		if err != nil {
			t.Fatalf("Generate(%d) error: %v", tt.unix, err)
		}
		if got != tt.want {
			t.Errorf("Generate(%d) = %q, want %q", tt.unix, got, tt.want)
		}
	}
}

func TestGenerateAcceptsLooseSecret(t *testing.T) {
	at := time.Unix(59, 0)
	loose := "gezd gnbv gy3t qojq gezd gnbv gy3t qojq"

	got, err := Generate(loose, at)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got != "287082" {
		t.Errorf("Generate(loose) = %q, want %q", got, "287082")
	}
}

func TestGenerateEmptySecret(t *testing.T) {
	if _, err := Generate("  ", time.Now()); err == nil {
		t.Errorf("expected error for empty secret")
	}
}

func TestGenerateInvalidSecret(t *testing.T) {
	if _, err := Generate("not-base32!", time.Now()); err == nil {
		t.Errorf("expected error for invalid base32 secret")
	}
}
