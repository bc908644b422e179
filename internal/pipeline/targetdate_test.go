package pipeline

import (
	"regexp"
	"testing"
	"time"
)

func TestTargetDate(t *testing.T) {
	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2025, time.October, 18, 10, 0, 0, 0, time.Local), "17/10/2025"},
		{time.Date(2025, time.January, 1, 0, 5, 0, 0, time.Local), "31/12/2024"},
		{time.Date(2024, time.March, 1, 23, 59, 0, 0, time.Local), "29/02/2024"},
		{time.Date(2025, time.March, 1, 12, 0, 0, 0, time.Local), "28/02/2025"},
		{time.Date(2025, time.May, 10, 12, 0, 0, 0, time.Local), "09/05/2025"},
	}

	for _, tt := range tests {
		if got := TargetDate(tt.now); got != tt.want {
			t.Errorf("TargetDate(%v) = %q, want %q", tt.now, got, tt.want)
		}
	}
}

func TestTargetDateFormat(t *testing.T) {
	re := regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

	start := time.Date(2023, time.January, 1, 12, 0, 0, 0, time.Local)
	for d := 0; d < 800; d++ {
		now := start.AddDate(0, 0, d)
		got := TargetDate(now)

		if len(got) != 10 || !re.MatchString(got) {
			t.Fatalf("TargetDate(%v) = %q, not DD/MM/YYYY", now, got)
		}

		parsed, err := time.ParseInLocation(TargetDateLayout, got, time.Local)
		if err != nil {
			t.Fatalf("TargetDate(%v) = %q does not parse: %v", now, got, err)
		}
		y, m, day := now.AddDate(0, 0, -1).Date()
		py, pm, pday := parsed.Date()
		if y != py || m != pm || day != pday {
			t.Fatalf("TargetDate(%v) = %q, not previous calendar day", now, got)
		}
	}
}
