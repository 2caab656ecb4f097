package clock

import (
	"regexp"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestFromHours(t *testing.T) {
	tests := []struct {
		name  string
		hours *float64
		want  string // "" means nil
	}{
		{"ninety minutes", f64(1.5), "01:30"},
		{"zero", f64(0), "00:00"},
		{"literal decimal", f64(12.30), "12:18"},
		{"quarter past nine", f64(9.25), "09:15"},
		{"rounds to nearest minute", f64(8.999), "09:00"},
		{"over a day", f64(150.5), "150:30"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		got := FromHours(tt.hours)
		if tt.want == "" {
			if got != nil {
				t.Errorf("%s: FromHours = %q, want nil", tt.name, *got)
			}
			continue
		}
		if got == nil {
			t.Errorf("%s: FromHours = nil, want %q", tt.name, tt.want)
			continue
		}
		if *got != tt.want {
			t.Errorf("%s: FromHours = %q, want %q", tt.name, *got, tt.want)
		}
	}
}

func TestFromHoursFormat(t *testing.T) {
	clockRe := regexp.MustCompile(`^\d{2,}:\d{2}$`)

	for _, h := range []float64{0, 0.01, 0.5, 1, 1.5, 7.45, 12.30, 23.99, 99} {
		got := FromHours(&h)
		if got == nil {
			t.Fatalf("FromHours(%v) = nil, want clock string", h)
		}
		if !clockRe.MatchString(*got) {
			t.Errorf("FromHours(%v) = %q, want HH:MM shape", h, *got)
		}
	}
}

func TestFromHoursToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"1.15", "01:09"},
		{"8.00", "08:00"},
		{"8", "08:00"},
		{"", ""},
		{"N/A", ""},
	}

	for _, tt := range tests {
		got := FromHoursToken(tt.token)
		if tt.want == "" {
			if got != nil {
				t.Errorf("FromHoursToken(%q) = %q, want nil", tt.token, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("FromHoursToken(%q) = %v, want %q", tt.token, got, tt.want)
		}
	}
}

func TestFromHHMM(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"1630", "16:30"},
		{"930", "09:30"},
		{"0600/0610", "06:00"},
		{"0000", "00:00"},
		{"", ""},
		{"12345", ""},
		{"12", ""},
		{"ABCD", ""},
		{"/0610", ""},
	}

	for _, tt := range tests {
		got := FromHHMM(tt.token)
		if tt.want == "" {
			if got != nil {
				t.Errorf("FromHHMM(%q) = %q, want nil", tt.token, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("FromHHMM(%q) = %v, want %q", tt.token, got, tt.want)
		}
	}
}

func TestResolveDate(t *testing.T) {
	tests := []struct {
		token string
		month int
		year  int
		want  string
	}{
		{"12/25", 12, 2025, "2025-12-25"},
		{"1/5", 1, 2026, "2026-01-05"},
		{"25", 12, 2025, "2025-12-25"},
		{"12/X", 12, 2025, "2025-12-12"}, // second field unusable, first is the day
		{"X/Y", 12, 2025, ""},
		{"", 12, 2025, ""},
		{"12/25", 0, 2025, ""}, // unknown month
	}

	for _, tt := range tests {
		got := ResolveDate(tt.token, tt.month, tt.year)
		if tt.want == "" {
			if got != nil {
				t.Errorf("ResolveDate(%q, %d, %d) = %q, want nil", tt.token, tt.month, tt.year, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("ResolveDate(%q, %d, %d) = %v, want %q", tt.token, tt.month, tt.year, got, tt.want)
		}
	}
}
