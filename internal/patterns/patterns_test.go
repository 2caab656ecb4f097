package patterns

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want LineKind
	}{
		{"SEQ 1234 2 CA2 FO1", LineSequenceStart},
		{"SEQUENCE REPORT", LineOther}, // SEQ must end at a word boundary
		{"1 12/25 737 1234 BOS 0700 E LGA 0815 1.15", LineFlightLeg},
		{"2 12/26 320 456 LGA 0900 BOS 1015", LineFlightLeg},
		{"RPT 0600", LineReport},
		{"RPT 0600/0610", LineReport},
		{"RPTX 0600", LineOther},
		{"RLS 0900", LineRelease},
		{"LGA HYATT HOTEL 12.30", LineHotel},
		{"lga hyatt hotel", LineHotel},
		{"TTL 12.30 DUTY 9.15 BLK 8.00", LineTotals},
		{"SHUTTLE TTL", LineTotals},
		{"BOTTLE", LineOther}, // TTL requires word boundaries
		{"SOME FREE TEXT", LineOther},
		{"1 NOTE WITHOUT DATE", LineOther}, // leading digit alone is not a leg
	}

	for _, tt := range tests {
		if got := Classify(tt.line); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestIsFlightLeg(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"1 12/25 737 1234 BOS 0700", true},
		{"12 1/5 320 88 ORD 1500", true},
		{"1 12/25 737", false},      // too few tokens
		{"A 12/25 737 1234", false}, // day must be numeric
		{"1 1225 737 1234", false},  // date needs a slash
	}

	for _, tt := range tests {
		if got := IsFlightLeg(tt.line); got != tt.want {
			t.Errorf("IsFlightLeg(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestPositionPattern(t *testing.T) {
	tests := []struct {
		token string
		code  string
		count string
		want  bool
	}{
		{"CA2", "CA", "2", true},
		{"FO1", "FO", "1", true},
		{"RL3", "RL", "3", true},
		{"AP1", "AP", "1", true},
		{"RS12", "RS", "12", true},
		{"CA", "", "", false},
		{"XX2", "", "", false},
		{"CA2X", "", "", false},
	}

	for _, tt := range tests {
		m := PositionPattern.FindStringSubmatch(tt.token)
		if (m != nil) != tt.want {
			t.Errorf("PositionPattern.Match(%q) = %v, want %v", tt.token, m != nil, tt.want)
			continue
		}
		if m == nil {
			continue
		}
		if m[1] != tt.code || m[2] != tt.count {
			t.Errorf("PositionPattern(%q) = (%q, %q), want (%q, %q)", tt.token, m[1], m[2], tt.code, tt.count)
		}
	}
}

func TestLines(t *testing.T) {
	text := "  SEQ 100 1 CA1  \n\n   \nRPT 0600\nRLS 0900\n"
	want := []string{"SEQ 100 1 CA1", "RPT 0600", "RLS 0900"}

	if got := Lines(text); !reflect.DeepEqual(got, want) {
		t.Errorf("Lines() = %v, want %v", got, want)
	}
}
