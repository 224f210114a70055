package dates

import (
	"errors"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"iso", "2025-08-07", "2025-08-07"},
		{"rfc3339", "2025-08-07T14:30:00Z", "2025-08-07"},
		{"short month", "Aug 07 2025", "2025-08-07"},
		{"short month single digit", "Aug 7 2025", "2025-08-07"},
		{"long month", "August 7 2025", "2025-08-07"},
		{"slash ymd", "2025/08/07", "2025-08-07"},
		{"us numeric", "08/07/2025", "2025-08-07"},
		{"whitespace", "  2025-08-07  ", "2025-08-07"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q) error: %v", tt.input, err)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("Normalize(%q) = %s, want %s", tt.input, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestNormalize_Invalid(t *testing.T) {
	for _, input := range []string{"", "not a date", "sometime in 2025", "32/13/2025"} {
		if _, err := Normalize(input); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("Normalize(%q) error = %v, want ErrInvalidDate", input, err)
		}
	}
}

func TestNormalize_AmbiguousDefaultsToMonthFirst(t *testing.T) {
	// 03/04/2025 resolves to March 4, not April 3.
	got, err := Normalize("03/04/2025")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestNormalize_DayFirst(t *testing.T) {
	got, err := Parser{DayFirst: true}.Normalize("03/04/2025")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestNormalize_UnambiguousNumericFallsThrough(t *testing.T) {
	// Day > 12 cannot be a month, so the dd/MM layout catches it even with
	// the default month-first parser.
	got, err := Normalize("25/06/2025")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, time.June, 25, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	a, _ := Normalize("Aug 07 2025")
	b, _ := Normalize("Aug 07 2025")
	if !a.Equal(b) {
		t.Error("repeated calls should return identical dates")
	}
}
