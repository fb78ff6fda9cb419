package cursorid

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantModel string
		wantTime  time.Time
		wantErr   bool
	}{
		{
			name:      "normal cursor",
			raw:       "1234-20240315123045678",
			wantModel: "1234",
			wantTime:  time.Date(2024, 3, 15, 12, 30, 45, 678*int(time.Millisecond), time.UTC),
		},
		{
			name:      "model id containing dashes",
			raw:       "abc-def-20231231235959000",
			wantModel: "abc-def",
			wantTime:  time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:    "empty string",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "no separator",
			raw:     "20240315123045678",
			wantErr: true,
		},
		{
			name:    "trailing separator",
			raw:     "1234-",
			wantErr: true,
		},
		{
			name:    "short timestamp",
			raw:     "1234-20240315123045",
			wantErr: true,
		},
		{
			name:    "non-digit timestamp",
			raw:     "1234-2024031512304567x",
			wantErr: true,
		},
		{
			name:    "impossible date",
			raw:     "1234-20241345123045678",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Fatalf("Parse(%q) error = %v, want ErrInvalid", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.raw, err)
			}
			if got.Model != tt.wantModel {
				t.Errorf("Model = %q, want %q", got.Model, tt.wantModel)
			}
			if !got.Time.Equal(tt.wantTime) {
				t.Errorf("Time = %v, want %v", got.Time, tt.wantTime)
			}
			if got.String() != tt.raw {
				t.Errorf("String() = %q, want %q", got.String(), tt.raw)
			}
		})
	}
}

func TestNewer(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"later timestamp is newer", "1-20240102000000000", "1-20240101000000000", true},
		{"earlier timestamp is older", "1-20240101000000000", "1-20240102000000000", false},
		{"millisecond resolution", "1-20240101000000001", "1-20240101000000000", true},
		{"timestamp beats model id", "1-20240102000000000", "9-20240101000000000", true},
		{"tie falls back to raw id", "2-20240101000000000", "1-20240101000000000", true},
		{"parsable before unparsable", "1-20240101000000000", "garbage", true},
		{"unparsable after parsable", "garbage", "1-20240101000000000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Newer(tt.a, tt.b); got != tt.want {
				t.Errorf("Newer(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSort(t *testing.T) {
	ids := []string{
		"7-20240101000000000",
		"bad",
		"7-20240301000000000",
		"7-20240201000000000",
	}
	Sort(ids)

	want := []string{
		"7-20240301000000000",
		"7-20240201000000000",
		"7-20240101000000000",
		"bad",
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("Sort() = %v, want %v", ids, want)
		}
	}
}
