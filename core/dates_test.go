package core

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseCellDate(t *testing.T) {
	tests := []struct {
		name    string
		val     string
		want    time.Time
		wantErr bool
	}{
		{name: "empty", val: "", wantErr: true},
		{name: "whitespace", val: "   ", wantErr: true},
		{name: "garbage", val: "not a date", wantErr: true},
		{name: "ISO", val: "2024-07-01", want: date(2024, time.July, 1)},
		{name: "ISO non-padded", val: "2024-7-1", want: date(2024, time.July, 1)},
		{name: "RFC3339", val: "2024-07-01T09:30:00Z", want: date(2024, time.July, 1)},
		{name: "DD/MM/YYYY", val: "31/12/2023", want: date(2023, time.December, 31)},
		{name: "D/M/YYYY", val: "1/7/2024", want: date(2024, time.July, 1)},
		{name: "DD-MM-YYYY", val: "31-12-2023", want: date(2023, time.December, 31)},
		{name: "serial epoch check", val: "25569", want: date(1970, time.January, 1)},
		{name: "serial", val: "45292", want: date(2024, time.January, 1)},
		{name: "serial with time fraction", val: "25569.75", want: date(1970, time.January, 1)},
		{name: "serial out of range", val: "99999999", wantErr: true},
		{name: "negative serial", val: "-5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCellDate(tt.val)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCellDate(%q) error = %v, wantErr %v", tt.val, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseCellDate(%q) = %v, want %v", tt.val, got, tt.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{name: "same day", from: date(2024, time.July, 1), to: date(2024, time.July, 1), want: 0},
		{name: "forward", from: date(2024, time.July, 1), to: date(2024, time.August, 1), want: 31},
		{name: "backward", from: date(2024, time.August, 1), to: date(2024, time.July, 1), want: -31},
		{
			name: "time of day ignored",
			from: time.Date(2024, time.July, 1, 23, 59, 0, 0, time.UTC),
			to:   time.Date(2024, time.July, 2, 0, 1, 0, 0, time.UTC),
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.from, tt.to); got != tt.want {
				t.Errorf("DaysBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAddMonths(t *testing.T) {
	start := date(2024, time.January, 1)
	if got := AddMonths(start, 6); !got.Equal(date(2024, time.July, 1)) {
		t.Errorf("AddMonths() = %v, want 2024-07-01", got)
	}
	if got := AddMonths(start, 42); !got.Equal(date(2027, time.July, 1)) {
		t.Errorf("AddMonths() = %v, want 2027-07-01", got)
	}
}
