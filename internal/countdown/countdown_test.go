package countdown

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDays(t *testing.T) {
	tests := []struct {
		name      string
		birthDate time.Time
		today     time.Time
		want      int
	}{
		{
			name:      "occurrence is today",
			birthDate: date(1990, time.June, 15),
			today:     date(2026, time.June, 15),
			want:      0,
		},
		{
			name:      "occurrence is tomorrow",
			birthDate: date(1990, time.June, 16),
			today:     date(2026, time.June, 15),
			want:      1,
		},
		{
			name:      "occurrence later this year",
			birthDate: date(1985, time.December, 31),
			today:     date(2026, time.December, 1),
			want:      30,
		},
		{
			name:      "occurrence passed yesterday, wraps to next year",
			birthDate: date(1990, time.June, 14),
			today:     date(2026, time.June, 15),
			want:      364,
		},
		{
			name:      "wrap across a leap year counts the extra day",
			birthDate: date(1990, time.March, 1),
			today:     date(2027, time.March, 2),
			// next occurrence is 2028-03-01; 2028 is a leap year, so
			// February contributes 29 days.
			want: 365,
		},
		{
			name:      "january birthday seen from december",
			birthDate: date(2000, time.January, 5),
			today:     date(2026, time.December, 30),
			want:      6,
		},
		{
			name:      "feb 29 in a leap year stays on feb 29",
			birthDate: date(1992, time.February, 29),
			today:     date(2028, time.February, 1),
			want:      28,
		},
		{
			name:      "feb 29 normalizes to mar 1 in a non-leap year",
			birthDate: date(1992, time.February, 29),
			today:     date(2026, time.February, 28),
			want:      1,
		},
		{
			name:      "time of day is ignored",
			birthDate: time.Date(1990, time.June, 15, 23, 59, 0, 0, time.UTC),
			today:     time.Date(2026, time.June, 15, 8, 30, 0, 0, time.UTC),
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Days(tt.birthDate, tt.today); got != tt.want {
				t.Errorf("Days() = %d, want %d", got, tt.want)
			}
		})
	}
}

// The result must always land in [0, 366] no matter how the inputs combine.
func TestDays_Range(t *testing.T) {
	birth := date(1970, time.August, 20)
	for day := 0; day < 730; day++ {
		today := date(2026, time.January, 1).AddDate(0, 0, day)
		got := Days(birth, today)
		if got < 0 || got > 366 {
			t.Fatalf("Days() = %d out of range for today=%s", got, today)
		}
	}
}
