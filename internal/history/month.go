package history

import (
	"fmt"
	"time"

	"github.com/yourname/moodlog/internal"
)

const monthLayout = "2006-01"

// ParseMonth validates a YYYY-MM key.
func ParseMonth(key string) (int, time.Month, error) {
	t, err := time.Parse(monthLayout, key)
	if err != nil || t.Format(monthLayout) != key {
		return 0, 0, fmt.Errorf("history: month %q: %w", key, internal.ErrValidation)
	}
	return t.Year(), t.Month(), nil
}

// ShiftMonth moves a YYYY-MM key by delta months, rolling the year over.
func ShiftMonth(key string, delta int) (string, error) {
	year, month, err := ParseMonth(key)
	if err != nil {
		return "", err
	}
	n := year*12 + int(month) - 1 + delta
	return fmt.Sprintf("%04d-%02d", n/12, n%12+1), nil
}

// CurrentMonth is the month key of now in the display zone.
func CurrentMonth(now time.Time) string {
	return now.In(internal.DisplayZone).Format(monthLayout)
}
