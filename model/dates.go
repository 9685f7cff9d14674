// Package model defines the persistent data model of the timeline engine:
// series, snapshots, entities, point-in-time records and historical events,
// plus the in-game calendar and the attitude lattice that gates visibility.
package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/errors"
)

// EpochYear anchors the day index: day 0 is EpochYear.01.01.
// The in-game calendar has 12 months of 30 days, no leap handling.
const EpochYear = 2200

// DateToDays converts an in-game date string ("2234.06.14") to the number of
// days elapsed since EpochYear.01.01. Dates before the epoch yield negative
// values, which callers treat as "unknown/ancient".
func DateToDays(date string) (int, error) {
	parts := strings.Split(date, ".")
	if len(parts) != 3 {
		return 0, errors.Newf("malformed date %q", date)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, errors.Wrapf(err, "malformed year in date %q", date)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, errors.Wrapf(err, "malformed month in date %q", date)
	}
	d, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, errors.Wrapf(err, "malformed day in date %q", date)
	}
	return (y-EpochYear)*360 + (m-1)*30 + (d - 1), nil
}

// DaysToDate converts a day index back to the "YYYY.MM.DD" form.
func DaysToDate(days int) string {
	yearOffset := days / 360
	days -= 360 * yearOffset
	monthOffset := days / 30
	day := days - 30*monthOffset + 1
	return fmt.Sprintf("%04d.%02d.%02d", EpochYear+yearOffset, monthOffset+1, day)
}
