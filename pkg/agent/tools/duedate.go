package tools

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dueDateLayout = "2006-01-02"

var (
	ErrDueDateFormat = errors.New("due date is not a valid YYYY-MM-DD date")
	ErrDueDatePast   = errors.New("due date is in the past")

	fullDatePattern = regexp.MustCompile(`^(\d{1,4})-(\d{1,2})-(\d{1,2})$`)
	monthDayPattern = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})$`)
)

// ParseDueDate reads a YYYY-MM-DD date in now's location. Transcribed dates
// often lose the year, so a missing year or one before 2000 becomes the
// current year. The result is midnight and must not be before today.
func ParseDueDate(raw string, now time.Time) (time.Time, error) {
	due, err := parseCalendarDate(raw, now)
	if err != nil {
		return time.Time{}, err
	}
	if due.Before(midnight(now)) {
		return time.Time{}, ErrDueDatePast
	}
	return due, nil
}

// CanonicalDueDate renders every accepted spelling of a day as YYYY-MM-DD.
// Unparseable input is returned trimmed.
func CanonicalDueDate(raw string, now time.Time) string {
	due, err := parseCalendarDate(raw, now)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return due.Format(dueDateLayout)
}

func parseCalendarDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	var year, month, day int
	if m := fullDatePattern.FindStringSubmatch(raw); m != nil {
		year, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		day, _ = strconv.Atoi(m[3])
	} else if m := monthDayPattern.FindStringSubmatch(raw); m != nil {
		month, _ = strconv.Atoi(m[1])
		day, _ = strconv.Atoi(m[2])
	} else {
		return time.Time{}, ErrDueDateFormat
	}

	if year < 2000 {
		year = now.Year()
	}

	due := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
	// time.Date normalizes 02-30 to March; reject instead.
	if due.Year() != year || int(due.Month()) != month || due.Day() != day {
		return time.Time{}, ErrDueDateFormat
	}
	return due, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
