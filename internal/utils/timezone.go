package utils

import "time"

// NowInTimezone returns the current instant in the named zone, falling back
// to UTC when the zone is unknown.
func NowInTimezone(tz string) time.Time {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return time.Now().In(loc)
}

func CurrentDateInTimezone(tz string) string {
	return NowInTimezone(tz).Format("2006-01-02")
}

func CurrentTimeInTimezone(tz string) string {
	return NowInTimezone(tz).Format("15:04")
}
