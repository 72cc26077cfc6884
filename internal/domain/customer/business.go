package customer

import "time"

// over7YearsDays is the day count after which a business counts as 7+ years old
const over7YearsDays = 2555

// DaysSince returns whole calendar days between from and now
func DaysSince(from, now time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// IsOver7Years reports whether more than 2555 days have passed since founding
func IsOver7Years(founding, now time.Time) bool {
	return DaysSince(founding, now) > over7YearsDays
}

// BusinessAge returns completed years since founding
func BusinessAge(founding, now time.Time) int {
	years := now.Year() - founding.Year()
	if now.Month() < founding.Month() || (now.Month() == founding.Month() && now.Day() < founding.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
