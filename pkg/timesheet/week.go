package timesheet

import "time"

// WeekStart returns the anchor date of the week containing date. Any weekday other than Sunday or Monday
// falls back to Monday.
func WeekStart(date time.Time, firstDay time.Weekday) time.Time {
	if firstDay != time.Sunday && firstDay != time.Monday {
		firstDay = time.Monday
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	delta := (int(day.Weekday()) - int(firstDay) + 7) % 7
	return day.AddDate(0, 0, -delta)
}

// WeekEnd is the last day of the week anchored at weekStart.
func WeekEnd(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, DaysInWeek-1)
}

func PreviousWeek(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, -DaysInWeek)
}

// Day returns the date of day index i (0 = anchor day) of the week.
func Day(weekStart time.Time, i int) time.Time {
	return weekStart.AddDate(0, 0, i)
}
