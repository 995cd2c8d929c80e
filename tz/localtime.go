package tz

import "time"

// LocalTime is a broken-down civil time, analogous to a struct tm plus the
// zone metadata (gmtoff/abbr/isdst) a conversion fills in.
//
// IsDST follows the tri-state hint used by ToUTC to disambiguate the
// fall-back window: 1 means "treat as DST", 0 means "treat as standard",
// -1 means "unknown, pick the later transition".
type LocalTime struct {
	Year   int
	Month  int // 1-12
	Day    int
	Hour   int
	Min    int
	Sec    int
	Wday   int // 0=Sunday, filled in by ToLocal; advisory on input to ToUTC
	Yday   int // filled in by ToLocal
	IsDST  int
	GMTOff int64
	Abbr   string
}

// asUTCUnix treats the civil fields as if they were UTC, matching the
// source's M_time_fromgm: no zone math, just calendar-to-epoch.
func (lt *LocalTime) asUTCUnix() int64 {
	return time.Date(lt.Year, time.Month(lt.Month), lt.Day, lt.Hour, lt.Min, lt.Sec, 0, time.UTC).Unix()
}

// fillFromUnixUTC is the reverse: M_time_togm. It overwrites every civil
// field, including Wday/Yday, but leaves IsDST/GMTOff/Abbr for the caller
// to set afterward (M_time_togm does not populate them either).
func fillFromUnixUTC(sec int64, lt *LocalTime) {
	t := time.Unix(sec, 0).UTC()
	lt.Year = t.Year()
	lt.Month = int(t.Month())
	lt.Day = t.Day()
	lt.Hour = t.Hour()
	lt.Min = t.Minute()
	lt.Sec = t.Second()
	lt.Wday = int(t.Weekday())
	lt.Yday = t.YearDay() - 1
}

func daysInMonth(year, month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	// day 0 of next month == last day of this month.
	t := time.Date(year, time.Month(month+1), 0, 0, 0, 0, 0, time.UTC)
	return t.Day()
}

func isValidDay(year, month, day int) bool {
	return day >= 1 && day <= daysInMonth(year, month)
}
