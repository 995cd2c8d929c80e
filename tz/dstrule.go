package tz

import "sort"

// DstChange describes one edge of a DST adjustment window: "the occur-th
// wday of month at hour:min:sec". A negative occur counts backward from
// the end of the month (-1 is "last").
type DstChange struct {
	Month int
	Occur int
	Wday  int
	Hour  int
	Min   int
	Sec   int
}

// changeToTime computes the UTC instant (civil fields read as UTC, matching
// asUTCUnix elsewhere in this package) at which the given year's change
// falls, per the general civil-calendar occurrence formula: find the
// weekday of day 1 (or the last day, for a backward search), then walk
// forward/backward to the requested occurrence.
func changeToTime(c *DstChange, year int) (int64, bool) {
	if c.Occur == 0 {
		return 0, false
	}

	var startDay int
	if c.Occur > 0 {
		startDay = 1
	} else {
		startDay = daysInMonth(year, c.Month)
		if startDay == 0 {
			return 0, false
		}
	}

	var probe LocalTime
	probe.Year = year
	probe.Month = c.Month
	probe.Day = startDay
	fillFromUnixUTC(probe.asUTCUnix(), &probe)
	wday := probe.Wday

	var day int
	if c.Occur > 0 {
		day = 1 - wday + c.Wday
		if day < 1 {
			day += 7
		}
		day += 7 * (c.Occur - 1)
	} else {
		day = startDay - (wday - c.Wday)
		if day > startDay {
			day -= 7
		}
		day += 7 * (c.Occur + 1)
	}

	if !isValidDay(year, c.Month, day) {
		return 0, false
	}

	out := LocalTime{Year: year, Month: c.Month, Day: day, Hour: c.Hour, Min: c.Min, Sec: c.Sec}
	return out.asUTCUnix(), true
}

// DstRule is one year's DST adjustment: the standard/daylight offsets and
// the wall-clock window (in the local, adjusted sense) during which
// daylight offset applies.
type DstRule struct {
	Year      int64
	Offset    int64 // seconds; applied outside the DST window
	OffsetDST int64 // seconds; applied inside the DST window
	Start     DstChange
	End       DstChange
}

// dstRules is a list of DstRule sorted strictly descending by Year,
// mirroring the invariant on the TZ Olson/DST-rule lists: newest first.
type dstRules struct {
	rules []*DstRule
}

func (d *dstRules) insert(r *DstRule) bool {
	for _, existing := range d.rules {
		if existing.Year == r.Year {
			return false
		}
	}
	idx := sort.Search(len(d.rules), func(i int) bool { return d.rules[i].Year <= r.Year })
	d.rules = append(d.rules, nil)
	copy(d.rules[idx+1:], d.rules[idx:])
	d.rules[idx] = r
	return true
}

// ruleForYear returns the rule that applies to year: the most recent rule
// whose Year <= year, or the earliest rule in the list if year precedes
// every rule (the earliest rule is treated as applying to all time before
// it, matching the source's M_time_tz_dst_rules_get_rule).
func (d *dstRules) ruleForYear(year int64) *DstRule {
	if len(d.rules) == 0 {
		return nil
	}
	for _, r := range d.rules {
		if r.Year <= year {
			return r
		}
	}
	return d.rules[len(d.rules)-1]
}
