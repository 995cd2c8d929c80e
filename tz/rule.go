package tz

// PosixZone is a rule-based zone: a fixed standard offset, an optional
// daylight offset, and per-year DST adjustment windows. It backs both
// POSIX-TZ strings and the INI/Windows-zone inputs, which all reduce to
// the same { std offset, dst offset, per-year start/end } shape.
type PosixZone struct {
	Abbr      string
	Offset    int64 // seconds, added to UTC to get local time (so EST stores -18000)
	AbbrDST   string
	OffsetDST int64
	adjusts   dstRules
}

func newPosixZone() *PosixZone {
	return &PosixZone{}
}

func (z *PosixZone) addDSTAdjust(r *DstRule) bool {
	if r == nil {
		return true
	}
	return z.adjusts.insert(r)
}

// isDSTAt mirrors the source's fall-back/spring-forward disambiguation: a
// local wall-clock time near a transition can fall in a window that occurs
// twice (fall back) or never (spring forward). The isdst hint on lt breaks
// the tie for the doubled window; a time in the never-occurs window is
// reported as DST whatever the hint (ToUTC then applies the standard
// offset to it).
func (z *PosixZone) isDSTAt(rule *DstRule, lt *LocalTime) bool {
	dstStart, ok1 := changeToTime(&rule.Start, lt.Year)
	dstEnd, ok2 := changeToTime(&rule.End, lt.Year)
	if !ok1 || !ok2 {
		return false
	}

	cur := lt.asUTCUnix()
	offsetDiff := abs64(rule.Offset) - abs64(rule.OffsetDST)
	isdstHint := lt.IsDST == 1

	switch {
	case dstStart < dstEnd:
		// DST window in the middle of the year (northern hemisphere shape).
		if !isdstHint && cur <= dstEnd && cur >= dstEnd-offsetDiff {
			return false
		}
		return cur >= dstStart && cur <= dstEnd
	case dstStart > dstEnd:
		// DST window wraps the year boundary (southern hemisphere shape).
		if !isdstHint && cur <= dstStart && cur >= dstStart-offsetDiff {
			return false
		}
		return cur >= dstStart || cur <= dstEnd
	default:
		return cur == dstStart
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (z *PosixZone) offsetAndDST(lt *LocalTime) (offset int64, isdst bool) {
	rule := z.adjusts.ruleForYear(int64(lt.Year))
	if rule == nil {
		return z.Offset, false
	}
	if rule.Start.Month == 0 || !z.isDSTAt(rule, lt) {
		return rule.Offset, false
	}
	return rule.OffsetDST, true
}

// ToUTC implements Zone. Offset is stored in the "add to UTC to get local"
// convention, so recovering UTC subtracts it back off. A wall-clock time in
// the spring-forward gap, which never occurs, is read with the standard
// offset whatever lt.IsDST says.
func (z *PosixZone) ToUTC(lt *LocalTime) (int64, error) {
	offset, isdst := z.offsetAndDST(lt)
	if isdst {
		rule := z.adjusts.ruleForYear(int64(lt.Year))
		if start, ok := changeToTime(&rule.Start, lt.Year); ok {
			cur := lt.asUTCUnix()
			if cur >= start && cur < start+(rule.OffsetDST-rule.Offset) {
				offset = rule.Offset
			}
		}
	}
	return lt.asUTCUnix() - offset, nil
}

// ToLocal implements Zone.
func (z *PosixZone) ToLocal(utcSec int64) LocalTime {
	var lt LocalTime

	if len(z.adjusts.rules) == 0 {
		fillFromUnixUTC(utcSec+z.Offset, &lt)
		lt.GMTOff = z.Offset
		lt.Abbr = z.Abbr
		return lt
	}

	// First pass: find the year the gmt timestamp falls in, to pick a
	// candidate rule, matching the source's two-pass togm/offset lookup.
	var probe LocalTime
	fillFromUnixUTC(utcSec, &probe)
	rule := z.adjusts.ruleForYear(int64(probe.Year))

	adjusted := utcSec + rule.Offset
	fillFromUnixUTC(adjusted, &lt)

	offset, isdst := z.offsetAndDST(&lt)
	fillFromUnixUTC(utcSec+offset, &lt)
	lt.GMTOff = offset
	lt.IsDST = 0
	if isdst {
		lt.IsDST = 1
		lt.Abbr = z.AbbrDST
	}
	if lt.Abbr == "" {
		lt.Abbr = z.Abbr
	}
	return lt
}

var _ Zone = (*PosixZone)(nil)
