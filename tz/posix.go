package tz

import (
	"strconv"
	"strings"
)

// ParsePosixString parses a POSIX-TZ rule string of the form
// "std offset[dst[offset][,start[/time],end[/time]]]" (whitespace-free),
// returning the zone name (the text before the first comma, e.g. "EST5EDT")
// and a ready-to-use Zone.
//
// offset is "[+-]H[:M[:S]]"; per the POSIX sign convention a bare (unsigned)
// value means *west* of UTC, so "EST5EDT" means EST is UTC-5 — the default
// sign is negative, and a leading '+' is what makes an offset positive.
//
// start/end are "Mm.w.d[/time]": m is the month (1-12), w is the
// occurrence of weekday d within the month (1-5, or -1 to -5 counting
// back from the month's end), d is the weekday (0=Sunday).
func ParsePosixString(s string) (string, *PosixZone, error) {
	if s == "" {
		return "", nil, ErrInvalid
	}

	parts := strings.Split(s, ",")
	if len(parts) != 1 && len(parts) != 3 {
		return "", nil, ErrInvalid
	}

	z := newPosixZone()

	name := parts[0]
	rest := parts[0]
	_, abbr, rest, err := parsePosixAbbr(rest)
	if err != nil {
		return "", nil, ErrAbbr
	}
	z.Abbr = abbr

	offset, rest, err := parsePosixOffset(rest)
	if err != nil {
		return "", nil, ErrOffset
	}
	z.Offset = offset

	if len(parts) == 1 {
		if rest != "" {
			return "", nil, ErrInvalid
		}
		return name, z, nil
	}

	_, dstAbbr, rest, err := parsePosixAbbr(rest)
	if err != nil || dstAbbr == "" {
		return "", nil, ErrDstAbbr
	}
	z.AbbrDST = dstAbbr

	var dstOffset int64
	if rest == "" {
		dstOffset = z.Offset + 3600
	} else {
		dstOffset, rest, err = parsePosixOffset(rest)
		if err != nil {
			return "", nil, ErrDstOffset
		}
	}
	if rest != "" {
		return "", nil, ErrInvalid
	}
	z.OffsetDST = dstOffset

	rule, err := parsePosixDSTAdjustRule(parts[1], parts[2], 0, z.Offset, z.OffsetDST)
	if err != nil {
		return "", nil, err
	}
	if rule != nil {
		z.addDSTAdjust(rule)
	}

	return name, z, nil
}

func parsePosixAbbr(s string) (name, abbr, rest string, err error) {
	i := 0
	for i < len(s) && isAlpha(s[i]) {
		i++
	}
	if i == 0 {
		return "", "", s, ErrAbbr
	}
	return s[:i], s[:i], s[i:], nil
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// parsePosixOffset parses a leading "[+-]H[:M[:S]]" run from s, returning
// the offset in the "add to UTC to get local" convention and whatever
// remains of s.
func parsePosixOffset(s string) (int64, string, error) {
	i := 0
	for i < len(s) && (isDigit(s[i]) || s[i] == ':' || s[i] == '-' || s[i] == '+') {
		i++
	}
	token, rest := s[:i], s[i:]

	if token == "" {
		return -3600, rest, nil // an absent offset defaults to one hour behind UTC.
	}

	neg := true
	if token[0] == '+' {
		neg = false
		token = token[1:]
	} else if token[0] == '-' {
		token = token[1:]
	}

	hms := strings.SplitN(token, ":", 3)
	if len(hms) > 3 {
		return 0, rest, ErrOffset
	}
	var hour, min, sec int64
	var err error
	if hms[0] != "" {
		hour, err = strconv.ParseInt(hms[0], 10, 64)
		if err != nil {
			return 0, rest, ErrOffset
		}
	}
	if len(hms) >= 2 && hms[1] != "" {
		min, err = strconv.ParseInt(hms[1], 10, 64)
		if err != nil {
			return 0, rest, ErrOffset
		}
	}
	if len(hms) >= 3 && hms[2] != "" {
		sec, err = strconv.ParseInt(hms[2], 10, 64)
		if err != nil {
			return 0, rest, ErrOffset
		}
	}

	v := hour*3600 + min*60 + sec
	if neg {
		v = -v
	}
	return v, rest, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// parsePosixDateTime parses "Mm.w.d[/time]" into a DstChange.
func parsePosixDateTime(s string) (DstChange, error) {
	var c DstChange
	datePart, timePart, hasTime := strings.Cut(s, "/")

	if len(datePart) == 0 || datePart[0] != 'M' {
		return c, ErrDate
	}
	dateFields := strings.Split(datePart[1:], ".")
	if len(dateFields) != 3 {
		return c, ErrDate
	}
	month, err1 := strconv.Atoi(dateFields[0])
	occur, err2 := strconv.Atoi(dateFields[1])
	wday, err3 := strconv.Atoi(dateFields[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return c, ErrDate
	}
	if month < 1 || month > 12 || occur < -5 || occur > 5 || occur == 0 || wday < 0 || wday > 6 {
		return c, ErrDate
	}
	c.Month, c.Occur, c.Wday = month, occur, wday

	// default: 2:00 AM local.
	c.Hour = 2
	if hasTime && timePart != "" {
		hour, rest, err := parsePosixClockTime(timePart)
		if err != nil || rest != "" {
			return c, ErrTime
		}
		c.Hour = hour.hour
		c.Min = hour.min
		c.Sec = hour.sec
	}

	return c, nil
}

type clockTime struct{ hour, min, sec int }

func parsePosixClockTime(s string) (clockTime, string, error) {
	i := 0
	for i < len(s) && (isDigit(s[i]) || s[i] == ':') {
		i++
	}
	token, rest := s[:i], s[i:]
	parts := strings.SplitN(token, ":", 3)
	var ct clockTime
	var err error
	if len(parts) >= 1 && parts[0] != "" {
		ct.hour, err = strconv.Atoi(parts[0])
		if err != nil {
			return ct, rest, ErrTime
		}
	}
	if len(parts) >= 2 && parts[1] != "" {
		ct.min, err = strconv.Atoi(parts[1])
		if err != nil {
			return ct, rest, ErrTime
		}
	}
	if len(parts) >= 3 && parts[2] != "" {
		ct.sec, err = strconv.Atoi(parts[2])
		if err != nil {
			return ct, rest, ErrTime
		}
	}
	return ct, rest, nil
}

func parsePosixDSTAdjustRule(startStr, endStr string, year int64, offset, offsetDST int64) (*DstRule, error) {
	if startStr == "" || endStr == "" {
		return nil, nil
	}

	start, err := parsePosixDateTime(startStr)
	if err != nil {
		return nil, err
	}
	end, err := parsePosixDateTime(endStr)
	if err != nil {
		return nil, err
	}

	return &DstRule{
		Year:      year,
		Offset:    offset,
		OffsetDST: offsetDST,
		Start:     start,
		End:       end,
	}, nil
}
