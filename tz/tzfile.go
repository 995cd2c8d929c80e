package tz

import (
	"encoding/binary"
	"errors"
)

// OlsonZone is a zone backed by a parsed Olson/zoneinfo tzfile transition
// table, as opposed to PosixZone's per-year rule computation.
type OlsonZone struct {
	transitions *transitionList
}

const tzifMagic = "TZif"

var errBadTZif = errors.New("tz: malformed tzfile")

// ParseTZif parses a tzfile (man 5 tzfile) byte stream, preferring the
// version-2+ 64-bit data block when present for full time_t range.
func ParseTZif(data []byte) (*OlsonZone, error) {
	v1, rest, err := parseTZifBlock(data, false)
	if err != nil {
		return nil, ErrInvalid
	}

	if len(data) < 5 || (data[4] != '2' && data[4] != '3') {
		return &OlsonZone{transitions: newTransitionList(v1)}, nil
	}

	// Version 2+: a second header+block follows using 64-bit transition
	// times, which supersedes the 32-bit block just parsed.
	v2, _, err := parseTZifBlock(rest, true)
	if err != nil {
		return &OlsonZone{transitions: newTransitionList(v1)}, nil
	}
	return &OlsonZone{transitions: newTransitionList(v2)}, nil
}

// parseTZifBlock parses one header+data block starting at buf[0], returning
// the transitions and the remainder of buf after this block.
func parseTZifBlock(buf []byte, is64 bool) ([]transition, []byte, error) {
	if len(buf) < 44 || string(buf[:4]) != tzifMagic {
		return nil, nil, errBadTZif
	}

	isutcnt := binary.BigEndian.Uint32(buf[20:24])
	isstdcnt := binary.BigEndian.Uint32(buf[24:28])
	leapcnt := binary.BigEndian.Uint32(buf[28:32])
	timecnt := binary.BigEndian.Uint32(buf[32:36])
	typecnt := binary.BigEndian.Uint32(buf[36:40])
	charcnt := binary.BigEndian.Uint32(buf[40:44])

	if typecnt == 0 || typecnt != isstdcnt || typecnt != isutcnt {
		return nil, nil, errBadTZif
	}

	off := 44
	timeSize := 4
	if is64 {
		timeSize = 8
	}

	need := off + int(timecnt)*timeSize + int(timecnt) + int(typecnt)*6 + int(charcnt) +
		int(leapcnt)*(timeSize+4) + int(isstdcnt) + int(isutcnt)
	if len(buf) < need {
		return nil, nil, errBadTZif
	}

	transitionTimes := make([]int64, timecnt)
	for i := range transitionTimes {
		if is64 {
			transitionTimes[i] = int64(binary.BigEndian.Uint64(buf[off : off+8]))
			off += 8
		} else {
			transitionTimes[i] = int64(int32(binary.BigEndian.Uint32(buf[off : off+4])))
			off += 4
		}
	}

	typeIdx := make([]byte, timecnt)
	copy(typeIdx, buf[off:off+int(timecnt)])
	off += int(timecnt)

	type ttinfo struct {
		gmtoff  int32
		isdst   bool
		abbrind byte
	}
	ttinfos := make([]ttinfo, typecnt)
	for i := range ttinfos {
		ttinfos[i].gmtoff = int32(binary.BigEndian.Uint32(buf[off : off+4]))
		ttinfos[i].isdst = buf[off+4] != 0
		ttinfos[i].abbrind = buf[off+5]
		off += 6
		if int(ttinfos[i].abbrind) >= int(charcnt) {
			return nil, nil, errBadTZif
		}
	}

	abbrBlob := buf[off : off+int(charcnt)]
	off += int(charcnt)

	// Leap seconds, std/wall and UT/local indicator arrays are parsed by
	// the source but never consulted for UTC<->local conversion; skip.
	off += int(leapcnt) * (timeSize + 4)
	off += int(isstdcnt)
	off += int(isutcnt)

	out := make([]transition, timecnt)
	for i := range out {
		ti := int(typeIdx[i])
		if ti >= len(ttinfos) {
			return nil, nil, errBadTZif
		}
		tt := ttinfos[ti]
		out[i] = transition{
			start:  transitionTimes[i],
			offset: int64(tt.gmtoff),
			isDST:  tt.isdst,
			abbr:   readNulString(abbrBlob, int(tt.abbrind)),
		}
	}

	return out, buf[off:], nil
}

func readNulString(blob []byte, start int) string {
	if start >= len(blob) {
		return ""
	}
	end := start
	for end < len(blob) && blob[end] != 0 {
		end++
	}
	return string(blob[start:end])
}

// ToLocal implements Zone.
func (z *OlsonZone) ToLocal(utcSec int64) LocalTime {
	var lt LocalTime
	tr := z.transitions.at(utcSec)
	if tr == nil {
		fillFromUnixUTC(utcSec, &lt)
		return lt
	}
	fillFromUnixUTC(utcSec+tr.offset, &lt)
	lt.GMTOff = tr.offset
	lt.Abbr = tr.abbr
	if tr.isDST {
		lt.IsDST = 1
	}
	return lt
}

// ToUTC implements Zone, disambiguating the fall-back/spring-forward
// windows by sampling the transitions a day on either side of the naive
// "local read as UTC" instant and picking between them per lt.IsDST.
func (z *OlsonZone) ToUTC(lt *LocalTime) (int64, error) {
	t0 := lt.asUTCUnix()
	before := z.transitions.at(t0 - 86400)
	after := z.transitions.at(t0 + 86400)

	validBefore := before != nil && t0-before.offset >= before.start
	validAfter := after != nil && t0-after.offset >= after.start

	switch {
	case validBefore && !validAfter:
		return t0 - before.offset, nil
	case validAfter && !validBefore:
		return t0 - after.offset, nil
	case validBefore && validAfter:
		if before.isDST != after.isDST {
			switch lt.IsDST {
			case 1:
				if before.isDST {
					return t0 - before.offset, nil
				}
				return t0 - after.offset, nil
			case 0:
				if !before.isDST {
					return t0 - before.offset, nil
				}
				return t0 - after.offset, nil
			}
		}
		// Ambiguous (same DST-ness on both sides, or isdst unknown): the
		// later transition wins.
		if before.start >= after.start {
			return t0 - before.offset, nil
		}
		return t0 - after.offset, nil
	default:
		return 0, ErrInvalid
	}
}

var _ Zone = (*OlsonZone)(nil)
