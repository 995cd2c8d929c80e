package tz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newEasternZone(t *testing.T) *PosixZone {
	t.Helper()
	name, z, err := ParsePosixString("EST5EDT,M3.2.0/02:00:00,M11.1.0/02:00:00")
	require.NoError(t, err)
	require.Equal(t, "EST5EDT", name)
	require.Equal(t, int64(-5*3600), z.Offset)
	require.Equal(t, int64(-4*3600), z.OffsetDST)
	return z
}

func TestParsePosixString(t *testing.T) {
	z := newEasternZone(t)
	require.Equal(t, "EST", z.Abbr)
	require.Equal(t, "EDT", z.AbbrDST)
	require.Len(t, z.adjusts.rules, 1)
}

func TestParsePosixStringRejectsEmpty(t *testing.T) {
	_, _, err := ParsePosixString("")
	require.Error(t, err)
}

// TestPosixToLocal checks spec.md's example 5: tz_to_local(1464900596, ...)
// on EST5EDT yields 2016-06-02 16:49:56, gmtoff=-14400, isdst=true.
func TestPosixToLocal(t *testing.T) {
	z := newEasternZone(t)
	lt := z.ToLocal(1464900596)
	require.Equal(t, 2016, lt.Year)
	require.Equal(t, 6, lt.Month)
	require.Equal(t, 2, lt.Day)
	require.Equal(t, 16, lt.Hour)
	require.Equal(t, 49, lt.Min)
	require.Equal(t, 56, lt.Sec)
	require.Equal(t, int64(-14400), lt.GMTOff)
	require.Equal(t, 1, lt.IsDST)
}

// TestDSTFallBack checks spec.md B1: America/New_York 2013-11-03 local
// wall-clock times 01:00:11 and 01:30:11 disambiguate via the isdst hint.
func TestDSTFallBack(t *testing.T) {
	z := newEasternZone(t)

	dst := LocalTime{Year: 2013, Month: 11, Day: 3, Hour: 1, Min: 0, Sec: 11, IsDST: 1}
	utc, err := z.ToUTC(&dst)
	require.NoError(t, err)
	require.Equal(t, int64(1383451211), utc)

	dst2 := LocalTime{Year: 2013, Month: 11, Day: 3, Hour: 1, Min: 30, Sec: 11, IsDST: 1}
	utc2, err := z.ToUTC(&dst2)
	require.NoError(t, err)
	require.Equal(t, int64(1383453011), utc2)

	std := LocalTime{Year: 2013, Month: 11, Day: 3, Hour: 1, Min: 0, Sec: 11, IsDST: 0}
	utc3, err := z.ToUTC(&std)
	require.NoError(t, err)
	require.Equal(t, int64(1383458411), utc3)

	std2 := LocalTime{Year: 2013, Month: 11, Day: 3, Hour: 1, Min: 30, Sec: 11, IsDST: 0}
	utc4, err := z.ToUTC(&std2)
	require.NoError(t, err)
	require.Equal(t, int64(1383460211), utc4)
}

// TestDSTSpringForward checks spec.md B2.
func TestDSTSpringForward(t *testing.T) {
	z := newEasternZone(t)
	lt := LocalTime{Year: 2013, Month: 3, Day: 10, Hour: 2, Min: 30, Sec: 11, IsDST: 1}
	utc, err := z.ToUTC(&lt)
	require.NoError(t, err)
	require.Equal(t, int64(1362900611), utc)
}

func TestPosixRoundTrip(t *testing.T) {
	z := newEasternZone(t)
	for _, sec := range []int64{1383451211, 1464900596, 1362900611, 0, 1893456000} {
		lt := z.ToLocal(sec)
		back, err := z.ToUTC(&lt)
		require.NoError(t, err)
		require.Equal(t, sec, back)
	}
}

func TestFallbackZonesRegister(t *testing.T) {
	db := NewDatabase()
	RegisterFallbackZones(db)
	for _, name := range []string{"EST5EDT", "CST6CDT", "MST7MDT", "PST8PDT"} {
		_, ok := db.Get(name)
		require.True(t, ok, name)
	}
}
