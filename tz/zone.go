package tz

// Zone converts between UTC and local wall-clock time for one timezone,
// implemented either by PosixZone (rule-based: POSIX-TZ/INI/Windows-zone
// input) or OlsonZone (tzfile transition table).
type Zone interface {
	// ToUTC converts a local wall-clock time to a UTC unix timestamp.
	// lt.IsDST disambiguates the fall-back window (1=DST, 0=standard,
	// -1=unknown, in which case the later transition wins).
	ToUTC(lt *LocalTime) (int64, error)

	// ToLocal converts a UTC unix timestamp to a fully populated
	// LocalTime, including Wday/Yday/IsDST/GMTOff/Abbr.
	ToLocal(utcSec int64) LocalTime
}
