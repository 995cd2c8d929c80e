package tz

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Database holds named zones plus their aliases, matching the source's
// name->rule map, alias->name map, and optional lazy loader. Names and
// aliases compare case-insensitively.
type Database struct {
	mu      sync.RWMutex
	zones   map[string]Zone
	aliases map[string]string
	loader  func(name string) (Zone, bool)
}

// NewDatabase returns an empty database.
func NewDatabase() *Database {
	return &Database{
		zones:   make(map[string]Zone),
		aliases: make(map[string]string),
	}
}

func normalizeName(name string) string { return strings.ToLower(name) }

// AddZone registers a zone under name, failing with ErrDup if the name is
// already in use (as either a zone name or an alias).
func (db *Database) AddZone(name string, z Zone) error {
	if name == "" || z == nil {
		return ErrInvalid
	}
	key := normalizeName(name)

	db.mu.Lock()
	defer db.mu.Unlock()
	if _, exists := db.zones[key]; exists {
		return ErrDup
	}
	if _, exists := db.aliases[key]; exists {
		return ErrDup
	}
	db.zones[key] = z
	db.aliases[key] = key
	return nil
}

// AddAlias registers alias as another name for an already-registered zone
// name. Alias overwrites are permitted (re-pointing an existing alias is
// not an error), matching the merge semantics in §3 of the governing spec.
func (db *Database) AddAlias(alias, name string) error {
	if alias == "" || name == "" {
		return ErrInvalid
	}
	key := normalizeName(name)

	db.mu.Lock()
	defer db.mu.Unlock()
	if _, exists := db.zones[key]; !exists {
		return ErrInvalid
	}
	db.aliases[normalizeName(alias)] = key
	return nil
}

// AddPosixString parses a POSIX-TZ rule string and registers it under the
// rule's name (the text before its first comma, e.g. "EST5EDT") as both
// name and alias, matching tzs_add_posix_str.
func (db *Database) AddPosixString(str string) error {
	name, z, err := ParsePosixString(str)
	if err != nil {
		return err
	}
	return db.AddZone(name, z)
}

// AddTZFile parses an Olson tzfile at path and registers it under name.
func (db *Database) AddTZFile(path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ErrInvalid
	}
	return db.AddTZFileBytes(data, name)
}

// AddTZFileBytes parses raw Olson tzfile bytes and registers the resulting
// zone under name.
func (db *Database) AddTZFileBytes(data []byte, name string) error {
	z, err := ParseTZif(data)
	if err != nil {
		return err
	}
	return db.AddZone(name, z)
}

// AddWindowsZone registers a zone built from a pre-resolved DstRule pair,
// the Win32-registry shape m_time_tz_win.c reads from
// HKLM\...\Time Zones\<winName>; this module does not itself touch the
// registry (a Windows-only concern out of scope for the core), so the
// caller supplies the already-decoded rule.
func (db *Database) AddWindowsZone(winName, abbr, abbrDST string, offset, offsetDST int64, rule *DstRule) error {
	if winName == "" || abbr == "" {
		return ErrInvalid
	}
	z := newPosixZone()
	z.Abbr = abbr
	z.AbbrDST = abbrDST
	z.Offset = offset
	z.OffsetDST = offsetDST
	if rule != nil {
		z.addDSTAdjust(rule)
	}
	return db.AddZone(winName, z)
}

// Merge copies every zone and alias from src into db, failing with the
// colliding name if any zone name (not alias) already exists in db; on
// failure nothing is copied. Alias overwrites are permitted.
func (db *Database) Merge(src *Database) (string, error) {
	src.mu.RLock()
	defer src.mu.RUnlock()
	db.mu.Lock()
	defer db.mu.Unlock()

	for name := range src.zones {
		if _, exists := db.zones[name]; exists {
			return name, ErrDup
		}
	}
	for name, z := range src.zones {
		db.zones[name] = z
	}
	for alias, name := range src.aliases {
		db.aliases[alias] = name
	}
	return "", nil
}

// SetLoader installs a lazy-loading closure invoked by Get on a cache miss
// that hits neither the zone nor alias maps.
func (db *Database) SetLoader(fn func(name string) (Zone, bool)) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.loader = fn
}

// Get resolves name (zone name or alias) to a Zone, invoking the lazy
// loader on a full miss and caching its result on success.
func (db *Database) Get(name string) (Zone, bool) {
	key := normalizeName(name)

	db.mu.RLock()
	if real, ok := db.aliases[key]; ok {
		z, ok := db.zones[real]
		db.mu.RUnlock()
		return z, ok
	}
	loader := db.loader
	db.mu.RUnlock()

	if loader == nil {
		return nil, false
	}
	z, ok := loader(name)
	if !ok {
		return nil, false
	}
	_ = db.AddZone(name, z)
	return z, true
}

// Source reports where a Load call found its timezone data.
type Source int

const (
	SourceSystem Source = iota
	SourceFallback
	SourceFail
)

// zoneinfoSearchPaths mirrors the POSIX search order: /usr/share/zoneinfo
// then /usr/lib/zoneinfo.
var zoneinfoSearchPaths = []string{"/usr/share/zoneinfo", "/usr/lib/zoneinfo"}

// Load attempts to populate db by lazily reading the named zones from the
// host's zoneinfo tree; on failure to locate any usable zoneinfo root it
// falls back to the four hard-coded North American POSIX rules.
func Load(db *Database, zones []string) Source {
	root := findZoneinfoRoot()
	if root != "" {
		db.SetLoader(func(name string) (Zone, bool) {
			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
			if err != nil {
				return nil, false
			}
			z, err := ParseTZif(data)
			if err != nil {
				return nil, false
			}
			return z, true
		})
		for _, name := range zones {
			db.Get(name)
		}
		return SourceSystem
	}

	RegisterFallbackZones(db)
	return SourceFallback
}

func findZoneinfoRoot() string {
	for _, p := range zoneinfoSearchPaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p
		}
	}
	return ""
}

// RegisterFallbackZones registers the four North-American POSIX rules
// (2007+ DST schedule: second Sunday in March to first Sunday in November)
// used when no system zoneinfo database is reachable.
func RegisterFallbackZones(db *Database) {
	for _, rule := range []string{
		"EST5EDT,M3.2.0/02:00:00,M11.1.0/02:00:00",
		"CST6CDT,M3.2.0/02:00:00,M11.1.0/02:00:00",
		"MST7MDT,M3.2.0/02:00:00,M11.1.0/02:00:00",
		"PST8PDT,M3.2.0/02:00:00,M11.1.0/02:00:00",
	} {
		_ = db.AddPosixString(rule)
	}
}
