package tz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDatabaseAddAndGetCaseInsensitive(t *testing.T) {
	db := NewDatabase()
	require.NoError(t, db.AddPosixString("EST5EDT,M3.2.0/02:00:00,M11.1.0/02:00:00"))

	z, ok := db.Get("est5edt")
	require.True(t, ok)
	require.NotNil(t, z)
}

func TestDatabaseAddZoneDup(t *testing.T) {
	db := NewDatabase()
	require.NoError(t, db.AddZone("X", newPosixZone()))
	require.ErrorIs(t, db.AddZone("x", newPosixZone()), ErrDup)
}

func TestDatabaseMergeDetectsCollision(t *testing.T) {
	a := NewDatabase()
	require.NoError(t, a.AddZone("X", newPosixZone()))
	b := NewDatabase()
	require.NoError(t, b.AddZone("X", newPosixZone()))

	name, err := a.Merge(b)
	require.Error(t, err)
	require.Equal(t, "x", name)
}

func TestDatabaseMergeAllowsAliasOverwrite(t *testing.T) {
	a := NewDatabase()
	require.NoError(t, a.AddZone("X", newPosixZone()))
	require.NoError(t, a.AddAlias("Y", "X"))

	b := NewDatabase()
	require.NoError(t, b.AddZone("Z", newPosixZone()))
	require.NoError(t, b.AddAlias("Y", "Z"))

	_, err := a.Merge(b)
	require.NoError(t, err)
}

func TestDatabaseLazyLoader(t *testing.T) {
	db := NewDatabase()
	calls := 0
	db.SetLoader(func(name string) (Zone, bool) {
		calls++
		if name != "Loadable" {
			return nil, false
		}
		return newPosixZone(), true
	})

	_, ok := db.Get("Loadable")
	require.True(t, ok)
	require.Equal(t, 1, calls)

	// Second lookup hits the now-cached alias map, not the loader again.
	_, ok = db.Get("Loadable")
	require.True(t, ok)
	require.Equal(t, 1, calls)
}

func TestLoadINI(t *testing.T) {
	data := `
[Custom/Zone]
offset=5
abbr=CUS
abbr_dst=CUD
offset_dst=4
dst=2020;M3.2.0/02:00:00,M11.1.0/02:00:00
alias=CustomAlt
`
	db := NewDatabase()
	_, _, _, err := LoadINI(db, data)
	require.NoError(t, err)

	z, ok := db.Get("Custom/Zone")
	require.True(t, ok)
	pz, ok := z.(*PosixZone)
	require.True(t, ok)
	require.Equal(t, "CUS", pz.Abbr)
	require.Equal(t, "CUD", pz.AbbrDST)

	_, ok = db.Get("CustomAlt")
	require.True(t, ok)
}

func TestLoadINIMissingRequiredField(t *testing.T) {
	data := "[Z]\nabbr=Z\n"
	db := NewDatabase()
	_, section, _, err := LoadINI(db, data)
	require.Error(t, err)
	require.Equal(t, "Z", section)
}
