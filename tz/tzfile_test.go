package tz

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildTZif constructs a minimal version-1 tzfile with the given
// transitions for testing ParseTZif without touching the filesystem.
func buildTZif(t *testing.T, transitions []transition) []byte {
	t.Helper()

	abbrs := map[string]int{}
	var blob bytes.Buffer
	abbrIndex := func(s string) byte {
		if idx, ok := abbrs[s]; ok {
			return byte(idx)
		}
		idx := blob.Len()
		blob.WriteString(s)
		blob.WriteByte(0)
		abbrs[s] = idx
		return byte(idx)
	}

	type ttRec struct {
		gmtoff  int32
		isdst   byte
		abbrind byte
	}
	var ttinfos []ttRec
	typeOf := map[string]byte{}
	var typeIdx []byte

	for _, tr := range transitions {
		key := tr.abbr
		ti, ok := typeOf[key]
		if !ok {
			ti = byte(len(ttinfos))
			isdst := byte(0)
			if tr.isDST {
				isdst = 1
			}
			ttinfos = append(ttinfos, ttRec{gmtoff: int32(tr.offset), isdst: isdst, abbrind: abbrIndex(tr.abbr)})
			typeOf[key] = ti
		}
		typeIdx = append(typeIdx, ti)
	}

	var buf bytes.Buffer
	buf.WriteString("TZif")
	buf.WriteByte(0)
	buf.Write(make([]byte, 15))

	write32 := func(v uint32) { require.NoError(t, binary.Write(&buf, binary.BigEndian, v)) }
	write32(0) // isutcnt
	write32(0) // isstdcnt -- overwritten below once we know typecnt
	write32(0) // leapcnt
	write32(uint32(len(transitions)))
	write32(uint32(len(ttinfos)))
	write32(uint32(blob.Len()))

	out := buf.Bytes()
	binary.BigEndian.PutUint32(out[20:24], uint32(len(ttinfos)))
	binary.BigEndian.PutUint32(out[24:28], uint32(len(ttinfos)))

	body := bytes.NewBuffer(out)
	for _, tr := range transitions {
		require.NoError(t, binary.Write(body, binary.BigEndian, int32(tr.start)))
	}
	body.Write(typeIdx)
	for _, tt := range ttinfos {
		require.NoError(t, binary.Write(body, binary.BigEndian, tt.gmtoff))
		body.WriteByte(tt.isdst)
		body.WriteByte(tt.abbrind)
	}
	body.Write(blob.Bytes())
	// isstdcnt + isutcnt indicator arrays, one byte each per ttinfo.
	body.Write(make([]byte, len(ttinfos)))
	body.Write(make([]byte, len(ttinfos)))

	return body.Bytes()
}

func TestParseTZifRoundTrip(t *testing.T) {
	data := buildTZif(t, []transition{
		{start: 1362900000, offset: -4 * 3600, isDST: true, abbr: "EDT"},
		{start: 1383454800, offset: -5 * 3600, isDST: false, abbr: "EST"},
	})

	z, err := ParseTZif(data)
	require.NoError(t, err)

	lt := z.ToLocal(1383451211)
	require.Equal(t, int64(-4*3600), lt.GMTOff)
	require.Equal(t, "EDT", lt.Abbr)

	lt2 := z.ToLocal(1383460000)
	require.Equal(t, int64(-5*3600), lt2.GMTOff)
}

func TestParseTZifRejectsBadMagic(t *testing.T) {
	_, err := ParseTZif([]byte("not-a-tzfile"))
	require.Error(t, err)
}
