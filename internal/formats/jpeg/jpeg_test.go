package jpeg

import (
	"bytes"
	"encoding/binary"
	stdjpeg "image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infracollect/polycraft/internal/engine"
	"github.com/infracollect/polycraft/internal/formats/blob"
	"github.com/infracollect/polycraft/internal/testutil"
)

func openJPEG(t *testing.T) engine.FileType {
	t.Helper()
	ft, err := Open(testutil.JPEG(t))
	require.NoError(t, err)
	return ft
}

func decodes(t *testing.T, data []byte) {
	t.Helper()
	_, err := stdjpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
}

func TestEmbedParasite(t *testing.T) {
	host := openJPEG(t)
	guest := blob.New([]byte("comment hosted bytes"))

	out, ledger, ok := host.EmbedParasite(guest)
	require.True(t, ok)
	assert.Equal(t, engine.Ledger{6, 6 + len(guest.Data())}, ledger)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0xFE}, out[:4])
	assert.Equal(t, uint16(len(guest.Data())+2), binary.BigEndian.Uint16(out[4:6]))
	decodes(t, out)

	cut, ok := host.ComputeCut()
	require.True(t, ok)
	assert.Equal(t, 6, cut)
}

func TestEmbedParasite_TooLarge(t *testing.T) {
	_, _, ok := openJPEG(t).EmbedParasite(blob.New(make([]byte, 0xFFFE)))
	assert.False(t, ok)
}

func TestReduceOverlap(t *testing.T) {
	tests := []struct {
		name        string
		guestHeader []byte
		donated     int
		wantLength  uint16
	}{
		{
			name:        "both bytes donated",
			guestHeader: []byte{'G', 'U', 'E', 'S', 0x7F, 0x10},
			donated:     2,
			wantLength:  0x7F10,
		},
		{
			name:        "low byte donated",
			guestHeader: []byte{'G', 'U', 'E', 'S', 0x00, 0x01},
			donated:     1,
			wantLength:  0x0101,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := openJPEG(t)
			guest := append(append([]byte(nil), tt.guestHeader...), []byte("rest of the guest")...)
			trimmed := blob.New(guest[6:])

			data, ledger, ok := host.EmbedParasite(trimmed)
			require.True(t, ok)

			reducer := host.(engine.OverlapReducer)
			out, reduced, overlap, ok := reducer.ReduceOverlap(data, ledger, guest[:6], guest)
			require.True(t, ok)

			assert.Equal(t, guest[:6-tt.donated], overlap)
			assert.Equal(t, engine.Ledger{6 - tt.donated, ledger[1]}, reduced)
			assert.Equal(t, tt.wantLength, binary.BigEndian.Uint16(out[4:6]))
			assert.Equal(t, guest[6-tt.donated:6], out[6-tt.donated:6])
			assert.Equal(t, trimmed.Data(), out[6:ledger[1]])
			assert.Len(t, out, len(data)+int(tt.wantLength)-len(trimmed.Data())-2)
			decodes(t, out)
		})
	}
}

func TestReduceOverlap_HighByteSaturated(t *testing.T) {
	host := openJPEG(t)
	guest := append([]byte{'G', 'U', 'E', 'S', 0x00, 0x01}, make([]byte, 0xFF10)...)

	data, ledger, ok := host.EmbedParasite(blob.New(guest[6:]))
	require.True(t, ok)

	_, _, _, ok = host.(engine.OverlapReducer).ReduceOverlap(data, ledger, guest[:6], guest)
	assert.False(t, ok)
}
