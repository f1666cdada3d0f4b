package mp3

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/infracollect/polycraft/internal/testutil"
)

func TestIdentify(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{name: "frame sync", data: testutil.MP3(t), want: true},
		{name: "id3 tagged", data: []byte("ID3\x04\x00"), want: false},
		{name: "jpeg marker", data: []byte{0xFF, 0xD8, 0xFF}, want: false},
		{name: "empty", data: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Identify(tt.data))
		})
	}
}
