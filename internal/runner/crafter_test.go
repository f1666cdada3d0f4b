package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	v1 "github.com/infracollect/polycraft/apis/v1"
	"github.com/infracollect/polycraft/internal/engine"
	"github.com/infracollect/polycraft/internal/testutil"
)

func newTestCrafter(t *testing.T) *Crafter {
	t.Helper()
	registry, err := BuildRegistry(zap.NewNop())
	require.NoError(t, err)
	return NewCrafter(zap.NewNop(), registry)
}

func stems(artifacts []engine.Artifact) []string {
	return lo.Map(artifacts, func(a engine.Artifact, _ int) string { return a.Stem })
}

func TestBuildRegistry(t *testing.T) {
	registry, err := BuildRegistry(zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"PE", "DCM", "ZIP", "PNG", "JPG", "GZ", "MP3"}, registry.Codes())
}

func TestCraft_SameFileTypes(t *testing.T) {
	c := newTestCrafter(t)
	in1 := Input{Name: "one.zip", Data: testutil.ZIP(t)}
	in2 := Input{Name: "two.zip", Data: testutil.ZIP(t, testutil.ZipEntry{Name: "other.txt", Content: "other"})}

	result, err := c.Craft(t.Context(), in1, in2, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ERROR: Same file types - aborting."}, result.Logs)
	assert.Empty(t, result.Artifacts)
}

func TestCraft_Abort(t *testing.T) {
	png := testutil.PNG(t)
	junk := []byte("definitely not a known format")

	tests := []struct {
		name    string
		in1     Input
		in2     Input
		opts    Options
		wantLog []string
	}{
		{
			name:    "unknown file 1",
			in1:     Input{Name: "junk.bin", Data: junk},
			in2:     Input{Name: "image.png", Data: png},
			wantLog: []string{"ERROR: Unknown type file 1 - aborting."},
		},
		{
			name:    "unknown file 2",
			in1:     Input{Name: "image.png", Data: png},
			in2:     Input{Name: "junk.bin", Data: junk},
			wantLog: []string{"ERROR: Unknown type file 2 (try --force) - aborting."},
		},
		{
			name: "unknown file 2 verbose",
			in1:  Input{Name: "image.png", Data: png},
			in2:  Input{Name: "junk.bin", Data: junk},
			opts: Options{Verbose: true},
			wantLog: []string{
				"image.png",
				"File 1: Portable Network Graphics",
				"junk.bin",
				"ERROR: Unknown type file 2 (try --force) - aborting.",
			},
		},
		{
			name:    "force does not rescue file 1",
			in1:     Input{Name: "junk.bin", Data: junk},
			in2:     Input{Name: "image.png", Data: png},
			opts:    Options{Force: true},
			wantLog: []string{"ERROR: Unknown type file 1 - aborting."},
		},
	}

	c := newTestCrafter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.Craft(t.Context(), tt.in1, tt.in2, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLog, result.Logs)
			assert.Empty(t, result.Artifacts)
			assert.Equal(t, [2]string{}, result.Codes)
		})
	}
}

func TestCraft_Force(t *testing.T) {
	c := newTestCrafter(t)
	in1 := Input{Name: "archive.zip", Data: testutil.ZIP(t)}
	in2 := Input{Name: "payload", Data: []byte("opaque payload")}

	result, err := c.Craft(t.Context(), in1, in2, Options{Force: true, Reverse: true, Verbose: true})
	require.NoError(t, err)

	assert.Equal(t, [2]string{"ZIP", "BLOB"}, result.Codes)
	assert.Contains(t, result.Logs, "File 2: Binary blob")

	// a blob starts at offset 0, so only the reversed stack applies
	require.Len(t, result.Artifacts, 1)
	stack := result.Artifacts[0]
	assert.Equal(t, "S(e)-BLOB-ZIP", stack.Stem)
	assert.Equal(t, [2]string{"zip", "blob"}, stack.Extensions)
	assert.True(t, bytes.HasPrefix(stack.Data, in2.Data))
	assert.Equal(t, map[string]string{"hello.txt": "hello polyglot"}, testutil.ReadZIP(t, stack.Data))
}

func TestCraft_Pad(t *testing.T) {
	c := newTestCrafter(t)
	png := testutil.PNG(t)
	zip := testutil.ZIP(t)
	require.Less(t, len(png), 4096)
	require.Less(t, len(zip), 4096)

	result, err := c.Craft(t.Context(),
		Input{Name: "image.png", Data: png},
		Input{Name: "archive.zip", Data: zip},
		Options{Pad: 4},
	)
	require.NoError(t, err)
	require.NotEmpty(t, result.Artifacts)

	stack := result.Artifacts[0]
	assert.Equal(t, "S(1000)-PNG-ZIP", stack.Stem)
	require.Len(t, stack.Data, 8192)
	assert.Equal(t, png, stack.Data[:len(png)])
	assert.Equal(t, bytes.Repeat([]byte{padByte}, 4096-len(png)), stack.Data[len(png):4096])
	assert.Equal(t, zip, stack.Data[4096:4096+len(zip)])
	assert.Equal(t, byte(padByte), stack.Data[8191])
	assert.Equal(t, map[string]string{"hello.txt": "hello polyglot"}, testutil.ReadZIP(t, stack.Data))

	// inputs are not modified
	assert.Equal(t, testutil.PNG(t), png)
}

func TestPad(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		size int
		want int
	}{
		{name: "disabled", data: []byte("abc"), size: 0, want: 3},
		{name: "extended", data: []byte("abc"), size: 1, want: 1024},
		{name: "already larger", data: make([]byte, 2000), size: 1, want: 2000},
		{name: "empty input", data: nil, size: 2, want: 2048},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pad(tt.data, tt.size)
			assert.Len(t, got, tt.want)
			assert.Equal(t, string(tt.data), string(got[:len(tt.data)]))
			assert.Equal(t, strings.Repeat("\x01", tt.want-len(tt.data)), string(got[len(tt.data):]))
		})
	}
}

func TestCraft_Verbose(t *testing.T) {
	c := newTestCrafter(t)
	in1 := Input{Name: "image.png", Data: testutil.PNG(t)}
	in2 := Input{Name: "archive.zip", Data: testutil.ZIP(t)}

	quiet, err := c.Craft(t.Context(), in1, in2, Options{})
	require.NoError(t, err)
	loud, err := c.Craft(t.Context(), in1, in2, Options{Verbose: true})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Stack: concatenation of File1 (type PNG) and File2 (type ZIP)",
		"Parasite: hosting of File2 (type ZIP) in File1 (type PNG)",
		"Zipper: interleaving of File1 (type PNG) and File2 (type ZIP)",
	}, quiet.Logs)

	assert.Equal(t, []string{
		"image.png",
		"File 1: Portable Network Graphics",
		"archive.zip",
		"File 2: ZIP archive",
		"",
	}, loud.Logs[:5])
	assert.Contains(t, loud.Logs, "HIT PNG;ZIP")
	assert.Contains(t, loud.Logs, "! File type 2 (ZIP) doesn't start with any cavity.")
	assert.Equal(t, stems(quiet.Artifacts), stems(loud.Artifacts))
	assert.Equal(t, [2]string{"PNG", "ZIP"}, quiet.Codes)
}

func TestCraft_Reverse(t *testing.T) {
	c := newTestCrafter(t)
	zip := Input{Name: "archive.zip", Data: testutil.ZIP(t, testutil.ZipEntry{Name: "a-rather-long-entry-name.txt", Content: "content"})}
	dcm := Input{Name: "scan.dcm", Data: testutil.DICOM(t)}

	forward, err := c.Craft(t.Context(), zip, dcm, Options{})
	require.NoError(t, err)
	backward, err := c.Craft(t.Context(), dcm, zip, Options{})
	require.NoError(t, err)
	both, err := c.Craft(t.Context(), zip, dcm, Options{Reverse: true, Verbose: true})
	require.NoError(t, err)

	require.NotEmpty(t, forward.Artifacts)
	require.NotEmpty(t, backward.Artifacts)
	assert.Equal(t, append(stems(forward.Artifacts), stems(backward.Artifacts)...), stems(both.Artifacts))
	assert.Contains(t, both.Logs, "REVERSE: Switching files order")
	assert.Equal(t, [2]string{"ZIP", "DCM"}, both.Codes)
}

func TestCraft_Concurrency(t *testing.T) {
	c := newTestCrafter(t)
	in1 := Input{Name: "image.jpg", Data: testutil.JPEG(t)}
	in2 := Input{Name: "program.exe", Data: testutil.PE(t)}
	opts := Options{Reverse: true, Overlap: true, Align: true, Verbose: true}

	sequential, err := c.Craft(t.Context(), in1, in2, opts)
	require.NoError(t, err)

	opts.Concurrency = 4
	parallel, err := c.Craft(t.Context(), in1, in2, opts)
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestCraft_Deterministic(t *testing.T) {
	c := newTestCrafter(t)
	in1 := Input{Name: "image.png", Data: testutil.PNG(t)}
	in2 := Input{Name: "archive.zip", Data: testutil.ZIP(t)}
	opts := Options{Reverse: true, Align: true, Overlap: true}

	a, err := c.Craft(t.Context(), in1, in2, opts)
	require.NoError(t, err)
	b, err := c.Craft(t.Context(), in1, in2, opts)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	for _, artifact := range a.Artifacts {
		require.NoError(t, artifact.Ledger.Validate(len(artifact.Data)), artifact.Stem)
	}
}

func TestCraft_PadOutOfRange(t *testing.T) {
	c := newTestCrafter(t)

	for _, pad := range []int{-1, v1.MaxPad + 1} {
		_, err := c.Craft(t.Context(),
			Input{Name: "image.png", Data: testutil.PNG(t)},
			Input{Name: "archive.zip", Data: testutil.ZIP(t)},
			Options{Pad: pad},
		)
		assert.ErrorContains(t, err, "is outside 0..65536", "pad %d", pad)
	}
}

func TestCraft_Cancelled(t *testing.T) {
	c := newTestCrafter(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := c.Craft(ctx,
		Input{Name: "image.png", Data: testutil.PNG(t)},
		Input{Name: "archive.zip", Data: testutil.ZIP(t)},
		Options{},
	)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCraft_Precedence(t *testing.T) {
	// a PE image followed by a DICOM prefix and body matches both recognizers
	c := newTestCrafter(t)
	peImage := testutil.PE(t)
	require.Len(t, peImage, 0x80)
	dual := Input{Name: "dual.bin", Data: append(peImage, testutil.DICOM(t)[0x80:]...)}
	png := Input{Name: "image.png", Data: testutil.PNG(t)}

	first, err := c.Craft(t.Context(), png, dual, Options{})
	require.NoError(t, err)
	assert.Equal(t, "PE", first.Codes[1])

	last, err := c.Craft(t.Context(), png, dual, Options{Precedence: engine.PrecedenceLast})
	require.NoError(t, err)
	assert.Equal(t, "DCM", last.Codes[1])
}
