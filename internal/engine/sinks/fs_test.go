package sinks

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemSink_Write(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := NewFilesystemSink(fs)
	ctx := t.Context()

	require.NoError(t, sink.Write(ctx, "S(80)-PE-ZIP.0badf00d.zip.exe", bytes.NewReader([]byte("MZ"))))
	require.NoError(t, sink.Write(ctx, "split/S(80)-PE-ZIP.exe", bytes.NewReader([]byte("split"))))

	content, err := afero.ReadFile(fs, "S(80)-PE-ZIP.0badf00d.zip.exe")
	require.NoError(t, err)
	assert.Equal(t, "MZ", string(content))

	content, err = afero.ReadFile(fs, "split/S(80)-PE-ZIP.exe")
	require.NoError(t, err)
	assert.Equal(t, "split", string(content))
	assert.Equal(t, "filesystem", sink.Kind())
}

func TestFilesystemSink_WritesOnce(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := NewFilesystemSink(fs)
	ctx := t.Context()

	require.NoError(t, sink.Write(ctx, "out.bin", bytes.NewReader([]byte("first"))))
	err := sink.Write(ctx, "./out.bin", bytes.NewReader([]byte("second")))
	require.ErrorIs(t, err, ErrAlreadyWritten)

	content, err := afero.ReadFile(fs, "out.bin")
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))
}

func TestFilesystemSinkFromPath(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFilesystemSinkFromPath(dir + "/nested/out")
	require.NoError(t, err)

	require.NoError(t, sink.Write(t.Context(), "a.bin", bytes.NewReader([]byte("a"))))
	content, err := afero.ReadFile(afero.NewOsFs(), dir+"/nested/out/a.bin")
	require.NoError(t, err)
	assert.Equal(t, "a", string(content))
}

func TestStreamSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewStreamSink(&buf)
	ctx := t.Context()

	require.NoError(t, sink.Write(ctx, "first.bin", bytes.NewReader([]byte("payload"))))
	assert.Equal(t, "payload", buf.String())

	err := sink.Write(ctx, "second.bin", bytes.NewReader([]byte("more")))
	assert.ErrorContains(t, err, "first.bin")
	assert.Equal(t, "payload", buf.String())
}
