// Package testutil builds small, valid files of every recognized format for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	kgzip "github.com/klauspost/compress/gzip"
	kzip "github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 0x80, A: 0xFF})
		}
	}
	return img
}

func PNG(t testing.TB) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradient(8, 8)))
	return buf.Bytes()
}

func JPEG(t testing.TB) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(8, 8), &jpeg.Options{Quality: 75}))
	return buf.Bytes()
}

// ZipEntry is one stored file of a ZIP fixture.
type ZipEntry struct {
	Name    string
	Content string
}

func ZIP(t testing.TB, entries ...ZipEntry) []byte {
	t.Helper()
	if len(entries) == 0 {
		entries = []ZipEntry{{Name: "hello.txt", Content: "hello polyglot"}}
	}

	var buf bytes.Buffer
	zw := kzip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&kzip.FileHeader{Name: e.Name, Method: kzip.Store})
		require.NoError(t, err)
		_, err = io.WriteString(w, e.Content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// ReadZIP returns the content of every entry, keyed by name.
func ReadZIP(t testing.TB, data []byte) map[string]string {
	t.Helper()
	zr, err := kzip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	found := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		found[f.Name] = string(content)
	}
	return found
}

func GZIP(t testing.TB, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := kgzip.NewWriter(&buf)
	_, err := io.WriteString(zw, content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// ReadGZIP decompresses the first member.
func ReadGZIP(t testing.TB, data []byte) string {
	t.Helper()
	zr, err := kgzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	zr.Multistream(false)
	content, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(content)
}

// PE returns a headers-only i386 image: DOS header, PE signature and a COFF header
// without optional header or sections, followed by a small DOS stub area.
func PE(t testing.TB) []byte {
	t.Helper()
	const lfanew = 0x40

	data := make([]byte, 0x80)
	copy(data, "MZ")
	binary.LittleEndian.PutUint32(data[0x3C:], lfanew)
	copy(data[lfanew:], "PE\x00\x00")
	coff := data[lfanew+4:]
	binary.LittleEndian.PutUint16(coff[0:2], 0x14C) // machine
	binary.LittleEndian.PutUint16(coff[18:20], 0x0102)
	copy(data[0x60:], "polycraft test image")
	return data
}

// DICOM returns a preamble, the DICM prefix and one file meta element.
func DICOM(t testing.TB) []byte {
	t.Helper()
	data := make([]byte, 0x80, 0x100)
	data = append(data, "DICM"...)
	// (0002,0010) UI transfer syntax: explicit VR little endian
	uid := "1.2.840.10008.1.2.1\x00"
	data = append(data, 0x02, 0x00, 0x10, 0x00, 'U', 'I')
	data = binary.LittleEndian.AppendUint16(data, uint16(len(uid)))
	data = append(data, uid...)
	return data
}

// MP3 returns a few silent MPEG-1 Layer III frames.
func MP3(t testing.TB) []byte {
	t.Helper()
	frame := make([]byte, 417) // 128 kbps, 44.1 kHz
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x64})
	return bytes.Repeat(frame, 3)
}
