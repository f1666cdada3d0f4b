package sinks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, input)
	f.bodies = append(f.bodies, body)
	return &manager.UploadOutput{}, nil
}

func TestS3Sink_Name(t *testing.T) {
	assert.Equal(t, "s3(polyglots)", NewS3SinkWithUploader("polyglots", "", nil).Name())
	assert.Equal(t, "s3(polyglots/nightly/2026)", NewS3SinkWithUploader("polyglots", "nightly/2026", nil).Name())
	assert.Equal(t, "s3", NewS3SinkWithUploader("polyglots", "", nil).Kind())
}

func TestS3Sink_Write(t *testing.T) {
	tests := []struct {
		name            string
		prefix          string
		path            string
		wantKey         string
		wantContentType string
		wantStem        string
	}{
		{
			name:            "stacked artifact",
			path:            "S(80)-PE-ZIP.0badf00d.exe.zip",
			wantKey:         "S(80)-PE-ZIP.0badf00d.exe.zip",
			wantContentType: "application/octet-stream",
			wantStem:        "S(80)-PE-ZIP",
		},
		{
			name:            "parasite under prefix",
			prefix:          "nightly",
			path:            "P(29-1c4)-PNG[ZIP].1a2b3c4d.png.zip",
			wantKey:         "nightly/P(29-1c4)-PNG[ZIP].1a2b3c4d.png.zip",
			wantContentType: "application/octet-stream",
			wantStem:        "P(29-1c4)-PNG[ZIP]",
		},
		{
			name:            "split view",
			prefix:          "views/",
			path:            "S(80)-PE-ZIP.1.exe",
			wantKey:         "views/S(80)-PE-ZIP.1.exe",
			wantContentType: "application/octet-stream",
			wantStem:        "S(80)-PE-ZIP",
		},
		{
			name:            "manifest",
			path:            "manifest.json",
			wantKey:         "manifest.json",
			wantContentType: "application/json",
		},
		{
			name:            "zstd bundle",
			path:            "nightly.tar.zst",
			wantKey:         "nightly.tar.zst",
			wantContentType: "application/zstd",
		},
		{
			name:            "zip bundle",
			path:            "nightly.zip",
			wantKey:         "nightly.zip",
			wantContentType: "application/zip",
		},
		{
			name:    "unknown extension",
			path:    "notes.bin",
			wantKey: "notes.bin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader := &fakeUploader{}
			sink := NewS3SinkWithUploader("polyglots", tt.prefix, uploader)

			require.NoError(t, sink.Write(t.Context(), tt.path, bytes.NewReader([]byte("payload"))))
			require.Len(t, uploader.inputs, 1)

			in := uploader.inputs[0]
			assert.Equal(t, "polyglots", aws.ToString(in.Bucket))
			assert.Equal(t, tt.wantKey, aws.ToString(in.Key))
			assert.Equal(t, tt.wantContentType, aws.ToString(in.ContentType))
			assert.Equal(t, tt.wantStem, in.Metadata[polyglotMetadataKey])
			assert.Equal(t, []byte("payload"), uploader.bodies[0])
		})
	}
}

func TestS3Sink_WriteError(t *testing.T) {
	sink := NewS3SinkWithUploader("polyglots", "runs", &fakeUploader{err: errors.New("denied")})

	err := sink.Write(t.Context(), "manifest.json", bytes.NewReader(nil))
	assert.ErrorContains(t, err, "failed to upload to s3://polyglots/runs/manifest.json: denied")
}
