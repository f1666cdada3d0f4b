package artifact

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/infracollect/polycraft/internal/engine"
)

// mockSink records all writes for verification.
type mockSink struct {
	writes map[string][]byte
	order  []string
}

func newMockSink() *mockSink {
	return &mockSink{writes: make(map[string][]byte)}
}

func (m *mockSink) Name() string                { return "mock" }
func (m *mockSink) Kind() string                { return "mock" }
func (m *mockSink) Close(context.Context) error { return nil }

func (m *mockSink) Write(_ context.Context, path string, data io.Reader) error {
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.writes[path] = content
	m.order = append(m.order, path)
	return nil
}

// constantFiller fills with a single byte value.
type constantFiller byte

func (c constantFiller) New() io.Reader {
	return bytes.NewReader(bytes.Repeat([]byte{byte(c)}, 1024))
}

func testArtifact() engine.Artifact {
	return engine.Artifact{
		Technique:      engine.TagParasite,
		Stem:           "P(4-8)-AAA[BBB]",
		Extensions:     [2]string{"aaa", "bbb"},
		SideExtensions: [2]string{"aaa", "bbb"},
		Data:           []byte("aaaaBBBBaaaa"),
		Ledger:         engine.Ledger{4, 8},
	}
}

func TestID(t *testing.T) {
	id := ID([]byte("polyglot"))
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}$`), id)
	assert.Equal(t, id, ID([]byte("polyglot")))
	assert.NotEqual(t, id, ID([]byte("polyglot!")))
}

func TestFilename(t *testing.T) {
	a := testArtifact()
	assert.Equal(t, "P(4-8)-AAA[BBB]."+ID(a.Data)+".aaa.bbb", Filename(a))

	// identical bytes under another name share the identifier
	other := testArtifact()
	other.Stem = "Z(4-8)-AAA^BBB"
	assert.Equal(t, ID(a.Data), ID(other.Data))
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		ledger  engine.Ledger
		overlap []byte
		want    [2]string
	}{
		{
			name:   "alternating spans",
			ledger: engine.Ledger{4, 8},
			want:   [2]string{"aaaa....aaaa", "....BBBB...."},
		},
		{
			name:    "overlap replaces the start of the second view",
			ledger:  engine.Ledger{4, 8},
			overlap: []byte("MZ"),
			want:    [2]string{"aaaa....aaaa", "MZ..BBBB...."},
		},
		{
			name:   "guest at the end",
			ledger: engine.Ledger{4},
			want:   [2]string{"aaaa........", "....BBBBaaaa"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testArtifact()
			a.Ledger = tt.ledger
			a.Overlap = tt.overlap

			views, err := Split(a, constantFiller('.').New())
			require.NoError(t, err)
			assert.Equal(t, tt.want[0], string(views[0]))
			assert.Equal(t, tt.want[1], string(views[1]))
		})
	}
}

func TestSplit_InvalidLedger(t *testing.T) {
	a := testArtifact()
	a.Ledger = engine.Ledger{8, 4}

	_, err := Split(a, constantFiller('.').New())
	assert.ErrorContains(t, err, "invalid ledger")
}

func TestWriter_Write(t *testing.T) {
	out := newMockSink()
	splits := newMockSink()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	w := NewWriter(zap.NewNop(), constantFiller('.'),
		WithSink(out),
		WithSplit(splits),
		WithClock(func() time.Time { return created }),
	)

	a := testArtifact()
	inputs := []Input{{Name: "one.aaa", Code: "AAA", Size: 8}, {Name: "two.bbb", Code: "BBB", Size: 4}}
	report, err := w.Write(t.Context(), inputs, []engine.Artifact{a, a})
	require.NoError(t, err)

	name := Filename(a)
	require.Len(t, report.Files, 1, "duplicates are written once")
	assert.Equal(t, []string{name, ManifestName}, out.order)
	assert.Equal(t, a.Data, out.writes[name])

	assert.Equal(t, []byte("aaaa....aaaa"), splits.writes["P(4-8)-AAA[BBB].aaa"])
	assert.Equal(t, []byte("....BBBB...."), splits.writes["P(4-8)-AAA[BBB].bbb"])

	m, err := DecodeManifest(out.writes[ManifestName])
	require.NoError(t, err)
	assert.Len(t, m.RunID, 26)
	assert.True(t, created.Equal(m.CreatedAt))
	assert.Equal(t, []InputEntry{{Name: "one.aaa", Code: "AAA", Size: 8}, {Name: "two.bbb", Code: "BBB", Size: 4}}, m.Inputs)
	require.Len(t, m.Artifacts, 1)
	assert.Equal(t, ArtifactEntry{
		Filename:    name,
		Technique:   engine.TagParasite,
		Size:        12,
		Ledger:      []int{4, 8},
		ID:          ID(a.Data),
		Fingerprint: Fingerprint(a.Data),
		Split:       []string{"P(4-8)-AAA[BBB].aaa", "P(4-8)-AAA[BBB].bbb"},
	}, m.Artifacts[0])
}

func TestWriter_DeterministicFiller(t *testing.T) {
	run := func() *Report {
		w := NewWriter(zap.NewNop(), DefaultFiller(), WithSplit(nil))
		first := testArtifact()
		second := testArtifact()
		second.Stem = "Z(4-8)-AAA^BBB"
		report, err := w.Write(t.Context(), nil, []engine.Artifact{first, second})
		require.NoError(t, err)
		return report
	}

	a, b := run(), run()
	require.Len(t, a.Splits, 4)
	assert.Equal(t, a.Splits, b.Splits)
	assert.Equal(t, a.Files, b.Files)

	// the generator restarts for every artifact
	assert.Equal(t, a.Splits[0].Data, a.Splits[2].Data)
	assert.Equal(t, a.Splits[1].Data, a.Splits[3].Data)
	assert.NotEqual(t, []byte("aaaa....aaaa"), a.Splits[0].Data)
}

func TestWriter_NoSink(t *testing.T) {
	w := NewWriter(zap.NewNop(), DefaultFiller())
	a := testArtifact()

	report, err := w.Write(t.Context(), nil, []engine.Artifact{a})
	require.NoError(t, err)
	assert.Equal(t, []File{{Name: Filename(a), Data: a.Data}}, report.Files)
	assert.Empty(t, report.Splits)
}

func TestWriter_WithoutManifest(t *testing.T) {
	out := newMockSink()
	w := NewWriter(zap.NewNop(), DefaultFiller(), WithSink(out), WithoutManifest())
	a := testArtifact()

	_, err := w.Write(t.Context(), nil, []engine.Artifact{a})
	require.NoError(t, err)
	assert.Equal(t, []string{Filename(a)}, out.order)
}
