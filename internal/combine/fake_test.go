package combine

import (
	"github.com/infracollect/polycraft/internal/engine"
)

// fakeFile is a format with hand-set capabilities. Its wrapper bytes prefix every
// appended payload and, unless embed is set, guests are inserted at the parasite
// offset.
type fakeFile struct {
	code    string
	data    []byte
	caps    engine.Capabilities
	wrapper []byte
	embed   func(other engine.FileType) ([]byte, engine.Ledger, bool)
	cut     *int
}

var _ engine.FileType = (*fakeFile)(nil)

func (f *fakeFile) Code() string                      { return f.code }
func (f *fakeFile) Description() string               { return "fake " + f.code }
func (f *fakeFile) Data() []byte                      { return f.data }
func (f *fakeFile) Capabilities() engine.Capabilities { return f.caps }

func (f *fakeFile) WrapAppend(payload []byte) []byte {
	return engine.Splice(f.wrapper, payload)
}

func (f *fakeFile) EmbedParasite(other engine.FileType) ([]byte, engine.Ledger, bool) {
	if f.embed != nil {
		return f.embed(other)
	}
	p := f.caps.ParasiteOffset
	hosted := engine.HostedBytes(p, other)
	return engine.Splice(f.data[:p], hosted, f.data[p:]), engine.Ledger{p, p + len(hosted)}, true
}

func (f *fakeFile) Interleave(engine.FileType) ([]byte, engine.Ledger, bool) {
	return nil, nil, false
}

func (f *fakeFile) ComputeCut() (int, bool) {
	if f.cut == nil {
		return 0, false
	}
	return *f.cut, true
}

func pairOf(f1, f2 engine.FileType) engine.Pair {
	return engine.Pair{First: f1, Second: f2, FirstName: "one.f1", SecondName: "two.f2"}
}

func filled(n int, b byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
