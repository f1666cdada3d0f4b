// Package base holds the parts shared by format handles.
package base

import (
	"github.com/infracollect/polycraft/internal/engine"
)

// Handle carries the identity and the raw bytes of a recognized buffer.
type Handle struct {
	code        string
	description string
	data        []byte
}

func NewHandle(code, description string, data []byte) Handle {
	return Handle{code: code, description: description, data: data}
}

func (h Handle) Code() string {
	return h.code
}

func (h Handle) Description() string {
	return h.description
}

func (h Handle) Data() []byte {
	return h.data
}

// TrailingData is embedded by formats that tolerate raw appended bytes.
type TrailingData struct{}

func (TrailingData) WrapAppend(payload []byte) []byte {
	return payload
}

// NoParasite is embedded by formats that cannot host other files.
type NoParasite struct{}

func (NoParasite) EmbedParasite(engine.FileType) ([]byte, engine.Ledger, bool) {
	return nil, nil, false
}

func (NoParasite) ComputeCut() (int, bool) {
	return 0, false
}

// NoInterleave is embedded by formats that cannot host interleaved chunks.
type NoInterleave struct{}

func (NoInterleave) Interleave(engine.FileType) ([]byte, engine.Ledger, bool) {
	return nil, nil, false
}

// Recognizer adapts a predicate and a constructor to engine.Recognizer.
type Recognizer struct {
	code        string
	description string
	identify    func([]byte) bool
	open        func([]byte) (engine.FileType, error)
}

func NewRecognizer(code, description string, identify func([]byte) bool, open func([]byte) (engine.FileType, error)) *Recognizer {
	return &Recognizer{code: code, description: description, identify: identify, open: open}
}

func (r *Recognizer) Code() string {
	return r.code
}

func (r *Recognizer) Description() string {
	return r.description
}

func (r *Recognizer) Identify(data []byte) bool {
	return r.identify(data)
}

func (r *Recognizer) Open(data []byte) (engine.FileType, error) {
	return r.open(data)
}
