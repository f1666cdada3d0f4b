// Package blob provides an opaque handle over arbitrary bytes. It is used when a
// second input is forced without being recognized, and as the trimmed view of a
// guest in overlap techniques.
package blob

import (
	"github.com/infracollect/polycraft/internal/engine"
	"github.com/infracollect/polycraft/internal/formats/base"
)

const (
	Code        = "BLOB"
	Description = "Binary blob"
)

type File struct {
	base.Handle
	base.TrailingData
	base.NoParasite
	base.NoInterleave
}

var _ engine.FileType = (*File)(nil)

func New(data []byte) *File {
	return &File{Handle: base.NewHandle(Code, Description, data)}
}

func (f *File) Capabilities() engine.Capabilities {
	return engine.Capabilities{Append: true}
}
