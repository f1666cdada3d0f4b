package combine

import (
	"fmt"

	"github.com/infracollect/polycraft/internal/engine"
)

type violations struct {
	technique string
	list      []string
}

func (v *violations) add(format string, args ...any) {
	v.list = append(v.list, fmt.Sprintf(format, args...))
}

func (v *violations) err() error {
	if len(v.list) == 0 {
		return nil
	}
	return &engine.IneligibleError{Technique: v.technique, Violations: v.list}
}

// CheckStack reports whether f2 can be appended after f1.
func CheckStack(f1, f2 engine.FileType) error {
	c1, c2 := f1.Capabilities(), f2.Capabilities()
	v := violations{technique: "Stack"}

	if !c1.Append {
		v.add("File type 1 (%s) doesn't support appended data.", f1.Code())
	}
	if c2.StartOffset == 0 {
		v.add("File type 2 (%s) starts at offset 0 - it can't be appended.", f2.Code())
		return v.err()
	}
	if l := len(f1.Data()); l >= c2.StartOffset {
		v.add("File 1 is too big (0x%X). File 2 should start at offset 0x%X or less.", l, c2.StartOffset)
	}
	return v.err()
}

// CheckCavity reports whether f1 fits in the leading cavity of f2.
func CheckCavity(f1, f2 engine.FileType) error {
	c1, c2 := f1.Capabilities(), f2.Capabilities()
	v := violations{technique: "Cavity"}

	if !c1.Append {
		v.add("File type 1 (%s) doesn't support appended data.", f1.Code())
	}
	if c2.LeadingCavity <= 0 {
		v.add("File type 2 (%s) doesn't start with any cavity.", f2.Code())
		return v.err()
	}
	if l := len(f1.Data()); l > c2.LeadingCavity {
		v.add("File 1 is too big (0x%X). File 2's cavity is only 0x%X.", l, c2.LeadingCavity)
	}
	return v.err()
}

// CheckParasite reports whether f1 can host f2.
func CheckParasite(f1, f2 engine.FileType) error {
	c1, c2 := f1.Capabilities(), f2.Capabilities()
	v := violations{technique: "Parasite"}

	if !c1.Parasite {
		v.add("File type 1 (%s) doesn't support parasites.", f1.Code())
		return v.err()
	}
	if c1.ParasiteOffset > c2.StartOffset+c2.LeadingCavity {
		v.add("File type 1 (%s) can only host parasites at offset 0x%X. File 2 should start at offset 0x%X or less.",
			f1.Code(), c1.ParasiteOffset, c2.StartOffset+c2.LeadingCavity)
	}
	if l := len(f2.Data()); c1.ParasiteCapacity < l {
		v.add("File type 1 (%s) can accept parasites only of size 0x%X max. File 2 is too big (0x%X).",
			f1.Code(), c1.ParasiteCapacity, l)
	}
	return v.err()
}

// CheckZipper reports whether f1 and f2 can be interleaved.
func CheckZipper(f1, f2 engine.FileType) error {
	c1, c2 := f1.Capabilities(), f2.Capabilities()
	v := violations{technique: "Zipper"}

	switch {
	case !c1.Zipper:
		v.add("File type 1 (%s) doesn't support zippers.", f1.Code())
	case !c1.Parasite:
		v.add("File type 1 (%s) doesn't support parasites.", f1.Code())
	case !c2.Parasite:
		v.add("File type 2 (%s) doesn't support parasites.", f2.Code())
	}
	return v.err()
}
