package runner

import (
	"fmt"

	v1 "github.com/infracollect/polycraft/apis/v1"
)

// ResolvedSpec holds a kind identifier and the spec for that kind.
type ResolvedSpec struct {
	Kind string
	Spec any
}

// ResolveSinkSpec extracts the kind and spec from a v1.SinkSpec. A nil spec
// resolves to a filesystem sink in the working directory. Exactly one sink type
// may be set.
func ResolveSinkSpec(s *v1.SinkSpec) (ResolvedSpec, error) {
	if s == nil {
		return ResolvedSpec{Kind: "filesystem", Spec: &v1.FilesystemSinkSpec{}}, nil
	}

	var found []ResolvedSpec
	if s.Filesystem != nil {
		found = append(found, ResolvedSpec{Kind: "filesystem", Spec: s.Filesystem})
	}
	if s.S3 != nil {
		found = append(found, ResolvedSpec{Kind: "s3", Spec: s.S3})
	}
	if s.Stdout != nil {
		found = append(found, ResolvedSpec{Kind: "stdout", Spec: s.Stdout})
	}

	switch len(found) {
	case 0:
		return ResolvedSpec{}, fmt.Errorf("invalid sink configuration: no sink type specified")
	case 1:
		return found[0], nil
	default:
		return ResolvedSpec{}, fmt.Errorf("invalid sink configuration: %s and %s are both set", found[0].Kind, found[1].Kind)
	}
}
