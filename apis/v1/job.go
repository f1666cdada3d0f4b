package v1

// MaxPad is the largest accepted Pad, in KB (64 MiB per input).
const MaxPad = 65536

// CraftJob describes one polyglot crafting run: two inputs, the technique options and
// where the generated files go.
type CraftJob struct {
	Kind     string       `yaml:"kind" json:"kind" validate:"required,eq=CraftJob"`
	Metadata Metadata     `yaml:"metadata" json:"metadata" validate:"required"`
	Spec     CraftJobSpec `yaml:"spec" json:"spec" validate:"required"`
}

type Metadata struct {
	Name string `yaml:"name" json:"name" validate:"required"`
}

type CraftJobSpec struct {
	Inputs  InputsSpec   `yaml:"inputs" json:"inputs" validate:"required"`
	Options *OptionsSpec `yaml:"options,omitempty" json:"options,omitempty"`
	Output  *OutputSpec  `yaml:"output,omitempty" json:"output,omitempty"`
}

// InputsSpec names the two files to combine. File1 is the host in parasite,
// zipper and overlap techniques.
type InputsSpec struct {
	File1 string `yaml:"file1" json:"file1" validate:"required" template:""`
	File2 string `yaml:"file2" json:"file2" validate:"required" template:""`
}

// OptionsSpec tunes the crafting run. All toggles default to off.
type OptionsSpec struct {
	// Reverse also runs every technique with the inputs swapped.
	Reverse bool `yaml:"reverse,omitempty" json:"reverse,omitempty"`

	// Split writes the two views of every artifact, with the other side's bytes
	// replaced by filler.
	Split bool `yaml:"split,omitempty" json:"split,omitempty"`

	// Force treats an unrecognized second file as a binary blob.
	Force bool `yaml:"force,omitempty" json:"force,omitempty"`

	// Overlap enables the overlapping techniques.
	Overlap bool `yaml:"overlap,omitempty" json:"overlap,omitempty"`

	// Pad extends both inputs with 0x01 bytes to this size in KB before identification.
	// At most MaxPad.
	Pad int `yaml:"pad,omitempty" json:"pad,omitempty" validate:"gte=0,lte=65536"`

	// Align pads parasite outputs to a multiple of 16 bytes.
	Align bool `yaml:"align,omitempty" json:"align,omitempty"`

	Verbose bool `yaml:"verbose,omitempty" json:"verbose,omitempty"`

	// OverlapThreshold is the longest shared prefix accepted. Default: "6"
	OverlapThreshold int `yaml:"overlap_threshold,omitempty" json:"overlap_threshold,omitempty" validate:"gte=0"`

	// Precedence picks the recognizer when several match an input. Default: "first"
	Precedence string `yaml:"precedence,omitempty" json:"precedence,omitempty" validate:"omitempty,oneof=first last"`

	// Concurrency is the number of techniques evaluated in parallel. Default: "1"
	Concurrency int `yaml:"concurrency,omitempty" json:"concurrency,omitempty" validate:"gte=0,lte=64"`
}

// OutputSpec configures how results are written.
type OutputSpec struct {
	// Sink configures where artifacts are written (default: current directory).
	Sink *SinkSpec `yaml:"sink,omitempty" json:"sink,omitempty"`

	// Split configures where split views are written (default: the artifact sink).
	Split *SplitSpec `yaml:"split,omitempty" json:"split,omitempty"`

	// Archive bundles every written file into a single archive.
	Archive *ArchiveSpec `yaml:"archive,omitempty" json:"archive,omitempty"`

	// Persist writes the artifacts. When false the run only reports what it would
	// create. Default: "true"
	Persist *bool `yaml:"persist,omitempty" json:"persist,omitempty"`
}

// SinkSpec configures the output destination (one of the fields should be set).
type SinkSpec struct {
	Filesystem *FilesystemSinkSpec `yaml:"filesystem,omitempty" json:"filesystem,omitempty"`
	S3         *S3SinkSpec         `yaml:"s3,omitempty" json:"s3,omitempty"`
	Stdout     *StdoutSinkSpec     `yaml:"stdout,omitempty" json:"stdout,omitempty"`
}

// StdoutSinkSpec writes a single artifact to stdout.
type StdoutSinkSpec struct {
	// Technique selects the artifact to stream. Default: the first artifact crafted.
	Technique string `yaml:"technique,omitempty" json:"technique,omitempty" validate:"omitempty,oneof=stack parasite zipper cavity overlap reverse-overlap"`
}

type FilesystemSinkSpec struct {
	// Path is the output directory. Defaults to the working directory.
	Path *string `yaml:"path,omitempty" json:"path,omitempty" template:""`

	// Prefix is a subdirectory appended to Path.
	Prefix *string `yaml:"prefix,omitempty" json:"prefix,omitempty" template:""`
}

type S3SinkSpec struct {
	Bucket         string         `yaml:"bucket" json:"bucket" validate:"required" template:""`
	Region         *string        `yaml:"region,omitempty" json:"region,omitempty" template:""`
	Endpoint       *string        `yaml:"endpoint,omitempty" json:"endpoint,omitempty" template:""`
	Prefix         *string        `yaml:"prefix,omitempty" json:"prefix,omitempty" template:""`
	ForcePathStyle bool           `yaml:"force_path_style,omitempty" json:"force_path_style,omitempty"`
	Credentials    *S3Credentials `yaml:"credentials,omitempty" json:"credentials,omitempty"`
}

// S3Credentials are static credentials. Without them the default AWS chain is used.
type S3Credentials struct {
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id" validate:"required" template:""`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key" validate:"required" template:""`
}

type SplitSpec struct {
	Sink *SinkSpec `yaml:"sink,omitempty" json:"sink,omitempty"`
}

type ArchiveSpec struct {
	// Name of the archive without extension. Defaults to $JOB_NAME.
	Name string `yaml:"name,omitempty" json:"name,omitempty" template:""`

	// Format of the archive. Default: "tar"
	Format string `yaml:"format,omitempty" json:"format,omitempty" validate:"omitempty,oneof=tar zip"`

	// Compression of tar archives. Default: "gzip"
	Compression string `yaml:"compression,omitempty" json:"compression,omitempty" validate:"omitempty,oneof=gzip zstd lz4 none"`
}
