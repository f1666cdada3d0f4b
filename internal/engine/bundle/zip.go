package bundle

import (
	"bytes"
	"context"
	"fmt"

	"github.com/klauspost/compress/zip"
)

// Zip stores entries uncompressed so every polyglot extracts byte for byte.
// Entries carry no timestamp.
type Zip struct {
	out    bytes.Buffer
	zw     *zip.Writer
	sealed bool
}

func NewZip() *Zip {
	z := &Zip{}
	z.zw = zip.NewWriter(&z.out)
	return z
}

func (z *Zip) Add(ctx context.Context, name string, data []byte) error {
	if z.sealed {
		return ErrSealed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	w, err := z.zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return fmt.Errorf("failed to create zip entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write zip entry %s: %w", name, err)
	}
	return nil
}

func (z *Zip) Seal() ([]byte, error) {
	if z.sealed {
		return nil, ErrSealed
	}
	z.sealed = true

	if err := z.zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to seal zip bundle: %w", err)
	}
	return z.out.Bytes(), nil
}

func (z *Zip) Extension() string { return ".zip" }
