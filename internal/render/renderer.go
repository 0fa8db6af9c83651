package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/phrazzld/careerpath-api/internal/domain"
)

// Output formats
const (
	FormatPDF  = "pdf"
	FormatHTML = "html"
)

// ErrRender wraps every failure to produce a report file.
var ErrRender = errors.New("render failed")

// Renderer writes a report document to destPath and returns the path written.
type Renderer interface {
	Render(ctx context.Context, doc domain.ReportDocument, destPath string) (string, error)
	// Extension is the file extension of the produced files, without a dot.
	Extension() string
}

// writeFileAtomic streams r into a temporary file next to dest and renames
// it into place, so readers never observe a partial report.
func writeFileAtomic(dest string, r io.Reader) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create directory: %v", ErrRender, err)
	}

	tmp, err := os.CreateTemp(dir, ".render-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrRender, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write report: %v", ErrRender, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close report: %v", ErrRender, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: chmod report: %v", ErrRender, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("%w: move report into place: %v", ErrRender, err)
	}
	return nil
}
