package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Exporter writes rendered documents under a storage directory.
type Exporter struct {
	dir      string
	renderer Renderer
}

// NewExporter builds an exporter writing into dir.
func NewExporter(dir string, renderer Renderer) *Exporter {
	return &Exporter{dir: dir, renderer: renderer}
}

// FileName returns the download name of a note's document.
func (e *Exporter) FileName(noteID string) string {
	return "deliverynote-" + noteID + e.renderer.Extension()
}

// Export renders doc and returns the path of the written file. The file is
// written to a temporary name first and renamed into place.
func (e *Exporter) Export(ctx context.Context, doc *Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}

	target := filepath.Join(e.dir, e.FileName(doc.NoteID))
	tmp, err := os.CreateTemp(e.dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := e.renderer.Render(tmp, doc); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("move export into place: %w", err)
	}
	return target, nil
}
