package receipt

import (
	"bytes"
	"os"
	"path/filepath"

	docx "github.com/lukasjarosch/go-docx"

	"recibi/internal/apperr"
	"recibi/internal/logging"
)

// Renderer writes a context to an output document.
type Renderer interface {
	Render(c *Context, outDir string) (string, error)
}

// DocxRenderer fills {placeholder} fields of a .docx template.
type DocxRenderer struct {
	TemplatePath string
}

// NewDocxRenderer creates a renderer over the template at path.
func NewDocxRenderer(path string) *DocxRenderer {
	return &DocxRenderer{TemplatePath: path}
}

// Render substitutes c into the template and writes outDir/c.FileName.
// The document is assembled in memory and moved into place only once
// complete, so a failure never leaves a partial file behind.
func (r *DocxRenderer) Render(c *Context, outDir string) (string, error) {
	const op = "receipt.Render"

	if _, err := os.Stat(r.TemplatePath); err != nil {
		return "", apperr.Render(op, "template not found: "+r.TemplatePath, err)
	}

	doc, err := docx.Open(r.TemplatePath)
	if err != nil {
		return "", apperr.Render(op, "cannot open template", err)
	}
	defer doc.Close()

	placeholders := make(docx.PlaceholderMap, len(c.Fields))
	for k, v := range c.Fields {
		placeholders[k] = v
	}
	if err := doc.ReplaceAll(placeholders); err != nil {
		return "", apperr.Render(op, "placeholder substitution failed", err)
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return "", apperr.Render(op, "cannot serialize document", err)
	}

	dest := filepath.Join(outDir, c.FileName)
	if err := writeAtomic(dest, buf.Bytes()); err != nil {
		return "", apperr.Render(op, "cannot write "+dest, err)
	}

	logging.Render("rendered %s (%d bytes)", dest, buf.Len())
	return dest, nil
}

func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".recibi-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
