// Package receipttest builds minimal .docx templates for tests.
package receipttest

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const rootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const documentHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const documentTail = `</w:body></w:document>`

// DefaultKeys are the placeholders written by WriteTemplate when none are given.
var DefaultKeys = []string{
	"titular_nombre", "titular_apellidos", "menor_nombre", "relacion_familiar",
	"codigo_ayuda", "descripcion_ayuda", "cuantia", "metodo_pago", "fecha_actual",
}

// WriteTemplate saves a .docx with one paragraph "key: {key}" per key and
// returns its path.
func WriteTemplate(t testing.TB, dir string, keys ...string) string {
	t.Helper()
	if len(keys) == 0 {
		keys = DefaultKeys
	}

	var body strings.Builder
	for _, k := range keys {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">` + k + `: {` + k + `}</w:t></w:r></w:p>`)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct{ name, data string }{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", rootRels},
		{"word/document.xml", documentHead + body.String() + documentTail},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			t.Fatalf("zip create %s: %v", f.name, err)
		}
		if _, err := w.Write([]byte(f.data)); err != nil {
			t.Fatalf("zip write %s: %v", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	path := filepath.Join(dir, "plantilla_recibo.docx")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return path
}

// DocumentXML returns word/document.xml of the .docx at path.
func DocumentXML(t testing.TB, path string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open document.xml: %v", err)
		}
		defer rc.Close()
		var out bytes.Buffer
		if _, err := out.ReadFrom(rc); err != nil {
			t.Fatalf("read document.xml: %v", err)
		}
		return out.String()
	}
	t.Fatalf("%s has no word/document.xml", path)
	return ""
}
