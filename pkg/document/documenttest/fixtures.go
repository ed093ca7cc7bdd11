// Package documenttest builds small well-formed documents for tests.
package documenttest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

const WordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"


// BuildPDF writes a minimal but well-formed PDF with one Helvetica text
// run per page. An empty page string produces a page that only paints a
// rectangle, which is what a scanned page looks like to a text parser.
func BuildPDF(pages []string) []byte {
	var buf bytes.Buffer
	offsets := []int{}
	write := func(format string, args ...interface{}) {
		fmt.Fprintf(&buf, format, args...)
	}
	object := func(num int, body string) {
		offsets = append(offsets, buf.Len())
		write("%d 0 obj\n%s\nendobj\n", num, body)
	}

	write("%%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	object(1, "<< /Type /Catalog /Pages 2 0 R >>")
	object(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	object(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i, text := range pages {
		pageNum := 4 + 2*i
		contentNum := pageNum + 1
		object(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			contentNum,
		))
		stream := "0 0 100 100 re f"
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		}
		object(contentNum, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	write("xref\n0 %d\n", len(offsets)+1)
	write("0000000000 65535 f \n")
	for _, off := range offsets {
		write("%010d 00000 n \n", off)
	}
	write("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func BuildDocx(paragraphs ...string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	ct, _ := zw.Create("[Content_Types].xml")
	ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`))

	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>`)
		body.WriteString(p)
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	doc, _ := zw.Create("word/document.xml")
	doc.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="` + WordNamespace + `"><w:body>` + body.String() + `</w:body></w:document>`))

	zw.Close()
	return buf.Bytes()
}

// PNGHeader is the signature plus the start of an IHDR chunk.
var PNGHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}
