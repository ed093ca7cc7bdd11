package document

import "lucide-core/pkg/document/documenttest"

func buildPDF(pages []string) []byte { return documenttest.BuildPDF(pages) }

func buildDocx(paragraphs ...string) []byte { return documenttest.BuildDocx(paragraphs...) }

var pngHeader = documenttest.PNGHeader
