package document

import "context"

// TextCodec returns txt and md content verbatim.
type TextCodec struct{}

func (TextCodec) Name() string { return "text" }

func (TextCodec) Formats() []FileType { return []FileType{FileTypeTXT, FileTypeMD} }

func (TextCodec) Available() error { return nil }

func (TextCodec) Extract(_ context.Context, data []byte, _ ExtractOptions) (*ExtractionResult, error) {
	return &ExtractionResult{Text: string(data), PageBreakMethod: PageBreakNone}, nil
}
