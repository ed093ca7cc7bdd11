package document

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Codec extracts text for one or more formats. Available reports nil when
// the codec can run in this process (binary present, library usable).
type Codec interface {
	Name() string
	Formats() []FileType
	Available() error
	Extract(ctx context.Context, data []byte, opts ExtractOptions) (*ExtractionResult, error)
}

// CodecStatus is a snapshot of a registered codec for diagnostics.
type CodecStatus struct {
	Name      string     `json:"name"`
	Formats   []FileType `json:"formats"`
	Available bool       `json:"available"`
	Reason    string     `json:"reason,omitempty"`
}

type Registry struct {
	mu     sync.RWMutex
	codecs map[FileType]Codec
	order  []Codec
}

func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{codecs: make(map[FileType]Codec)}
	for _, c := range codecs {
		r.Register(c)
	}
	return r
}

// Register adds c for all its formats, replacing earlier codecs.
func (r *Registry) Register(c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range c.Formats() {
		r.codecs[f] = c
	}
	r.order = append(r.order, c)
}

// Lookup returns the usable codec for t or an UnavailableCodecError.
func (r *Registry) Lookup(t FileType) (Codec, error) {
	r.mu.RLock()
	c, ok := r.codecs[t]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnavailableCodecError{Format: t}
	}
	if err := c.Available(); err != nil {
		return nil, &UnavailableCodecError{Format: t, Codec: c.Name(), Reason: err.Error()}
	}
	return c, nil
}

// Status probes every registered codec.
func (r *Registry) Status() []CodecStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]CodecStatus, 0, len(r.order))
	for _, c := range r.order {
		st := CodecStatus{Name: c.Name(), Formats: c.Formats(), Available: true}
		if err := c.Available(); err != nil {
			st.Available = false
			st.Reason = err.Error()
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Extractor runs the registered codec for a format and normalizes its
// failures into ExtractionError.
type Extractor struct {
	registry *Registry
}

func NewExtractor(registry *Registry) *Extractor {
	return &Extractor{registry: registry}
}

func (e *Extractor) Registry() *Registry {
	return e.registry
}

// Extract returns the text of data. Page information is only kept for pdf
// and only when opts.WithPageInfo is set.
func (e *Extractor) Extract(ctx context.Context, data []byte, t FileType, opts ExtractOptions) (*ExtractionResult, error) {
	codec, err := e.registry.Lookup(t)
	if err != nil {
		return nil, err
	}

	res, err := safeExtract(ctx, codec, data, opts)
	if err != nil {
		return nil, &ExtractionError{Format: t, Cause: err}
	}
	if t != FileTypePDF || !opts.WithPageInfo {
		res.PageBreaks = nil
		res.PageBreakMethod = PageBreakNone
	}
	return res, nil
}

func safeExtract(ctx context.Context, c Codec, data []byte, opts ExtractOptions) (res *ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%s codec panic: %v", c.Name(), r)
		}
	}()
	return c.Extract(ctx, data, opts)
}

// DefaultRegistry wires the built-in codecs.
func DefaultRegistry(ocr *OCRCodec) *Registry {
	return NewRegistry(TextCodec{}, PDFCodec{}, DocxCodec{}, ocr)
}
