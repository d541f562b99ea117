package framefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Errors returned while loading and building frames.
var (
	ErrEmpty         = errors.New("framefile: frame description is empty")
	ErrUnknownFormat = errors.New("framefile: unknown format")
	ErrUnknownField  = errors.New("framefile: unknown field")
	ErrUnknownKind   = errors.New("framefile: unknown node kind")
	ErrUndeclared    = errors.New("framefile: undeclared resource")
	ErrInvalid       = errors.New("framefile: invalid value")
)

// Format is the encoding of a frame description.
type Format int

// Supported formats.
const (
	TOML Format = iota
	YAML
)

func (f Format) String() string {
	switch f {
	case TOML:
		return "toml"
	case YAML:
		return "yaml"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// Frame is one frame of GPU work: the resources it touches and its nodes
// in program order.
type Frame struct {
	Name string `toml:"name" yaml:"name"`
	// Barriers is "union" (default) or "precise".
	Barriers string `toml:"barriers" yaml:"barriers"`
	// Reorder defaults to true.
	Reorder *bool `toml:"reorder" yaml:"reorder"`

	Buffers []Buffer `toml:"buffer" yaml:"buffers"`
	Images  []Image  `toml:"image" yaml:"images"`
	Nodes   []Node   `toml:"node" yaml:"nodes"`
}

// Buffer declares a buffer resource. Handles are nonzero and unique
// across buffers and images.
type Buffer struct {
	Handle uint64 `toml:"handle" yaml:"handle"`
	Label  string `toml:"label" yaml:"label"`
	Size   uint64 `toml:"size" yaml:"size"`
}

// Image declares an image resource. Layered images track every array
// layer separately.
type Image struct {
	Handle  uint64 `toml:"handle" yaml:"handle"`
	Label   string `toml:"label" yaml:"label"`
	Width   uint32 `toml:"width" yaml:"width"`
	Height  uint32 `toml:"height" yaml:"height"`
	Mips    uint32 `toml:"mips" yaml:"mips"`
	Layers  uint32 `toml:"layers" yaml:"layers"`
	Layered bool   `toml:"layered" yaml:"layered"`
	Depth   bool   `toml:"depth" yaml:"depth"`
}

// Node describes one graph node. Kind selects which of the remaining
// fields are read; the others must be left empty.
type Node struct {
	Kind  string `toml:"kind" yaml:"kind"`
	Label string `toml:"label" yaml:"label"`

	// Single-resource nodes.
	Buffer uint64 `toml:"buffer" yaml:"buffer"`
	Image  uint64 `toml:"image" yaml:"image"`
	// Copies and blits.
	Src     uint64   `toml:"src" yaml:"src"`
	Dst     uint64   `toml:"dst" yaml:"dst"`
	Regions []Region `toml:"region" yaml:"regions"`
	Filter  string   `toml:"filter" yaml:"filter"`

	Offset uint64 `toml:"offset" yaml:"offset"`
	Size   uint64 `toml:"size" yaml:"size"`
	// Value is the FillBuffer word.
	Value uint32 `toml:"value" yaml:"value"`
	// Bytes is the UpdateBuffer payload, hex encoded.
	Bytes string `toml:"bytes" yaml:"bytes"`

	// Clears and synchronization.
	Ranges  []Range   `toml:"range" yaml:"ranges"`
	Color   []float32 `toml:"color" yaml:"color"`
	Depth   float32   `toml:"depth" yaml:"depth"`
	Stencil uint32    `toml:"stencil" yaml:"stencil"`
	Layout  string    `toml:"layout" yaml:"layout"`
	Aspect  string    `toml:"aspect" yaml:"aspect"`

	// Rendering scopes.
	Area             *Rect        `toml:"area" yaml:"area"`
	ColorAttachments []Attachment `toml:"color_attachment" yaml:"color_attachments"`
	DepthAttachment  *Attachment  `toml:"depth_attachment" yaml:"depth_attachment"`
	Clears           []Clear      `toml:"clear" yaml:"clears"`
	Rects            []Rect       `toml:"rect" yaml:"rects"`

	// Draws and dispatches.
	Pipeline       uint64    `toml:"pipeline" yaml:"pipeline"`
	PipelineLayout uint64    `toml:"pipeline_layout" yaml:"pipeline_layout"`
	FirstSet       uint32    `toml:"first_set" yaml:"first_set"`
	Sets           []uint64  `toml:"sets" yaml:"sets"`
	Vertices       uint32    `toml:"vertices" yaml:"vertices"`
	Instances      uint32    `toml:"instances" yaml:"instances"`
	FirstVertex    uint32    `toml:"first_vertex" yaml:"first_vertex"`
	FirstInstance  uint32    `toml:"first_instance" yaml:"first_instance"`
	Groups         []uint32  `toml:"groups" yaml:"groups"`
	DrawCount      uint32    `toml:"draw_count" yaml:"draw_count"`
	Stride         uint32    `toml:"stride" yaml:"stride"`
	Viewport       *Viewport `toml:"viewport" yaml:"viewport"`
	Scissor        *Rect     `toml:"scissor" yaml:"scissor"`

	// Access lists accesses beyond the ones the kind implies.
	Access []Access `toml:"access" yaml:"access"`
}

// Range is an image subresource range. A zero Mips or Layers count means
// all remaining levels or layers.
type Range struct {
	Aspect    string `toml:"aspect" yaml:"aspect"`
	BaseMip   uint32 `toml:"base_mip" yaml:"base_mip"`
	Mips      uint32 `toml:"mips" yaml:"mips"`
	BaseLayer uint32 `toml:"base_layer" yaml:"base_layer"`
	Layers    uint32 `toml:"layers" yaml:"layers"`
}

// Region is one copy or blit region. Buffer copies read the offsets and
// Size; image copies read the mip, layer and extent fields; buffer-image
// copies read BufferOffset, the row fields and the image-side mip and
// layer.
type Region struct {
	SrcOffset    uint64 `toml:"src_offset" yaml:"src_offset"`
	DstOffset    uint64 `toml:"dst_offset" yaml:"dst_offset"`
	Size         uint64 `toml:"size" yaml:"size"`
	BufferOffset uint64 `toml:"buffer_offset" yaml:"buffer_offset"`
	RowLength    uint32 `toml:"row_length" yaml:"row_length"`
	ImageHeight  uint32 `toml:"image_height" yaml:"image_height"`

	Aspect    string `toml:"aspect" yaml:"aspect"`
	SrcMip    uint32 `toml:"src_mip" yaml:"src_mip"`
	DstMip    uint32 `toml:"dst_mip" yaml:"dst_mip"`
	SrcLayer  uint32 `toml:"src_layer" yaml:"src_layer"`
	DstLayer  uint32 `toml:"dst_layer" yaml:"dst_layer"`
	Layers    uint32 `toml:"layers" yaml:"layers"`
	Width     uint32 `toml:"width" yaml:"width"`
	Height    uint32 `toml:"height" yaml:"height"`
	Depth     uint32 `toml:"depth" yaml:"depth"`
	DstWidth  uint32 `toml:"dst_width" yaml:"dst_width"`
	DstHeight uint32 `toml:"dst_height" yaml:"dst_height"`
}

// Attachment is one attachment of a rendering scope. Load defaults to
// "load" and Store to "store".
type Attachment struct {
	Image   uint64    `toml:"image" yaml:"image"`
	Layout  string    `toml:"layout" yaml:"layout"`
	Range   *Range    `toml:"range" yaml:"range"`
	Load    string    `toml:"load" yaml:"load"`
	Store   string    `toml:"store" yaml:"store"`
	Color   []float32 `toml:"color" yaml:"color"`
	Depth   float32   `toml:"depth" yaml:"depth"`
	Stencil uint32    `toml:"stencil" yaml:"stencil"`
}

// Clear is one ClearAttachments entry.
type Clear struct {
	Aspect     string    `toml:"aspect" yaml:"aspect"`
	Attachment uint32    `toml:"attachment" yaml:"attachment"`
	Color      []float32 `toml:"color" yaml:"color"`
	Depth      float32   `toml:"depth" yaml:"depth"`
	Stencil    uint32    `toml:"stencil" yaml:"stencil"`
}

// Rect is a 2D rectangle in pixels.
type Rect struct {
	X      int32  `toml:"x" yaml:"x"`
	Y      int32  `toml:"y" yaml:"y"`
	Width  uint32 `toml:"width" yaml:"width"`
	Height uint32 `toml:"height" yaml:"height"`
}

// Viewport is a draw viewport. MaxDepth defaults to 1.
type Viewport struct {
	X        float32  `toml:"x" yaml:"x"`
	Y        float32  `toml:"y" yaml:"y"`
	Width    float32  `toml:"width" yaml:"width"`
	Height   float32  `toml:"height" yaml:"height"`
	MinDepth float32  `toml:"min_depth" yaml:"min_depth"`
	MaxDepth *float32 `toml:"max_depth" yaml:"max_depth"`
}

// Access declares an extra access of a draw or dispatch. Exactly one of
// Buffer and Image is set. Stage defaults to the node's execution stage.
type Access struct {
	Buffer uint64 `toml:"buffer" yaml:"buffer"`
	Image  uint64 `toml:"image" yaml:"image"`
	Access string `toml:"access" yaml:"access"`
	Stage  string `toml:"stage" yaml:"stage"`
	Layout string `toml:"layout" yaml:"layout"`
	Range  *Range `toml:"range" yaml:"range"`
}

// Parse decodes a frame description. Unknown fields are rejected.
func Parse(data []byte, format Format) (*Frame, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}
	var f Frame
	switch format {
	case TOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, fmt.Errorf("framefile: decode toml: %w", err)
		}
		if err := checkUndecoded(md); err != nil {
			return nil, err
		}
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			if strings.Contains(err.Error(), "not found in type") {
				return nil, fmt.Errorf("%w: %v", ErrUnknownField, err)
			}
			return nil, fmt.Errorf("framefile: decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
	return &f, nil
}

func checkUndecoded(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}
	return fmt.Errorf("%w: %s", ErrUnknownField, strings.Join(keys, ","))
}

// Load reads a frame description from r.
func Load(r io.Reader, format Format) (*Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("framefile: read: %w", err)
	}
	return Parse(data, format)
}

// LoadFile reads a frame description, picking the format from the file
// extension.
func LoadFile(path string) (*Frame, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("framefile: read %s: %w", path, err)
	}
	f, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("framefile: %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}
