package wire

import (
	"fmt"
	"strings"

	"github.com/arloliu/binio/buffer"
	"github.com/arloliu/binio/internal/hash"
)

// FieldHeader describes one serialized field occurrence: its name, declared
// type tag, payload length, and the absolute buffer offset where the payload
// begins.
//
// Headers form a tree mirroring nested object structure; each StartMarker
// field owns the headers written between it and its EndMarker. A structural
// parse (ParseIoStream) materializes the whole tree without deserializing
// any payload, so callers can inspect a stream's shape, look fields up by
// name, and skip anything they do not recognize.
type FieldHeader struct {
	// Name is the field name, unique among its parent's immediate children.
	Name string
	// NameHash is the xxHash64 of Name, compared before the string itself
	// during lookup.
	NameHash uint64
	// Type is the declared data type tag.
	Type DataType
	// DataStart is the absolute buffer offset of the payload.
	DataStart int
	// DataSize is the payload length in bytes. A header's recorded size
	// exactly equals the bytes its payload occupies; this is what makes
	// unknown fields skippable.
	DataSize int

	parent   *FieldHeader
	children []*FieldHeader
}

// NewFieldHeader creates a detached header. Most callers obtain headers from
// ParseIoStream instead.
func NewFieldHeader(name string, t DataType, dataStart, dataSize int) *FieldHeader {
	return &FieldHeader{
		Name:      name,
		NameHash:  hash.ID(name),
		Type:      t,
		DataStart: dataStart,
		DataSize:  dataSize,
	}
}

// Parent returns the enclosing object's header, nil for the root.
func (h *FieldHeader) Parent() *FieldHeader { return h.parent }

// Children returns the ordered child headers of a nested object.
func (h *FieldHeader) Children() []*FieldHeader { return h.children }

func (h *FieldHeader) addChild(c *FieldHeader) {
	c.parent = h
	h.children = append(h.children, c)
}

// FindChild returns the first immediate child with the given name, or nil.
func (h *FieldHeader) FindChild(name string) *FieldHeader {
	id := hash.ID(name)
	for _, c := range h.children {
		if c.NameHash == id && c.Name == name {
			return c
		}
	}

	return nil
}

// SeekPayload positions the buffer at the start of this field's payload.
func (h *FieldHeader) SeekPayload(buf buffer.IoBuffer) error {
	return buf.SetPosition(h.DataStart)
}

func (h *FieldHeader) String() string {
	return fmt.Sprintf("%q(%s, %d bytes @%d)", h.Name, h.Type, h.DataSize, h.DataStart)
}

// TreeString renders the header tree for diagnostics, one field per line.
func (h *FieldHeader) TreeString() string {
	var sb strings.Builder
	h.dump(&sb, 0)

	return sb.String()
}

func (h *FieldHeader) dump(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(h.String())
	sb.WriteByte('\n')
	for _, c := range h.children {
		c.dump(sb, depth+1)
	}
}
