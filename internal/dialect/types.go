// Package dialect parses MAVLink dialect XML definitions into an
// in-memory Profile (messages, enums, fields) and computes the
// field-reordering and CRC_EXTRA values the wire codec depends on.
package dialect

import "sort"

// MavType is one wire primitive, or an array/char-array of one.
type MavType struct {
	Kind Kind
	Elem *MavType // non-nil only for Array
	Size int      // array/char-array length; 0 otherwise
}

// Kind enumerates the MAVLink primitive wire types.
type Kind int

const (
	KindUint8MavlinkVersion Kind = iota
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindChar
	KindFloat
	KindDouble
	KindCharArray
	KindArray
)

// Len returns the on-wire encoded length of the type.
func (t MavType) Len() int {
	switch t.Kind {
	case KindUint8MavlinkVersion, KindUint8, KindInt8, KindChar:
		return 1
	case KindUint16, KindInt16:
		return 2
	case KindUint32, KindInt32, KindFloat:
		return 4
	case KindUint64, KindInt64, KindDouble:
		return 8
	case KindCharArray:
		return t.Size
	case KindArray:
		return t.Elem.Len() * t.Size
	}
	return 0
}

// OrderLen is the element size used for the mavlink field-reordering
// rule: fields are sorted by descending primitive width, with arrays
// sorted by their element width rather than their total length
// (https://mavlink.io/en/guide/serialization.html#field_reordering).
func (t MavType) OrderLen() int {
	switch t.Kind {
	case KindUint8MavlinkVersion, KindUint8, KindInt8, KindChar, KindCharArray:
		return 1
	case KindUint16, KindInt16:
		return 2
	case KindUint32, KindInt32, KindFloat:
		return 4
	case KindUint64, KindInt64, KindDouble:
		return 8
	case KindArray:
		return t.Elem.Len()
	}
	return 0
}

// PrimitiveType returns the C-style primitive type name used in the
// CRC_EXTRA computation (the element type for arrays).
func (t MavType) PrimitiveType() string {
	switch t.Kind {
	case KindUint8MavlinkVersion, KindUint8:
		return "uint8_t"
	case KindInt8:
		return "int8_t"
	case KindChar, KindCharArray:
		return "char"
	case KindUint16:
		return "uint16_t"
	case KindInt16:
		return "int16_t"
	case KindUint32:
		return "uint32_t"
	case KindInt32:
		return "int32_t"
	case KindFloat:
		return "float"
	case KindUint64:
		return "uint64_t"
	case KindInt64:
		return "int64_t"
	case KindDouble:
		return "double"
	case KindArray:
		return t.Elem.PrimitiveType()
	}
	return ""
}

// GoType returns the Go type the code generator emits for this MavType.
func (t MavType) GoType() string {
	switch t.Kind {
	case KindUint8, KindUint8MavlinkVersion:
		return "uint8"
	case KindInt8:
		return "int8"
	case KindChar:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindInt16:
		return "int16"
	case KindUint32:
		return "uint32"
	case KindInt32:
		return "int32"
	case KindFloat:
		return "float32"
	case KindUint64:
		return "uint64"
	case KindInt64:
		return "int64"
	case KindDouble:
		return "float64"
	case KindCharArray:
		return "[]byte"
	case KindArray:
		return "[]" + t.Elem.GoType()
	}
	return ""
}

// IsArray reports whether the type has array or char-array shape.
func (t MavType) IsArray() bool { return t.Kind == KindArray || t.Kind == KindCharArray }

// Field is one message field.
type Field struct {
	Type         MavType
	Name         string // renamed ("mavtype" in place of the reserved "type")
	OriginalName string // pre-rename name, used by CRC_EXTRA
	Description  string
	EnumType     string
	Display      string // "bitmask" for flag enums
	IsExtension  bool
}

// EnumEntry is one named value of an enum.
type EnumEntry struct {
	Name        string
	Value       uint64
	Description string
	Params      []Param
}

// Param describes one positional parameter of a MAV_CMD enum entry.
type Param struct {
	Index       int // 1..7
	Description string
	EnumType    string
	Label       string
	Units       string
	Min, Max    *float64
	HasMin      bool
	HasMax      bool
}

// Enum is a named enumeration or bitmask over a uint64 value space.
type Enum struct {
	Name        string
	Description string
	IsBitmask   bool
	Entries     []EnumEntry
}

// Message is one dialect message definition.
type Message struct {
	ID          uint32
	Name        string
	Description string
	Fields      []Field // wire order: reordered non-extension fields, then extension fields
	Deprecated  bool
	Replacement string
}

// ExtraCRC computes the per-message CRC_EXTRA byte, seeding CRC-16/MCRF4XX
// with the message name, then each non-extension field's
// primitive type, its *original* (pre-rename) name, and an array-length
// byte when applicable.
func (m Message) ExtraCRC() uint8 {
	c := newCRCu16()
	c.digest([]byte(m.Name))
	c.digest([]byte(" "))

	fields := make([]Field, 0, len(m.Fields))
	for _, f := range m.Fields {
		if !f.IsExtension {
			fields = append(fields, f)
		}
	}
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Type.OrderLen() > fields[j].Type.OrderLen()
	})

	for _, f := range fields {
		c.digest([]byte(f.Type.PrimitiveType()))
		c.digest([]byte(" "))
		c.digest([]byte(f.OriginalName))
		c.digest([]byte(" "))
		if f.Type.IsArray() {
			c.digest([]byte{byte(f.Type.Size)})
		}
	}
	return c.fold()
}

// EncodedLen is the total wire payload length of the message (all fields,
// including extensions).
func (m Message) EncodedLen() int {
	n := 0
	for _, f := range m.Fields {
		n += f.Type.Len()
	}
	return n
}

// TargetSystemField returns the field acting as the routing target
// system id, if the message declares one (conventionally named
// "target_system").
func (m Message) TargetSystemField() (Field, bool) {
	return m.fieldNamed("target_system")
}

// TargetComponentField returns the field acting as the routing target
// component id, if the message declares one.
func (m Message) TargetComponentField() (Field, bool) {
	return m.fieldNamed("target_component")
}

func (m Message) fieldNamed(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Profile is a fully resolved dialect: every message and enum visible
// after include resolution and message filtering.
type Profile struct {
	DialectName string
	Messages    map[uint32]Message
	Enums       map[string]Enum
}

// SortedMessageIDs returns every message id in ascending order.
func (p Profile) SortedMessageIDs() []uint32 {
	ids := make([]uint32, 0, len(p.Messages))
	for id := range p.Messages {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
