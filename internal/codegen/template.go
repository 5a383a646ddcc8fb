package codegen

// sourceTemplate renders one full dialect package: per-message structs
// with typed Ser/Deser methods, an enum block, and the top-level
// MessageSet implementation.
const sourceTemplate = `// Code generated by internal/codegen from a dialect definition. DO NOT EDIT.

package {{.Package}}

import (
	"fmt"

	"github.com/ampio/go-mavlink/internal/frame"
	"github.com/ampio/go-mavlink/internal/wire"
)

{{range .Enums}}
{{$enumName := .GoName}}
// {{.GoName}} enumerates its declared discriminants{{if .IsBitmask}} as a bitmask{{end}}.
type {{.GoName}} uint64

const (
{{- range .Entries}}
	{{.GoName}} {{$enumName}} = {{.Value}}
{{- end}}
)
{{end}}

{{range .Messages}}
// {{.GoName}} is the {{.WireName}} message (id {{.ID}}).
type {{.GoName}} struct {
{{- range .Fields}}
	{{.GoName}} {{.GoType}} {{if .Comment}}// {{.Comment}}{{end}}
{{- end}}
}

const (
	{{.GoName}}ID         uint32 = {{.ID}}
	{{.GoName}}Name       string = "{{.WireName}}"
	{{.GoName}}ExtraCRC   uint8  = {{.ExtraCRC}}
	{{.GoName}}EncodedLen int    = {{.EncodedLen}}
)

func (m *{{.GoName}}) MessageID() uint32   { return {{.GoName}}ID }
func (m *{{.GoName}}) MessageName() string { return {{.GoName}}Name }

func (m *{{.GoName}}) Ser(version frame.Version, payload []byte) int {
	w := wire.NewBytesMut(payload[:{{.GoName}}EncodedLen])
{{- range .Fields}}
{{- if .IsArray}}
{{- if .IsChar}}
	w.PutBytes(frame.ZeroExtend(m.{{.GoName}}, {{.ArrayLen}}))
{{- else}}
	for i := 0; i < {{.ArrayLen}}; i++ {
		var v{{.GoName}} {{elemType .GoType}}
		if i < len(m.{{.GoName}}) {
			v{{.GoName}} = m.{{.GoName}}[i]
		}
		w.Put{{.PutFn}}(v{{.GoName}})
	}
{{- end}}
{{- else}}
	w.Put{{.PutFn}}(m.{{.GoName}})
{{- end}}
{{- end}}
	return w.Len()
}

// Deser{{.GoName}} parses a {{.WireName}} payload, zero-extending it to
// {{.GoName}}EncodedLen first so shorter (older-dialect) and longer
// (future-field) payloads both round-trip.
func Deser{{.GoName}}(version frame.Version, payload []byte) (*{{.GoName}}, error) {
	b := frame.ZeroExtend(payload, {{.GoName}}EncodedLen)
	r := wire.NewBytes(b)
	var m {{.GoName}}
{{- range .Fields}}
{{- if .IsArray}}
{{- if .IsChar}}
	field{{.GoName}}, err := r.GetArray({{.ArrayLen}})
	if err != nil {
		return nil, fmt.Errorf("{{$.Package}}: {{.GoName}}: %w", err)
	}
	m.{{.GoName}} = field{{.GoName}}
{{- else}}
	m.{{.GoName}} = make({{.GoType}}, {{.ArrayLen}})
	for i := 0; i < {{.ArrayLen}}; i++ {
		v, err := r.Get{{.GetFn}}()
		if err != nil {
			return nil, fmt.Errorf("{{$.Package}}: {{.GoName}}[%d]: %w", i, err)
		}
		m.{{.GoName}}[i] = v
	}
{{- end}}
{{- else}}
	field{{.GoName}}, err := r.Get{{.GetFn}}()
	if err != nil {
		return nil, fmt.Errorf("{{$.Package}}: {{.GoName}}: %w", err)
	}
	m.{{.GoName}} = field{{.GoName}}
{{- end}}
{{- end}}
	return &m, nil
}
{{if .HasTargetSys}}
// TargetSystemID returns the message's routing target system id.
func (m *{{.GoName}}) TargetSystemID() uint8 { return m.{{.TargetSysGo}} }
{{end}}
{{if .HasTargetComp}}
// TargetComponentID returns the message's routing target component id.
func (m *{{.GoName}}) TargetComponentID() uint8 { return m.{{.TargetCompGo}} }
{{end}}
{{end}}

// Dialect implements frame.MessageSet for this generated package.
type Dialect struct{}

// AllIDs returns every message id defined by this dialect.
func AllIDs() []uint32 {
	return []uint32{
{{- range .Messages}}
		{{.GoName}}ID,
{{- end}}
	}
}

// AllMessages returns one zero-valued instance of every message defined by
// this dialect, sorted by id.
func AllMessages() []frame.Message {
	return []frame.Message{
{{- range .Messages}}
		&{{.GoName}}{},
{{- end}}
	}
}

// MessageIDFromName resolves a wire message name to its id.
func MessageIDFromName(name string) (uint32, bool) {
	switch name {
{{- range .Messages}}
	case {{.GoName}}Name:
		return {{.GoName}}ID, true
{{- end}}
	}
	return 0, false
}

// DefaultMessageFromID returns a zero-valued instance of the message with
// the given id.
func DefaultMessageFromID(id uint32) (frame.Message, bool) {
	switch id {
{{- range .Messages}}
	case {{.GoName}}ID:
		return &{{.GoName}}{}, true
{{- end}}
	}
	return nil, false
}

// Parse implements frame.MessageSet.
func (Dialect) Parse(version frame.Version, id uint32, payload []byte) (frame.Message, error) {
	switch id {
{{- range .Messages}}
	case {{.GoName}}ID:
		return Deser{{.GoName}}(version, payload)
{{- end}}
	}
	return nil, fmt.Errorf("{{.Package}}: unknown message id %d", id)
}

// ExtraCRC implements frame.MessageSet.
func (Dialect) ExtraCRC(id uint32) (uint8, bool) {
	switch id {
{{- range .Messages}}
	case {{.GoName}}ID:
		return {{.GoName}}ExtraCRC, true
{{- end}}
	}
	return 0, false
}
`
