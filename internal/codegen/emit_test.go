package codegen

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/ampio/go-mavlink/internal/dialect"
)

func testProfile() *dialect.Profile {
	p := &dialect.Profile{
		DialectName: "minimal",
		Messages:    make(map[uint32]dialect.Message),
		Enums:       make(map[string]dialect.Enum),
	}
	hb := dialect.Message{
		ID:   0,
		Name: "HEARTBEAT",
		Fields: []dialect.Field{
			{Name: "mavtype", OriginalName: "type", Type: dialect.MavType{Kind: dialect.KindUint8}},
			{Name: "autopilot", OriginalName: "autopilot", Type: dialect.MavType{Kind: dialect.KindUint8}},
			{Name: "custom_mode", OriginalName: "custom_mode", Type: dialect.MavType{Kind: dialect.KindUint32}},
		},
	}
	withArr := dialect.Message{
		ID:   1,
		Name: "PARAM_VALUE",
		Fields: []dialect.Field{
			{Name: "param_value", OriginalName: "param_value", Type: dialect.MavType{Kind: dialect.KindFloat}},
			{
				Name: "param_id", OriginalName: "param_id",
				Type: dialect.MavType{Kind: dialect.KindCharArray, Size: 16},
			},
			{
				Name: "history", OriginalName: "history",
				Type: dialect.MavType{
					Kind: dialect.KindArray,
					Elem: &dialect.MavType{Kind: dialect.KindUint16},
					Size: 4,
				},
			},
			{
				Name: "target_system", OriginalName: "target_system",
				Type: dialect.MavType{Kind: dialect.KindUint8},
			},
		},
	}
	p.Messages[hb.ID] = hb
	p.Messages[withArr.ID] = withArr
	return p
}

func TestEmitProducesParseableGo(t *testing.T) {
	p := testProfile()
	src, err := Emit(p, "testdialect")
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	fset := token.NewFileSet()
	if _, err := parser.ParseFile(fset, "testdialect.go", src, parser.AllErrors); err != nil {
		t.Fatalf("generated source does not parse: %v\n%s", err, src)
	}

	s := string(src)
	for _, want := range []string{
		"type Heartbeat struct",
		"HeartbeatID",
		"uint32 = 0",
		"func (m *Heartbeat) Ser(",
		"func DeserHeartbeat(",
		"func (m *ParamValue) TargetSystemID() uint8",
		"type Dialect struct{}",
		"func AllIDs() []uint32",
		"func AllMessages() []frame.Message",
		"func DefaultMessageFromID(id uint32) (frame.Message, bool)",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("generated source missing %q", want)
		}
	}
}
