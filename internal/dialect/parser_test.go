package dialect

import (
	"os"
	"path/filepath"
	"testing"
)

const minimalXML = `<?xml version="1.0"?>
<mavlink>
  <enums>
    <enum name="MAV_MODE_FLAG" bitmask="true">
      <entry name="MAV_MODE_FLAG_CUSTOM_MODE_ENABLED" value="1"/>
      <entry name="MAV_MODE_FLAG_STABILIZE_ENABLED" value="16"/>
    </enum>
    <enum name="MAV_TYPE">
      <entry name="MAV_TYPE_GENERIC" value="0"/>
      <entry name="MAV_TYPE_QUADROTOR" value="2"/>
    </enum>
  </enums>
  <messages>
    <message id="0" name="HEARTBEAT">
      <description>The heartbeat message.</description>
      <field type="uint8_t" name="type" enum="MAV_TYPE">Vehicle type.</field>
      <field type="uint8_t" name="autopilot">Autopilot type.</field>
      <field type="uint8_t" name="base_mode" enum="MAV_MODE_FLAG">System mode bitmask.</field>
      <field type="uint32_t" name="custom_mode">Autopilot-specific mode.</field>
      <field type="uint8_t" name="system_status">System status.</field>
      <field type="uint8_t_mavlink_version" name="mavlink_version">MAVLink version.</field>
      <extensions/>
      <field type="uint8_t" name="extra_field">An extension field.</field>
    </message>
  </messages>
</mavlink>
`

func writeXML(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseFileBasicMessage(t *testing.T) {
	dir := t.TempDir()
	writeXML(t, dir, "minimal.xml", minimalXML)

	p, err := ParseFile(dir, "minimal.xml")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	hb, ok := p.Messages[0]
	if !ok {
		t.Fatal("HEARTBEAT (id 0) not parsed")
	}
	if hb.Name != "HEARTBEAT" {
		t.Fatalf("Name = %q", hb.Name)
	}

	// Field reordering: custom_mode (u32, order_len 4) must sort before
	// all the u8 fields, which keep their declaration order; the
	// mavlink-version field (order_len 1) also moves ahead of nothing
	// since every base field besides custom_mode is order_len 1.
	wantOrder := []string{"custom_mode", "mavtype", "autopilot", "base_mode", "system_status", "mavlink_version"}
	if len(hb.Fields) != len(wantOrder)+1 { // +1 for the trailing extension field
		t.Fatalf("got %d fields, want %d", len(hb.Fields), len(wantOrder)+1)
	}
	for i, name := range wantOrder {
		if hb.Fields[i].Name != name {
			t.Fatalf("field[%d] = %q, want %q (order: %v)", i, hb.Fields[i].Name, name, fieldNames(hb.Fields))
		}
	}
	last := hb.Fields[len(hb.Fields)-1]
	if last.Name != "extra_field" || !last.IsExtension {
		t.Fatalf("last field = %+v, want extension field extra_field", last)
	}

	if got := hb.Fields[1].OriginalName; got != "type" {
		t.Fatalf("mavtype field OriginalName = %q, want \"type\"", got)
	}

	crc := hb.ExtraCRC()
	if crc == 0 {
		t.Fatal("ExtraCRC returned 0, suspiciously unseeded")
	}

	if e, ok := p.Enums["MavModeFlag"]; !ok || !e.IsBitmask {
		t.Fatalf("MavModeFlag enum missing or not a bitmask: %+v", e)
	}

	if err := Validate(p); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func fieldNames(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func TestParseFileResolvesIncludes(t *testing.T) {
	dir := t.TempDir()
	writeXML(t, dir, "common.xml", `<?xml version="1.0"?>
<mavlink>
  <messages>
    <message id="1" name="SYS_STATUS">
      <field type="uint32_t" name="onboard_control_sensors_present">bits</field>
    </message>
  </messages>
</mavlink>
`)
	writeXML(t, dir, "custom.xml", `<?xml version="1.0"?>
<mavlink>
  <include>common.xml</include>
  <messages>
    <message id="150" name="CUSTOM_MSG">
      <field type="uint8_t" name="value">a value</field>
    </message>
  </messages>
</mavlink>
`)

	p, err := ParseFile(dir, "custom.xml")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if _, ok := p.Messages[1]; !ok {
		t.Fatal("included SYS_STATUS (id 1) missing")
	}
	if _, ok := p.Messages[150]; !ok {
		t.Fatal("CUSTOM_MSG (id 150) missing")
	}
}

func TestMessageFilterExcludesStorm32GimbalManagerInfo(t *testing.T) {
	dir := t.TempDir()
	writeXML(t, dir, "storm32.xml", `<?xml version="1.0"?>
<mavlink>
  <messages>
    <message id="60012" name="STORM32_GIMBAL_MANAGER_INFORMATION">
      <field type="uint32_t" name="device_cap_flags">bits</field>
    </message>
  </messages>
</mavlink>
`)
	p, err := ParseFile(dir, "storm32.xml")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if _, ok := p.Messages[60012]; ok {
		t.Fatal("STORM32_GIMBAL_MANAGER_INFORMATION should have been filtered out")
	}
}

func TestParseFileMergesDiamondEnumEntries(t *testing.T) {
	dir := t.TempDir()
	writeXML(t, dir, "left.xml", `<?xml version="1.0"?>
<mavlink>
  <enums>
    <enum name="MAV_TYPE">
      <entry name="MAV_TYPE_GENERIC" value="0"/>
    </enum>
  </enums>
</mavlink>
`)
	writeXML(t, dir, "right.xml", `<?xml version="1.0"?>
<mavlink>
  <enums>
    <enum name="MAV_TYPE">
      <entry name="MAV_TYPE_QUADROTOR" value="2"/>
    </enum>
  </enums>
</mavlink>
`)
	writeXML(t, dir, "top.xml", `<?xml version="1.0"?>
<mavlink>
  <include>left.xml</include>
  <include>right.xml</include>
  <messages>
    <message id="0" name="HEARTBEAT">
      <field type="uint8_t" name="type" enum="MAV_TYPE">Vehicle type.</field>
    </message>
  </messages>
</mavlink>
`)
	p, err := ParseFile(dir, "top.xml")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	e, ok := p.Enums["MavType"]
	if !ok {
		t.Fatal("MavType enum missing after diamond merge")
	}
	if len(e.Entries) != 2 {
		t.Fatalf("got %d entries, want 2 (merged from both includes): %+v", len(e.Entries), e.Entries)
	}
}

func TestParseFilePanicsOnConflictingEnumValue(t *testing.T) {
	dir := t.TempDir()
	writeXML(t, dir, "left.xml", `<?xml version="1.0"?>
<mavlink>
  <enums>
    <enum name="MAV_TYPE">
      <entry name="MAV_TYPE_GENERIC" value="0"/>
    </enum>
  </enums>
</mavlink>
`)
	writeXML(t, dir, "right.xml", `<?xml version="1.0"?>
<mavlink>
  <enums>
    <enum name="MAV_TYPE">
      <entry name="MAV_TYPE_GENERIC" value="99"/>
    </enum>
  </enums>
</mavlink>
`)
	writeXML(t, dir, "top.xml", `<?xml version="1.0"?>
<mavlink>
  <include>left.xml</include>
  <include>right.xml</include>
</mavlink>
`)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on conflicting enum entry value")
		}
	}()
	if _, err := ParseFile(dir, "top.xml"); err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
}

func TestParseFilePanicsOnConflictingMessageShape(t *testing.T) {
	dir := t.TempDir()
	writeXML(t, dir, "left.xml", `<?xml version="1.0"?>
<mavlink>
  <messages>
    <message id="1" name="SYS_STATUS">
      <field type="uint32_t" name="onboard_control_sensors_present">bits</field>
    </message>
  </messages>
</mavlink>
`)
	writeXML(t, dir, "right.xml", `<?xml version="1.0"?>
<mavlink>
  <messages>
    <message id="1" name="SYS_STATUS">
      <field type="uint8_t" name="onboard_control_sensors_present">bits</field>
    </message>
  </messages>
</mavlink>
`)
	writeXML(t, dir, "top.xml", `<?xml version="1.0"?>
<mavlink>
  <include>left.xml</include>
  <include>right.xml</include>
</mavlink>
`)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on conflicting message structure")
		}
	}()
	if _, err := ParseFile(dir, "top.xml"); err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
}

func TestOrderLenSortIsStable(t *testing.T) {
	fields := []Field{
		{Name: "a", Type: MavType{Kind: KindUint8}},
		{Name: "b", Type: MavType{Kind: KindUint8}},
		{Name: "c", Type: MavType{Kind: KindUint16}},
		{Name: "d", Type: MavType{Kind: KindUint8}},
	}
	stableSortByOrderLenDesc(fields)
	want := []string{"c", "a", "b", "d"}
	for i, name := range want {
		if fields[i].Name != name {
			t.Fatalf("sorted[%d] = %q, want %q (got %v)", i, fields[i].Name, name, fieldNames(fields))
		}
	}
}
