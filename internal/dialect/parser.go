package dialect

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
)

// messageFilter excludes messages the parser cannot yet handle faithfully.
// STORM32_GIMBAL_MANAGER_INFORMATION declares device_cap_flags as a u32
// field tied to a u16-backed enum, a type-width mismatch this parser does
// not resolve; reproducing mavlink-bindgen's own exclusion was chosen
// over attempting a fix (see the project's design notes).
var messageFilter = map[string]bool{
	"STORM32_GIMBAL_MANAGER_INFORMATION": true,
}

// ParseFile parses one dialect XML file and every file it (transitively)
// includes, relative to definitionsDir, merging their enums and messages
// into a single Profile.
func ParseFile(definitionsDir, definitionFile string) (*Profile, error) {
	p := &Profile{
		DialectName: dialectName(definitionFile),
		Messages:    make(map[uint32]Message),
		Enums:       make(map[string]Enum),
	}
	seen := make(map[string]bool)
	if err := parseInto(p, definitionsDir, definitionFile, seen); err != nil {
		return nil, err
	}
	return p, nil
}

func dialectName(definitionFile string) string {
	base := filepath.Base(definitionFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func parseInto(p *Profile, definitionsDir, definitionFile string, seen map[string]bool) error {
	full := filepath.Join(definitionsDir, definitionFile)
	canonical, err := filepath.Abs(full)
	if err != nil {
		return fmt.Errorf("dialect: resolve %s: %w", full, err)
	}
	if seen[canonical] {
		return nil // already parsed; include graphs may be diamonds, not just trees
	}
	seen[canonical] = true

	f, err := os.Open(full)
	if err != nil {
		return fmt.Errorf("dialect: open %s: %w", full, err)
	}
	defer f.Close()

	doc, err := parseDocument(f, p)
	if err != nil {
		return fmt.Errorf("dialect: parse %s: %w", full, err)
	}

	for _, inc := range doc.includes {
		if err := parseInto(p, definitionsDir, inc, seen); err != nil {
			return err
		}
	}
	for name, e := range doc.enums {
		mergeEnum(p, name, e)
	}
	for id, m := range doc.messages {
		if messageFilter[m.Name] {
			continue
		}
		mergeMessage(p, id, m)
	}
	return nil
}

// mergeEnum folds e into p's existing enum of the same name, if any. New
// entries are appended; an entry name already present with a different
// value is a diamond-include conflict the parser cannot resolve silently.
func mergeEnum(p *Profile, name string, e Enum) {
	existing, ok := p.Enums[name]
	if !ok {
		p.Enums[name] = e
		return
	}
	byName := make(map[string]EnumEntry, len(existing.Entries))
	for _, entry := range existing.Entries {
		byName[entry.Name] = entry
	}
	merged := existing
	if e.IsBitmask {
		merged.IsBitmask = true
	}
	for _, entry := range e.Entries {
		prior, ok := byName[entry.Name]
		if !ok {
			merged.Entries = append(merged.Entries, entry)
			byName[entry.Name] = entry
			continue
		}
		if prior.Value != entry.Value {
			panic(fmt.Sprintf("dialect: enum %s entry %s redefined with conflicting value %d != %d", name, entry.Name, entry.Value, prior.Value))
		}
	}
	p.Enums[name] = merged
}

// mergeMessage folds m into p at id. A second definition of the same id
// must be byte-for-byte structurally identical to the first; diamond
// includes that disagree on a message's shape indicate a broken dialect
// tree, not something the parser can pick a winner for.
func mergeMessage(p *Profile, id uint32, m Message) {
	existing, ok := p.Messages[id]
	if !ok {
		p.Messages[id] = m
		return
	}
	if !reflect.DeepEqual(existing, m) {
		panic(fmt.Sprintf("dialect: message id %d redefined with conflicting structure (%q != %q)", id, existing.Name, m.Name))
	}
}

// parsedDocument holds the content of exactly one XML file, before its
// includes have been resolved or merged into the accumulating Profile.
type parsedDocument struct {
	includes []string
	enums    map[string]Enum
	messages map[uint32]Message
}

// parseDocument runs the element stack state machine over one XML file.
// profileSoFar is consulted (read-only) to resolve a field's <enum>
// reference against already-parsed bitmask enums, mirroring the
// single-pass behavior of the original generator.
func parseDocument(r io.Reader, profileSoFar *Profile) (*parsedDocument, error) {
	doc := &parsedDocument{
		enums:    make(map[string]Enum),
		messages: make(map[uint32]Message),
	}

	dec := xml.NewDecoder(r)

	var (
		stack    []string
		curEnum  Enum
		curEntry EnumEntry
		curMsg   Message
		curField Field
		inExt    bool
	)

	bitmaskOf := func(name string) bool {
		if e, ok := doc.enums[name]; ok {
			return e.IsBitmask
		}
		if e, ok := profileSoFar.Enums[name]; ok {
			return e.IsBitmask
		}
		return false
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch name {
			case "message":
				curMsg = Message{}
				inExt = false
			case "field":
				curField = Field{IsExtension: inExt}
			case "enum":
				curEnum = Enum{}
			case "entry":
				curEntry = EnumEntry{}
			case "extensions":
				inExt = true
			}

			for _, a := range t.Attr {
				switch name {
				case "message":
					switch a.Name.Local {
					case "name":
						curMsg.Name = a.Value
					case "id":
						id, _ := strconv.ParseUint(a.Value, 10, 32)
						curMsg.ID = uint32(id)
					}
				case "field":
					switch a.Name.Local {
					case "name":
						curField.OriginalName = a.Value
						if a.Value == "type" {
							curField.Name = "mavtype"
						} else {
							curField.Name = a.Value
						}
					case "type":
						mt, err := parseMavType(a.Value)
						if err != nil {
							return nil, fmt.Errorf("field %s: %w", curField.Name, err)
						}
						curField.Type = mt
					case "enum":
						curField.EnumType = toPascalCase(a.Value)
						if bitmaskOf(curField.EnumType) {
							curField.Display = "bitmask"
						}
					case "display":
						curField.Display = a.Value
					}
				case "enum":
					switch a.Name.Local {
					case "name":
						curEnum.Name = toPascalCase(a.Value)
					case "bitmask":
						curEnum.IsBitmask = a.Value == "true"
					}
				case "entry":
					switch a.Name.Local {
					case "name":
						curEntry.Name = a.Value
					case "value":
						v, err := parseMaybeHex(a.Value)
						if err == nil {
							curEntry.Value = v
						}
					}
				case "param":
					p := parseParamAttrs(t.Attr)
					curEntry.Params = append(curEntry.Params, p)
				case "deprecated":
					if a.Name.Local == "replaced_by" {
						curMsg.Deprecated = true
						curMsg.Replacement = a.Value
					}
				}
			}

			stack = append(stack, name)

		case xml.EndElement:
			name := t.Name.Local
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			switch name {
			case "extensions":
				// extensions block stays open for the rest of the message
			case "field":
				curMsg.Fields = append(curMsg.Fields, curField)
			case "entry":
				curEnum.Entries = append(curEnum.Entries, curEntry)
			case "enum":
				doc.enums[curEnum.Name] = curEnum
			case "message":
				reorderFields(&curMsg)
				doc.messages[curMsg.ID] = curMsg
			}

		case xml.CharData:
			txt := strings.TrimSpace(string(t))
			if txt == "" {
				break
			}
			if top := lastOf(stack); top == "include" {
				doc.includes = append(doc.includes, txt)
			}
		}
	}

	return doc, nil
}

func lastOf(stack []string) string {
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1]
}

// reorderFields applies the MAVLink field-reordering rule: non-extension
// fields sorted by descending primitive width (stable, so ties keep
// declaration order), followed by extension fields in declaration order
// unchanged.
func reorderFields(m *Message) {
	var base, ext []Field
	for _, f := range m.Fields {
		if f.IsExtension {
			ext = append(ext, f)
		} else {
			base = append(base, f)
		}
	}
	stableSortByOrderLenDesc(base)
	m.Fields = append(base, ext...)
}

func stableSortByOrderLenDesc(fields []Field) {
	// Insertion sort: stable, and these slices are never long enough
	// (<=64 fields) to need anything fancier.
	for i := 1; i < len(fields); i++ {
		j := i
		for j > 0 && fields[j-1].Type.OrderLen() < fields[j].Type.OrderLen() {
			fields[j-1], fields[j] = fields[j], fields[j-1]
			j--
		}
	}
}

func parseParamAttrs(attrs []xml.Attr) Param {
	var p Param
	for _, a := range attrs {
		switch a.Name.Local {
		case "index":
			idx, _ := strconv.Atoi(a.Value)
			p.Index = idx
		case "label":
			p.Label = a.Value
		case "units":
			p.Units = a.Value
		case "enum":
			p.EnumType = toPascalCase(a.Value)
		case "minValue":
			if v, err := strconv.ParseFloat(a.Value, 64); err == nil {
				p.Min = &v
				p.HasMin = true
			}
		case "maxValue":
			if v, err := strconv.ParseFloat(a.Value, 64); err == nil {
				p.Max = &v
				p.HasMax = true
			}
		}
	}
	return p
}

func parseMaybeHex(s string) (uint64, error) {
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		return strconv.ParseUint(rest, 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

// parseMavType parses an XML field "type" attribute such as "uint8_t",
// "char[16]", or "int32_t[3]" into a MavType.
func parseMavType(s string) (MavType, error) {
	if s == "uint8_t_mavlink_version" {
		return MavType{Kind: KindUint8MavlinkVersion}, nil
	}
	if strings.HasPrefix(s, "char[") && strings.HasSuffix(s, "]") {
		size, err := strconv.Atoi(s[len("char[") : len(s)-1])
		if err != nil {
			return MavType{}, fmt.Errorf("invalid char array size in %q: %w", s, err)
		}
		return MavType{Kind: KindCharArray, Size: size}, nil
	}
	if strings.HasSuffix(s, "]") {
		open := strings.IndexByte(s, '[')
		if open < 0 {
			return MavType{}, fmt.Errorf("malformed array type %q", s)
		}
		size, err := strconv.Atoi(s[open+1 : len(s)-1])
		if err != nil {
			return MavType{}, fmt.Errorf("invalid array size in %q: %w", s, err)
		}
		elem, err := parseMavType(s[:open])
		if err != nil {
			return MavType{}, err
		}
		return MavType{Kind: KindArray, Elem: &elem, Size: size}, nil
	}
	switch s {
	case "uint8_t":
		return MavType{Kind: KindUint8}, nil
	case "uint16_t":
		return MavType{Kind: KindUint16}, nil
	case "uint32_t":
		return MavType{Kind: KindUint32}, nil
	case "uint64_t":
		return MavType{Kind: KindUint64}, nil
	case "int8_t":
		return MavType{Kind: KindInt8}, nil
	case "int16_t":
		return MavType{Kind: KindInt16}, nil
	case "int32_t":
		return MavType{Kind: KindInt32}, nil
	case "int64_t":
		return MavType{Kind: KindInt64}, nil
	case "char":
		return MavType{Kind: KindChar}, nil
	case "float":
		return MavType{Kind: KindFloat}, nil
	case "double", "Double":
		return MavType{Kind: KindDouble}, nil
	}
	return MavType{}, fmt.Errorf("unknown mavlink type %q", s)
}

// toPascalCase converts a SCREAMING_SNAKE_CASE enum name (as found in
// dialect XML) to PascalCase, matching the generator's Go identifier
// convention.
func toPascalCase(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		if len(part) > 1 {
			b.WriteString(strings.ToLower(part[1:]))
		}
	}
	return b.String()
}
