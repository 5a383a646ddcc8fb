package dialect

import "fmt"

// ValidationError reports one structural defect found in a parsed Profile.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validate checks every message against the structural invariants the
// wire format requires: unique field names, 1..64 fields, an encoded
// payload no larger than 255 bytes, and well-formed MAV_CMD param
// indices and ranges.
func Validate(p *Profile) error {
	for _, id := range p.SortedMessageIDs() {
		m := p.Messages[id]
		if err := validateMessage(m); err != nil {
			return err
		}
	}
	for _, e := range p.Enums {
		if err := validateEnum(e); err != nil {
			return err
		}
	}
	return nil
}

func validateMessage(m Message) error {
	if len(m.Fields) == 0 {
		return &ValidationError{fmt.Sprintf("message %q declares no fields", m.Name)}
	}
	if len(m.Fields) > 64 {
		return &ValidationError{fmt.Sprintf("message %q has %d fields, max 64", m.Name, len(m.Fields))}
	}
	seen := make(map[string]bool, len(m.Fields))
	for _, f := range m.Fields {
		if seen[f.Name] {
			return &ValidationError{fmt.Sprintf("message %q has duplicate field %q", m.Name, f.Name)}
		}
		seen[f.Name] = true
	}
	if n := m.EncodedLen(); n > 255 {
		return &ValidationError{fmt.Sprintf("message %q payload is %d bytes, max 255", m.Name, n)}
	}
	return nil
}

func validateEnum(e Enum) error {
	for _, entry := range e.Entries {
		for _, p := range entry.Params {
			if p.Index < 1 || p.Index > 7 {
				return &ValidationError{fmt.Sprintf("enum entry %q param index %d out of range 1..7", entry.Name, p.Index)}
			}
			if p.HasMin && p.HasMax && *p.Min > *p.Max {
				return &ValidationError{fmt.Sprintf("enum entry %q param %d has min %v > max %v", entry.Name, p.Index, *p.Min, *p.Max)}
			}
		}
	}
	return nil
}
