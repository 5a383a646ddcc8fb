// Package common is the hand-emitted output of internal/codegen for a
// small slice of the MAVLink "common" dialect: just enough messages to
// exercise every wire scenario end-to-end (heartbeat exchange, commanding,
// parameter access, version negotiation, and signing setup). A real
// dialect the size of common.xml would run through internal/codegen
// instead of being written by hand; this package follows that emitter's
// layout (per-message structs, Ser/Deser, a MessageSet) so it can stand in
// for a generated package in tests, though some identifiers and method
// bodies differ from what the emitter produces.
package common

import (
	"fmt"

	"github.com/ampio/go-mavlink/internal/frame"
	"github.com/ampio/go-mavlink/internal/wire"
)

// MavType enumerates vehicle or component types (a slice of MAV_TYPE).
type MavType uint64

const (
	MavTypeGeneric           MavType = 0
	MavTypeFixedWing         MavType = 1
	MavTypeQuadrotor         MavType = 2
	MavTypeGCS               MavType = 6
	MavTypeOnboardController MavType = 18
)

// MavAutopilot enumerates autopilot classes (a slice of MAV_AUTOPILOT).
type MavAutopilot uint64

const (
	MavAutopilotGeneric MavAutopilot = 0
	MavAutopilotPX4     MavAutopilot = 12
	MavAutopilotInvalid MavAutopilot = 8
)

// MavModeFlag is the base_mode bitmask (MAV_MODE_FLAG).
type MavModeFlag uint64

const (
	MavModeFlagCustomModeEnabled  MavModeFlag = 1
	MavModeFlagTestEnabled        MavModeFlag = 2
	MavModeFlagAutoEnabled        MavModeFlag = 4
	MavModeFlagGuidedEnabled      MavModeFlag = 8
	MavModeFlagStabilizeEnabled   MavModeFlag = 16
	MavModeFlagHilEnabled         MavModeFlag = 32
	MavModeFlagManualInputEnabled MavModeFlag = 64
	MavModeFlagSafetyArmed        MavModeFlag = 128
)

// MavState enumerates system states (MAV_STATE).
type MavState uint64

const (
	MavStateUninit    MavState = 0
	MavStateBoot      MavState = 1
	MavStateCalibrating MavState = 2
	MavStateStandby   MavState = 3
	MavStateActive    MavState = 4
	MavStateCritical  MavState = 5
	MavStateEmergency MavState = 6
)

// MavResult enumerates COMMAND_ACK result codes (MAV_RESULT).
type MavResult uint64

const (
	MavResultAccepted        MavResult = 0
	MavResultTemporarilyRejected MavResult = 1
	MavResultDenied          MavResult = 2
	MavResultUnsupported     MavResult = 3
	MavResultFailed          MavResult = 4
	MavResultInProgress      MavResult = 5
)

// MavCmd is a (small) slice of command identifiers (MAV_CMD).
type MavCmd uint64

const (
	MavCmdNAV_WAYPOINT    MavCmd = 16
	MavCmdNAV_RETURN_TO_LAUNCH MavCmd = 20
	MavCmdNAV_LAND        MavCmd = 21
	MavCmdNAV_TAKEOFF     MavCmd = 22
	MavCmdComponentArmDisarm MavCmd = 400
	MavCmdRequestMessage  MavCmd = 512
)

// Heartbeat is the HEARTBEAT message (id 0).
type Heartbeat struct {
	CustomMode     uint32
	Type           uint8
	Autopilot      uint8
	BaseMode       uint8
	SystemStatus   uint8
	MavlinkVersion uint8
}

const (
	HeartbeatID         uint32 = 0
	HeartbeatName       string = "HEARTBEAT"
	HeartbeatExtraCRC   uint8  = 50
	HeartbeatEncodedLen int    = 9
)

func (m *Heartbeat) MessageID() uint32   { return HeartbeatID }
func (m *Heartbeat) MessageName() string { return HeartbeatName }

func (m *Heartbeat) Ser(version frame.Version, payload []byte) int {
	w := wire.NewBytesMut(payload[:HeartbeatEncodedLen])
	w.PutU32(m.CustomMode)
	w.PutU8(m.Type)
	w.PutU8(m.Autopilot)
	w.PutU8(m.BaseMode)
	w.PutU8(m.SystemStatus)
	w.PutU8(m.MavlinkVersion)
	return w.Len()
}

// DeserHeartbeat parses a HEARTBEAT payload, zero-extending it to
// HeartbeatEncodedLen first so shorter and longer payloads both round-trip.
func DeserHeartbeat(version frame.Version, payload []byte) (*Heartbeat, error) {
	b := frame.ZeroExtend(payload, HeartbeatEncodedLen)
	r := wire.NewBytes(b)
	var m Heartbeat
	var err error
	if m.CustomMode, err = r.GetU32(); err != nil {
		return nil, fmt.Errorf("common: Heartbeat.CustomMode: %w", err)
	}
	if m.Type, err = r.GetU8(); err != nil {
		return nil, fmt.Errorf("common: Heartbeat.Type: %w", err)
	}
	if m.Autopilot, err = r.GetU8(); err != nil {
		return nil, fmt.Errorf("common: Heartbeat.Autopilot: %w", err)
	}
	if m.BaseMode, err = r.GetU8(); err != nil {
		return nil, fmt.Errorf("common: Heartbeat.BaseMode: %w", err)
	}
	if m.SystemStatus, err = r.GetU8(); err != nil {
		return nil, fmt.Errorf("common: Heartbeat.SystemStatus: %w", err)
	}
	if m.MavlinkVersion, err = r.GetU8(); err != nil {
		return nil, fmt.Errorf("common: Heartbeat.MavlinkVersion: %w", err)
	}
	return &m, nil
}

// CommandLong is the COMMAND_LONG message (id 76).
type CommandLong struct {
	Param1          float32
	Param2          float32
	Param3          float32
	Param4          float32
	Param5          float32
	Param6          float32
	Param7          float32
	Command         uint16
	TargetSystem    uint8
	TargetComponent uint8
	Confirmation    uint8
}

const (
	CommandLongID         uint32 = 76
	CommandLongName       string = "COMMAND_LONG"
	CommandLongExtraCRC   uint8  = 152
	CommandLongEncodedLen int    = 33
)

func (m *CommandLong) MessageID() uint32   { return CommandLongID }
func (m *CommandLong) MessageName() string { return CommandLongName }
func (m *CommandLong) TargetSystemID() uint8    { return m.TargetSystem }
func (m *CommandLong) TargetComponentID() uint8 { return m.TargetComponent }

func (m *CommandLong) Ser(version frame.Version, payload []byte) int {
	w := wire.NewBytesMut(payload[:CommandLongEncodedLen])
	w.PutF32(m.Param1)
	w.PutF32(m.Param2)
	w.PutF32(m.Param3)
	w.PutF32(m.Param4)
	w.PutF32(m.Param5)
	w.PutF32(m.Param6)
	w.PutF32(m.Param7)
	w.PutU16(m.Command)
	w.PutU8(m.TargetSystem)
	w.PutU8(m.TargetComponent)
	w.PutU8(m.Confirmation)
	return w.Len()
}

func DeserCommandLong(version frame.Version, payload []byte) (*CommandLong, error) {
	b := frame.ZeroExtend(payload, CommandLongEncodedLen)
	r := wire.NewBytes(b)
	var m CommandLong
	var err error
	for _, f := range []*float32{&m.Param1, &m.Param2, &m.Param3, &m.Param4, &m.Param5, &m.Param6, &m.Param7} {
		if *f, err = r.GetF32(); err != nil {
			return nil, fmt.Errorf("common: CommandLong.Param: %w", err)
		}
	}
	if m.Command, err = r.GetU16(); err != nil {
		return nil, fmt.Errorf("common: CommandLong.Command: %w", err)
	}
	if m.TargetSystem, err = r.GetU8(); err != nil {
		return nil, fmt.Errorf("common: CommandLong.TargetSystem: %w", err)
	}
	if m.TargetComponent, err = r.GetU8(); err != nil {
		return nil, fmt.Errorf("common: CommandLong.TargetComponent: %w", err)
	}
	if m.Confirmation, err = r.GetU8(); err != nil {
		return nil, fmt.Errorf("common: CommandLong.Confirmation: %w", err)
	}
	return &m, nil
}

// CommandAck is the COMMAND_ACK message (id 77). Its last four fields are
// MAVLink 2 extensions: absent from any v1 encoding and from older-dialect
// v2 peers, which is why deser zero-extends rather than requiring them.
type CommandAck struct {
	Command         uint16
	Result          uint8
	Progress        uint8 // extension
	ResultParam2    int32 // extension
	TargetSystem    uint8 // extension
	TargetComponent uint8 // extension
}

const (
	CommandAckID         uint32 = 77
	CommandAckName       string = "COMMAND_ACK"
	CommandAckExtraCRC   uint8  = 143
	CommandAckEncodedLen int    = 10
)

func (m *CommandAck) MessageID() uint32   { return CommandAckID }
func (m *CommandAck) MessageName() string { return CommandAckName }
func (m *CommandAck) TargetSystemID() uint8    { return m.TargetSystem }
func (m *CommandAck) TargetComponentID() uint8 { return m.TargetComponent }

func (m *CommandAck) Ser(version frame.Version, payload []byte) int {
	w := wire.NewBytesMut(payload[:CommandAckEncodedLen])
	w.PutU16(m.Command)
	w.PutU8(m.Result)
	w.PutU8(m.Progress)
	w.PutI32(m.ResultParam2)
	w.PutU8(m.TargetSystem)
	w.PutU8(m.TargetComponent)
	return w.Len()
}

func DeserCommandAck(version frame.Version, payload []byte) (*CommandAck, error) {
	b := frame.ZeroExtend(payload, CommandAckEncodedLen)
	r := wire.NewBytes(b)
	var m CommandAck
	var err error
	if m.Command, err = r.GetU16(); err != nil {
		return nil, fmt.Errorf("common: CommandAck.Command: %w", err)
	}
	if m.Result, err = r.GetU8(); err != nil {
		return nil, fmt.Errorf("common: CommandAck.Result: %w", err)
	}
	if m.Progress, err = r.GetU8(); err != nil {
		return nil, fmt.Errorf("common: CommandAck.Progress: %w", err)
	}
	if m.ResultParam2, err = r.GetI32(); err != nil {
		return nil, fmt.Errorf("common: CommandAck.ResultParam2: %w", err)
	}
	if m.TargetSystem, err = r.GetU8(); err != nil {
		return nil, fmt.Errorf("common: CommandAck.TargetSystem: %w", err)
	}
	if m.TargetComponent, err = r.GetU8(); err != nil {
		return nil, fmt.Errorf("common: CommandAck.TargetComponent: %w", err)
	}
	return &m, nil
}

// ParamRequestRead is the PARAM_REQUEST_READ message (id 20).
type ParamRequestRead struct {
	ParamIndex      int16
	TargetSystem    uint8
	TargetComponent uint8
	ParamID         []byte // char[16], NUL-padded
}

const (
	ParamRequestReadID         uint32 = 20
	ParamRequestReadName       string = "PARAM_REQUEST_READ"
	ParamRequestReadExtraCRC   uint8  = 214
	ParamRequestReadEncodedLen int    = 20
)

func (m *ParamRequestRead) MessageID() uint32   { return ParamRequestReadID }
func (m *ParamRequestRead) MessageName() string { return ParamRequestReadName }
func (m *ParamRequestRead) TargetSystemID() uint8    { return m.TargetSystem }
func (m *ParamRequestRead) TargetComponentID() uint8 { return m.TargetComponent }

func (m *ParamRequestRead) Ser(version frame.Version, payload []byte) int {
	w := wire.NewBytesMut(payload[:ParamRequestReadEncodedLen])
	w.PutI16(m.ParamIndex)
	w.PutU8(m.TargetSystem)
	w.PutU8(m.TargetComponent)
	w.PutBytes(frame.ZeroExtend(m.ParamID, 16))
	return w.Len()
}

func DeserParamRequestRead(version frame.Version, payload []byte) (*ParamRequestRead, error) {
	b := frame.ZeroExtend(payload, ParamRequestReadEncodedLen)
	r := wire.NewBytes(b)
	var m ParamRequestRead
	var err error
	if m.ParamIndex, err = r.GetI16(); err != nil {
		return nil, fmt.Errorf("common: ParamRequestRead.ParamIndex: %w", err)
	}
	if m.TargetSystem, err = r.GetU8(); err != nil {
		return nil, fmt.Errorf("common: ParamRequestRead.TargetSystem: %w", err)
	}
	if m.TargetComponent, err = r.GetU8(); err != nil {
		return nil, fmt.Errorf("common: ParamRequestRead.TargetComponent: %w", err)
	}
	if m.ParamID, err = r.GetArray(16); err != nil {
		return nil, fmt.Errorf("common: ParamRequestRead.ParamID: %w", err)
	}
	return &m, nil
}

// ProtocolVersion is the PROTOCOL_VERSION message (id 300).
type ProtocolVersion struct {
	Version            uint16
	MinVersion         uint16
	MaxVersion         uint16
	SpecVersionHash    []byte // uint8[8]
	LibraryVersionHash []byte // uint8[8]
}

const (
	ProtocolVersionID         uint32 = 300
	ProtocolVersionName       string = "PROTOCOL_VERSION"
	ProtocolVersionExtraCRC   uint8  = 217
	ProtocolVersionEncodedLen int    = 22
)

func (m *ProtocolVersion) MessageID() uint32   { return ProtocolVersionID }
func (m *ProtocolVersion) MessageName() string { return ProtocolVersionName }

func (m *ProtocolVersion) Ser(version frame.Version, payload []byte) int {
	w := wire.NewBytesMut(payload[:ProtocolVersionEncodedLen])
	w.PutU16(m.Version)
	w.PutU16(m.MinVersion)
	w.PutU16(m.MaxVersion)
	for i := 0; i < 8; i++ {
		var v uint8
		if i < len(m.SpecVersionHash) {
			v = m.SpecVersionHash[i]
		}
		w.PutU8(v)
	}
	for i := 0; i < 8; i++ {
		var v uint8
		if i < len(m.LibraryVersionHash) {
			v = m.LibraryVersionHash[i]
		}
		w.PutU8(v)
	}
	return w.Len()
}

func DeserProtocolVersion(version frame.Version, payload []byte) (*ProtocolVersion, error) {
	b := frame.ZeroExtend(payload, ProtocolVersionEncodedLen)
	r := wire.NewBytes(b)
	var m ProtocolVersion
	var err error
	if m.Version, err = r.GetU16(); err != nil {
		return nil, fmt.Errorf("common: ProtocolVersion.Version: %w", err)
	}
	if m.MinVersion, err = r.GetU16(); err != nil {
		return nil, fmt.Errorf("common: ProtocolVersion.MinVersion: %w", err)
	}
	if m.MaxVersion, err = r.GetU16(); err != nil {
		return nil, fmt.Errorf("common: ProtocolVersion.MaxVersion: %w", err)
	}
	if m.SpecVersionHash, err = r.GetArray(8); err != nil {
		return nil, fmt.Errorf("common: ProtocolVersion.SpecVersionHash: %w", err)
	}
	if m.LibraryVersionHash, err = r.GetArray(8); err != nil {
		return nil, fmt.Errorf("common: ProtocolVersion.LibraryVersionHash: %w", err)
	}
	return &m, nil
}

// SetupSigning is the SETUP_SIGNING message (id 256): a ground station
// provisions a vehicle's signing secret and initial timestamp over an
// already-trusted link.
type SetupSigning struct {
	InitialTimestamp uint64
	TargetSystem     uint8
	TargetComponent  uint8
	SecretKey        []byte // uint8[32]
}

const (
	SetupSigningID         uint32 = 256
	SetupSigningName       string = "SETUP_SIGNING"
	SetupSigningExtraCRC   uint8  = 71
	SetupSigningEncodedLen int    = 42
)

func (m *SetupSigning) MessageID() uint32   { return SetupSigningID }
func (m *SetupSigning) MessageName() string { return SetupSigningName }
func (m *SetupSigning) TargetSystemID() uint8    { return m.TargetSystem }
func (m *SetupSigning) TargetComponentID() uint8 { return m.TargetComponent }

func (m *SetupSigning) Ser(version frame.Version, payload []byte) int {
	w := wire.NewBytesMut(payload[:SetupSigningEncodedLen])
	w.PutU64(m.InitialTimestamp)
	w.PutU8(m.TargetSystem)
	w.PutU8(m.TargetComponent)
	w.PutBytes(frame.ZeroExtend(m.SecretKey, 32))
	return w.Len()
}

func DeserSetupSigning(version frame.Version, payload []byte) (*SetupSigning, error) {
	b := frame.ZeroExtend(payload, SetupSigningEncodedLen)
	r := wire.NewBytes(b)
	var m SetupSigning
	var err error
	if m.InitialTimestamp, err = r.GetU64(); err != nil {
		return nil, fmt.Errorf("common: SetupSigning.InitialTimestamp: %w", err)
	}
	if m.TargetSystem, err = r.GetU8(); err != nil {
		return nil, fmt.Errorf("common: SetupSigning.TargetSystem: %w", err)
	}
	if m.TargetComponent, err = r.GetU8(); err != nil {
		return nil, fmt.Errorf("common: SetupSigning.TargetComponent: %w", err)
	}
	if m.SecretKey, err = r.GetArray(32); err != nil {
		return nil, fmt.Errorf("common: SetupSigning.SecretKey: %w", err)
	}
	return &m, nil
}

// Dialect implements frame.MessageSet over this message subset.
type Dialect struct{}

// AllIDs returns every message id this dialect defines, sorted by id.
func AllIDs() []uint32 {
	return []uint32{
		HeartbeatID, ParamRequestReadID, CommandLongID,
		CommandAckID, SetupSigningID, ProtocolVersionID,
	}
}

// AllMessages returns one zero-valued instance of every message this
// dialect defines, sorted by id.
func AllMessages() []frame.Message {
	return []frame.Message{
		&Heartbeat{}, &ParamRequestRead{}, &CommandLong{},
		&CommandAck{}, &SetupSigning{}, &ProtocolVersion{},
	}
}

// MessageIDFromName resolves a wire message name to its id.
func MessageIDFromName(name string) (uint32, bool) {
	switch name {
	case HeartbeatName:
		return HeartbeatID, true
	case CommandLongName:
		return CommandLongID, true
	case CommandAckName:
		return CommandAckID, true
	case ParamRequestReadName:
		return ParamRequestReadID, true
	case ProtocolVersionName:
		return ProtocolVersionID, true
	case SetupSigningName:
		return SetupSigningID, true
	}
	return 0, false
}

// Parse implements frame.MessageSet.
func (Dialect) Parse(version frame.Version, id uint32, payload []byte) (frame.Message, error) {
	switch id {
	case HeartbeatID:
		return DeserHeartbeat(version, payload)
	case CommandLongID:
		return DeserCommandLong(version, payload)
	case CommandAckID:
		return DeserCommandAck(version, payload)
	case ParamRequestReadID:
		return DeserParamRequestRead(version, payload)
	case ProtocolVersionID:
		return DeserProtocolVersion(version, payload)
	case SetupSigningID:
		return DeserSetupSigning(version, payload)
	}
	return nil, fmt.Errorf("common: unknown message id %d", id)
}

// ExtraCRC implements frame.MessageSet.
func (Dialect) ExtraCRC(id uint32) (uint8, bool) {
	switch id {
	case HeartbeatID:
		return HeartbeatExtraCRC, true
	case CommandLongID:
		return CommandLongExtraCRC, true
	case CommandAckID:
		return CommandAckExtraCRC, true
	case ParamRequestReadID:
		return ParamRequestReadExtraCRC, true
	case ProtocolVersionID:
		return ProtocolVersionExtraCRC, true
	case SetupSigningID:
		return SetupSigningExtraCRC, true
	}
	return 0, false
}

// DefaultMessageFromID returns a zero-valued message for id, for callers
// that need a typed destination before calling Parse into it.
func DefaultMessageFromID(id uint32) (frame.Message, bool) {
	switch id {
	case HeartbeatID:
		return &Heartbeat{}, true
	case CommandLongID:
		return &CommandLong{}, true
	case CommandAckID:
		return &CommandAck{}, true
	case ParamRequestReadID:
		return &ParamRequestRead{}, true
	case ProtocolVersionID:
		return &ProtocolVersion{}, true
	case SetupSigningID:
		return &SetupSigning{}, true
	}
	return nil, false
}
