package eufyclean

import (
	"fmt"
	"strconv"
)

// DeviceRecord is the canonical directory entry for one vacuum.
// ID and LocalKey are required for control; Address may be empty when the
// directory response does not carry a LAN IP.
type DeviceRecord struct {
	ID       string
	Name     string
	Model    string
	LocalKey string
	Address  string
}

// LifecycleState is the canonical vacuum lifecycle state.
type LifecycleState string

const (
	StateDocked    LifecycleState = "docked"
	StateCharging  LifecycleState = "charging"
	StateCleaning  LifecycleState = "cleaning"
	StateIdle      LifecycleState = "idle"
	StatePaused    LifecycleState = "paused"
	StateReturning LifecycleState = "returning"
	StateError     LifecycleState = "error"
)

// FanSpeed is the canonical suction level name.
type FanSpeed string

const (
	FanQuiet    FanSpeed = "Quiet"
	FanStandard FanSpeed = "Standard"
	FanTurbo    FanSpeed = "Turbo"
	FanMax      FanSpeed = "Max"
)

// Status captures one translated status snapshot.
type Status struct {
	State          LifecycleState
	BatteryPercent int
	FanSpeed       FanSpeed
	ErrorCode      string
	Powered        bool
	RawDPS         map[string]any
}

// DeviceState ties device metadata with live status. Reachable is false when
// the snapshot is the retained last-known status of an unreachable device.
type DeviceState struct {
	Device    DeviceRecord
	Status    Status
	Reachable bool
}

// CommandType enumerates the supported control commands.
type CommandType int

const (
	CommandStart CommandType = iota
	CommandStop
	CommandPause
	CommandReturnToBase
	CommandSetFanSpeed
)

// Command is a canonical control request. FanSpeed is only read for
// CommandSetFanSpeed.
type Command struct {
	Type     CommandType
	FanSpeed FanSpeed
}

func stringFrom(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func intFrom(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case string:
		i, _ := strconv.Atoi(t)
		return i
	default:
		return 0
	}
}

func boolFrom(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	case float64:
		return t != 0
	default:
		return false
	}
}
