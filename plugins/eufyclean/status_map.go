package eufyclean

// DPS keys used by RoboVac models.
const (
	dpsPower       = "1"
	dpsMode        = "2"
	dpsReturnHome  = "3"
	dpsFanLegacy   = "5"
	dpsStatus      = "15"
	dpsFindRobot   = "101"
	dpsFanSpeed    = "102"
	dpsBattery     = "104"
	dpsErrorCode   = "106"
)

// Both capitalizations appear in the wild depending on firmware.
var stateTable = map[string]LifecycleState{
	"charging":  StateCharging,
	"Charging":  StateCharging,
	"cleaning":  StateCleaning,
	"Cleaning":  StateCleaning,
	"completed": StateIdle,
	"Completed": StateIdle,
	"standby":   StateIdle,
	"Standby":   StateIdle,
	"paused":    StatePaused,
	"Paused":    StatePaused,
	"recharge":  StateReturning,
	"Recharge":  StateReturning,
	"goto_pos":  StateReturning,
}

var fanTable = map[int]FanSpeed{
	0: FanQuiet,
	1: FanStandard,
	2: FanTurbo,
	3: FanMax,
}

var fanReverseTable = map[FanSpeed]int{
	FanQuiet:    0,
	FanStandard: 1,
	FanTurbo:    2,
	FanMax:      3,
}

var errorDescriptions = map[string]string{
	"0": "No error",
	"1": "Wheel stuck",
	"2": "Side brush stuck",
	"3": "Main brush stuck",
	"4": "Trapped",
	"5": "Cliff sensor error",
	"6": "Low battery",
}

// ErrorDescription returns a human-readable label for a device error code.
func ErrorDescription(code string) string {
	if desc, ok := errorDescriptions[code]; ok {
		return desc
	}
	return "Unknown error"
}

// parseStatus translates a raw DPS vector into the canonical status.
// Power-off dominates every other signal; unknown firmware status strings
// fall back to Idle so polling never breaks on new firmware.
func parseStatus(dps map[string]any) Status {
	powered := boolFrom(dps[dpsPower])

	state := StateDocked
	if powered {
		raw := "standby"
		if s := stringFrom(dps[dpsStatus]); s != "" {
			raw = s
		}
		var ok bool
		state, ok = stateTable[raw]
		if !ok {
			state = StateIdle
		}
	}

	battery := intFrom(dps[dpsBattery])
	if battery < 0 {
		battery = 0
	}
	if battery > 100 {
		battery = 100
	}

	fan, ok := fanTable[intFrom(dps[dpsFanSpeed])]
	if !ok {
		fan = FanStandard
	}

	errorCode := stringFrom(dps[dpsErrorCode])
	if errorCode == "" {
		errorCode = "0"
	}

	return Status{
		State:          state,
		BatteryPercent: battery,
		FanSpeed:       fan,
		ErrorCode:      errorCode,
		Powered:        powered,
		RawDPS:         dps,
	}
}

// dpsForCommand translates a canonical command into the DPS delta to send.
// Stop and Pause map to the same delta: the protocol has no distinct pause
// signal, only power-off.
func dpsForCommand(cmd Command) map[string]any {
	switch cmd.Type {
	case CommandStart:
		return map[string]any{dpsPower: true, dpsMode: 0}
	case CommandStop, CommandPause:
		return map[string]any{dpsPower: false}
	case CommandReturnToBase:
		return map[string]any{dpsReturnHome: true}
	case CommandSetFanSpeed:
		speed, ok := fanReverseTable[cmd.FanSpeed]
		if !ok {
			speed = fanReverseTable[FanStandard]
		}
		return map[string]any{dpsFanSpeed: speed}
	default:
		return nil
	}
}
