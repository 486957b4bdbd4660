package onboard

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	TRIGGER_DEADBAND = 0.1
	TRIGGER_GAIN     = 10.0 // volts at full axis travel, deliberately not tied to the voltage limits
	VOLTAGE_STEP     = 1.0
)

// InputSnapshot is the operator input sampled once per cycle.
// Axes are trigger travel in [0, 1].
type InputSnapshot struct {
	RightAxis float64 `json:"right_axis"`
	LeftAxis  float64 `json:"left_axis"`

	RightHeld  bool `json:"right_held"`
	LeftHeld   bool `json:"left_held"`
	Increment  bool `json:"increment"`
	Decrement  bool `json:"decrement"`
	ToggleMode bool `json:"toggle_mode"`
	PrintMode  bool `json:"print_mode"`
}

type ActionKind int

const (
	ActionSetVoltage ActionKind = iota
	ActionAddVoltage
	ActionSubtractVoltage
	ActionStop
	ActionToggleMode
	ActionPrintMode
)

// Action is a single call into the voltage or mode controller.
type Action struct {
	Kind  ActionKind
	Volts float64
}

func (a Action) String() string {
	switch a.Kind {
	case ActionSetVoltage:
		return fmt.Sprintf("set %.2fV", a.Volts)
	case ActionAddVoltage:
		return fmt.Sprintf("add %.2fV", a.Volts)
	case ActionSubtractVoltage:
		return fmt.Sprintf("sub %.2fV", a.Volts)
	case ActionStop:
		return "stop"
	case ActionToggleMode:
		return "toggle"
	case ActionPrintMode:
		return "print"
	default:
		return "UNKNOWN"
	}
}

// buttonBinding maps the edges of one button to actions. A nil func means the edge is ignored.
type buttonBinding struct {
	held      func(InputSnapshot) bool
	onPress   func(VoltageLimits) Action
	onRelease func(VoltageLimits) Action
}

func stopAction(VoltageLimits) Action { return Action{Kind: ActionStop} }

// Applied in order, so a later binding wins when two fire in the same cycle.
var buttonModeBindings = []buttonBinding{
	{
		held: func(in InputSnapshot) bool { return in.LeftHeld },
		onPress: func(l VoltageLimits) Action {
			return Action{Kind: ActionSetVoltage, Volts: -math.Abs(l.Low)}
		},
		onRelease: stopAction,
	},
	{
		held: func(in InputSnapshot) bool { return in.RightHeld },
		onPress: func(l VoltageLimits) Action {
			return Action{Kind: ActionSetVoltage, Volts: l.High}
		},
		onRelease: stopAction,
	},
	{
		held: func(in InputSnapshot) bool { return in.Increment },
		onPress: func(VoltageLimits) Action {
			return Action{Kind: ActionAddVoltage, Volts: VOLTAGE_STEP}
		},
	},
	{
		held: func(in InputSnapshot) bool { return in.Decrement },
		onPress: func(VoltageLimits) Action {
			return Action{Kind: ActionSubtractVoltage, Volts: VOLTAGE_STEP}
		},
	},
}

// Bindings returns the actions for one cycle given the previous and current input.
// ButtonMode reacts to edges only. TriggerMode always produces exactly one voltage action.
// Print then toggle are appended last in every mode so a toggle takes effect next cycle.
func Bindings(mode OperatingMode, prev, cur InputSnapshot, limits VoltageLimits) (actions []Action) {
	switch mode {
	case ButtonMode:
		for _, b := range buttonModeBindings {
			was, is := b.held(prev), b.held(cur)
			switch {
			case is && !was && b.onPress != nil:
				actions = append(actions, b.onPress(limits))
			case was && !is && b.onRelease != nil:
				actions = append(actions, b.onRelease(limits))
			}
		}

	case TriggerMode:
		right := mgl64.Clamp(cur.RightAxis, 0, 1)
		left := mgl64.Clamp(cur.LeftAxis, 0, 1)

		switch {
		case right > TRIGGER_DEADBAND:
			actions = append(actions, Action{Kind: ActionSetVoltage, Volts: TRIGGER_GAIN * right})
		case left > TRIGGER_DEADBAND:
			actions = append(actions, Action{Kind: ActionSetVoltage, Volts: -TRIGGER_GAIN * left})
		default:
			actions = append(actions, Action{Kind: ActionStop})
		}
	}

	if cur.PrintMode && !prev.PrintMode {
		actions = append(actions, Action{Kind: ActionPrintMode})
	}
	if cur.ToggleMode && !prev.ToggleMode {
		actions = append(actions, Action{Kind: ActionToggleMode})
	}

	return actions
}
