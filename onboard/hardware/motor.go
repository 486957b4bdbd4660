package hardware

import "fmt"

// NeutralMode is what the motor controller does with zero output.
type NeutralMode uint8

const (
	NeutralBrake NeutralMode = iota
	NeutralCoast
)

func (m NeutralMode) String() string {
	switch m {
	case NeutralCoast:
		return "coast"
	default:
		return "brake"
	}
}

func (m *NeutralMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	switch s {
	case "", "brake":
		*m = NeutralBrake
	case "coast":
		*m = NeutralCoast
	default:
		return fmt.Errorf("unknown neutral mode %q", s)
	}
	return nil
}

func (m NeutralMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// MotorConfig is everything a motor controller pair needs at configuration time.
type MotorConfig struct {
	LeadID           uint32
	FollowerID       uint32
	Inverted         bool
	FollowerInverted bool
	NeutralMode      NeutralMode
	CurrentLimit     float64 // amps
}

// MotorOutput drives a lead motor with a follower mirroring it.
// Configure must be safe to call again after clearing faults.
// Apply commands the lead only; the follower is wired up by Configure.
type MotorOutput interface {
	Configure(cfg MotorConfig) error
	Apply(volts float64) error
}
