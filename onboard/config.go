package onboard

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"

	"github.com/CodedInternet/goshooter/calcs"
	shootererrors "github.com/CodedInternet/goshooter/onboard/errors"
	"github.com/CodedInternet/goshooter/onboard/hardware"
)

const (
	TRANSPORT_CAN    = "can"
	TRANSPORT_SERIAL = "serial"
	TRANSPORT_SIM    = "sim"

	DEFAULT_CURRENT_LIMIT = 40.0
	DEFAULT_BAUD          = 115200
)

// RotationalDirection is the direction a shaft turns when driven positive.
type RotationalDirection int

const (
	CounterClockwise RotationalDirection = iota
	Clockwise
)

func (d RotationalDirection) String() string {
	if d == Clockwise {
		return "clockwise"
	}
	return "counterclockwise"
}

func (d RotationalDirection) Opposite() RotationalDirection {
	if d == Clockwise {
		return CounterClockwise
	}
	return Clockwise
}

func (d *RotationalDirection) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	switch s {
	case "clockwise", "cw":
		*d = Clockwise
	case "counterclockwise", "ccw":
		*d = CounterClockwise
	default:
		return fmt.Errorf("unknown rotational direction %q", s)
	}
	return nil
}

func (d RotationalDirection) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// MotorProperties describe the motor model rather than how it is mounted.
type MotorProperties struct {
	PositiveDirection RotationalDirection  `yaml:"positive_direction"`
	NeutralMode       hardware.NeutralMode `yaml:"neutral_mode"`
	CurrentLimit      float64              `yaml:"current_limit"` // amps
}

// NEO brushless motors turn counterclockwise when driven positive.
var NEOMotor = MotorProperties{
	PositiveDirection: CounterClockwise,
	NeutralMode:       hardware.NeutralBrake,
	CurrentLimit:      DEFAULT_CURRENT_LIMIT,
}

type VoltageLimits struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

type ShooterConfig struct {
	LeadID           int                 `yaml:"lead"`
	FollowerID       int                 `yaml:"follower"`
	Direction        RotationalDirection `yaml:"direction"`
	Voltage          VoltageLimits       `yaml:"voltage"`
	Motor            MotorProperties     `yaml:"motor"`
	FollowerInverted bool                `yaml:"follower_inverted"`
	Reduction        calcs.Reduction     `yaml:"reduction"`
}

// Validate reports every problem with the config at once.
func (c ShooterConfig) Validate() (err error) {
	invalid := func(field, reason string) {
		err = multierr.Append(err, shootererrors.ConfigurationError{Field: field, Reason: reason})
	}

	if c.LeadID <= 0 {
		invalid("lead", "must be a positive motor controller id")
	}
	if c.FollowerID <= 0 {
		invalid("follower", "must be a positive motor controller id")
	}
	if c.LeadID > 0 && c.LeadID == c.FollowerID {
		invalid("follower", "must not be the same controller as lead")
	}
	if c.Direction != Clockwise && c.Direction != CounterClockwise {
		invalid("direction", "must be clockwise or counterclockwise")
	}
	if !(c.Voltage.Low <= 0) {
		invalid("voltage.low", "must be zero or negative")
	}
	if !(c.Voltage.High >= 0) {
		invalid("voltage.high", "must be zero or positive")
	}
	if !(c.Motor.CurrentLimit > 0) {
		invalid("motor.current_limit", "must be positive")
	}
	if !(c.Reduction.Ratio > 0) {
		invalid("reduction", "must be positive")
	}

	return err
}

// Inverted reports whether the controllers must invert so that positive voltage turns the
// shooter in Direction.
func (c ShooterConfig) Inverted() bool {
	return c.Direction.Opposite() == c.Motor.PositiveDirection
}

func (c ShooterConfig) MotorConfig() hardware.MotorConfig {
	return hardware.MotorConfig{
		LeadID:           uint32(c.LeadID),
		FollowerID:       uint32(c.FollowerID),
		Inverted:         c.Inverted(),
		FollowerInverted: c.FollowerInverted,
		NeutralMode:      c.Motor.NeutralMode,
		CurrentLimit:     c.Motor.CurrentLimit,
	}
}

type TransportConfig struct {
	Kind string `yaml:"kind"`
	Bus  string `yaml:"bus"`
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

type LoopConfig struct {
	Period time.Duration `yaml:"period"`
}

// ShooterFile is the on disk document.
type ShooterFile struct {
	Version   int             `yaml:"version"`
	Shooter   ShooterConfig   `yaml:"shooter"`
	Transport TransportConfig `yaml:"transport"`
	Loop      LoopConfig      `yaml:"loop"`
}

func DefaultShooterConfig() ShooterConfig {
	return ShooterConfig{
		LeadID:           1,
		FollowerID:       2,
		Direction:        Clockwise,
		Voltage:          VoltageLimits{Low: -12, High: 12},
		Motor:            NEOMotor,
		FollowerInverted: true,
		Reduction:        calcs.NewReduction(20),
	}
}

func DefaultShooterFile() ShooterFile {
	return ShooterFile{
		Version: 1,
		Shooter: DefaultShooterConfig(),
		Transport: TransportConfig{
			Kind: TRANSPORT_SIM,
			Bus:  "can0",
			Baud: DEFAULT_BAUD,
		},
		Loop: LoopConfig{Period: DEFAULT_LOOP_PERIOD},
	}
}

// ParseShooterFile overlays data on the defaults and validates the result.
func ParseShooterFile(data []byte) (*ShooterFile, error) {
	f := DefaultShooterFile()
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "unable to unmarshal shooter config")
	}

	switch f.Version {
	case 1:
	default:
		return nil, shootererrors.UnsupportedVersionError{Version: f.Version}
	}

	switch f.Transport.Kind {
	case TRANSPORT_CAN, TRANSPORT_SERIAL, TRANSPORT_SIM:
	default:
		return nil, shootererrors.UnknownTransportError{Kind: f.Transport.Kind}
	}

	if f.Loop.Period <= 0 {
		f.Loop.Period = DEFAULT_LOOP_PERIOD
	}

	if err := f.Shooter.Validate(); err != nil {
		return nil, err
	}

	return &f, nil
}

func LoadShooterFile(filename string) (*ShooterFile, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", filename)
	}

	return ParseShooterFile(data)
}
