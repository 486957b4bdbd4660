package onboard

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"sync"

	shootererrors "github.com/CodedInternet/goshooter/onboard/errors"
	"github.com/CodedInternet/goshooter/onboard/hardware"
)

type ShooterState struct {
	Mode    OperatingMode `json:"mode"`
	Stored  float64       `json:"stored"`
	Applied float64       `json:"applied"`
	Fault   string        `json:"fault,omitempty"`
}

// Shooter ties the voltage and mode controllers to a motor output. All public methods are safe
// for concurrent use; the control loop, shell and API all drive the same instance.
type Shooter struct {
	config ShooterConfig
	output hardware.MotorOutput
	diag   io.Writer

	configLock sync.Mutex // one Reconfigure at a time

	lock    sync.Mutex
	mode    ModeController
	voltage *VoltageController
	prev    InputSnapshot
	fault   error
}

// NewShooter validates config and configures output. A failure to configure the output does not
// stop construction; it is reported through State and can be retried with Reconfigure.
// Mode changes are written to diag when the operator asks for them.
func NewShooter(config ShooterConfig, output hardware.MotorOutput, diag io.Writer) (s *Shooter, err error) {
	if err = config.Validate(); err != nil {
		return nil, err
	}
	if output == nil {
		return nil, shootererrors.ConfigurationError{Field: "output", Reason: "is required"}
	}
	if diag == nil {
		diag = ioutil.Discard
	}

	s = &Shooter{
		config: config,
		output: output,
		diag:   diag,
	}
	s.voltage = NewVoltageController(config.Voltage.Low, config.Voltage.High, s.applyOutput)

	s.lock.Lock()
	s.setFault(output.Configure(config.MotorConfig()))
	s.lock.Unlock()

	return s, nil
}

// Tick runs one control cycle.
func (s *Shooter) Tick(input InputSnapshot) float64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	actions := Bindings(s.mode.CurrentMode(), s.prev, input, s.config.Voltage)
	s.prev = input

	for _, action := range actions {
		s.do(action)
	}

	return s.voltage.Tick()
}

func (s *Shooter) do(action Action) {
	switch action.Kind {
	case ActionSetVoltage:
		s.voltage.SetVoltage(action.Volts)
	case ActionAddVoltage:
		s.voltage.AddVoltage(action.Volts)
	case ActionSubtractVoltage:
		s.voltage.SubtractVoltage(action.Volts)
	case ActionStop:
		s.voltage.Stop()
	case ActionToggleMode:
		s.mode.Toggle()
	case ActionPrintMode:
		fmt.Fprintln(s.diag, s.mode.CurrentMode())
	}
}

func (s *Shooter) State() ShooterState {
	s.lock.Lock()
	defer s.lock.Unlock()

	state := ShooterState{
		Mode:    s.mode.CurrentMode(),
		Stored:  s.voltage.Stored(),
		Applied: s.voltage.Applied(),
	}
	if s.fault != nil {
		state.Fault = s.fault.Error()
	}
	return state
}

func (s *Shooter) Mode() OperatingMode {
	return s.mode.CurrentMode()
}

func (s *Shooter) ToggleMode() OperatingMode {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.mode.Toggle()
}

// The operator helpers change the stored command only; the next Tick applies it.

func (s *Shooter) SetVoltage(volts float64) {
	s.lock.Lock()
	s.voltage.SetVoltage(volts)
	s.lock.Unlock()
}

func (s *Shooter) AddVoltage(volts float64) {
	s.lock.Lock()
	s.voltage.AddVoltage(volts)
	s.lock.Unlock()
}

func (s *Shooter) SubtractVoltage(volts float64) {
	s.lock.Lock()
	s.voltage.SubtractVoltage(volts)
	s.lock.Unlock()
}

func (s *Shooter) Stop() {
	s.lock.Lock()
	s.voltage.Stop()
	s.lock.Unlock()
}

// Shutdown stops the shooter and applies the zero immediately.
func (s *Shooter) Shutdown() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.voltage.Stop()
	s.voltage.Tick()
}

// Reconfigure runs the output configuration again, normally after clearing a fault. The
// configuration round trips run outside the shooter lock so the control loop keeps ticking.
func (s *Shooter) Reconfigure() error {
	s.configLock.Lock()
	defer s.configLock.Unlock()

	err := s.output.Configure(s.config.MotorConfig())

	s.lock.Lock()
	s.setFault(err)
	s.lock.Unlock()

	return err
}

// applyOutput is the voltage controller's output and is only reached with s.lock held.
func (s *Shooter) applyOutput(volts float64) {
	s.setFault(s.output.Apply(volts))
}

// setFault logs only when the output starts or stops failing so a dead bus does not flood the
// log every cycle.
func (s *Shooter) setFault(err error) {
	switch {
	case err != nil && s.fault == nil:
		log.Printf("shooter output failing: %v", err)
	case err == nil && s.fault != nil:
		log.Printf("shooter output recovered after: %v", s.fault)
	}
	s.fault = err
}
