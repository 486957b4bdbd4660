package onboard

import (
	"sync"
	"time"

	"github.com/CodedInternet/goshooter/calcs"
	"github.com/CodedInternet/goshooter/onboard/hardware"
)

const (
	SIM_INTERVAL    = time.Second / 100
	SIM_RESPONSE    = 0.05   // fraction of the speed error closed each interval
	NOMINAL_VOLTAGE = 12.0   // volts
	NEO_FREE_SPEED  = 5676.0 // rpm at NOMINAL_VOLTAGE
)

// SimulatedMotor stands in for the motor controllers when running without hardware. It models
// the lead motor as a first order lag toward the free speed for the applied voltage.
type SimulatedMotor struct {
	lock      sync.RWMutex
	config    hardware.MotorConfig
	reduction calcs.Reduction
	volts     float64
	speed     float64 // motor rpm, positive in the shooter's direction
	fault     error

	done chan struct{}
}

var _ hardware.MotorOutput = (*SimulatedMotor)(nil)

func NewSimulatedMotor(reduction calcs.Reduction) (motor *SimulatedMotor) {
	motor = &SimulatedMotor{
		reduction: reduction,
		done:      make(chan struct{}),
	}
	go motor.update()
	return
}

// Configure clears any injected fault, as the real controllers do.
func (m *SimulatedMotor) Configure(cfg hardware.MotorConfig) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.config = cfg
	m.fault = nil
	return nil
}

func (m *SimulatedMotor) Apply(volts float64) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.config.LeadID == 0 {
		return hardware.ErrNotConfigured
	}
	if m.fault != nil {
		return m.fault
	}

	m.volts = volts
	return nil
}

// Fault makes Apply fail with err until the next Configure.
func (m *SimulatedMotor) Fault(err error) {
	m.lock.Lock()
	m.fault = err
	m.volts = 0
	m.lock.Unlock()
}

func (m *SimulatedMotor) Volts() float64 {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.volts
}

func (m *SimulatedMotor) MotorSpeed() float64 {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.speed
}

// MechanismSpeed is the shooter wheel speed after the reduction.
func (m *SimulatedMotor) MechanismSpeed() float64 {
	return m.reduction.Apply(m.MotorSpeed())
}

func (m *SimulatedMotor) Close() {
	close(m.done)
}

func (m *SimulatedMotor) step() {
	m.lock.Lock()
	defer m.lock.Unlock()

	target := m.volts / NOMINAL_VOLTAGE * NEO_FREE_SPEED
	m.speed += (target - m.speed) * SIM_RESPONSE
}

func (m *SimulatedMotor) update() {
	ticker := time.NewTicker(SIM_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.step()
		}
	}
}
