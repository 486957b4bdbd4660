package onboard

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// VoltageController keeps the requested shooter voltage. The stored command is never clamped;
// only the value handed to the output on Tick is limited to [low, high].
type VoltageController struct {
	lock      sync.Mutex
	stored    float64
	low, high float64
	output    func(volts float64)
}

// NewVoltageController expects low <= 0 <= high, which ShooterConfig.Validate guarantees.
func NewVoltageController(low, high float64, output func(volts float64)) *VoltageController {
	return &VoltageController{
		low:    low,
		high:   high,
		output: output,
	}
}

func (v *VoltageController) SetVoltage(volts float64) {
	v.lock.Lock()
	v.stored = volts
	v.lock.Unlock()
}

func (v *VoltageController) AddVoltage(delta float64) {
	v.lock.Lock()
	v.stored += delta
	v.lock.Unlock()
}

func (v *VoltageController) SubtractVoltage(delta float64) {
	v.AddVoltage(-delta)
}

func (v *VoltageController) Stop() {
	v.SetVoltage(0)
}

// Stored is the raw command, which may be outside the limits.
func (v *VoltageController) Stored() float64 {
	v.lock.Lock()
	defer v.lock.Unlock()
	return v.stored
}

// Applied is what the next Tick will send.
func (v *VoltageController) Applied() float64 {
	v.lock.Lock()
	defer v.lock.Unlock()
	return v.clamped()
}

// Tick sends the clamped command to the output and returns it.
func (v *VoltageController) Tick() float64 {
	v.lock.Lock()
	volts := v.clamped()
	v.lock.Unlock()

	if v.output != nil {
		v.output(volts)
	}
	return volts
}

func (v *VoltageController) clamped() float64 {
	if math.IsNaN(v.stored) {
		return 0
	}
	return mgl64.Clamp(v.stored, v.low, v.high)
}
