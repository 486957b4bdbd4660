package hardware

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// SerialMotorOutput talks a line protocol to a USB motor bridge:
//
//	X <id>                                   clear faults
//	C <id> <brake|coast> <0|1> <amps>        configure, third field is inversion
//	F <id> <lead> <0|1>                      follow lead, optionally inverted
//	V <id> <volts>                           set voltage
type SerialMotorOutput struct {
	port io.WriteCloser
	lock sync.Mutex
	lead uint32
}

var _ MotorOutput = (*SerialMotorOutput)(nil)

func OpenSerialMotorOutput(name string, baudRate int) (*SerialMotorOutput, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baudRate,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open serial port %s", name)
	}

	return NewSerialMotorOutput(port), nil
}

func NewSerialMotorOutput(port io.WriteCloser) *SerialMotorOutput {
	return &SerialMotorOutput{port: port}
}

// SerialPorts lists the ports a bridge could be attached to.
func SerialPorts() ([]string, error) {
	return serial.GetPortsList()
}

func (o *SerialMotorOutput) Configure(cfg MotorConfig) error {
	var b strings.Builder
	for _, id := range []uint32{cfg.LeadID, cfg.FollowerID} {
		fmt.Fprintf(&b, "X %d\n", id)
		fmt.Fprintf(&b, "C %d %s %d %.1f\n", id, cfg.NeutralMode, boolFlag(cfg.Inverted), cfg.CurrentLimit)
	}
	fmt.Fprintf(&b, "F %d %d %d\n", cfg.FollowerID, cfg.LeadID, boolFlag(cfg.FollowerInverted))

	o.lock.Lock()
	defer o.lock.Unlock()

	if _, err := io.WriteString(o.port, b.String()); err != nil {
		return errors.Wrap(err, "unable to configure motor bridge")
	}

	o.lead = cfg.LeadID
	return nil
}

func (o *SerialMotorOutput) Apply(volts float64) error {
	o.lock.Lock()
	defer o.lock.Unlock()

	if o.lead == 0 {
		return ErrNotConfigured
	}

	_, err := fmt.Fprintf(o.port, "V %d %.3f\n", o.lead, volts)
	return err
}

func (o *SerialMotorOutput) Close() error {
	o.lock.Lock()
	defer o.lock.Unlock()

	return o.port.Close()
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
