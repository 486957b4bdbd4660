package main

import (
	"errors"
	"log"

	"go.uber.org/multierr"

	"github.com/CodedInternet/goshooter/onboard"
	"github.com/CodedInternet/goshooter/onboard/canbus"
	shootererrors "github.com/CodedInternet/goshooter/onboard/errors"
	"github.com/CodedInternet/goshooter/onboard/hardware"
)

type closeFunc func() error

// newMotorOutput builds the output named by the transport config. The returned closer releases
// the bus or port once the loop has stopped the motors.
func newMotorOutput(f *onboard.ShooterFile, simulated bool) (hardware.MotorOutput, closeFunc, error) {
	kind := f.Transport.Kind
	if simulated {
		kind = onboard.TRANSPORT_SIM
	}

	switch kind {
	case onboard.TRANSPORT_CAN:
		bus, err := canbus.NewCANBus(f.Transport.Bus)
		if err != nil {
			return nil, nil, err
		}
		output := hardware.NewCANMotorOutput(bus)
		return output, func() error {
			return multierr.Append(output.Stop(), bus.Close())
		}, nil

	case onboard.TRANSPORT_SERIAL:
		port := f.Transport.Port
		if port == "" {
			ports, err := hardware.SerialPorts()
			if err != nil {
				return nil, nil, err
			}
			if len(ports) == 0 {
				return nil, nil, errors.New("no serial ports found for the motor bridge")
			}
			port = ports[0]
			log.Printf("no serial port configured, using %s", port)
		}

		output, err := hardware.OpenSerialMotorOutput(port, f.Transport.Baud)
		if err != nil {
			return nil, nil, err
		}
		return output, output.Close, nil

	case onboard.TRANSPORT_SIM:
		sim := onboard.NewSimulatedMotor(f.Shooter.Reduction)
		return sim, func() error { sim.Close(); return nil }, nil

	default:
		return nil, nil, shootererrors.UnknownTransportError{Kind: kind}
	}
}
