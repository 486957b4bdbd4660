package hardware

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"

	"github.com/CodedInternet/goshooter/onboard/canbus"
)

const (
	NODE_VERSION = "~1.0"
)

// MotorControllerNode is a single motor controller on the CAN bus.
type MotorControllerNode struct {
	id          uint32
	bus         canbus.CANBusInterface
	lock        *sync.Mutex // serialises writes to the bus
	pendingLock *sync.Mutex
	pendingCmd  map[uint16]*BaseCommand
	rx          chan canbus.CANMsg
	version     string
}

func NewMotorControllerNode(bus canbus.CANBusInterface, id uint32) *MotorControllerNode {
	n := &MotorControllerNode{
		id:          id,
		bus:         bus,
		lock:        new(sync.Mutex),
		pendingLock: new(sync.Mutex),
		pendingCmd:  make(map[uint16]*BaseCommand),
		rx:          make(chan canbus.CANMsg, 8),
	}

	n.bus.AddListener(n.id, n.rx)
	go n.listen()

	return n
}

func (n *MotorControllerNode) ID() uint32 {
	return n.id
}

// Version is the firmware version reported by the last successful CheckVersion.
func (n *MotorControllerNode) Version() string {
	return n.version
}

func (n *MotorControllerNode) SendMsg(msg canbus.CANMsg) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	return n.bus.SendMsg(msg)
}

// CheckVersion asks the controller for its firmware version and refuses to work with anything
// outside NODE_VERSION. Bench firmware reports DEV and is accepted.
func (n *MotorControllerNode) CheckVersion() (version string, err error) {
	resp, err := newCommand(n, CMD_VERSION, nil, false).Process()
	if err != nil {
		return "", errors.Wrapf(err, "unable to read version of motor controller %d", n.id)
	}

	version = strings.TrimRight(string(resp.Data), "\x00")
	if version == "DEV" {
		n.version = version
		return version, nil
	}

	semVer, err := semver.NewVersion(version)
	if err != nil {
		return version, errors.Wrapf(err, "motor controller %d reported version %q", n.id, version)
	}

	semVerConstraint, err := semver.NewConstraint(NODE_VERSION)
	if err != nil {
		return version, err
	}

	if !semVerConstraint.Check(semVer) {
		return version, fmt.Errorf("unable to use motor controller %d: recieved version %s - require %s", n.id, version, NODE_VERSION)
	}

	n.version = version
	return version, nil
}

func (n *MotorControllerNode) ClearFaults() error {
	_, err := newCommand(n, CMD_CLEAR_FAULTS, nil, false).Process()
	return errors.Wrapf(err, "unable to clear faults on motor controller %d", n.id)
}

func (n *MotorControllerNode) Configure(neutral NeutralMode, currentLimit float64, inverted bool) error {
	_, err := newCommand(n, CMD_CONFIGURE, configurePayload(neutral, currentLimit, inverted), true).Process()
	return errors.Wrapf(err, "unable to configure motor controller %d", n.id)
}

func (n *MotorControllerNode) Follow(leadID uint32, inverted bool) error {
	_, err := newCommand(n, CMD_FOLLOW, followPayload(leadID, inverted), true).Process()
	return errors.Wrapf(err, "motor controller %d unable to follow %d", n.id, leadID)
}

// SetVoltage is sent every control cycle so it is not acknowledged; a lost frame is replaced
// by the next cycle's.
func (n *MotorControllerNode) SetVoltage(volts float64) error {
	return n.SendMsg(canbus.CANMsg{
		ID:   n.id,
		Cmd:  CMD_SET_VOLTAGE,
		Data: voltagePayload(volts),
	})
}

// AllStop aborts every command waiting on this node and tells the controller to stop driving.
func (n *MotorControllerNode) AllStop() error {
	n.abortPending()

	err := n.SendMsg(canbus.CANMsg{
		ID:  n.id,
		Cmd: CMD_ALLSTOP,
	})
	return errors.Wrapf(err, "unable to stop motor controller %d", n.id)
}

func (n *MotorControllerNode) register(c *BaseCommand) {
	n.pendingLock.Lock()
	n.pendingCmd[c.ID()] = c
	n.pendingLock.Unlock()
}

func (n *MotorControllerNode) unregister(c *BaseCommand) {
	n.pendingLock.Lock()
	if n.pendingCmd[c.ID()] == c {
		delete(n.pendingCmd, c.ID())
	}
	n.pendingLock.Unlock()
}

func (n *MotorControllerNode) listen() {
	for msg := range n.rx {
		n.routeACK(msg)
	}
}

func (n *MotorControllerNode) abortPending() {
	n.pendingLock.Lock()
	defer n.pendingLock.Unlock()

	for _, cmd := range n.pendingCmd {
		cmd.Abort()
	}
}

func (n *MotorControllerNode) routeACK(resp canbus.CANMsg) {
	n.pendingLock.Lock()
	cmd, ok := n.pendingCmd[resp.Cmd]
	n.pendingLock.Unlock()

	if ok {
		cmd.Ack(resp)
	}
}
