package hardware

import (
	"errors"
	"log"
	"sync"

	"go.uber.org/multierr"

	"github.com/CodedInternet/goshooter/onboard/canbus"
)

var ErrNotConfigured = errors.New("motor output has not been configured")

// CANMotorOutput drives a lead/follower pair of motor controllers on one CAN bus.
type CANMotorOutput struct {
	bus canbus.CANBusInterface

	nodesLock sync.Mutex
	nodes     map[uint32]*MotorControllerNode

	configLock sync.Mutex // one Configure at a time

	lock sync.Mutex
	lead *MotorControllerNode
}

var _ MotorOutput = (*CANMotorOutput)(nil)

func NewCANMotorOutput(bus canbus.CANBusInterface) *CANMotorOutput {
	return &CANMotorOutput{
		bus:   bus,
		nodes: make(map[uint32]*MotorControllerNode),
	}
}

// Configure checks firmware, clears faults and configures both controllers before slaving the
// follower to the lead. Nodes are reused between calls so it can be run again after a fault.
// Apply keeps driving the previous lead until the new configuration completes.
func (o *CANMotorOutput) Configure(cfg MotorConfig) error {
	o.configLock.Lock()
	defer o.configLock.Unlock()

	lead := o.getNode(cfg.LeadID)
	follower := o.getNode(cfg.FollowerID)

	for _, n := range []*MotorControllerNode{lead, follower} {
		version, err := n.CheckVersion()
		if err != nil {
			return err
		}
		log.Printf("motor controller %d running firmware %s", n.ID(), version)

		if err = n.ClearFaults(); err != nil {
			return err
		}

		if err = n.Configure(cfg.NeutralMode, cfg.CurrentLimit, cfg.Inverted); err != nil {
			return err
		}
	}

	if err := follower.Follow(lead.ID(), cfg.FollowerInverted); err != nil {
		return err
	}

	o.lock.Lock()
	o.lead = lead
	o.lock.Unlock()
	return nil
}

func (o *CANMotorOutput) Apply(volts float64) error {
	o.lock.Lock()
	lead := o.lead
	o.lock.Unlock()

	if lead == nil {
		return ErrNotConfigured
	}

	return lead.SetVoltage(volts)
}

// Stop sends ALLSTOP to every controller, aborting any configuration still waiting on an ACK.
// The output must be configured again before Apply is accepted.
func (o *CANMotorOutput) Stop() (err error) {
	o.nodesLock.Lock()
	nodes := make([]*MotorControllerNode, 0, len(o.nodes))
	for _, n := range o.nodes {
		nodes = append(nodes, n)
	}
	o.nodesLock.Unlock()

	for _, n := range nodes {
		err = multierr.Append(err, n.AllStop())
	}

	o.lock.Lock()
	o.lead = nil
	o.lock.Unlock()

	return err
}

func (o *CANMotorOutput) getNode(id uint32) *MotorControllerNode {
	o.nodesLock.Lock()
	defer o.nodesLock.Unlock()

	n, ok := o.nodes[id]
	if !ok {
		n = NewMotorControllerNode(o.bus, id)
		o.nodes[id] = n
	}
	return n
}
