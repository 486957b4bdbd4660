//go:build !linux

package canbus

import (
	"log"
)

// CANBus on platforms without SocketCAN echoes every frame back to the node it was addressed
// to. Good enough to exercise the command/ACK path on a development machine.
type CANBus struct {
	queue     *txQueue
	listeners listeners
}

func NewCANBus(ifname string) (bus *CANBus, err error) {
	bus = new(CANBus)
	bus.queue = newTxQueue(16, bus.echo)

	log.Printf("canbus: %s is a loopback bus on this platform", ifname)

	return
}

func (c *CANBus) AddListener(nodeId uint32, rxchan chan CANMsg) {
	c.listeners.add(nodeId, rxchan)
}

func (c *CANBus) SendMsg(msg CANMsg) error {
	raw, err := msg.toByteArray()
	if err != nil {
		return err
	}

	return c.queue.send(raw)
}

func (c *CANBus) Close() error {
	c.queue.close()
	return nil
}

func (c *CANBus) echo(raw []byte) {
	msg, err := msgFromByteArray(raw)
	if err != nil {
		return
	}
	c.listeners.route(msg)
}
