//go:build linux

package canbus

import (
	"log"
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

type CANBus struct {
	fd        int
	queue     *txQueue
	listeners listeners
}

func NewCANBus(ifname string) (bus *CANBus, err error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to find interface %s", ifname)
	}

	bus = new(CANBus)

	bus.fd, err = unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open CAN socket")
	}

	addr := &unix.SockaddrCAN{Ifindex: iface.Index}
	if err = unix.Bind(bus.fd, addr); err != nil {
		unix.Close(bus.fd)
		return nil, errors.Wrapf(err, "unable to bind CAN socket to %s", ifname)
	}

	bus.queue = newTxQueue(16, bus.write)
	go bus.reader()

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

// Close flushes queued frames before closing the socket.
func (c *CANBus) Close() error {
	if !c.queue.close() {
		return nil
	}
	return unix.Close(c.fd)
}

func (c *CANBus) write(raw []byte) {
	if _, err := unix.Write(c.fd, raw); err != nil {
		log.Printf("canbus: write failed: %v", err)
	}
}

func (c *CANBus) reader() {
	raw := make([]byte, FrameSize)
	for {
		n, err := unix.Read(c.fd, raw)
		if err != nil {
			// the socket is closed underneath us on Close
			return
		}
		if n < FrameSize {
			continue
		}

		msg, err := msgFromByteArray(raw)
		if err != nil {
			continue
		}

		c.listeners.route(msg)
	}
}
