package hardware

import (
	"errors"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/CodedInternet/goshooter/onboard/canbus"
)

type testBus struct {
	lock      sync.Mutex
	txerr     bool
	rxecho    bool
	version   string
	sent      []canbus.CANMsg
	listeners map[uint32]chan canbus.CANMsg
}

func newTestBus() *testBus {
	return &testBus{
		listeners: make(map[uint32]chan canbus.CANMsg),
		version:   "1.0.0",
	}
}

func (t *testBus) AddListener(nodeId uint32, rxchan chan canbus.CANMsg) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.listeners[nodeId] = rxchan
}

func (t *testBus) SendMsg(msg canbus.CANMsg) error {
	t.lock.Lock()
	t.sent = append(t.sent, msg)
	if t.txerr {
		t.lock.Unlock()
		return errors.New("this is a simulated tx error")
	}

	echo := t.rxecho
	resp := msg
	if msg.Cmd == CMD_VERSION {
		resp.Data = []byte(t.version)
	}
	c, ok := t.listeners[msg.ID]
	t.lock.Unlock()

	if echo {
		if !ok || c == nil {
			return errors.New("unable to find listener")
		}
		c <- resp // echo back for ACK
	}

	return nil
}

func (t *testBus) txCount() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.sent)
}

func (t *testBus) lastTx() canbus.CANMsg {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.sent[len(t.sent)-1]
}

func (t *testBus) reset() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.sent = nil
}

func (t *testBus) sentCmds(id uint32) (cmds []uint16) {
	t.lock.Lock()
	defer t.lock.Unlock()
	for _, msg := range t.sent {
		if msg.ID == id {
			cmds = append(cmds, msg.Cmd)
		}
	}
	return
}

func TestMotorControllerNode(t *testing.T) {
	tBus := newTestBus()
	node := NewMotorControllerNode(tBus, 0x12)

	Convey("listener is added", t, func() {
		So(tBus.listeners[node.ID()], ShouldNotBeNil)
	})

	Convey("set voltage is sent without waiting for an ACK", t, func() {
		tBus.rxecho = false
		tBus.reset()

		So(node.SetVoltage(12), ShouldBeNil)
		So(tBus.txCount(), ShouldEqual, 1)
		So(tBus.lastTx(), ShouldResemble, canbus.CANMsg{
			ID:   0x12,
			Cmd:  CMD_SET_VOLTAGE,
			Data: []byte{0xe0, 0x2e},
		})
	})

	Convey("acknowledged commands", t, func() {
		tBus.rxecho = true

		Convey("configure sends the motor settings", func() {
			err := node.Configure(NeutralBrake, 40, true)
			So(err, ShouldBeNil)
			So(tBus.lastTx().Cmd, ShouldEqual, CMD_CONFIGURE)
			So(tBus.lastTx().Data, ShouldResemble, []byte{0x00, 0x01, 0x90, 0x01})
		})

		Convey("follow names the lead", func() {
			So(node.Follow(0x11, true), ShouldBeNil)
			So(tBus.lastTx().Data, ShouldResemble, []byte{0x11, 0, 0, 0, 1})
		})

		Convey("clear faults is acknowledged", func() {
			So(node.ClearFaults(), ShouldBeNil)
		})

		Convey("a transmit error is reported", func() {
			tBus.txerr = true
			defer func() { tBus.txerr = false }()

			So(node.ClearFaults(), ShouldNotBeNil)
		})
	})

	Convey("firmware version is checked", t, func() {
		tBus.rxecho = true

		Convey("compatible version is accepted", func() {
			tBus.version = "1.0.3"
			version, err := node.CheckVersion()
			So(err, ShouldBeNil)
			So(version, ShouldEqual, "1.0.3")
			So(node.Version(), ShouldEqual, "1.0.3")
		})

		Convey("bench firmware is accepted", func() {
			tBus.version = "DEV"
			_, err := node.CheckVersion()
			So(err, ShouldBeNil)
		})

		Convey("newer major version is refused", func() {
			tBus.version = "2.1.0"
			_, err := node.CheckVersion()
			So(err, ShouldBeError)
		})

		Convey("garbage is refused", func() {
			tBus.version = "abc123"
			_, err := node.CheckVersion()
			So(err, ShouldNotBeNil)
		})
	})
}
