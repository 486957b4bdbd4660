package hardware

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"time"

	"github.com/CodedInternet/goshooter/onboard/canbus"
)

const (
	CMD_ALLSTOP      = 0x0000
	CMD_CLEAR_FAULTS = 0x0010
	CMD_CONFIGURE    = 0x0020
	CMD_FOLLOW       = 0x0030
	CMD_SET_VOLTAGE  = 0x0050
	CMD_VERSION      = 0x03E0

	CMD_MAX_RETRIES = 5
	CMD_TIMEOUT     = 5 * time.Millisecond

	flagInverted = 0x01
)

var (
	ERR_MAX_RETRIES = errors.New("CMD_MAX_RETRIES reached while attempting to send")
	ERR_SEND_ABORT  = errors.New("send has been aborted")
)

type BaseCommand struct {
	node  *MotorControllerNode
	msg   canbus.CANMsg
	echo  bool // the node acknowledges by echoing the payload back
	ack   chan canbus.CANMsg
	abort chan struct{}
}

// Sends the current command and waits for an acknowledgment from the node.
// Each attempt waits CMD_TIMEOUT for the ACK before sending again, up to CMD_MAX_RETRIES sends.
// Can be canceled by closing the abort channel.
// Returns the response to the message for upstream processing should it be necessary.
func (c *BaseCommand) Process() (resp canbus.CANMsg, err error) {
	if c.ack == nil {
		c.ack = make(chan canbus.CANMsg, 1)
	}

	if c.abort == nil {
		c.abort = make(chan struct{})
	}

	// register the callback with the node
	c.node.register(c)
	defer c.node.unregister(c)

	msg := c.Msg()
	for i := 0; i < CMD_MAX_RETRIES; i++ {
		err = c.node.SendMsg(msg)
		if err != nil {
			return resp, err
		}

		timeout := time.After(CMD_TIMEOUT)
	wait:
		for {
			select {
			case resp = <-c.ack:
				if c.verify(resp) {
					return resp, nil
				}

			case <-c.abort:
				return resp, ERR_SEND_ABORT

			case <-timeout:
				break wait
			}
		}
	}

	// we have exhausted MAX_RETRIES
	return resp, ERR_MAX_RETRIES
}

func (c *BaseCommand) verify(msg canbus.CANMsg) bool {
	if msg.Cmd != c.msg.Cmd {
		return false
	}
	return !c.echo || bytes.Equal(c.msg.Data, msg.Data)
}

func (c *BaseCommand) ID() uint16 {
	return c.msg.Cmd
}

func (c *BaseCommand) Msg() canbus.CANMsg {
	return c.msg
}

func (c *BaseCommand) Abort() error {
	if c.abort == nil {
		return errors.New("send not yet attempted")
	}

	select {
	case <-c.abort:
	default:
		close(c.abort)
	}
	return nil
}

// Ack hands a response to a waiting Process. A late ACK for a command that already gave up is
// dropped rather than blocking the node's listener.
func (c *BaseCommand) Ack(msg canbus.CANMsg) {
	select {
	case c.ack <- msg:
	default:
	}
}

func newCommand(node *MotorControllerNode, cmd uint16, data []byte, echo bool) *BaseCommand {
	return &BaseCommand{
		node: node,
		msg: canbus.CANMsg{
			ID:   node.id,
			Cmd:  cmd,
			Data: data,
		},
		echo: echo,
	}
}

// configurePayload: neutral mode, flags, current limit in tenths of an amp.
func configurePayload(neutral NeutralMode, currentLimit float64, inverted bool) []byte {
	data := make([]byte, 4)
	data[0] = byte(neutral)
	if inverted {
		data[1] |= flagInverted
	}

	deciamps := math.Round(currentLimit * 10)
	if deciamps < 0 {
		deciamps = 0
	} else if deciamps > math.MaxUint16 {
		deciamps = math.MaxUint16
	}
	binary.LittleEndian.PutUint16(data[2:4], uint16(deciamps))

	return data
}

// followPayload: lead node ID and flags.
func followPayload(leadID uint32, inverted bool) []byte {
	data := make([]byte, 5)
	binary.LittleEndian.PutUint32(data[0:4], leadID)
	if inverted {
		data[4] |= flagInverted
	}
	return data
}

// voltagePayload: signed millivolts.
func voltagePayload(volts float64) []byte {
	mv := math.Round(volts * 1000)
	if math.IsNaN(mv) {
		mv = 0
	} else if mv > math.MaxInt16 {
		mv = math.MaxInt16
	} else if mv < math.MinInt16 {
		mv = math.MinInt16
	}

	data := make([]byte, 2)
	binary.LittleEndian.PutUint16(data, uint16(int16(mv)))
	return data
}
