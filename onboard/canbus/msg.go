package canbus

import (
	"encoding/binary"
	"errors"
)

// Frame layout matches the kernel's struct can_frame: 4 byte id, 1 byte DLC, 3 bytes of
// padding and 8 data bytes. The first two data bytes always carry the command.
const (
	FrameSize  = 16
	MaxPayload = 6

	canEFFFlag = 0x80000000
	canRTRFlag = 0x40000000
	canERRFlag = 0x20000000
	canSFFMask = 0x000007ff
	canEFFMask = 0x1fffffff

	cmdLength = 2
	maxDLC    = 8
)

// errors
var (
	ERR_DATA_TOO_LONG = errors.New("data length exceeds 6 bytes")
	ERR_SHORT_FRAME   = errors.New("frame is shorter than a can_frame")
	ERR_NOT_COMMAND   = errors.New("frame does not carry a command")
	ERR_BUS_CLOSED    = errors.New("bus has been closed")
	ERR_BUS_BUSY      = errors.New("bus transmit queue is full")
)

type CANMsg struct {
	ID   uint32 // node ID this is being issued for
	Cmd  uint16 // command being issued in this message
	Data []byte // raw data up to six bytes. DLC is len(Data) + 2.
}

// Extended reports whether the node ID needs a 29 bit identifier.
func (msg CANMsg) Extended() bool {
	return msg.ID != msg.ID&canSFFMask
}

func (msg *CANMsg) toByteArray() (raw []byte, err error) {
	if len(msg.Data) > MaxPayload {
		return nil, ERR_DATA_TOO_LONG
	}

	raw = make([]byte, FrameSize)

	oid := msg.ID & canEFFMask
	if msg.Extended() {
		oid |= canEFFFlag
	}
	binary.LittleEndian.PutUint32(raw[0:4], oid)

	raw[4] = byte(cmdLength + len(msg.Data))
	binary.LittleEndian.PutUint16(raw[8:10], msg.Cmd)
	copy(raw[10:], msg.Data)

	return
}

func msgFromByteArray(raw []byte) (msg CANMsg, err error) {
	if len(raw) < FrameSize {
		return msg, ERR_SHORT_FRAME
	}

	oid := binary.LittleEndian.Uint32(raw[0:4])
	if oid&(canRTRFlag|canERRFlag) != 0 {
		return msg, ERR_NOT_COMMAND
	}

	if oid&canEFFFlag != 0 {
		msg.ID = oid & canEFFMask
	} else {
		msg.ID = oid & canSFFMask
	}

	dlc := int(raw[4])
	if dlc < cmdLength || dlc > maxDLC {
		return msg, ERR_NOT_COMMAND
	}

	msg.Cmd = binary.LittleEndian.Uint16(raw[8:10])
	msg.Data = make([]byte, dlc-cmdLength)
	copy(msg.Data, raw[10:8+dlc])

	return
}
