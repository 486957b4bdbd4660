package onboard

import (
	"fmt"
	"sync"
)

// OperatingMode selects how operator input is interpreted.
type OperatingMode int

const (
	TriggerMode OperatingMode = iota
	ButtonMode
)

func (m OperatingMode) String() string {
	switch m {
	case ButtonMode:
		return "ButtonMode"
	case TriggerMode:
		return "TriggerMode"
	default:
		return "UNKNOWN"
	}
}

// Toggle returns the other mode. Toggling twice is the identity.
func (m OperatingMode) Toggle() OperatingMode {
	if m == ButtonMode {
		return TriggerMode
	}
	return ButtonMode
}

func (m OperatingMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *OperatingMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ButtonMode":
		*m = ButtonMode
	case "TriggerMode":
		*m = TriggerMode
	default:
		return fmt.Errorf("unknown operating mode %q", text)
	}
	return nil
}

// ModeController owns the operating mode. The zero value is in TriggerMode.
type ModeController struct {
	lock sync.RWMutex
	mode OperatingMode
}

func (c *ModeController) Toggle() OperatingMode {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.mode = c.mode.Toggle()
	return c.mode
}

func (c *ModeController) CurrentMode() OperatingMode {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.mode
}
