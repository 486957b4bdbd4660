package comms

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"

	"github.com/CodedInternet/goshooter/onboard"
)

const (
	FRAMERATE = 20

	CMD_AXIS     = "axis"
	CMD_BUTTON   = "button"
	CMD_SNAPSHOT = "snapshot"

	writeWait = time.Second
	sendQueue = 4
)

// Cmd is a single message from a driver station.
//
//	{"cmd": "axis", "name": "right", "value": 0.5}
//	{"cmd": "button", "name": "toggle_mode", "value": 1}
//	{"cmd": "snapshot", "snapshot": {"right_axis": 0.5, "increment": true}}
type Cmd struct {
	Cmd      string                 `json:"cmd"`
	Name     string                 `json:"name,omitempty"`
	Value    float64                `json:"value,omitempty"`
	Snapshot *onboard.InputSnapshot `json:"snapshot,omitempty"`
}

type UnknownInputError struct {
	Cmd, Name string
}

func (err UnknownInputError) Error() string {
	return fmt.Sprintf("unknown %s input %q", err.Cmd, err.Name)
}

// StateSource is anything that can report shooter state, normally *onboard.Shooter.
type StateSource interface {
	State() onboard.ShooterState
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Conductor collects operator input from driver stations and hands it to the control loop.
// Button presses are latched until the next Snapshot so a tap shorter than one cycle is still
// seen as an edge.
type Conductor struct {
	lock     sync.Mutex
	input    onboard.InputSnapshot
	latched  onboard.InputSnapshot
	released onboard.InputSnapshot
	reported onboard.InputSnapshot

	clientsLock sync.RWMutex
	clients     map[*client]struct{}
}

var _ onboard.InputSource = (*Conductor)(nil)

func NewConductor() *Conductor {
	return &Conductor{
		clients: make(map[*client]struct{}),
	}
}

func (c *Conductor) ProcessCommand(cmd Cmd) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	switch cmd.Cmd {
	case CMD_AXIS:
		axis := axisField(&c.input, cmd.Name)
		if axis == nil {
			return UnknownInputError{cmd.Cmd, cmd.Name}
		}
		*axis = mgl64.Clamp(cmd.Value, 0, 1)

	case CMD_BUTTON:
		held := buttonField(&c.input, cmd.Name)
		if held == nil {
			return UnknownInputError{cmd.Cmd, cmd.Name}
		}
		c.press(cmd.Name, cmd.Value != 0)

	case CMD_SNAPSHOT:
		if cmd.Snapshot == nil {
			return UnknownInputError{cmd.Cmd, "<empty>"}
		}
		next := *cmd.Snapshot
		for _, name := range buttonNames {
			c.press(name, *buttonField(&next, name))
		}
		c.input.RightAxis = mgl64.Clamp(next.RightAxis, 0, 1)
		c.input.LeftAxis = mgl64.Clamp(next.LeftAxis, 0, 1)

	default:
		return UnknownInputError{cmd.Cmd, cmd.Name}
	}

	return nil
}

// press must be called with c.lock held.
func (c *Conductor) press(name string, pressed bool) {
	held := buttonField(&c.input, name)
	switch {
	case pressed && !*held:
		*buttonField(&c.latched, name) = true
	case !pressed && *held:
		*buttonField(&c.released, name) = true
	}
	*held = pressed
}

// Snapshot returns the current input with any presses since the last call still held. A button
// that was let go and pressed again since the last call reads as released now and pressed on
// the following call, so both edges reach the dispatcher.
func (c *Conductor) Snapshot() onboard.InputSnapshot {
	c.lock.Lock()
	defer c.lock.Unlock()

	snap := c.input
	var pending onboard.InputSnapshot
	for _, name := range buttonNames {
		pressed := *buttonField(&c.latched, name)
		switch {
		case *buttonField(&c.released, name) && *buttonField(&c.reported, name):
			*buttonField(&snap, name) = false
			*buttonField(&pending, name) = pressed
		case pressed:
			*buttonField(&snap, name) = true
		}
	}
	c.latched = pending
	c.released = onboard.InputSnapshot{}
	c.reported = snap

	return snap
}

// Release drops all operator input, as if every trigger and button was let go.
func (c *Conductor) Release() {
	c.lock.Lock()
	c.input = onboard.InputSnapshot{}
	c.lock.Unlock()
}

func (c *Conductor) Clients() int {
	c.clientsLock.RLock()
	defer c.clientsLock.RUnlock()
	return len(c.clients)
}

// Attach serves a driver station over conn until it disconnects. When the last station leaves
// its input is released so the shooter does not keep running on stale triggers.
func (c *Conductor) Attach(conn *websocket.Conn) {
	cl := &client{
		conn: conn,
		send: make(chan []byte, sendQueue),
	}

	c.clientsLock.Lock()
	c.clients[cl] = struct{}{}
	c.clientsLock.Unlock()

	go cl.writer()
	defer func() {
		c.clientsLock.Lock()
		delete(c.clients, cl)
		if len(c.clients) == 0 {
			c.Release()
		}
		c.clientsLock.Unlock()

		close(cl.send)
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Println("station read:", err)
			}
			return
		}

		var cmd Cmd
		if err = json.Unmarshal(msg, &cmd); err != nil {
			cl.queue(mustMarshal(ErrorPayload{"invalid json"}))
			continue
		}

		if err = c.ProcessCommand(cmd); err != nil {
			cl.queue(mustMarshal(ErrorPayload{err.Error()}))
		}
	}
}

// Broadcast sends state to every station. Slow stations miss frames rather than holding up the
// others.
func (c *Conductor) Broadcast(state onboard.ShooterState) {
	c.lock.Lock()
	input := c.input
	c.lock.Unlock()

	c.clientsLock.RLock()
	defer c.clientsLock.RUnlock()

	msg := mustMarshal(StatePayload{
		ShooterState: state,
		Input:        input,
		Stations:     len(c.clients),
	})
	for cl := range c.clients {
		cl.queue(msg)
	}
}

// UpdateClients broadcasts the state of source at FRAMERATE until ctx is done.
func (c *Conductor) UpdateClients(ctx context.Context, source StateSource) {
	ticker := time.NewTicker(time.Second / FRAMERATE)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.Clients() > 0 {
				c.Broadcast(source.State())
			}
		}
	}
}

func (cl *client) queue(msg []byte) {
	select {
	case cl.send <- msg:
	default:
	}
}

func (cl *client) writer() {
	for msg := range cl.send {
		cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Println("station write:", err)
			return
		}
	}
}

var buttonNames = []string{"right", "left", "increment", "decrement", "toggle_mode", "print_mode"}

func buttonField(in *onboard.InputSnapshot, name string) *bool {
	switch name {
	case "right":
		return &in.RightHeld
	case "left":
		return &in.LeftHeld
	case "increment":
		return &in.Increment
	case "decrement":
		return &in.Decrement
	case "toggle_mode":
		return &in.ToggleMode
	case "print_mode":
		return &in.PrintMode
	}
	return nil
}

func axisField(in *onboard.InputSnapshot, name string) *float64 {
	switch name {
	case "right":
		return &in.RightAxis
	case "left":
		return &in.LeftAxis
	}
	return nil
}
