package onboard

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	shootererrors "github.com/CodedInternet/goshooter/onboard/errors"
	"github.com/CodedInternet/goshooter/onboard/hardware"
)

type mockOutput struct {
	lock         sync.Mutex
	configured   []hardware.MotorConfig
	applied      []float64
	configureErr error
	applyErr     error
	configGate   chan struct{} // when set, Configure waits for it to close
}

func (m *mockOutput) Configure(cfg hardware.MotorConfig) error {
	m.lock.Lock()
	gate := m.configGate
	m.lock.Unlock()
	if gate != nil {
		<-gate
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.configured = append(m.configured, cfg)
	return m.configureErr
}

func (m *mockOutput) Apply(volts float64) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.applied = append(m.applied, volts)
	return m.applyErr
}

func (m *mockOutput) last() float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.applied[len(m.applied)-1]
}

func (m *mockOutput) applyCount() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.applied)
}

func TestNewShooter(t *testing.T) {
	Convey("construction configures the output and starts stopped in TriggerMode", t, func() {
		out := &mockOutput{}
		s, err := NewShooter(DefaultShooterConfig(), out, nil)
		So(err, ShouldBeNil)
		So(out.configured, ShouldResemble, []hardware.MotorConfig{DefaultShooterConfig().MotorConfig()})
		So(s.State(), ShouldResemble, ShooterState{Mode: TriggerMode})
	})

	Convey("invalid config fails fast", t, func() {
		c := DefaultShooterConfig()
		c.FollowerID = c.LeadID
		out := &mockOutput{}

		_, err := NewShooter(c, out, nil)
		So(err, ShouldHaveSameTypeAs, shootererrors.ConfigurationError{})
		So(out.configured, ShouldBeEmpty)
	})

	Convey("an output is required", t, func() {
		_, err := NewShooter(DefaultShooterConfig(), nil, nil)
		So(err, ShouldHaveSameTypeAs, shootererrors.ConfigurationError{})
	})

	Convey("a failed configure is a fault, not an error", t, func() {
		out := &mockOutput{configureErr: errors.New("no ACK")}
		s, err := NewShooter(DefaultShooterConfig(), out, nil)
		So(err, ShouldBeNil)
		So(s.State().Fault, ShouldEqual, "no ACK")

		Convey("which reconfigure clears", func() {
			out.configureErr = nil
			So(s.Reconfigure(), ShouldBeNil)
			So(s.State().Fault, ShouldBeEmpty)
			So(len(out.configured), ShouldEqual, 2)
		})
	})

	Convey("the loop keeps ticking while the output is being reconfigured", t, func() {
		out := &mockOutput{}
		s, err := NewShooter(DefaultShooterConfig(), out, nil)
		So(err, ShouldBeNil)

		gate := make(chan struct{})
		out.lock.Lock()
		out.configGate = gate
		out.configureErr = errors.New("still no ACK")
		out.lock.Unlock()

		reconfigured := make(chan error, 1)
		go func() { reconfigured <- s.Reconfigure() }()

		ticked := make(chan float64, 1)
		go func() { ticked <- s.Tick(InputSnapshot{RightAxis: 0.5}) }()

		select {
		case volts := <-ticked:
			So(volts, ShouldEqual, 5.0)
		case <-time.After(time.Second):
			t.Error("Tick blocked behind Reconfigure")
		}
		So(s.State().Applied, ShouldEqual, 5.0)

		close(gate)
		So(<-reconfigured, ShouldNotBeNil)
		So(s.State().Fault, ShouldEqual, "still no ACK")
	})
}

func TestShooterTick(t *testing.T) {
	Convey("Given a shooter", t, func() {
		out := &mockOutput{}
		diag := new(bytes.Buffer)
		s, err := NewShooter(DefaultShooterConfig(), out, diag)
		So(err, ShouldBeNil)

		Convey("TriggerMode follows the axes every cycle", func() {
			So(s.Tick(InputSnapshot{}), ShouldEqual, 0)
			So(s.Tick(InputSnapshot{RightAxis: 0.5}), ShouldEqual, 5)
			So(out.last(), ShouldEqual, 5)
			So(s.Tick(InputSnapshot{LeftAxis: 0.05}), ShouldEqual, 0)
		})

		Convey("operator voltage is overridden by TriggerMode on the next tick", func() {
			s.SetVoltage(8)
			So(s.Tick(InputSnapshot{}), ShouldEqual, 0)
		})

		Convey("after toggling to ButtonMode", func() {
			s.Tick(InputSnapshot{ToggleMode: true})
			So(s.Mode(), ShouldEqual, ButtonMode)
			s.Tick(InputSnapshot{})

			Convey("rising right applies the high limit and falling stops", func() {
				So(s.Tick(InputSnapshot{RightHeld: true}), ShouldEqual, 12)
				So(s.Tick(InputSnapshot{RightHeld: true}), ShouldEqual, 12)
				So(s.Tick(InputSnapshot{}), ShouldEqual, 0)
			})

			Convey("rising left applies the low limit", func() {
				So(s.Tick(InputSnapshot{LeftHeld: true}), ShouldEqual, -12)
			})

			Convey("twenty increments store 20 and apply 12", func() {
				for i := 0; i < 20; i++ {
					s.Tick(InputSnapshot{Increment: true})
					s.Tick(InputSnapshot{})
				}
				state := s.State()
				So(state.Stored, ShouldEqual, 20)
				So(state.Applied, ShouldEqual, 12)
				So(out.last(), ShouldEqual, 12)

				Convey("decrement steps down from the stored value", func() {
					s.Tick(InputSnapshot{Decrement: true})
					So(s.State().Stored, ShouldEqual, 19)
				})
			})

			Convey("operator voltage holds until a button changes it", func() {
				s.SetVoltage(20)
				So(s.Tick(InputSnapshot{}), ShouldEqual, 12)
				s.Stop()
				So(s.Tick(InputSnapshot{}), ShouldEqual, 0)
				s.AddVoltage(3)
				s.SubtractVoltage(1)
				So(s.Tick(InputSnapshot{}), ShouldEqual, 2)
			})

			Convey("holding toggle does not toggle again", func() {
				s.Tick(InputSnapshot{ToggleMode: true})
				s.Tick(InputSnapshot{ToggleMode: true})
				So(s.Mode(), ShouldEqual, TriggerMode)
			})
		})

		Convey("the toggle takes effect on the next cycle", func() {
			So(s.Tick(InputSnapshot{RightAxis: 0.5, ToggleMode: true}), ShouldEqual, 5)
			So(s.Mode(), ShouldEqual, ButtonMode)
			So(s.Tick(InputSnapshot{RightAxis: 0.9}), ShouldEqual, 5)
		})

		Convey("print writes the current mode", func() {
			s.Tick(InputSnapshot{PrintMode: true})
			So(diag.String(), ShouldEqual, "TriggerMode\n")

			s.Tick(InputSnapshot{PrintMode: true})
			So(diag.String(), ShouldEqual, "TriggerMode\n")

			s.ToggleMode()
			s.Tick(InputSnapshot{})
			s.Tick(InputSnapshot{PrintMode: true})
			So(diag.String(), ShouldEqual, "TriggerMode\nButtonMode\n")
		})

		Convey("output failures are recorded without stopping the loop", func() {
			out.applyErr = errors.New("bus off")
			So(s.Tick(InputSnapshot{RightAxis: 1}), ShouldEqual, 10)
			So(s.State().Fault, ShouldEqual, "bus off")

			out.applyErr = nil
			s.Tick(InputSnapshot{RightAxis: 1})
			So(s.State().Fault, ShouldBeEmpty)
		})

		Convey("shutdown applies zero immediately", func() {
			s.Tick(InputSnapshot{RightAxis: 1})
			s.Shutdown()
			So(out.last(), ShouldEqual, 0)
		})
	})
}

type staticInput struct {
	lock  sync.Mutex
	input InputSnapshot
}

func (i *staticInput) Snapshot() InputSnapshot {
	i.lock.Lock()
	defer i.lock.Unlock()
	return i.input
}

func TestLoop(t *testing.T) {
	Convey("Given a loop driving a shooter", t, func() {
		out := &mockOutput{}
		s, err := NewShooter(DefaultShooterConfig(), out, nil)
		So(err, ShouldBeNil)

		input := &staticInput{input: InputSnapshot{RightAxis: 0.8}}
		loop := NewLoop(s, input, time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- loop.Run(ctx) }()

		Convey("it ticks with the latest input", func() {
			deadline := time.Now().Add(time.Second)
			for out.applyCount() == 0 && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}
			So(out.applyCount(), ShouldBeGreaterThan, 0)
			So(out.last(), ShouldEqual, 8)

			Convey("and stops the motors when cancelled", func() {
				cancel()
				So(<-done, ShouldEqual, context.Canceled)
				So(out.last(), ShouldEqual, 0)
				So(s.State().Applied, ShouldEqual, 0)
			})
		})

		Reset(func() {
			cancel()
		})
	})

	Convey("A zero period falls back to the default", t, func() {
		So(NewLoop(nil, nil, 0).Period(), ShouldEqual, DEFAULT_LOOP_PERIOD)
	})
}
