package onboard

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type outputRecorder struct {
	applied []float64
}

func (o *outputRecorder) apply(volts float64) {
	o.applied = append(o.applied, volts)
}

func (o *outputRecorder) last() float64 {
	return o.applied[len(o.applied)-1]
}

func TestVoltageController(t *testing.T) {
	Convey("Given a controller limited to [-12, 12]", t, func() {
		out := &outputRecorder{}
		v := NewVoltageController(-12, 12, out.apply)

		Convey("it starts at zero", func() {
			So(v.Stored(), ShouldEqual, 0)
			So(v.Tick(), ShouldEqual, 0)
			So(out.applied, ShouldResemble, []float64{0})
		})

		Convey("values inside the limits pass through", func() {
			for _, volts := range []float64{-12, -3.5, 0, 7.25, 12} {
				v.SetVoltage(volts)
				So(v.Tick(), ShouldEqual, volts)
			}
		})

		Convey("set beyond the limit is clamped on tick but kept", func() {
			v.SetVoltage(20)
			So(v.Tick(), ShouldEqual, 12)
			So(out.last(), ShouldEqual, 12)
			So(v.Stored(), ShouldEqual, 20)

			v.SetVoltage(-40)
			So(v.Tick(), ShouldEqual, -12)
		})

		Convey("adding accumulates past the limit", func() {
			for i := 0; i < 20; i++ {
				v.AddVoltage(1)
			}
			So(v.Stored(), ShouldEqual, 20)
			So(v.Applied(), ShouldEqual, 12)
			So(v.Tick(), ShouldEqual, 12)

			Convey("and subtracting walks back from the stored value", func() {
				v.SubtractVoltage(9)
				So(v.Tick(), ShouldEqual, 11)
			})
		})

		Convey("stop then tick applies zero", func() {
			v.SetVoltage(9)
			v.Tick()
			v.Stop()
			So(v.Tick(), ShouldEqual, 0)
			So(out.last(), ShouldEqual, 0)
		})

		Convey("clamping is monotonic", func() {
			prev := math.Inf(-1)
			for volts := -30.0; volts <= 30; volts += 0.5 {
				v.SetVoltage(volts)
				applied := v.Tick()
				So(applied, ShouldBeGreaterThanOrEqualTo, prev)
				So(applied, ShouldBeBetweenOrEqual, -12, 12)
				prev = applied
			}
		})

		Convey("NaN is never applied", func() {
			v.SetVoltage(math.NaN())
			So(v.Tick(), ShouldEqual, 0)
		})
	})

	Convey("A controller without an output still ticks", t, func() {
		v := NewVoltageController(-1, 1, nil)
		v.SetVoltage(3)
		So(v.Tick(), ShouldEqual, 1)
	})
}

func TestModeController(t *testing.T) {
	Convey("Mode starts in TriggerMode", t, func() {
		var m ModeController
		So(m.CurrentMode(), ShouldEqual, TriggerMode)

		Convey("toggle flips and is involutive", func() {
			So(m.Toggle(), ShouldEqual, ButtonMode)
			So(m.CurrentMode(), ShouldEqual, ButtonMode)
			So(m.Toggle(), ShouldEqual, TriggerMode)
		})
	})

	Convey("Mode names", t, func() {
		So(ButtonMode.String(), ShouldEqual, "ButtonMode")
		So(TriggerMode.String(), ShouldEqual, "TriggerMode")
		So(ButtonMode.Toggle().Toggle(), ShouldEqual, ButtonMode)
	})
}
