package calcs

// Reduction converts between motor and mechanism values for a gear ratio,
// e.g. 40:2 is a Ratio of 20.
type Reduction struct {
	Ratio float64
}

func NewReduction(ratio float64) Reduction {
	return Reduction{Ratio: ratio}
}

// Apply turns a motor value (speed, rotations) into the mechanism value.
func (r Reduction) Apply(motor float64) float64 {
	return motor / r.Ratio
}

// Unapply turns a mechanism value back into what the motor has to do.
func (r Reduction) Unapply(mechanism float64) float64 {
	return mechanism * r.Ratio
}

func (r *Reduction) UnmarshalYAML(unmarshal func(interface{}) error) error {
	return unmarshal(&r.Ratio)
}

func (r Reduction) MarshalYAML() (interface{}, error) {
	return r.Ratio, nil
}
