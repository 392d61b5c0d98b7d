package param

// Unit is the physical unit a normalized value is converted into.
type Unit string

const (
	UnitRatio   Unit = ""
	UnitSeconds Unit = "s"
	UnitHertz   Unit = "Hz"
	UnitDecibel Unit = "dB"
)

// NyquistHz is the cutoff reached at normalized 1.0.
const NyquistHz = 22050

func Decibels(v float64) float64     { return -20 + 60*v }
func Milliseconds(v float64) float64 { return 1000 * v }
func Hertz(v float64) float64        { return NyquistHz * v }
func Percent(v float64) float64      { return 100 * v }

// Plain converts a normalized value into the value the sound engine applies
// for p. Envelope times are seconds, amp and sustain are linear ratios.
func Plain(p Param, v float64) (float64, Unit) {
	switch p {
	case Attack, Decay, Release:
		return v, UnitSeconds
	case FilterCutoff:
		return Hertz(v), UnitHertz
	case FilterResonance:
		return Decibels(v), UnitDecibel
	default:
		return v, UnitRatio
	}
}
