package config

// ProcessMode selects the sign of the Normalization inversion and gates
// toning behavior.
type ProcessMode int

const (
	// C41Negative is a standard color negative.
	C41Negative ProcessMode = iota
	// BWNegative is a black-and-white negative.
	BWNegative
	// E6Positive is a color reversal (slide) positive; Normalization
	// inverts before the log step and Exposure bypasses the H&D sigmoid.
	E6Positive
)

// String implements fmt.Stringer.
func (m ProcessMode) String() string {
	switch m {
	case C41Negative:
		return "C41-negative"
	case BWNegative:
		return "BW-negative"
	case E6Positive:
		return "E6-positive"
	default:
		return "unknown"
	}
}
