package gates

// Kind identifies a boolean logic gate.
type Kind string

const (
	AND  = Kind("AND")
	OR   = Kind("OR")
	XOR  = Kind("XOR")
	XNOR = Kind("XNOR")
	NAND = Kind("NAND")
	NOR  = Kind("NOR")
)

// All lists every gate in the fixed rotation order used by asymmetric mode.
func All() []Kind {
	return []Kind{AND, OR, XOR, XNOR, NAND, NOR}
}

func Valid(k Kind) bool {
	switch k {
	case AND, OR, XOR, XNOR, NAND, NOR:
		return true
	}
	return false
}

// Evaluate returns the gate output for the given inputs.
// Unknown kinds behave as AND.
func Evaluate(k Kind, inputs []bool) bool {
	switch k {
	case OR:
		return anyTrue(inputs)
	case XOR:
		return countTrue(inputs) == 1
	case XNOR:
		// all inputs equal
		return countTrue(inputs) == 0 || countTrue(inputs) == len(inputs)
	case NAND:
		return !allTrue(inputs)
	case NOR:
		return !anyTrue(inputs)
	default: // AND and anything unrecognized
		return allTrue(inputs)
	}
}

// Score is the difficulty reward for solving a gate.
func Score(k Kind) float64 {
	switch k {
	case OR:
		return 1
	case XOR, XNOR:
		return 3
	default: // AND, NAND, NOR and anything unrecognized
		return 2
	}
}

func allTrue(inputs []bool) bool {
	for _, v := range inputs {
		if !v {
			return false
		}
	}
	return true
}

func anyTrue(inputs []bool) bool {
	for _, v := range inputs {
		if v {
			return true
		}
	}
	return false
}

func countTrue(inputs []bool) int {
	n := 0
	for _, v := range inputs {
		if v {
			n++
		}
	}
	return n
}
