package calculator

import "fmt"

// Operation is a step recorded in a Calculation.
type Operation int

const (
	None Operation = iota
	Add
	Subtract
	Multiply
	Divide

	Sqrt
	Inverse
	Percent
	ToggleSign
)

var operationNames = [...]string{
	None:       "none",
	Add:        "add",
	Subtract:   "subtract",
	Multiply:   "multiply",
	Divide:     "divide",
	Sqrt:       "sqrt",
	Inverse:    "inverse",
	Percent:    "percent",
	ToggleSign: "toggle_sign",
}

func (op Operation) String() string {
	if op < 0 || int(op) >= len(operationNames) {
		return fmt.Sprintf("Operation(%d)", int(op))
	}
	return operationNames[op]
}

// ParseOperation is the inverse of Operation.String.
func ParseOperation(name string) (Operation, error) {
	for op, n := range operationNames {
		if n == name {
			return Operation(op), nil
		}
	}
	return None, fmt.Errorf("unknown operation %q: %w", name, ErrInvalidArgument)
}

// HasOperand reports whether op carries an operand in the log.
func (op Operation) HasOperand() bool {
	return op >= None && op <= Divide
}

// IsBinary reports whether op needs a second operand.
func (op Operation) IsBinary() bool {
	return op >= Add && op <= Divide
}

type MemoryOperation int

const (
	MemNone MemoryOperation = iota
	MemClear
	MemRecall
	MemSave
	MemAdd
)

func (op MemoryOperation) String() string {
	switch op {
	case MemClear:
		return "mem_clear"
	case MemRecall:
		return "mem_recall"
	case MemSave:
		return "mem_save"
	case MemAdd:
		return "mem_add"
	default:
		return "mem_none"
	}
}
