package workload

import "fmt"

// OpKind distinguishes allocations from frees.
type OpKind uint8

const (
	OpAlloc OpKind = iota
	OpFree
)

func (k OpKind) String() string {
	switch k {
	case OpAlloc:
		return "alloc"
	case OpFree:
		return "free"
	default:
		return fmt.Sprintf("OpKind(%d)", uint8(k))
	}
}

// Op is one step of a workload. Size is ignored for frees.
type Op struct {
	Kind OpKind
	ID   int
	Size int
}

func (o Op) String() string {
	if o.Kind == OpAlloc {
		return fmt.Sprintf("alloc %d %d", o.ID, o.Size)
	}
	return fmt.Sprintf("%s %d", o.Kind, o.ID)
}
