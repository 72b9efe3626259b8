package workload

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseTrace reads a text trace. Blank lines and lines starting with '#' are
// skipped; every other line is "alloc <id> <size>" or "free <id>".
func ParseTrace(r io.Reader) ([]Op, error) {
	var ops []Op
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		op, err := parseOp(strings.Fields(text))
		if err != nil {
			return nil, fmt.Errorf("workload: trace line %d: %w", line, err)
		}
		ops = append(ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("workload: reading trace: %w", err)
	}
	return ops, nil
}

func parseOp(fields []string) (Op, error) {
	switch fields[0] {
	case "alloc":
		if len(fields) != 3 {
			return Op{}, fmt.Errorf("want \"alloc <id> <size>\", got %d fields", len(fields))
		}
		id, err := parseNonNegative("id", fields[1])
		if err != nil {
			return Op{}, err
		}
		size, err := parseNonNegative("size", fields[2])
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: OpAlloc, ID: id, Size: size}, nil
	case "free":
		if len(fields) != 2 {
			return Op{}, fmt.Errorf("want \"free <id>\", got %d fields", len(fields))
		}
		id, err := parseNonNegative("id", fields[1])
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: OpFree, ID: id}, nil
	default:
		return Op{}, fmt.Errorf("unknown op %q", fields[0])
	}
}

func parseNonNegative(what, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative %s %d", what, n)
	}
	return n, nil
}

// WriteTrace writes ops in the format ParseTrace reads.
func WriteTrace(w io.Writer, ops []Op) error {
	bw := bufio.NewWriter(w)
	for _, op := range ops {
		if _, err := fmt.Fprintln(bw, op.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}
