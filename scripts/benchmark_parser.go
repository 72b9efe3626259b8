package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BenchmarkResult represents a parsed benchmark result.
type BenchmarkResult struct {
	Name        string
	Operation   string
	Rounding    string // "goodfit" or "pow2"
	LiveSet     string // "empty", "small", "large", "fragmented"
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// ComparisonResult compares the two rounding policies on one operation and
// live-set size.
type ComparisonResult struct {
	Operation string
	LiveSet   string
	GoodFitNs float64
	Pow2Ns    float64
	Ratio     float64 // Pow2Ns / GoodFitNs
	Allocs    int64   // heap allocations per op, worst of the two
	Partial   bool    // only one policy was measured
}

// Flatness summarizes how one operation's cost varies with the live-set size
// under one rounding policy. Constant-time operations stay close to 1.
type Flatness struct {
	Operation string
	Rounding  string
	MinNs     float64
	MaxNs     float64
	Spread    float64 // MaxNs / MinNs
}

var (
	inputFile = flag.String(
		"input",
		"",
		"Input file with benchmark output (stdin if not specified)",
	)
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	maxSpread  = flag.Float64("max-spread", 1.5, "Fail when an operation's cost varies more than this across live sets")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

var printer = message.NewPrinter(language.English)

// BenchmarkAllocateFree/goodfit/small-8    10000000    24.1 ns/op    0 B/op    0 allocs/op
var benchmarkRegex = regexp.MustCompile(
	`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+(\d+)\s+B/op)?(?:\s+(\d+)\s+allocs/op)?`,
)

func main() {
	flag.Parse()

	var in io.Reader = os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	results := parseBenchmarks(bufio.NewScanner(in))
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	comparisons := generateComparisons(results)
	flatness := measureFlatness(results)
	report := generateMarkdownReport(comparisons, flatness, *maxSpread)

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(report), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
		}
	} else {
		fmt.Fprint(os.Stdout, report)
	}

	if bad := exceeding(flatness, *maxSpread); len(bad) > 0 {
		fmt.Fprintf(os.Stderr, "%d operations exceed a spread of %.2fx\n", len(bad), *maxSpread)
		os.Exit(2)
	}
}

// parseBenchmarks reads plain or -json `go test -bench` output. Lines that
// are not benchmark results, or whose names do not follow
// Benchmark<Op>/<rounding>/<live set>, are skipped.
func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult
	for scanner.Scan() {
		line := scanner.Text()

		var event struct{ Output string }
		if err := json.Unmarshal([]byte(line), &event); err == nil && event.Output != "" {
			line = event.Output
		}

		m := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		op, rounding, live, ok := splitName(m[1])
		if !ok {
			continue
		}

		r := BenchmarkResult{Name: m[1], Operation: op, Rounding: rounding, LiveSet: live}
		r.Iterations, _ = strconv.Atoi(m[2])
		r.NsPerOp, _ = strconv.ParseFloat(m[3], 64)
		if m[4] != "" {
			r.BytesPerOp, _ = strconv.ParseInt(m[4], 10, 64)
		}
		if m[5] != "" {
			r.AllocsPerOp, _ = strconv.ParseInt(m[5], 10, 64)
		}
		results = append(results, r)
	}
	return results
}

// splitName splits Benchmark<Op>/<rounding>/<live set>-<procs>.
func splitName(name string) (op, rounding, live string, ok bool) {
	parts := strings.Split(strings.TrimPrefix(name, "Benchmark"), "/")
	if len(parts) != 3 {
		return "", "", "", false
	}
	live = parts[2]
	if i := strings.LastIndex(live, "-"); i > 0 {
		live = live[:i]
	}
	return parts[0], parts[1], live, true
}

func generateComparisons(results []BenchmarkResult) []ComparisonResult {
	type key struct{ op, live string }
	grouped := make(map[key]map[string]BenchmarkResult)
	for _, r := range results {
		k := key{r.Operation, r.LiveSet}
		if grouped[k] == nil {
			grouped[k] = make(map[string]BenchmarkResult)
		}
		grouped[k][r.Rounding] = r
	}

	var comparisons []ComparisonResult
	for k, byRounding := range grouped {
		gf, hasGF := byRounding["goodfit"]
		p2, hasP2 := byRounding["pow2"]
		c := ComparisonResult{
			Operation: k.op,
			LiveSet:   k.live,
			GoodFitNs: gf.NsPerOp,
			Pow2Ns:    p2.NsPerOp,
			Allocs:    max(gf.AllocsPerOp, p2.AllocsPerOp),
			Partial:   !hasGF || !hasP2,
		}
		if !c.Partial && gf.NsPerOp > 0 {
			c.Ratio = p2.NsPerOp / gf.NsPerOp
		}
		comparisons = append(comparisons, c)
	}

	slices.SortFunc(comparisons, func(a, b ComparisonResult) int {
		if c := strings.Compare(a.Operation, b.Operation); c != 0 {
			return c
		}
		return strings.Compare(a.LiveSet, b.LiveSet)
	})
	return comparisons
}

// measureFlatness groups results by operation and rounding. Groups with a
// single live-set size are left out.
func measureFlatness(results []BenchmarkResult) []Flatness {
	type key struct{ op, rounding string }
	grouped := make(map[key][]float64)
	for _, r := range results {
		if r.NsPerOp > 0 {
			k := key{r.Operation, r.Rounding}
			grouped[k] = append(grouped[k], r.NsPerOp)
		}
	}

	var out []Flatness
	for k, ns := range grouped {
		if len(ns) < 2 {
			continue
		}
		lo, hi := slices.Min(ns), slices.Max(ns)
		out = append(out, Flatness{Operation: k.op, Rounding: k.rounding, MinNs: lo, MaxNs: hi, Spread: hi / lo})
	}
	slices.SortFunc(out, func(a, b Flatness) int {
		if c := strings.Compare(a.Operation, b.Operation); c != 0 {
			return c
		}
		return strings.Compare(a.Rounding, b.Rounding)
	})
	return out
}

func exceeding(flatness []Flatness, limit float64) []Flatness {
	var bad []Flatness
	for _, f := range flatness {
		if f.Spread > limit {
			bad = append(bad, f)
		}
	}
	return bad
}

func generateMarkdownReport(comparisons []ComparisonResult, flatness []Flatness, limit float64) string {
	var sb strings.Builder

	sb.WriteString("# Benchmark Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))

	sb.WriteString("## Constant-time check\n\n")
	sb.WriteString("| Operation | Rounding | Min (ns/op) | Max (ns/op) | Spread |\n")
	sb.WriteString("|-----------|----------|-------------|-------------|--------|\n")
	for _, f := range flatness {
		status := "✓"
		if f.Spread > limit {
			status = "✗"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %.2fx %s |\n",
			f.Operation, f.Rounding, formatNs(f.MinNs), formatNs(f.MaxNs), f.Spread, status))
	}
	sb.WriteString(fmt.Sprintf("\nSpread limit: %.2fx\n\n", limit))

	sb.WriteString("## Rounding policies\n\n")
	sb.WriteString("| Operation | Live set | goodfit (ns/op) | pow2 (ns/op) | pow2 / goodfit | Allocs |\n")
	sb.WriteString("|-----------|----------|-----------------|--------------|----------------|--------|\n")
	for _, c := range comparisons {
		ratio := fmt.Sprintf("%.2fx", c.Ratio)
		if c.Partial {
			ratio = "*N/A*"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %d |\n",
			c.Operation, c.LiveSet, formatNs(c.GoodFitNs), formatNs(c.Pow2Ns), ratio, c.Allocs))
	}

	sb.WriteString("\n## Notes\n\n")
	sb.WriteString("- **Spread**: slowest over fastest live set; close to 1.0 means the cost is independent of heap state\n")
	sb.WriteString("- **Allocs**: Go heap allocations per op; the allocator itself should report 0\n")
	return sb.String()
}

func formatNs(ns float64) string {
	if ns == 0 {
		return "-"
	}
	return printer.Sprintf("%.1f", ns)
}
