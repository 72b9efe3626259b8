package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v2"
)

// printer renders numbers with thousands separators.
var printer = message.NewPrinter(language.English)

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printYAML outputs data as YAML
func printYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// outputFormat returns the selected output format. --json wins over --format.
func outputFormat() (string, error) {
	if jsonOut {
		return "json", nil
	}
	switch f := strings.ToLower(outFormat); f {
	case "", "text":
		return "text", nil
	case "json", "yaml":
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", outFormat)
	}
}

// emit writes v in the structured format, or calls text for text output.
func emit(v any, text func()) error {
	f, err := outputFormat()
	if err != nil {
		return err
	}
	switch f {
	case "json":
		return printJSON(v)
	case "yaml":
		return printYAML(v)
	default:
		text()
		return nil
	}
}

func formatBytes(bytes int) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatNumber[T ~int | ~int64 | ~uint64](n T) string {
	return printer.Sprintf("%d", n)
}
