package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-yaml"
	"golang.org/x/term"
)

// printJSON writes data as indented JSON to stdout.
func printJSON(data interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// printYAML writes data as YAML to stdout, round-tripping through JSON
// first so json struct tags govern field names.
func printYAML(data interface{}) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic interface{}
	if err := json.Unmarshal(jsonBytes, &generic); err != nil {
		return err
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

// printTable writes tabular data to stdout.
func printTable(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, h)
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		for i, col := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, col)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

// printFormatted handles the text/json output switch used by compile and
// flash commands (spec §6: `--output-format {text,json}`).
func printFormatted(format string, data interface{}, textFn func() error) error {
	if format == "json" {
		return printJSON(data)
	}
	return textFn()
}

func printMessage(msg string) {
	fmt.Println(msg)
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns f's terminal column width, falling back to 80 when
// f is not a terminal or its size can't be determined.
func terminalWidth(f *os.File) int {
	if !isTerminal(f) {
		return 80
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// printStatusLine prints msg as a single overwriting status line when out
// is a terminal (truncated to its width), or as a plain appended line
// otherwise — e.g. when piped to a file or another process.
func printStatusLine(out *os.File, msg string) {
	if !isTerminal(out) {
		fmt.Fprintln(out, msg)
		return
	}
	w := terminalWidth(out)
	if len(msg) > w {
		msg = msg[:w]
	}
	fmt.Fprintf(out, "\r%-*s", w, msg)
}

// endStatusLine moves past any in-progress status line so subsequent
// output starts on its own line.
func endStatusLine(out *os.File) {
	if isTerminal(out) {
		fmt.Fprintln(out)
	}
}
