// Package verbose renders a colored diagnostic summary of an expansion
// run to stderr.
package verbose

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// OutputConfig contains parameters for verbose output formatting.
type OutputConfig struct {
	Writer       io.Writer
	KeyColor     *color.Color
	ValueColor   *color.Color
	HeaderColor  *color.Color
	EnableColors bool
}

// DefaultOutputConfig returns a default configuration for verbose output.
func DefaultOutputConfig(writer io.Writer) *OutputConfig {
	return &OutputConfig{
		Writer:       writer,
		KeyColor:     color.New(color.FgCyan, color.Bold),
		ValueColor:   color.New(color.FgMagenta),
		HeaderColor:  color.New(color.FgYellow, color.Bold),
		EnableColors: true,
	}
}

// Summary describes one expansion run.
type Summary struct {
	ChatFile     string
	ChatID       string
	Messages     int
	Backend      string
	TemplateLen  int
	OutputLen    int
	BannedWords  []string
	MetadataPath string
}

// PrintSummary displays the expansion summary as a formatted table.
func PrintSummary(s Summary, outputCfg *OutputConfig) {
	if outputCfg == nil {
		outputCfg = DefaultOutputConfig(os.Stderr)
	}

	w := tabwriter.NewWriter(outputCfg.Writer, 0, 0, 3, ' ', 0)

	type row struct {
		Key   string
		Value string
	}

	metadata := s.MetadataPath
	if metadata == "" {
		metadata = "(in memory)"
	}
	chatFile := s.ChatFile
	if chatFile == "" {
		chatFile = "(none)"
	}

	rows := []row{
		{Key: "Chat file", Value: chatFile},
		{Key: "Chat id", Value: s.ChatID},
		{Key: "Messages", Value: fmt.Sprintf("%d", s.Messages)},
		{Key: "Backend", Value: s.Backend},
		{Key: "Metadata", Value: metadata},
		{Key: "Template length", Value: fmt.Sprintf("%d", s.TemplateLen)},
		{Key: "Output length", Value: fmt.Sprintf("%d", s.OutputLen)},
	}
	if len(s.BannedWords) > 0 {
		rows = append(rows, row{Key: "Banned words", Value: strings.Join(s.BannedWords, ", ")})
	}

	header := "Expansion Summary"
	if outputCfg.EnableColors {
		header = outputCfg.HeaderColor.Sprint(header)
	}
	fmt.Fprintln(outputCfg.Writer, header)

	for _, r := range rows {
		key, value := r.Key, r.Value
		if outputCfg.EnableColors {
			key = outputCfg.KeyColor.Sprint(key)
			value = outputCfg.ValueColor.Sprint(value)
		}
		fmt.Fprintf(w, "  %s\t%s\n", key, value)
	}

	w.Flush()
	fmt.Fprintln(outputCfg.Writer)
}
