// Package io gathers the template text to expand from the places a CLI
// user may supply it.
package io

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadTemplate consolidates template text from a template file, stdin,
// and CLI arguments, in that order, joined by blank lines. At least one
// source must contribute text.
func ReadTemplate(stdin *os.File, cliArgs []string, templateFile string) (string, error) {
	var builder strings.Builder
	var hasContent bool

	if templateFile != "" {
		data, err := os.ReadFile(templateFile)
		if err != nil {
			return "", fmt.Errorf("failed to read template file %s: %w", templateFile, err)
		}
		content := strings.TrimRight(string(data), "\r\n\t ")
		if content != "" {
			builder.WriteString(content)
			hasContent = true
		}
	}

	if stdin != nil {
		stat, err := stdin.Stat()
		if err != nil {
			return "", fmt.Errorf("failed to stat stdin: %w", err)
		}

		// only read stdin when it is a pipe or redirection
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			stdinContent, err := io.ReadAll(stdin)
			if err != nil {
				return "", fmt.Errorf("failed to read from stdin: %w", err)
			}
			content := strings.TrimRight(string(stdinContent), "\r\n\t ")
			if content != "" {
				if hasContent {
					builder.WriteString("\n\n")
				}
				builder.WriteString(content)
				hasContent = true
			}
		}
	}

	if len(cliArgs) > 0 {
		argsContent := strings.TrimSpace(strings.Join(cliArgs, " "))
		if argsContent != "" {
			if hasContent {
				builder.WriteString("\n\n")
			}
			builder.WriteString(argsContent)
			hasContent = true
		}
	}

	if !hasContent {
		return "", fmt.Errorf("no template provided; pass text as arguments, pipe it to stdin, or use --template")
	}

	return builder.String(), nil
}
