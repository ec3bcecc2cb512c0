package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dumpty-dev/dumpty/internal/manifest"
	"github.com/dumpty-dev/dumpty/internal/resolve"
)

// promptCategories asks the user to pick categories from a numbered menu.
// Empty input or "all" selects everything.
func promptCategories(r io.Reader, w io.Writer, categories []manifest.Category) (resolve.Selection, error) {
	fmt.Fprintln(w, "This package defines categories:")
	for i, c := range categories {
		if c.Description != "" {
			fmt.Fprintf(w, "  %d) %s — %s\n", i+1, c.Name, c.Description)
		} else {
			fmt.Fprintf(w, "  %d) %s\n", i+1, c.Name)
		}
	}
	fmt.Fprint(w, "? Categories to install (comma-separated numbers, Enter for all): ")

	reader := bufio.NewReader(r)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		// No input available; fall back to installing everything.
		return resolve.SelectAll(), nil
	}

	answer := strings.TrimSpace(line)
	if answer == "" || strings.EqualFold(answer, "all") {
		return resolve.SelectAll(), nil
	}

	var names []string
	for _, part := range strings.Split(answer, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > len(categories) {
			return resolve.Selection{}, fmt.Errorf("invalid selection '%s' — enter numbers between 1 and %d", part, len(categories))
		}
		names = append(names, categories[n-1].Name)
	}
	if len(names) == 0 {
		return resolve.SelectAll(), nil
	}
	return resolve.SelectCategories(names), nil
}
