package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/vinayprograms/plugtree/internal/definition"
)

var (
	tagStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")) // White bold - tags

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")) // Blue - check kinds

	flagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")) // Yellow - benchmark, debug

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // Gray - disabled plugins

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // Gray - descriptions, tree lines
)

// Run prints the plugin tree of a definition.
func (c *InspectCmd) Run(app *App) error {
	path, err := app.definitionPath(c.File)
	if err != nil {
		return err
	}
	def, err := definition.Load(path)
	if err != nil {
		return err
	}
	fmt.Fprint(app.reporter.Out, renderTree(def, c.Width))
	return nil
}

// renderTree draws the definition as an indented tree.
func renderTree(def *definition.Definition, width int) string {
	var b strings.Builder
	renderNode(&b, def.Root, "", "", width)
	return b.String()
}

func renderNode(b *strings.Builder, n *definition.Node, first, rest string, width int) {
	b.WriteString(dimStyle.Render(first))
	b.WriteString(nodeLabel(n))
	b.WriteString("\n")

	if n.Description != "" {
		textWidth := width - len([]rune(rest)) - 2
		if textWidth < 20 {
			textWidth = 20
		}
		wrapped := indent.String(wordwrap.String(n.Description, textWidth), 2)
		for _, line := range strings.Split(wrapped, "\n") {
			b.WriteString(dimStyle.Render(rest + line))
			b.WriteString("\n")
		}
	}

	for i, c := range n.Children {
		if i == len(n.Children)-1 {
			renderNode(b, c, rest+"└── ", rest+"    ", width)
		} else {
			renderNode(b, c, rest+"├── ", rest+"│   ", width)
		}
	}
}

func nodeLabel(n *definition.Node) string {
	parts := []string{tagStyle.Render(n.Tag)}
	if n.Disabled {
		parts[0] = disabledStyle.Render(n.Tag)
	}
	if n.Check != "" {
		parts = append(parts, kindStyle.Render("["+n.Check+"]"))
	}
	var flags []string
	if n.Benchmark {
		flags = append(flags, "benchmark")
	}
	if n.Debug {
		flags = append(flags, "debug")
	}
	if len(flags) > 0 {
		parts = append(parts, flagStyle.Render(strings.Join(flags, ",")))
	}
	if n.Disabled {
		parts = append(parts, disabledStyle.Render("(disabled)"))
	}
	return strings.Join(parts, " ")
}
