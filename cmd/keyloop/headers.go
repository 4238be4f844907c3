package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kungfusheep/keyloop"
)

// headers draws the title bar and the binding help line.
type headers struct {
	w    io.Writer
	size func() (width, height int, err error)
	reg  *keyloop.Registry

	title lipgloss.Style
	key   lipgloss.Style
	name  lipgloss.Style
}

func newHeaders(w io.Writer, size func() (int, int, error), reg *keyloop.Registry) *headers {
	return &headers{
		w:     w,
		size:  size,
		reg:   reg,
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1),
		key:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		name:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// Draw clears the screen and renders the headers at the top.
func (h *headers) Draw() {
	width := 80
	if h.size != nil {
		if w, _, err := h.size(); err == nil && w > 0 {
			width = w
		}
	}

	bindings := h.reg.Bindings()
	help := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Active {
			continue
		}
		help = append(help, h.key.Render(b.Key.String())+" "+h.name.Render(b.Name))
	}

	out := lipgloss.JoinVertical(lipgloss.Left,
		h.title.Width(width).Render("keyloop"),
		lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(help, "  ")),
	)

	// raw mode: no output post-processing, so \n alone does not return
	fmt.Fprint(h.w, "\x1b[H\x1b[2J", strings.ReplaceAll(out, "\n", "\r\n"), "\r\n")
}
