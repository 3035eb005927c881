package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the Passage ASCII art banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (Teal/Cyan)
	lines := []struct {
		text  string
		color string
	}{
		{"  ____                                 ", "#2dd4bf"},
		{" |  _ \\ __ _ ___ ___  __ _  __ _  ___ ", "#22d3ee"},
		{" | |_) / _` / __/ __|/ _` |/ _` |/ _ \\", "#38bdf8"},
		{" |  __/ (_| \\__ \\__ \\ (_| | (_| |  __/", "#60a5fa"},
		{" |_|   \\__,_|___/___/\\__,_|\\__, |\\___|", "#818cf8"},
		{"                           |___/      ", "#a78bfa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String(" "+version).Faint())
	fmt.Fprintln(w)
}
