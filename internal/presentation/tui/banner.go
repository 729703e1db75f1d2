package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{" _ _                        ", "#818cf8"},
	{"| (_)_ __   ___ _   _ _ __  ", "#a78bfa"},
	{"| | | '_ \\ / _ \\ | | | '_ \\ ", "#c084fc"},
	{"| | | | | |  __/ |_| | |_) |", "#e879f9"},
	{"|_|_|_| |_|\\___|\\__,_| .__/ ", "#f472b6"},
	{"                     |_|    ", "#fb7185"},
}

// PrintBanner writes the lineup banner to w, coloured for w's terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// StylePrompt colours prompt for w's terminal. Without colour support the
// prompt is returned unchanged.
func StylePrompt(w io.Writer, prompt string) string {
	out := termenv.NewOutput(w)
	if out.Profile == termenv.Ascii {
		return prompt
	}
	return out.String(prompt).Foreground(out.Color("#a78bfa")).Bold().String()
}

// StyleError colours msg as an error for w's terminal.
func StyleError(w io.Writer, msg string) string {
	out := termenv.NewOutput(w)
	if out.Profile == termenv.Ascii {
		return msg
	}
	return out.String(msg).Foreground(out.Color("#f87171")).String()
}
