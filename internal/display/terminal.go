// Package display renders pipeline views on a terminal.
package display

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/spherical/qr-pdf-preview/internal/pipeline"
)

// Action is what the user chose at the prompt.
type Action int

const (
	ActionStart Action = iota
	ActionQuit
)

// Options configures a Terminal.
type Options struct {
	Out          io.Writer // defaults to os.Stdout
	In           io.Reader // defaults to os.Stdin
	PreviewChars int
	Color        bool
	Hyperlinks   bool // emit OSC 8 links
	Animate      bool // spinner and progress bar; off when output is not a terminal
}

// Terminal is the display surface: a status line, an output area and the
// start/rescan prompt.
type Terminal struct {
	opts Options
	out  io.Writer
	in   *bufio.Reader

	mu      sync.Mutex
	spinner *spinner.Spinner
	bar     *progressbar.ProgressBar
	last    string

	ok, bad, info, dim *color.Color
}

// NewTerminal creates a terminal display.
func NewTerminal(opts Options) *Terminal {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.PreviewChars <= 0 {
		opts.PreviewChars = pipeline.DefaultPreviewChars
	}

	t := &Terminal{
		opts: opts,
		out:  opts.Out,
		in:   bufio.NewReader(opts.In),
		ok:   color.New(color.FgGreen, color.Bold),
		bad:  color.New(color.FgRed, color.Bold),
		info: color.New(color.FgCyan),
		dim:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{t.ok, t.bad, t.info, t.dim} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return t
}

// Handle renders an in-flight event. Final states are rendered by Show.
func (t *Terminal) Handle(ev pipeline.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Type {
	case pipeline.EventPage:
		t.progress(ev.Page, ev.TotalPages)
		return
	case pipeline.EventCancelled:
		t.stopAnimations()
		t.line(t.dim, "Scan cancelled", "")
		return
	}

	if !ev.State.Phase.Busy() {
		return
	}

	v := pipeline.Render(ev.State, t.opts.PreviewChars)
	t.stopAnimations()
	if v.Status == t.last {
		return
	}
	t.last = v.Status

	switch ev.State.Phase {
	case pipeline.AwaitingDecode, pipeline.Fetching:
		if t.opts.Animate {
			t.spin(v)
			return
		}
	}
	t.line(t.info, v.Status, v.Link)
}

// Show renders a final state: status line and output area.
func (t *Terminal) Show(st pipeline.State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopAnimations()
	t.last = ""

	v := pipeline.Render(st, t.opts.PreviewChars)
	switch st.Phase {
	case pipeline.Success:
		t.line(t.ok, v.Status, v.Link)
	case pipeline.Failed:
		t.line(t.bad, v.Status, v.Link)
	default:
		if v.Status != "" {
			t.line(t.info, v.Status, v.Link)
		}
	}

	if v.Output != "" {
		fmt.Fprintln(t.out, t.dim.Sprint(strings.Repeat("─", 40)))
		fmt.Fprintln(t.out, v.Output)
		fmt.Fprintln(t.out, t.dim.Sprint(strings.Repeat("─", 40)))
	}
}

// Prompt shows the start control for st and waits for the user. Enter starts
// a scan; q or end of input quits.
func (t *Terminal) Prompt(st pipeline.State) (Action, error) {
	v := pipeline.Render(st, t.opts.PreviewChars)
	fmt.Fprintf(t.out, "%s ", t.dim.Sprintf("[Enter] %s  [q] Quit", v.ButtonLabel))

	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if strings.TrimSpace(line) == "" {
				fmt.Fprintln(t.out)
				return ActionQuit, nil
			}
		} else {
			return ActionQuit, fmt.Errorf("read prompt: %w", err)
		}
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "q", "quit", "exit":
		return ActionQuit, nil
	}
	return ActionStart, nil
}

// Close stops any running animation.
func (t *Terminal) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopAnimations()
}

func (t *Terminal) line(c *color.Color, status, link string) {
	if link == "" {
		fmt.Fprintln(t.out, c.Sprint(status))
		return
	}
	fmt.Fprintf(t.out, "%s %s\n", c.Sprint(status), t.link(link))
}

func (t *Terminal) link(url string) string {
	if !t.opts.Hyperlinks {
		return url
	}
	return Hyperlink(url, url)
}

// Hyperlink wraps text in an OSC 8 terminal hyperlink to url.
func Hyperlink(url, text string) string {
	return "\x1b]8;;" + url + "\x1b\\" + text + "\x1b]8;;\x1b\\"
}

func (t *Terminal) spin(v pipeline.View) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(t.out))
	s.Suffix = " " + v.Status
	if v.Link != "" {
		s.Suffix += " " + v.Link
	}
	s.FinalMSG = t.info.Sprint(strings.TrimPrefix(s.Suffix, " ")) + "\n"
	s.Start()
	t.spinner = s
}

func (t *Terminal) progress(page, total int) {
	if !t.opts.Animate || total <= 0 {
		return
	}
	if t.bar == nil {
		t.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(t.out),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("pages"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "█",
				SaucerHead:    "█",
				SaucerPadding: "░",
				BarStart:      "│",
				BarEnd:        "│",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(t.out, "\n")
			}),
		)
	}
	_ = t.bar.Set(page)
}

func (t *Terminal) stopAnimations() {
	if t.spinner != nil {
		t.spinner.Stop()
		t.spinner = nil
	}
	if t.bar != nil {
		_ = t.bar.Finish()
		t.bar = nil
	}
}
