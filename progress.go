package export

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

// Progress shows the current status of a session. Each report replaces the
// previous one.
type Progress interface {
	Report(title, status string)
	Done()
}

type LogProgress struct {
	logger *slog.Logger
}

var _ Progress = (*LogProgress)(nil)

func NewLogProgress(logger *slog.Logger) *LogProgress {
	return &LogProgress{logger: logger}
}

func (p *LogProgress) Report(title, status string) {
	p.logger.Info(status, "title", title)
}

func (p *LogProgress) Done() {}

var (
	progressTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7289da"))
	progressStatusStyle = lipgloss.NewStyle().Faint(true)
)

// TermProgress keeps a single status line on a terminal, rewriting it in
// place. On anything but a terminal it prints one line per report.
type TermProgress struct {
	w           io.Writer
	interactive bool
	width       int
}

var _ Progress = (*TermProgress)(nil)

func NewTermProgress(f *os.File) *TermProgress {
	return &TermProgress{
		w:           f,
		interactive: term.IsTerminal(f.Fd()),
	}
}

func (p *TermProgress) Report(title, status string) {
	line := progressTitleStyle.Render(title) + " " + progressStatusStyle.Render(status)
	if !p.interactive {
		fmt.Fprintln(p.w, title+" "+status)
		return
	}
	w := lipgloss.Width(line)
	pad := ""
	if p.width > w {
		pad = fmt.Sprintf("%*s", p.width-w, "")
	}
	p.width = w
	fmt.Fprint(p.w, "\r"+line+pad)
}

func (p *TermProgress) Done() {
	if p.interactive && p.width > 0 {
		fmt.Fprintln(p.w)
	}
	p.width = 0
}
