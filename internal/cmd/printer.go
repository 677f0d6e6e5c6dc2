package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/dshills/projfind/internal/project/search"
)

// printer renders queue events and remembers when the search has ended.
type printer interface {
	search.Sink
	Done() bool
	Err() error
}

// useColor reports whether out is a terminal that should get ANSI colors.
func useColor(out io.Writer, disabled bool) bool {
	if disabled || color.NoColor {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// treePrinter prints project, file and line as an indented tree.
type treePrinter struct {
	out     io.Writer
	project *color.Color
	file    *color.Color
	line    *color.Color
	dim     *color.Color
	done    bool
	err     error
}

func newTreePrinter(out io.Writer, colored bool) *treePrinter {
	p := &treePrinter{
		out:     out,
		project: color.New(color.FgCyan, color.Bold),
		file:    color.New(color.FgGreen),
		line:    color.New(color.FgYellow),
		dim:     color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.project, p.file, p.line, p.dim} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *treePrinter) OnProjectMatch(_ search.SearchID, pm search.ProjectMatch) {
	name := pm.Project.Name
	if name == "" {
		name = pm.Project.ID
	}
	p.printf("%s %s\n", p.project.Sprint(name), p.dim.Sprintf("(%s)", pm.Project.Root))
	for _, f := range pm.Files {
		p.printf("  %s\n", p.file.Sprint(f.Label()))
		for _, r := range f.Results {
			p.printf("    %s %s\n", p.line.Sprintf("%6d:", r.LineNumber), r.Text)
		}
	}
}

func (p *treePrinter) OnSearchCompleted(_ search.SearchID, s search.Summary) {
	p.done = true
	if s.Cancelled {
		p.printf("\nSearch cancelled.\n")
	}
	p.printf("%s\n", p.dim.Sprint(summaryLine(s)))
}

func (p *treePrinter) Done() bool { return p.done }
func (p *treePrinter) Err() error { return p.err }

func (p *treePrinter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.out, format, args...)
}

// summaryLine formats the closing statistics.
func summaryLine(s search.Summary) string {
	line := fmt.Sprintf("%s matching lines in %s files across %d projects; scanned %s files (%s) in %s",
		humanize.Comma(int64(s.LinesMatched)),
		humanize.Comma(int64(s.FilesMatched)),
		s.Projects,
		humanize.Comma(int64(s.FilesScanned)),
		humanize.IBytes(uint64(max(s.BytesRead, 0))),
		s.Duration.Round(time.Millisecond),
	)
	if s.Skipped > 0 {
		line += fmt.Sprintf(", %s unreadable", humanize.Comma(int64(s.Skipped)))
	}
	return line
}

// jsonRecord is one line of --json output.
type jsonRecord struct {
	Type    string               `json:"type"`
	ID      search.SearchID      `json:"id"`
	Project *search.ProjectMatch `json:"match,omitempty"`
	Summary *search.Summary      `json:"summary,omitempty"`
}

// jsonPrinter writes one JSON object per event.
type jsonPrinter struct {
	enc  *json.Encoder
	done bool
	err  error
}

func newJSONPrinter(out io.Writer) *jsonPrinter {
	return &jsonPrinter{enc: json.NewEncoder(out)}
}

func (p *jsonPrinter) OnProjectMatch(id search.SearchID, pm search.ProjectMatch) {
	p.write(jsonRecord{Type: "project", ID: id, Project: &pm})
}

func (p *jsonPrinter) OnSearchCompleted(id search.SearchID, s search.Summary) {
	p.done = true
	p.write(jsonRecord{Type: "summary", ID: id, Summary: &s})
}

func (p *jsonPrinter) Done() bool { return p.done }
func (p *jsonPrinter) Err() error { return p.err }

func (p *jsonPrinter) write(r jsonRecord) {
	if p.err != nil {
		return
	}
	p.err = p.enc.Encode(r)
}
