// Package report renders command results for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Helveg/sendgrid-template-manager/internal/apperr"
	"github.com/Helveg/sendgrid-template-manager/internal/apply"
	"github.com/Helveg/sendgrid-template-manager/internal/contacts"
	"github.com/Helveg/sendgrid-template-manager/internal/lists"
	"github.com/Helveg/sendgrid-template-manager/internal/templates"
	"github.com/Helveg/sendgrid-template-manager/internal/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Semantic colors
var (
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
	Warning     = lipgloss.Color("#FFC107")
	Muted       = lipgloss.Color("#8a94a6")
)

// Styles holds the styles of a Printer.
type Styles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
}

// NewStyles builds styles for r. Writers that are not terminals get plain
// text because r detects their color profile.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Success: r.NewStyle().Foreground(Success).Bold(true),
		Error:   r.NewStyle().Foreground(Destructive).Bold(true),
		Warning: r.NewStyle().Foreground(Warning),
		Muted:   r.NewStyle().Foreground(Muted),
		Bold:    r.NewStyle().Bold(true),
	}
}

// Printer writes reports to w.
type Printer struct {
	w       io.Writer
	styles  Styles
	verbose bool
}

// NewPrinter creates a Printer. Verbose printers include full error messages.
func NewPrinter(w io.Writer, verbose bool) *Printer {
	return &Printer{w: w, styles: NewStyles(lipgloss.NewRenderer(w)), verbose: verbose}
}

func (p *Printer) println(s string) {
	fmt.Fprintln(p.w, s)
}

// describe renders err as its code, followed by the message when verbose.
func (p *Printer) describe(err error) string {
	code := apperr.CodeOf(err)
	if !p.verbose {
		return string(code)
	}
	return fmt.Sprintf("%s: %v", code, err)
}

// ApplyResult prints one line per template followed by a summary.
func (p *Printer) ApplyResult(res *apply.Result) {
	p.println(p.styles.Bold.Render(fmt.Sprintf("Applied '%s'", res.Design.Name)))
	for _, o := range res.Outcomes {
		prefix := p.styles.Muted.Render(fmt.Sprintf("[%s]", o.Template.ID)) + " " + o.Template.Name
		if o.OK() {
			name := ""
			if o.Version != nil {
				name = o.Version.Name
			}
			p.println(fmt.Sprintf("%s %s: %s version '%s'",
				p.styles.Success.Render("✔"), prefix, o.Action, name))
			continue
		}
		p.println(fmt.Sprintf("%s %s: %s",
			p.styles.Error.Render("✖"), prefix, p.describe(o.Err)))
	}

	summary := fmt.Sprintf("%d succeeded, %d failed", len(res.Succeeded()), len(res.Failed()))
	if len(res.Failed()) > 0 {
		summary = p.styles.Warning.Render(summary)
	}
	p.println(summary)
}

// Error prints a fatal error.
func (p *Printer) Error(err error) {
	p.println(p.styles.Error.Render("✖") + " " + p.describe(err))
}

func section(title string) string {
	return title + "\n" + strings.Repeat("-", 17) + "\n\n"
}

// TemplatesSection summarizes the content templates among all.
func TemplatesSection(all []types.Template, err error) string {
	out := section("Content templates")
	if err != nil {
		return out + "  ERROR"
	}
	content := templates.FilterContentTemplates(all)
	lines := make([]string, 0, len(content))
	for _, t := range content {
		lines = append(lines, fmt.Sprintf("* %s [%s]", t.Name, t.ID))
	}
	out += strings.Join(lines, "\n")
	if untagged := len(all) - len(content); untagged > 0 {
		if len(content) > 0 {
			out += "\n\n"
		}
		out += fmt.Sprintf("(%d untagged)", untagged)
	}
	return out
}

// DesignsSection lists design names.
func DesignsSection(designs []types.Design, err error) string {
	out := section("Designs")
	if err != nil {
		return out + "  ERROR"
	}
	lines := make([]string, 0, len(designs))
	for _, d := range designs {
		lines = append(lines, "* "+d.Name)
	}
	return out + strings.Join(lines, "\n")
}

// Sections prints sections separated by blank lines.
func (p *Printer) Sections(sections ...string) {
	p.println(strings.Join(sections, "\n\n"))
}

// Lists prints contact lists.
func (p *Printer) Lists(ls []types.List) {
	p.println(fmt.Sprintf("Fetched %d lists", len(ls)))
	for _, l := range ls {
		p.println(p.styles.Muted.Render(fmt.Sprintf("➥ [%s]", l.ID)) + " " + l.Name)
	}
}

// Deletions prints the outcome of each list deletion.
func (p *Printer) Deletions(outcomes []lists.DeleteOutcome) {
	for _, o := range outcomes {
		if o.Err != nil {
			p.println(fmt.Sprintf("%s %s: %s",
				p.styles.Error.Render("[failed]"), o.List.Name, p.describe(o.Err)))
			continue
		}
		p.println(p.styles.Success.Render("[deleted]") + " " + o.List.Name)
	}
}

// ContactCount prints the account's contact totals.
func (p *Printer) ContactCount(c *types.ContactCount) {
	p.println(fmt.Sprintf("→ Total contacts:    %s", humanize.Comma(int64(c.ContactCount))))
	p.println(fmt.Sprintf("→ Billable contacts: %s", humanize.Comma(int64(c.BillableCount))))
}

// Mappings prints the columns that will not be imported.
func (p *Printer) Mappings(mappings []contacts.Mapping) {
	for _, m := range mappings {
		if m.Field == nil {
			p.println(p.styles.Muted.Render(fmt.Sprintf("➥ %s [skipped]", m.Header)))
		}
	}
}

// Uploads prints the status of each upload job.
func (p *Printer) Uploads(outcomes []contacts.JobOutcome) {
	for _, o := range outcomes {
		label := fmt.Sprintf("Upload %d:%s", o.Job.Index, o.ImportID)
		switch {
		case o.Err != nil:
			p.println(fmt.Sprintf("%s %s: %s", p.styles.Error.Render("✖"), label, p.describe(o.Err)))
		case o.OK():
			p.println(fmt.Sprintf("%s %s: %d (%s rows)",
				p.styles.Success.Render("✔"), label, o.StatusCode, humanize.Comma(int64(o.Job.Rows))))
		default:
			p.println(fmt.Sprintf("%s %s: %d", p.styles.Warning.Render("!"), label, o.StatusCode))
			if body := strings.TrimSpace(o.Body); body != "" {
				p.println("  " + body)
			}
		}
	}
}
