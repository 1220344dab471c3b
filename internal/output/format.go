// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"taskchat/internal/service"
)

// TimeLayout is used for every timestamp shown to the user.
const TimeLayout = "2006-01-02 15:04"

// Printer writes formatted tasks, conversations and messages to w.
// Styling is applied only when w is a terminal.
type Printer struct {
	w        io.Writer
	location *time.Location

	done   lipgloss.Style
	faint  lipgloss.Style
	you    lipgloss.Style
	bot    lipgloss.Style
	active lipgloss.Style
}

// New creates a Printer that renders timestamps in loc (time.Local if nil).
func New(w io.Writer, loc *time.Location) *Printer {
	if loc == nil {
		loc = time.Local
	}
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:        w,
		location: loc,
		done:     r.NewStyle().Strikethrough(true).Faint(true),
		faint:    r.NewStyle().Faint(true),
		you:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		bot:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		active:   r.NewStyle().Bold(true),
	}
}

// Task formats a task line.
// Format: "{N:>4}  [x] {TITLE}" then "  (due {TIME})" when set.
// The description, if any, follows on an indented line.
func (p *Printer) Task(num int, task service.Task) {
	mark := "[ ]"
	title := normalizeTitle(task.Title)
	if task.Completed {
		mark = "[x]"
		title = p.done.Render(title)
	}

	line := fmt.Sprintf("%4d  %s %s", num, mark, title)
	if task.DueDate != nil {
		line += p.faint.Render("  (due " + p.formatTime(*task.DueDate) + ")")
	}
	fmt.Fprintln(p.w, line)

	if desc := normalizeText(task.Description); desc != "" {
		fmt.Fprintf(p.w, "          %s\n", p.faint.Render(desc))
	}
}

// Tasks formats a numbered task list, numbering from 1.
func (p *Printer) Tasks(tasks []service.Task) {
	for i, task := range tasks {
		p.Task(i+1, task)
	}
}

// Conversation formats a conversation line. The selected conversation
// is marked with "*".
// Format: "{*| }{ID:>4}  {TITLE}  (updated {TIME})"
func (p *Printer) Conversation(conv service.Conversation, selected bool) {
	marker := " "
	title := normalizeTitle(conv.Title)
	if selected {
		marker = "*"
		title = p.active.Render(title)
	}
	fmt.Fprintf(p.w, "%s%4d  %s%s\n", marker, conv.ID, title,
		p.faint.Render("  (updated "+p.formatTime(conv.UpdatedAt)+")"))
}

// Message formats a chat message as "{SPEAKER}: {CONTENT}". Continuation
// lines of multi-line content are indented to the content column.
func (p *Printer) Message(msg service.Message) {
	label := "you"
	style := p.you
	if msg.Sender == service.SenderBot {
		label = "bot"
		style = p.bot
	}

	lines := strings.Split(strings.TrimRight(msg.Content, "\n"), "\n")
	fmt.Fprintf(p.w, "%s: %s\n", style.Render(label), lines[0])
	indent := strings.Repeat(" ", len(label)+2)
	for _, line := range lines[1:] {
		fmt.Fprintf(p.w, "%s%s\n", indent, line)
	}
}

// Messages formats messages in order.
func (p *Printer) Messages(msgs []service.Message) {
	for _, msg := range msgs {
		p.Message(msg)
	}
}

func (p *Printer) formatTime(t time.Time) string {
	return t.In(p.location).Format(TimeLayout)
}

// normalizeTitle normalizes a title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = normalizeText(title)
	if title == "" {
		return "(untitled)"
	}
	return title
}

// normalizeText flattens newlines and trims surrounding space.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
