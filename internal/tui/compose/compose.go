// ABOUTME: Post composition screen as a bubbletea model
// ABOUTME: Shared huh form for writing new posts and editing existing ones

package compose

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/lucasreis/postdeck/internal/tui/icons"
	"github.com/lucasreis/postdeck/internal/tui/styles"
)

// SubmitMsg is sent when the form is completed with non-blank fields
type SubmitMsg struct {
	Title   string
	Content string
}

// CancelledMsg is sent when the user backs out without submitting
type CancelledMsg struct{}

// Compose manages the post form as a bubbletea model
type Compose struct {
	form    *huh.Form
	editing bool
	width   int

	errMsg string
	busy   bool

	title   string
	content string
}

// New creates a compose screen. For edits, seed title and content with the
// post being changed; for new posts pass empty strings.
func New(title, content string, editing bool) *Compose {
	c := &Compose{
		editing: editing,
		title:   title,
		content: content,
	}
	c.form = c.createForm()
	return c
}

// SetError displays a failure message above the form and re-enables input.
// The drafted fields are preserved so the user can retry.
func (c *Compose) SetError(msg string) {
	c.errMsg = msg
	c.busy = false
	c.form = c.createForm()
}

// SetBusy marks the screen as waiting on a network call
func (c *Compose) SetBusy() {
	c.busy = true
	c.errMsg = ""
}

func (c *Compose) createForm() *huh.Form {
	groupTitle := "New post"
	if c.editing {
		groupTitle = "Edit post"
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				CharLimit(200).
				Value(&c.title).
				Validate(requireText("title")),
			huh.NewText().
				Title("Content").
				CharLimit(4000).
				Lines(6).
				Value(&c.content).
				Validate(requireText("content")),
		).Title(groupTitle).
			Description("Esc cancels without saving"),
	).WithTheme(styles.FormTheme())
}

func requireText(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(name + " cannot be blank")
		}
		return nil
	}
}

// Init implements tea.Model
func (c *Compose) Init() tea.Cmd {
	return c.form.Init()
}

// Update implements tea.Model
func (c *Compose) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width = msg.Width
		form, cmd := c.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			c.form = f
		}
		return c, cmd

	case tea.KeyMsg:
		if c.busy {
			return c, nil
		}
		if msg.String() == "esc" {
			return c, func() tea.Msg { return CancelledMsg{} }
		}
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	if c.form.State == huh.StateCompleted {
		c.busy = true
		return c, func() tea.Msg {
			return SubmitMsg{Title: c.title, Content: c.content}
		}
	}

	return c, cmd
}

// View implements tea.Model
func (c *Compose) View() string {
	var sb strings.Builder

	if c.errMsg != "" {
		sb.WriteString(styles.StatusError.Render(icons.Critical.String() + " " + c.errMsg))
		sb.WriteString("\n\n")
	}
	if c.busy {
		sb.WriteString(styles.Subtitle.Render("Saving..."))
		sb.WriteString("\n")
	}
	sb.WriteString(c.form.View())

	return sb.String()
}
