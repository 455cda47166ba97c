// ABOUTME: Sign-in and registration screen as a bubbletea model
// ABOUTME: Uses huh forms to collect credentials before entering the feed

package login

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/lucasreis/postdeck/internal/auth"
	"github.com/lucasreis/postdeck/internal/tui/icons"
	"github.com/lucasreis/postdeck/internal/tui/styles"
)

// Mode selects which flow the user wants
type Mode int

const (
	ModeSignIn Mode = iota
	ModeRegister
	ModeGoogle
)

// CredentialsMsg is sent when the user submits username/email and password
type CredentialsMsg struct {
	Login    string
	Password string
}

// RegisterMsg is sent when the user submits the registration form
type RegisterMsg struct {
	Username string
	Email    string
	Password string
}

// GoogleMsg is sent when the user picks Google sign-in
type GoogleMsg struct{}

// CancelledMsg is sent when the user backs out of the login screen
type CancelledMsg struct{}

// Login manages the sign-in flow as a bubbletea model
type Login struct {
	mode  Mode
	form  *huh.Form
	step  int
	width int

	errMsg string
	busy   bool

	// Form field values
	loginField      string
	password        string
	regUsername     string
	regEmail        string
	regPassword     string
	regPasswordConf string
}

// New creates the login screen starting at the mode selection step
func New() *Login {
	l := &Login{step: 0}
	l.form = l.createModeForm()
	return l
}

// SetError displays a failure message above the form and re-enables input
func (l *Login) SetError(msg string) {
	l.errMsg = msg
	l.busy = false
}

// SetBusy marks the screen as waiting on a network call
func (l *Login) SetBusy() {
	l.busy = true
	l.errMsg = ""
}

func (l *Login) createModeForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Mode]().
				Title("Welcome to Postdeck").
				Description("How would you like to sign in?").
				Options(
					huh.NewOption("Sign in with username or email", ModeSignIn),
					huh.NewOption("Create an account", ModeRegister),
					huh.NewOption(icons.Google.String()+" Sign in with Google", ModeGoogle),
				).
				Value(&l.mode),
		),
	).WithTheme(styles.FormTheme())
}

func (l *Login) createSignInForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username or email").
				Placeholder("you@example.com").
				CharLimit(120).
				Value(&l.loginField).
				Validate(requireField("username or email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				CharLimit(120).
				Value(&l.password).
				Validate(requireField("password")),
		).Title("Sign in").
			Description("Enter your account credentials"),
	).WithTheme(styles.FormTheme())
}

func (l *Login) createRegisterForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				CharLimit(60).
				Value(&l.regUsername).
				Validate(requireField("username")),
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				CharLimit(120).
				Value(&l.regEmail).
				Validate(validateEmail),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				CharLimit(120).
				Value(&l.regPassword).
				Validate(requireField("password")),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				CharLimit(120).
				Value(&l.regPasswordConf),
		).Title("Create account").
			Description("Pick a username and password"),
	).WithTheme(styles.FormTheme())
}

func requireField(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(name + " is required")
		}
		return nil
	}
}

func validateEmail(s string) error {
	if !auth.IsEmail(strings.TrimSpace(s)) {
		return errors.New("enter a valid email address")
	}
	return nil
}

// Init implements tea.Model
func (l *Login) Init() tea.Cmd {
	return l.form.Init()
}

// Update implements tea.Model
func (l *Login) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		l.width = msg.Width
		form, cmd := l.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			l.form = f
		}
		return l, cmd

	case tea.KeyMsg:
		if l.busy {
			return l, nil
		}
		if msg.String() == "esc" {
			if l.step == 0 {
				return l, func() tea.Msg { return CancelledMsg{} }
			}
			// Back to mode selection
			l.step = 0
			l.errMsg = ""
			l.form = l.createModeForm()
			return l, l.form.Init()
		}
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	if l.form.State == huh.StateCompleted {
		return l.handleCompleted()
	}

	return l, cmd
}

// handleCompleted advances to the next step or emits the submit message
func (l *Login) handleCompleted() (tea.Model, tea.Cmd) {
	if l.step == 0 {
		switch l.mode {
		case ModeGoogle:
			l.busy = true
			return l, func() tea.Msg { return GoogleMsg{} }
		case ModeRegister:
			l.step = 1
			l.form = l.createRegisterForm()
		default:
			l.step = 1
			l.form = l.createSignInForm()
		}
		return l, l.form.Init()
	}

	if l.mode == ModeRegister {
		if l.regPassword != l.regPasswordConf {
			l.errMsg = "passwords do not match"
			l.form = l.createRegisterForm()
			return l, l.form.Init()
		}
		l.busy = true
		return l, func() tea.Msg {
			return RegisterMsg{
				Username: strings.TrimSpace(l.regUsername),
				Email:    strings.TrimSpace(l.regEmail),
				Password: l.regPassword,
			}
		}
	}

	l.busy = true
	return l, func() tea.Msg {
		return CredentialsMsg{
			Login:    strings.TrimSpace(l.loginField),
			Password: l.password,
		}
	}
}

// View implements tea.Model
func (l *Login) View() string {
	var sb strings.Builder

	if l.errMsg != "" {
		sb.WriteString(styles.StatusError.Render(icons.Critical.String() + " " + l.errMsg))
		sb.WriteString("\n\n")
	}
	if l.busy {
		sb.WriteString(styles.Subtitle.Render("Signing in..."))
		sb.WriteString("\n")
	}
	sb.WriteString(l.form.View())

	return sb.String()
}
