// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Manages screen state and routes keyboard input to child components

package tui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasreis/postdeck/internal/apierr"
	"github.com/lucasreis/postdeck/internal/auth"
	"github.com/lucasreis/postdeck/internal/client"
	"github.com/lucasreis/postdeck/internal/feed"
	"github.com/lucasreis/postdeck/internal/googleauth"
	"github.com/lucasreis/postdeck/internal/posts"
	"github.com/lucasreis/postdeck/internal/session"
	"github.com/lucasreis/postdeck/internal/tui/compose"
	"github.com/lucasreis/postdeck/internal/tui/feedview"
	"github.com/lucasreis/postdeck/internal/tui/icons"
	"github.com/lucasreis/postdeck/internal/tui/login"
	"github.com/lucasreis/postdeck/internal/tui/styles"
	"github.com/rs/zerolog"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenFeed
	ScreenCompose
	ScreenEdit
	ScreenConfirmDelete
)

// Layout constants
const (
	minTerminalWidth = 80 // Minimum width before clamping frame rendering
)

// Page size choices cycled with the z key
var pageSizeOptions = []int{10, 25, 50}

// authResultMsg is sent when a sign-in or registration attempt finishes
type authResultMsg struct {
	identity *session.Identity
	err      error
}

// googleTokenMsg is sent when the browser consent flow finishes
type googleTokenMsg struct {
	result *googleauth.Result
	err    error
}

// feedFetchedMsg carries a completed listing snapshot
type feedFetchedMsg struct {
	snap feed.Snapshot
}

// postSavedMsg is sent when a create attempt finishes
type postSavedMsg struct {
	ok     bool
	errMsg string
}

// postEditedMsg is sent when an edit attempt finishes
type postEditedMsg struct {
	err error
}

// postDeletedMsg is sent when a confirmed delete finishes
type postDeletedMsg struct {
	err error
}

// App is the root model for the TUI
type App struct {
	client   *client.Client
	auth     *auth.Controller
	feed     *feed.Controller
	composer *posts.Composer
	editor   *posts.Editor
	deleter  *posts.Deleter
	google   *googleauth.Flow
	logger   zerolog.Logger

	screen     Screen
	width      int
	height     int
	lastUpdate time.Time
	statusMsg  string

	// Child models
	loginScreen   *login.Login
	feedScreen    *feedview.FeedView
	composeScreen *compose.Compose

	editTarget    client.Post
	confirmTarget client.Post
}

// New creates a new TUI application
func New(apiClient *client.Client, authCtrl *auth.Controller, googleFlow *googleauth.Flow, logger zerolog.Logger) *App {
	a := &App{
		client:   apiClient,
		auth:     authCtrl,
		feed:     feed.NewController(apiClient, pageSizeOptions[0], logger),
		composer: posts.NewComposer(apiClient, logger),
		editor:   posts.NewEditor(apiClient, logger),
		deleter:  posts.NewDeleter(apiClient, logger),
		google:   googleFlow,
		logger:   logger,
	}

	if id := authCtrl.Identity(); id != nil {
		a.screen = ScreenFeed
		a.feedScreen = feedview.New(*id)
	} else {
		a.screen = ScreenLogin
		a.loginScreen = login.New()
	}

	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	if a.screen == ScreenFeed {
		return a.fetchFeed()
	}
	return a.loginScreen.Init()
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a.forwardToScreen(msg)

	case tea.KeyMsg:
		// Handle global quit
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if msg.String() == "q" && a.screen == ScreenFeed &&
			a.feedScreen != nil && !a.feedScreen.Searching() {
			return a, tea.Quit
		}
		return a.forwardToScreen(msg)

	case login.CredentialsMsg:
		return a, a.signIn(msg.Login, msg.Password)

	case login.RegisterMsg:
		return a, a.register(msg.Username, msg.Email, msg.Password)

	case login.GoogleMsg:
		return a, a.googleConsent()

	case login.CancelledMsg:
		return a, tea.Quit

	case googleTokenMsg:
		if msg.err != nil {
			a.loginScreen.SetError(apierr.Classify(msg.err, "google sign-in failed").Message)
			return a, nil
		}
		return a, a.signInWithGoogle(msg.result)

	case authResultMsg:
		return a.handleAuthResult(msg)

	case feedFetchedMsg:
		if a.feed.Apply(msg.snap) {
			a.lastUpdate = time.Now()
		}
		if a.auth.Identity() == nil {
			// Session was dropped by a 401 mid-fetch
			return a.toLogin("session expired, please sign in again")
		}
		a.syncFeedScreen()
		return a, nil

	case compose.SubmitMsg:
		if a.screen == ScreenEdit {
			return a, a.submitEdit(msg.Title, msg.Content)
		}
		return a, a.submitCompose(msg.Title, msg.Content)

	case compose.CancelledMsg:
		return a.toFeed("")

	case postSavedMsg:
		if !msg.ok {
			a.composeScreen.SetError(msg.errMsg)
			return a, nil
		}
		a.feed.BumpRefresh()
		model, _ := a.toFeed("post published")
		return model, a.fetchFeed()

	case postEditedMsg:
		if msg.err != nil {
			a.composeScreen.SetError(apierr.Classify(msg.err, "failed to update post").Message)
			return a, nil
		}
		a.feed.BumpRefresh()
		model, _ := a.toFeed("post updated")
		return model, a.fetchFeed()

	case postDeletedMsg:
		if msg.err != nil {
			model, _ := a.toFeed("")
			a.feedScreen.SetNotice(apierr.Classify(msg.err, "failed to delete post").Message)
			return model, nil
		}
		a.feed.BumpRefresh()
		model, _ := a.toFeed("post deleted")
		return model, a.fetchFeed()

	case feedview.SearchChangedMsg:
		a.feed.SetSearch(msg.Query)
		return a, a.fetchFeed()

	case feedview.NextPageMsg:
		if a.feed.NextPage() {
			return a, a.fetchFeed()
		}
		return a, nil

	case feedview.PrevPageMsg:
		if a.feed.PrevPage() {
			return a, a.fetchFeed()
		}
		return a, nil

	case feedview.SortToggledMsg:
		if a.feed.Sort() == feed.SortNewest {
			a.feed.SetSort(feed.SortOldest)
		} else {
			a.feed.SetSort(feed.SortNewest)
		}
		return a, a.fetchFeed()

	case feedview.PageSizeCycledMsg:
		a.feed.SetPageSize(nextPageSize(a.feed.PageSize()))
		return a, a.fetchFeed()

	case feedview.RefreshMsg:
		a.feed.BumpRefresh()
		return a, a.fetchFeed()

	case feedview.ComposeMsg:
		a.screen = ScreenCompose
		a.composeScreen = compose.New(a.composer.Title, a.composer.Content, false)
		return a, a.composeScreen.Init()

	case feedview.EditMsg:
		a.screen = ScreenEdit
		a.editTarget = msg.Post
		a.composeScreen = compose.New(msg.Post.Title, msg.Post.Content, true)
		return a, a.composeScreen.Init()

	case feedview.DeleteMsg:
		return a.requestDelete(msg.Post)

	case feedview.LogoutMsg:
		a.auth.Logout()
		return a.toLogin("")
	}

	return a, nil
}

// forwardToScreen routes a message to the active child model
func (a *App) forwardToScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch a.screen {
	case ScreenLogin:
		if a.loginScreen != nil {
			_, cmd := a.loginScreen.Update(msg)
			return a, cmd
		}
	case ScreenFeed:
		if a.feedScreen != nil {
			_, cmd := a.feedScreen.Update(msg)
			return a, cmd
		}
	case ScreenCompose, ScreenEdit:
		if a.composeScreen != nil {
			_, cmd := a.composeScreen.Update(msg)
			return a, cmd
		}
	case ScreenConfirmDelete:
		if key, ok := msg.(tea.KeyMsg); ok {
			return a.updateConfirmDelete(key)
		}
	}
	return a, nil
}

func (a *App) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		return a, a.confirmDelete()
	case "n", "esc":
		a.deleter.Cancel()
		return a.toFeed("")
	}
	return a, nil
}

func (a *App) handleAuthResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if msg.err == auth.ErrAutoLoginFailed {
			a.loginScreen.SetError(msg.err.Error())
			return a, nil
		}
		a.loginScreen.SetError(apierr.Classify(msg.err, "sign-in failed").Message)
		return a, nil
	}

	a.screen = ScreenFeed
	a.loginScreen = nil
	a.feedScreen = feedview.New(*msg.identity)
	a.statusMsg = "welcome, " + msg.identity.GreetingName()
	return a, a.fetchFeed()
}

// toFeed switches back to the feed screen with an optional status message
func (a *App) toFeed(status string) (tea.Model, tea.Cmd) {
	a.screen = ScreenFeed
	a.composeScreen = nil
	a.statusMsg = status
	if a.feedScreen == nil {
		if id := a.auth.Identity(); id != nil {
			a.feedScreen = feedview.New(*id)
		} else {
			return a.toLogin("")
		}
	}
	a.syncFeedScreen()
	return a, nil
}

// toLogin drops back to the sign-in screen
func (a *App) toLogin(status string) (tea.Model, tea.Cmd) {
	a.screen = ScreenLogin
	a.feedScreen = nil
	a.composeScreen = nil
	a.loginScreen = login.New()
	if status != "" {
		a.loginScreen.SetError(status)
	}
	return a, a.loginScreen.Init()
}

func (a *App) requestDelete(post client.Post) (tea.Model, tea.Cmd) {
	actor := session.Identity{}
	if id := a.auth.Identity(); id != nil {
		actor = *id
	}
	if err := a.deleter.Request(actor, post); err != nil {
		a.feedScreen.SetNotice(err.Error())
		return a, nil
	}
	a.screen = ScreenConfirmDelete
	a.confirmTarget = post
	return a, nil
}

// syncFeedScreen pushes the controller state into the feed component
func (a *App) syncFeedScreen() {
	if a.feedScreen == nil {
		return
	}
	a.feedScreen.SetData(feedview.Data{
		Posts:      a.feed.Posts(),
		TotalCount: a.feed.TotalCount(),
		PageIndex:  a.feed.PageIndex(),
		TotalPages: a.feed.TotalPages(),
		PageSize:   a.feed.PageSize(),
		Sort:       a.feed.Sort(),
		Loading:    a.feed.Loading(),
		ErrMsg:     a.feed.ErrMessage(),
	})
}

// fetchFeed starts a listing fetch guarded by the sequence token
func (a *App) fetchFeed() tea.Cmd {
	seq := a.feed.StartFetch()
	a.syncFeedScreen()
	return func() tea.Msg {
		return feedFetchedMsg{snap: a.feed.Fetch(context.Background(), seq)}
	}
}

func (a *App) signIn(loginField, password string) tea.Cmd {
	return func() tea.Msg {
		id, err := a.auth.LoginWithCredential(context.Background(), loginField, password)
		return authResultMsg{identity: id, err: err}
	}
}

func (a *App) register(username, email, password string) tea.Cmd {
	return func() tea.Msg {
		id, err := a.auth.Register(context.Background(), username, email, password)
		return authResultMsg{identity: id, err: err}
	}
}

// googleConsent opens the browser consent flow and waits for the redirect
func (a *App) googleConsent() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		result, err := a.google.Run(ctx, openBrowser)
		return googleTokenMsg{result: result, err: err}
	}
}

func (a *App) signInWithGoogle(result *googleauth.Result) tea.Cmd {
	return func() tea.Msg {
		id, err := a.auth.LoginWithGoogle(context.Background(), result.IDToken, result.DisplayName)
		return authResultMsg{identity: id, err: err}
	}
}

func (a *App) submitCompose(title, content string) tea.Cmd {
	a.composeScreen.SetBusy()
	return func() tea.Msg {
		actor := session.Identity{}
		if id := a.auth.Identity(); id != nil {
			actor = *id
		}
		a.composer.Title = title
		a.composer.Content = content

		var failure string
		a.composer.OnFailure = func(e *apierr.Error) { failure = e.Message }
		ok := a.composer.Submit(context.Background(), actor)
		if !ok && failure == "" {
			failure = "title and content cannot be blank"
		}
		return postSavedMsg{ok: ok, errMsg: failure}
	}
}

func (a *App) submitEdit(title, content string) tea.Cmd {
	a.composeScreen.SetBusy()
	target := a.editTarget
	return func() tea.Msg {
		actor := session.Identity{}
		if id := a.auth.Identity(); id != nil {
			actor = *id
		}
		_, err := a.editor.Submit(context.Background(), actor, target, title, content)
		return postEditedMsg{err: err}
	}
}

func (a *App) confirmDelete() tea.Cmd {
	return func() tea.Msg {
		return postDeletedMsg{err: a.deleter.Confirm(context.Background())}
	}
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenLogin:
		if a.loginScreen != nil {
			content = a.loginScreen.View()
		}
	case ScreenFeed:
		content = a.viewFeed()
	case ScreenCompose, ScreenEdit:
		if a.composeScreen != nil {
			content = a.composeScreen.View()
		}
	case ScreenConfirmDelete:
		content = a.viewConfirmDelete()
	}

	return a.wrapWithFrame(content)
}

func (a *App) viewFeed() string {
	var sb strings.Builder
	if a.statusMsg != "" {
		sb.WriteString(styles.StatusOK.Render(icons.CheckOK.String() + " " + a.statusMsg))
		sb.WriteString("\n")
	}
	if a.feedScreen != nil {
		sb.WriteString(a.feedScreen.View())
	}
	return sb.String()
}

func (a *App) viewConfirmDelete() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Trash.String() + " Delete post?"))
	sb.WriteString("\n")
	sb.WriteString(styles.PostTitle.Render(a.confirmTarget.Title))
	sb.WriteString("\n\n")
	sb.WriteString(styles.Subtitle.Render("This cannot be undone."))
	sb.WriteString("\n")
	sb.WriteString(styles.KeyStyle.Render("y") + styles.PostMeta.Render(" delete  ") +
		styles.KeyStyle.Render("n") + styles.PostMeta.Render(" keep it"))

	return styles.ActivePanel.Render(sb.String())
}

// renderHeader creates the header bar with app branding and context
func (a *App) renderHeader() string {
	// Guard against zero/small width before WindowSizeMsg is received
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := fmt.Sprintf(" %s %s", icons.App.String(), titleStyle.Render("Postdeck"))

	rightText := ""
	if id := a.auth.Identity(); id != nil && a.screen != ScreenLogin {
		rightText = contextStyle.Render(icons.User.String()+" "+id.GreetingName()) + " "
	}

	leftRendered := lipgloss.NewStyle().Render(leftText)
	rightRendered := lipgloss.NewStyle().Align(lipgloss.Right).Render(rightText)

	leftWidth := lipgloss.Width(leftRendered)
	rightWidth := lipgloss.Width(rightRendered)
	fillWidth := width - 4 - leftWidth - rightWidth // -4 for ╭─ and ─╮
	if fillWidth < 0 {
		fillWidth = 0
	}

	header := "╭─" + leftRendered + strings.Repeat("─", fillWidth) + rightRendered + "─╮"

	return borderStyle.Render(header)
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	var shortcuts []string
	switch a.screen {
	case ScreenLogin:
		shortcuts = []string{"↑↓ Navigate", "Enter Select", "Esc Back"}
	case ScreenFeed:
		shortcuts = []string{"/ Search", "←→ Page", "s Sort", "c New", "e Edit", "d Delete", "r Refresh", "q Quit"}
	case ScreenCompose, ScreenEdit:
		shortcuts = []string{"Tab Next field", "Enter Submit", "Esc Cancel"}
	case ScreenConfirmDelete:
		shortcuts = []string{"y Delete", "n Cancel"}
	}

	var styledShortcuts []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styledShortcuts = append(styledShortcuts, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styledShortcuts = append(styledShortcuts, s)
		}
	}

	leftText := " " + strings.Join(styledShortcuts, "  ")
	leftPlainText := " " + strings.Join(shortcuts, "  ")

	rightText := ""
	rightPlainText := ""
	if !a.lastUpdate.IsZero() && a.screen == ScreenFeed {
		elapsed := formatTimeSince(a.lastUpdate)
		rightText = statusStyle.Render("Updated "+elapsed) + " "
		rightPlainText = "Updated " + elapsed + " "
	}

	leftWidth := lipgloss.Width(leftPlainText)
	rightWidth := lipgloss.Width(rightPlainText)
	fillWidth := width - 4 - leftWidth - rightWidth // -4 for ╰─ and ─╯
	if fillWidth < 0 {
		fillWidth = 0
	}

	footer := "╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯"

	return borderStyle.Render(footer)
}

// formatTimeSince formats a duration since the given time in human-readable form
func formatTimeSince(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}

	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	}

	hours := int(d.Hours())
	if hours == 1 {
		return "1h ago"
	}
	return fmt.Sprintf("%dh ago", hours)
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// nextPageSize returns the next page size option after current
func nextPageSize(current int) int {
	for i, size := range pageSizeOptions {
		if size == current {
			return pageSizeOptions[(i+1)%len(pageSizeOptions)]
		}
	}
	return pageSizeOptions[0]
}

// openBrowser launches the default browser for the consent URL
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// Run starts the TUI
func Run(apiClient *client.Client, authCtrl *auth.Controller, googleFlow *googleauth.Flow, logger zerolog.Logger) error {
	app := New(apiClient, authCtrl, googleFlow, logger)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
