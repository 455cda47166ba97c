// ABOUTME: Feed browser TUI component showing the filtered, paged post list
// ABOUTME: Owns the cursor and search input; emits messages for data actions

package feedview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lucasreis/postdeck/internal/client"
	"github.com/lucasreis/postdeck/internal/feed"
	"github.com/lucasreis/postdeck/internal/session"
	"github.com/lucasreis/postdeck/internal/tui/icons"
	"github.com/lucasreis/postdeck/internal/tui/styles"
)

// State represents the current UI state
type state int

const (
	stateBrowse state = iota
	stateSearch
)

// SearchChangedMsg is sent when the search query changes
type SearchChangedMsg struct {
	Query string
}

// NextPageMsg asks for the next page of results
type NextPageMsg struct{}

// PrevPageMsg asks for the previous page of results
type PrevPageMsg struct{}

// SortToggledMsg asks to flip between newest and oldest first
type SortToggledMsg struct{}

// PageSizeCycledMsg asks for the next page size option
type PageSizeCycledMsg struct{}

// RefreshMsg asks for a fresh fetch from the backend
type RefreshMsg struct{}

// ComposeMsg opens the new-post form
type ComposeMsg struct{}

// EditMsg opens the edit form for the selected post
type EditMsg struct {
	Post client.Post
}

// DeleteMsg asks to delete the selected post
type DeleteMsg struct {
	Post client.Post
}

// LogoutMsg signs the user out
type LogoutMsg struct{}

// Data is the display state handed to the component after each fetch
type Data struct {
	Posts      []client.Post
	TotalCount int
	PageIndex  int
	TotalPages int
	PageSize   int
	Sort       feed.SortOrder
	Loading    bool
	ErrMsg     string
}

// FeedView is the post list component
type FeedView struct {
	data   Data
	actor  session.Identity
	cursor int
	state  state
	search textinput.Model
	notice string
	width  int
	height int
}

// New creates a feed view for the signed-in identity
func New(actor session.Identity) *FeedView {
	ti := textinput.New()
	ti.Placeholder = "title, content, or @username"
	ti.CharLimit = 120
	ti.Width = 40

	return &FeedView{
		actor:  actor,
		search: ti,
	}
}

// SetActor updates the identity used for ownership checks
func (fv *FeedView) SetActor(actor session.Identity) {
	fv.actor = actor
}

// SetData installs a fresh display snapshot and clamps the cursor
func (fv *FeedView) SetData(d Data) {
	fv.data = d
	if fv.cursor >= len(d.Posts) {
		fv.cursor = len(d.Posts) - 1
	}
	if fv.cursor < 0 {
		fv.cursor = 0
	}
}

// SetNotice shows a one-line status message above the list
func (fv *FeedView) SetNotice(msg string) {
	fv.notice = msg
}

// Searching reports whether the search input currently has focus
func (fv *FeedView) Searching() bool {
	return fv.state == stateSearch
}

// Selected returns the post under the cursor
func (fv *FeedView) Selected() (client.Post, bool) {
	if fv.cursor < 0 || fv.cursor >= len(fv.data.Posts) {
		return client.Post{}, false
	}
	return fv.data.Posts[fv.cursor], true
}

// Init implements tea.Model
func (fv *FeedView) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (fv *FeedView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		fv.width = msg.Width
		fv.height = msg.Height
		return fv, nil

	case tea.KeyMsg:
		fv.notice = ""

		switch fv.state {
		case stateSearch:
			return fv.updateSearch(msg)
		default:
			return fv.updateBrowse(msg)
		}
	}

	return fv, nil
}

func (fv *FeedView) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if fv.cursor > 0 {
			fv.cursor--
		}
	case "down", "j":
		if fv.cursor < len(fv.data.Posts)-1 {
			fv.cursor++
		}
	case "/":
		fv.state = stateSearch
		return fv, fv.search.Focus()
	case "right", "n":
		return fv, func() tea.Msg { return NextPageMsg{} }
	case "left", "p":
		return fv, func() tea.Msg { return PrevPageMsg{} }
	case "s":
		return fv, func() tea.Msg { return SortToggledMsg{} }
	case "z":
		return fv, func() tea.Msg { return PageSizeCycledMsg{} }
	case "r":
		return fv, func() tea.Msg { return RefreshMsg{} }
	case "c":
		return fv, func() tea.Msg { return ComposeMsg{} }
	case "e":
		if post, ok := fv.Selected(); ok {
			if !fv.actor.Owns(post.Username) {
				fv.notice = "you can only edit your own posts"
				return fv, nil
			}
			return fv, func() tea.Msg { return EditMsg{Post: post} }
		}
	case "d":
		if post, ok := fv.Selected(); ok {
			if !fv.actor.Owns(post.Username) {
				fv.notice = "you can only delete your own posts"
				return fv, nil
			}
			return fv, func() tea.Msg { return DeleteMsg{Post: post} }
		}
	case "ctrl+l":
		return fv, func() tea.Msg { return LogoutMsg{} }
	}

	return fv, nil
}

func (fv *FeedView) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		fv.state = stateBrowse
		fv.search.Blur()
		return fv, nil
	case "esc":
		fv.state = stateBrowse
		fv.search.Blur()
		fv.search.SetValue("")
		return fv, func() tea.Msg { return SearchChangedMsg{Query: ""} }
	}

	before := fv.search.Value()
	var cmd tea.Cmd
	fv.search, cmd = fv.search.Update(msg)
	if after := fv.search.Value(); after != before {
		query := after
		return fv, tea.Batch(cmd, func() tea.Msg { return SearchChangedMsg{Query: query} })
	}
	return fv, cmd
}

// View implements tea.Model
func (fv *FeedView) View() string {
	var sb strings.Builder

	sb.WriteString(fv.renderSearchBar())
	sb.WriteString("\n")

	if fv.notice != "" {
		sb.WriteString(styles.StatusWarning.Render(icons.Warning.String() + " " + fv.notice))
		sb.WriteString("\n")
	}

	switch {
	case fv.data.ErrMsg != "":
		sb.WriteString(styles.StatusError.Render(icons.Critical.String() + " " + fv.data.ErrMsg))
		sb.WriteString("\n")
	case fv.data.Loading && len(fv.data.Posts) == 0:
		sb.WriteString(styles.Subtitle.Render("Loading posts..."))
		sb.WriteString("\n")
	case len(fv.data.Posts) == 0:
		sb.WriteString(styles.Subtitle.Render("No posts found"))
		sb.WriteString("\n")
	default:
		for i, post := range fv.data.Posts {
			sb.WriteString(fv.renderPost(post, i == fv.cursor))
			sb.WriteString("\n")
		}
	}

	sb.WriteString(fv.renderStatusLine())

	return sb.String()
}

func (fv *FeedView) renderSearchBar() string {
	if fv.state == stateSearch {
		return icons.Search.String() + " " + fv.search.View()
	}
	if q := fv.search.Value(); q != "" {
		return icons.Search.String() + " " + styles.ValueStyle.Render(q) +
			styles.PostMeta.Render("  (/ to edit)")
	}
	return styles.PostMeta.Render(icons.Search.String() + " press / to search")
}

func (fv *FeedView) renderPost(post client.Post, selected bool) string {
	width := fv.cardWidth()

	title := styles.PostTitle.Render(styles.Truncate(post.Title, width))
	meta := styles.PostAuthor.Render("@"+post.Username) + " " +
		styles.PostMeta.Render(icons.Clock.String()+" "+formatTimeSince(post.CreatedAt))
	if fv.actor.Owns(post.Username) {
		meta += " " + styles.StatusOK.Render("(you)")
	}

	preview := strings.ReplaceAll(post.Content, "\n", " ")
	body := styles.Truncate(preview, width)

	card := title + "\n" + meta + "\n" + body

	if selected {
		return styles.ActivePanel.Width(width + 2).Render(card)
	}
	return styles.Panel.Width(width + 2).Render(card)
}

func (fv *FeedView) renderStatusLine() string {
	sortIcon := icons.SortDsc
	sortLabel := "newest first"
	if fv.data.Sort == feed.SortOldest {
		sortIcon = icons.SortAsc
		sortLabel = "oldest first"
	}

	parts := []string{
		fmt.Sprintf("%d post(s)", fv.data.TotalCount),
		fmt.Sprintf("page %d/%d", fv.data.PageIndex+1, maxInt(fv.data.TotalPages, 1)),
		fmt.Sprintf("%d per page", fv.data.PageSize),
		sortIcon.String() + " " + sortLabel,
	}
	line := styles.PostMeta.Render(strings.Join(parts, "  ·  "))

	if fv.data.Loading {
		line += "  " + styles.Subtitle.Render(icons.Refresh.String()+" refreshing")
	}
	return line
}

// cardWidth returns the usable width inside a post card
func (fv *FeedView) cardWidth() int {
	width := fv.width - 8
	if width < 40 {
		width = 40
	}
	return width
}

func formatTimeSince(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := time.Since(t)

	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	days := int(d.Hours()) / 24
	if days == 1 {
		return "1d ago"
	}
	return fmt.Sprintf("%dd ago", days)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
