package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"shelver/internal/adapters/tui/styles"
	"shelver/internal/domain"
)

const defaultPageSize = 10

// ReviewKeyMap defines key bindings for the plan review
type ReviewKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	PrevPage  key.Binding
	NextPage  key.Binding
	Toggle    key.Binding
	ToggleAll key.Binding
	Copy      key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
	Help      key.Binding
}

var ReviewKeys = ReviewKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("left", "h", "pgup"),
		key.WithHelp("←/h", "prev page"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("right", "l", "pgdown"),
		key.WithHelp("→/l", "next page"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "toggle"),
	),
	ToggleAll: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "toggle all"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy destination"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y", "enter"),
		key.WithHelp("y/enter", "move selected"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "esc", "q", "ctrl+c"),
		key.WithHelp("n/esc", "cancel"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more"),
	),
}

func (k ReviewKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Confirm, k.Cancel, k.Help}
}

func (k ReviewKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPage, k.NextPage},
		{k.Toggle, k.ToggleAll, k.Copy},
		{k.Confirm, k.Cancel, k.Help},
	}
}

// ReviewModel lets the user pick which planned moves to carry out.
// Blocked entries and files that stay in place are listed but cannot be
// selected.
type ReviewModel struct {
	plan      *domain.Plan
	selected  []bool
	cursor    int
	pager     paginator.Model
	help      help.Model
	keys      ReviewKeyMap
	confirmed bool
	message   string
	isError   bool
	width     int

	// copy writes to the system clipboard; replaced in tests
	copy func(string) error
}

// NewReviewModel creates a review over plan with every movable entry selected
func NewReviewModel(plan *domain.Plan) *ReviewModel {
	selected := make([]bool, len(plan.Entries))
	for i, e := range plan.Entries {
		selected[i] = e.Movable()
	}

	pager := paginator.New()
	pager.Type = paginator.Arabic
	pager.PerPage = defaultPageSize
	pager.SetTotalPages(len(plan.Entries))

	return &ReviewModel{
		plan:     plan,
		selected: selected,
		pager:    pager,
		help:     help.New(),
		keys:     ReviewKeys,
		copy:     clipboard.WriteAll,
	}
}

// Init initializes the review
func (m *ReviewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the review
func (m *ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		m.message = ""
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.confirmed = false
			return m, tea.Quit

		case key.Matches(msg, m.keys.Confirm):
			m.confirmed = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.setCursor(m.cursor - 1)
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.plan.Entries)-1 {
				m.setCursor(m.cursor + 1)
			}

		case key.Matches(msg, m.keys.PrevPage):
			if !m.pager.OnFirstPage() {
				m.pager.PrevPage()
				m.cursor = m.pager.Page * m.pager.PerPage
			}

		case key.Matches(msg, m.keys.NextPage):
			if !m.pager.OnLastPage() {
				m.pager.NextPage()
				m.cursor = m.pager.Page * m.pager.PerPage
			}

		case key.Matches(msg, m.keys.Toggle):
			m.toggle(m.cursor)

		case key.Matches(msg, m.keys.ToggleAll):
			m.toggleAll()

		case key.Matches(msg, m.keys.Copy):
			m.copyDestination()

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	return m, nil
}

func (m *ReviewModel) setCursor(i int) {
	m.cursor = i
	m.pager.Page = i / m.pager.PerPage
}

func (m *ReviewModel) toggle(i int) {
	if i < 0 || i >= len(m.plan.Entries) {
		return
	}
	e := m.plan.Entries[i]
	if !e.Movable() {
		m.setMessage(fmt.Sprintf("%s cannot be moved: %s", e.Name, lockReason(e)), true)
		return
	}
	m.selected[i] = !m.selected[i]
}

// toggleAll selects every movable entry, or clears them all when they
// already are
func (m *ReviewModel) toggleAll() {
	all := true
	for i, e := range m.plan.Entries {
		if e.Movable() && !m.selected[i] {
			all = false
			break
		}
	}
	for i, e := range m.plan.Entries {
		m.selected[i] = e.Movable() && !all
	}
}

func (m *ReviewModel) copyDestination() {
	if m.cursor >= len(m.plan.Entries) {
		return
	}
	e := m.plan.Entries[m.cursor]
	if e.Destination == "" {
		m.setMessage("no destination to copy", true)
		return
	}
	target := e.Destination
	if !filepath.IsAbs(target) {
		target = filepath.Join(m.plan.Root, filepath.FromSlash(target))
	}
	if err := m.copy(target); err != nil {
		m.setMessage("clipboard: "+err.Error(), true)
		return
	}
	m.setMessage("copied "+target, false)
}

func (m *ReviewModel) setMessage(msg string, isError bool) {
	m.message = msg
	m.isError = isError
}

// Confirmed reports whether the user accepted the selection
func (m *ReviewModel) Confirmed() bool {
	return m.confirmed
}

// Selected returns the paths chosen for moving, in plan order
func (m *ReviewModel) Selected() []string {
	var out []string
	for i, e := range m.plan.Entries {
		if m.selected[i] {
			out = append(out, e.Path)
		}
	}
	return out
}

// View renders the review
func (m *ReviewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Organize " + m.plan.Root))
	b.WriteString("\n")

	if len(m.plan.Entries) == 0 {
		b.WriteString(styles.MutedText.Render("Nothing to organize."))
		b.WriteString("\n\n")
		b.WriteString(m.help.View(m.keys))
		return styles.App.Render(b.String())
	}

	start, end := m.pager.GetSliceBounds(len(m.plan.Entries))
	for i := start; i < end; i++ {
		b.WriteString(m.renderEntry(i))
		b.WriteString("\n")
	}
	if m.pager.TotalPages > 1 {
		b.WriteString(styles.MutedText.Render("Page " + m.pager.View()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.Subtitle.Render(fmt.Sprintf("%d of %d selected", len(m.Selected()), len(m.plan.Movable()))))
	b.WriteString("\n")

	if len(m.plan.Risk.Factors) > 0 {
		var risk strings.Builder
		risk.WriteString(styles.WarningMsg.Bold(true).Render("Needs confirmation"))
		for _, f := range m.plan.Risk.Factors {
			risk.WriteString("\n")
			risk.WriteString(styles.RiskFactor.Render("• " + f))
		}
		b.WriteString(styles.RiskBox.Render(risk.String()))
		b.WriteString("\n")
	}

	if len(m.plan.Errors) > 0 {
		for _, fe := range m.plan.Errors {
			b.WriteString(styles.ErrorMsg.Render(fe.Error()))
			b.WriteString("\n")
		}
	}

	if m.message != "" {
		b.WriteString("\n")
		if m.isError {
			b.WriteString(styles.ErrorMsg.Render(m.message))
		} else {
			b.WriteString(styles.Success.Render(m.message))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return styles.App.Render(b.String())
}

func (m *ReviewModel) renderEntry(i int) string {
	e := m.plan.Entries[i]

	box := styles.Unchecked.String()
	switch {
	case !e.Movable():
		box = styles.Locked.String()
	case m.selected[i]:
		box = styles.Checked.String()
	}

	var target string
	if e.Movable() {
		category := lipgloss.NewStyle().Foreground(styles.CategoryColor(e.Category)).Render(e.Category)
		target = category + " → " + styles.Destination.Render(relative(m.plan.Root, e.Destination))
	} else {
		target = styles.MutedText.Render(lockReason(e))
	}

	line := fmt.Sprintf("%s %s  %s  %s", box, e.Name, styles.MutedText.Render(humanize.Bytes(uint64(e.Size))), target)
	if i == m.cursor {
		return styles.RowSelected.Render(line)
	}
	return line
}

func lockReason(e domain.PlanEntry) string {
	switch {
	case e.Blocked:
		return "blocked (" + e.Reason + ")"
	case e.Uncategorized:
		return "uncategorized, stays"
	default:
		return "stays"
	}
}

func relative(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}

// RunReview shows the plan and returns the paths the user chose. ok is
// false when the user cancelled.
func RunReview(plan *domain.Plan, opts ...tea.ProgramOption) (paths []string, ok bool, err error) {
	model := NewReviewModel(plan)
	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		return nil, false, fmt.Errorf("review: %w", err)
	}
	m := final.(*ReviewModel)
	if !m.Confirmed() {
		return nil, false, nil
	}
	return m.Selected(), true, nil
}
