package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"parceltrack-tui/internal/storage"
	"parceltrack-tui/internal/track"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	panelBorder     = lipgloss.Color("#3E5C76")
	accentPrimary   = lipgloss.Color("#F4D35E")
	accentSecondary = lipgloss.Color("#6EC5B8")
	mutedText       = lipgloss.Color("#8C9BAB")
	dangerText      = lipgloss.Color("#E4572E")
	successGreen    = lipgloss.Color("#7FB069")
)

var (
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(accentPrimary)

	statusStyle = lipgloss.NewStyle().
			Foreground(accentSecondary)

	errorStyle = lipgloss.NewStyle().
			Foreground(dangerText).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(successGreen).
			Bold(true)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(accentPrimary).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(panelBorder).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedText)

	hintStyle = lipgloss.NewStyle().
			Foreground(mutedText).
			Italic(true)

	inputErrorStyle = lipgloss.NewStyle().
			Foreground(dangerText)

	summaryLabelStyle = lipgloss.NewStyle().
				Foreground(accentSecondary).
				Bold(true)

	timelineMetaStyle = lipgloss.NewStyle().
				Foreground(mutedText)

	timelineLocationStyle = lipgloss.NewStyle().
				Foreground(mutedText).
				Italic(true)

	emptyStateTitleStyle = lipgloss.NewStyle().
				Bold(true)

	emptyStateBodyStyle = lipgloss.NewStyle().
				Foreground(mutedText)
)

type initialStateMsg struct {
	state storage.InitialState
}

type lookupFinishedMsg struct {
	gen    int64
	result *track.Result
	err    error
}

type snapshotSavedMsg struct {
	err error
}

type revealTickMsg struct {
	at time.Time
}

type focusPane int

const (
	paneBarcode focusPane = iota
	paneTimeline
	paneRaw
)

const defaultRequestTimeout = 15 * time.Second

// ModelOptions tune construction for the CLI and for tests.
type ModelOptions struct {
	RequestTimeout  time.Duration
	RevealAnimation bool
	InitialBarcode  string
}

// Model is the whole TUI state: the barcode form, the lookup lifecycle and
// the three result views.
type Model struct {
	client *track.Client
	store  *storage.Store

	barcode  textinput.Model
	timeline viewport.Model
	raw      viewport.Model
	spinner  spinner.Model

	focusPane focusPane
	showHelp  bool

	// Lookup lifecycle. lookupGen stamps each submission so completions of
	// superseded lookups are discarded instead of overwriting newer state.
	loading        bool
	lookupGen      int64
	requestTimeout time.Duration

	statusText   string
	errorText    string
	successText  string
	inputErrored bool

	current        *track.Result
	resultsVisible bool

	// Staggered reveal of summary and timeline entries after a new result.
	animate         bool
	revealing       bool
	revealStart     time.Time
	summaryVisible  int
	timelineVisible int

	width  int
	height int
	ready  bool

	inputW    int
	summaryW  int
	timelineW int
	timelineH int
	rawH      int
}

func NewModel(client *track.Client, store *storage.Store) Model {
	return NewModelWithOptions(client, store, ModelOptions{RevealAnimation: true})
}

func NewModelWithOptions(client *track.Client, store *storage.Store, opts ModelOptions) Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "tracking code"
	input.CharLimit = 64
	input.Width = 40
	input.Focus()

	timeline := viewport.New(60, 10)
	raw := viewport.New(60, 8)

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = lipgloss.NewStyle().Foreground(accentSecondary)

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	model := Model{
		client:          client,
		store:           store,
		barcode:         input,
		timeline:        timeline,
		raw:             raw,
		spinner:         spin,
		focusPane:       paneBarcode,
		showHelp:        true,
		requestTimeout:  timeout,
		statusText:      "Ready.",
		animate:         opts.RevealAnimation,
		summaryVisible:  -1,
		timelineVisible: -1,
	}
	if barcode := strings.TrimSpace(opts.InitialBarcode); barcode != "" {
		model.barcode.SetValue(barcode)
		model.barcode.CursorEnd()
	}
	return model
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, loadInitialStateCmd(m.store))
}

func loadInitialStateCmd(store *storage.Store) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return initialStateMsg{}
		}
		return initialStateMsg{state: store.LoadInitial()}
	}
}

func lookupCmd(client *track.Client, barcode string, gen int64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return lookupFinishedMsg{gen: gen, err: fmt.Errorf("tracking client is not configured")}
		}
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		result, err := client.Track(ctx, barcode)
		return lookupFinishedMsg{gen: gen, result: result, err: err}
	}
}

func saveSnapshotCmd(store *storage.Store, payload map[string]any) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return snapshotSavedMsg{}
		}
		return snapshotSavedMsg{err: store.SaveResult(payload)}
	}
}

func saveErrorSnapshotCmd(store *storage.Store, message string) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return snapshotSavedMsg{}
		}
		return snapshotSavedMsg{err: store.SaveError(message)}
	}
}

func revealTickCmd() tea.Cmd {
	return tea.Tick(revealTickInterval, func(at time.Time) tea.Msg {
		return revealTickMsg{at: at}
	})
}

// setError drives the inline error banner. A non-empty message also flags
// the barcode field and forces the results area visible so the banner has a
// home even before any result has rendered.
func (m *Model) setError(message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		m.errorText = ""
		m.inputErrored = false
		return
	}
	m.errorText = message
	m.inputErrored = true
	m.resultsVisible = true
}

func (m *Model) setSuccess(message string) {
	m.successText = strings.TrimSpace(message)
}

// applyResult installs a result into all three views and kicks off the
// reveal animation when enabled. It returns the reveal tick cmd, if any.
func (m *Model) applyResult(result *track.Result) tea.Cmd {
	m.current = result
	m.errorText = ""
	m.inputErrored = false
	m.successText = ""
	m.resultsVisible = true

	if m.animate {
		m.revealing = true
		m.revealStart = time.Now()
		m.summaryVisible = 1
		m.timelineVisible = 1
	} else {
		m.revealing = false
		m.summaryVisible = -1
		m.timelineVisible = -1
	}

	m.timeline.SetContent(renderTimeline(result, m.timelineVisible))
	m.timeline.GotoTop()
	m.raw.SetContent(renderRaw(result))
	m.raw.GotoTop()

	if m.revealing {
		return revealTickCmd()
	}
	return nil
}

func errorMessageFor(err error) string {
	if err == nil {
		return ""
	}
	message := strings.TrimSpace(err.Error())
	if message == "" {
		return unknownErrorMessage
	}
	return message
}

// submit validates the barcode field and launches a lookup.
func (m *Model) submit() tea.Cmd {
	barcode := strings.TrimSpace(m.barcode.Value())
	if barcode == "" {
		m.setError(validationMessage)
		return nil
	}
	m.errorText = ""
	m.inputErrored = false
	m.successText = ""
	m.loading = true
	m.statusText = "Looking up " + barcode + "..."
	m.lookupGen++
	return tea.Batch(m.spinner.Tick, lookupCmd(m.client, barcode, m.lookupGen, m.requestTimeout))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizePanels()
		if m.current != nil {
			m.timeline.SetContent(renderTimeline(m.current, m.timelineVisible))
			m.raw.SetContent(renderRaw(m.current))
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case revealTickMsg:
		if !m.revealing || m.current == nil {
			return m, nil
		}
		elapsed := time.Since(m.revealStart)
		summaryTotal := len(summaryEntries(m.current))
		timelineTotal := len(m.current.Events)
		m.summaryVisible = revealCount(elapsed, summaryRevealStep, summaryTotal)
		m.timelineVisible = revealCount(elapsed, timelineRevealStep, timelineTotal)
		m.timeline.SetContent(renderTimeline(m.current, m.timelineVisible))
		if m.summaryVisible >= summaryTotal && m.timelineVisible >= timelineTotal {
			m.revealing = false
			m.summaryVisible = -1
			m.timelineVisible = -1
			return m, nil
		}
		return m, revealTickCmd()

	case initialStateMsg:
		var cmds []tea.Cmd
		if msg.state.Result != nil {
			result := track.Decode(msg.state.Result)
			if cmd := m.applyResult(result); cmd != nil {
				cmds = append(cmds, cmd)
			}
			// A restored snapshot is not a fresh update.
			m.successText = ""
			if strings.TrimSpace(m.barcode.Value()) == "" && result.Barcode != "" {
				m.barcode.SetValue(result.Barcode)
				m.barcode.CursorEnd()
			}
		}
		if msg.state.ErrorMessage != "" {
			m.setError(msg.state.ErrorMessage)
		}
		if len(msg.state.Warnings) > 0 {
			m.statusText = strings.Join(msg.state.Warnings, "; ")
		}
		if len(cmds) == 0 {
			return m, nil
		}
		return m, tea.Batch(cmds...)

	case lookupFinishedMsg:
		if msg.gen != m.lookupGen {
			// A newer submission owns the display.
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.setError(errorMessageFor(msg.err))
			m.statusText = "Lookup failed."
			return m, saveErrorSnapshotCmd(m.store, m.errorText)
		}
		if msg.result == nil {
			m.setError(unknownErrorMessage)
			m.statusText = "Lookup failed."
			return m, nil
		}
		revealCmd := m.applyResult(msg.result)
		m.setSuccess(successMessage)
		m.statusText = "Ready."
		cmds := []tea.Cmd{saveSnapshotCmd(m.store, msg.result.Payload)}
		if revealCmd != nil {
			cmds = append(cmds, revealCmd)
		}
		return m, tea.Batch(cmds...)

	case snapshotSavedMsg:
		if msg.err != nil {
			m.statusText = "Could not save snapshot: " + msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.focusPane = nextFocusPane(m.focusPane, m.current != nil)
			m.applyFocusState()
			return m, nil
		case "shift+tab", "backtab":
			m.focusPane = prevFocusPane(m.focusPane, m.current != nil)
			m.applyFocusState()
			return m, nil
		case "?":
			// Keep '?' typable while the barcode field has focus.
			if m.focusPane != paneBarcode {
				m.showHelp = !m.showHelp
				return m, nil
			}
		case "enter":
			if m.focusPane == paneBarcode {
				return m, m.submit()
			}
		}

		switch m.focusPane {
		case paneBarcode:
			var cmd tea.Cmd
			before := m.barcode.Value()
			m.barcode, cmd = m.barcode.Update(msg)
			if m.barcode.Value() != before {
				// Banners reset as soon as the user edits the code.
				m.errorText = ""
				m.successText = ""
				if strings.TrimSpace(m.barcode.Value()) == "" {
					m.inputErrored = false
				}
			}
			return m, cmd
		case paneTimeline:
			var cmd tea.Cmd
			m.timeline, cmd = m.timeline.Update(msg)
			return m, cmd
		case paneRaw:
			var cmd tea.Cmd
			m.raw, cmd = m.raw.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Starting parceltrack..."
	}

	statusLine := "  " + statusStyle.Render(m.statusText)
	if m.loading {
		statusLine = m.spinner.View() + " " + statusStyle.Render(m.statusText)
	}

	parts := []string{
		headerStyle.Render("Parcel Tracking"),
		statusLine,
	}

	if m.errorText != "" {
		parts = append(parts, errorStyle.Render(m.errorText))
	} else if m.successText != "" {
		parts = append(parts, successStyle.Render(m.successText))
	}

	parts = append(parts, renderPanel("Tracking Code", m.barcodeView(), m.inputW, m.focusPane == paneBarcode))

	if m.resultsVisible {
		summaryPanel := renderPanel("Summary", renderSummary(m.current, m.summaryVisible), m.summaryW, false)
		timelinePanel := renderPanel("Timeline", m.timeline.View(), m.timelineW, m.focusPane == paneTimeline)
		parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, summaryPanel, timelinePanel))
		if m.current != nil {
			parts = append(parts, renderPanel("Raw Response", m.raw.View(), m.inputW, m.focusPane == paneRaw))
		}
	} else {
		parts = append(parts, hintStyle.Render("Enter a tracking code and press enter."))
	}

	if m.showHelp {
		parts = append(parts, helpStyle.Render("enter: track | tab: switch pane | ?: toggle help (off the field) | esc: quit"))
	}

	return strings.Join(parts, "\n")
}

func (m Model) barcodeView() string {
	input := m.barcode
	if m.inputErrored {
		input.PromptStyle = inputErrorStyle
		input.TextStyle = inputErrorStyle
	}
	return input.View()
}

func (m *Model) applyFocusState() {
	if m.focusPane == paneBarcode {
		m.barcode.Focus()
		return
	}
	m.barcode.Blur()
}

func nextFocusPane(current focusPane, rawShown bool) focusPane {
	switch current {
	case paneBarcode:
		return paneTimeline
	case paneTimeline:
		if rawShown {
			return paneRaw
		}
		return paneBarcode
	default:
		return paneBarcode
	}
}

func prevFocusPane(current focusPane, rawShown bool) focusPane {
	switch current {
	case paneBarcode:
		if rawShown {
			return paneRaw
		}
		return paneTimeline
	case paneTimeline:
		return paneBarcode
	default:
		return paneTimeline
	}
}

func renderPanel(title, body string, width int, focused bool) string {
	borderColor := panelBorder
	if focused {
		borderColor = accentPrimary
	}
	style := panelStyle.
		BorderForeground(borderColor).
		Width(maxInt(20, width))

	titleLine := panelTitleStyle.Render(title)
	return style.Render(titleLine + "\n" + body)
}

func (m *Model) resizePanels() {
	if m.width <= 0 || m.height <= 0 {
		return
	}

	usableW := maxInt(56, m.width-4)
	m.inputW = usableW
	m.summaryW = maxInt(26, usableW*2/5)
	m.timelineW = maxInt(28, usableW-m.summaryW-2)

	bodyRows := maxInt(14, m.height-10)
	m.timelineH = clampInt(bodyRows/2, 5, 16)
	m.rawH = clampInt(bodyRows-m.timelineH, 4, 14)

	m.timeline.Width = maxInt(20, m.timelineW-2)
	m.timeline.Height = m.timelineH
	m.raw.Width = maxInt(20, usableW-2)
	m.raw.Height = m.rawH
	m.barcode.Width = clampInt(usableW-10, 20, 64)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return maxInt(lo, minInt(v, hi))
}
