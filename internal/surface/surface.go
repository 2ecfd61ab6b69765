// Package surface renders engine frames in the terminal with bubbletea and
// turns key presses into unlock requests.
package surface

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/bytspot/rewards/internal/achievement"
	"github.com/bytspot/rewards/internal/engine"
	"github.com/bytspot/rewards/internal/score"
)

// Requester accepts unlock requests from the UI goroutine.
// *engine.Engine satisfies it.
type Requester interface {
	Submit(id string, progress *achievement.Progress)
	SubmitRandom()
}

// FrameMsg carries an engine frame into the bubbletea program
type FrameMsg engine.Frame

// Sender is the part of *tea.Program the frame sink needs
type Sender interface {
	Send(msg tea.Msg)
}

// FrameSink forwards engine frames to a running program
func FrameSink(s Sender) func(engine.Frame) {
	return func(f engine.Frame) {
		s.Send(FrameMsg(f))
	}
}

type mode int

const (
	modeField mode = iota
	modeCommand
	modeBrowse
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

type Model struct {
	catalog   *achievement.Catalog
	requester Requester
	logger    *zap.Logger

	frame    engine.Frame
	lastSeen string
	xp       int
	width    int
	height   int

	mode     mode
	command  textinput.Model
	browser  list.Model
	// listed is the unlock count the browser items were built from
	listed   int
	progress progress.Model
	status   string
	quitting bool
}

// New creates the surface model. Frames arrive later as FrameMsg.
func New(catalog *achievement.Catalog, requester Requester, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Prompt = ": "
	ti.Placeholder = "achievement id or title, optional percent"
	ti.CharLimit = 64

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(24),
		progress.WithoutPercentage(),
	)

	return Model{
		catalog:   catalog,
		requester: requester,
		logger:    logger,
		width:     defaultWidth,
		height:    defaultHeight,
		command:   ti,
		browser:   newBrowser(catalog, defaultWidth, defaultHeight),
		progress:  p,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("Bytspot Rewards")
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.browser.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case FrameMsg:
		return m.applyFrame(engine.Frame(msg))

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modeCommand:
			return m.updateCommand(msg)
		case modeBrowse:
			return m.updateBrowser(msg)
		default:
			return m.updateField(msg)
		}
	}

	if m.mode == modeBrowse {
		var cmd tea.Cmd
		m.browser, cmd = m.browser.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) applyFrame(f engine.Frame) (tea.Model, tea.Cmd) {
	m.frame = f

	xp := score.TotalXP(f.Recent)
	if up := score.CheckLevelUp(m.xp, xp); up != nil {
		m.status = fmt.Sprintf("Level up! Lv %d %s", up.NewLevel, up.NewTitle)
	}
	m.xp = xp

	var cmds []tea.Cmd
	if f.Active != nil && f.Active.ID != m.lastSeen {
		m.lastSeen = f.Active.ID
		cmds = append(cmds, tea.SetWindowTitle(fmt.Sprintf("%s %s unlocked", f.Active.Icon, f.Active.Title)))
	}
	if m.mode == modeBrowse && len(f.Recent) != m.listed {
		m.listed = len(f.Recent)
		cmds = append(cmds, m.browser.SetItems(browserItems(m.catalog, f.Recent)))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateField(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	key := msg.String()

	switch key {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "r":
		m.requester.SubmitRandom()
	case "s":
		m.status = m.share()
	case ":":
		m.mode = modeCommand
		m.command.SetValue("")
		return m, m.command.Focus()
	case "c":
		m.mode = modeBrowse
		m.listed = len(m.frame.Recent)
		return m, m.browser.SetItems(browserItems(m.catalog, m.frame.Recent))
	default:
		if n, ok := digitIndex(key); ok {
			templates := m.catalog.All()
			if n < len(templates) {
				m.requester.Submit(templates[n].ID, nil)
			}
		}
	}
	return m, nil
}

// digitIndex maps "1".."9" to 0..8 and "0" to 9
func digitIndex(key string) (int, bool) {
	if len(key) != 1 || key[0] < '0' || key[0] > '9' {
		return 0, false
	}
	if key[0] == '0' {
		return 9, true
	}
	return int(key[0] - '1'), true
}
