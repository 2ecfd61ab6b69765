package surface

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytspot/rewards/internal/achievement"
	"github.com/bytspot/rewards/internal/engine"
	"github.com/bytspot/rewards/internal/particle"
	"github.com/bytspot/rewards/internal/scheduler"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

var epoch = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type request struct {
	id       string
	progress *achievement.Progress
}

type fakeRequester struct {
	requests []request
	randoms  int
}

func (f *fakeRequester) Submit(id string, progress *achievement.Progress) {
	f.requests = append(f.requests, request{id: id, progress: progress})
}

func (f *fakeRequester) SubmitRandom() {
	f.randoms++
}

func newModel(t *testing.T) (Model, *fakeRequester) {
	t.Helper()
	req := &fakeRequester{}
	m := New(achievement.DefaultCatalog(), req, nil)
	m = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	return m, req
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// engineFrames drives a real engine on a virtual clock and returns the
// latest published frame
func engineFrames(t *testing.T, unlock func(e *engine.Engine, m *scheduler.Manual)) engine.Frame {
	t.Helper()
	var last engine.Frame
	sched := scheduler.NewManual(epoch)
	opts := engine.NewOptions()
	opts.Config.ProbeEnabled = false
	opts.FrameSink = func(f engine.Frame) { last = f }
	e := engine.New(achievement.DefaultCatalog(), sched, opts)
	unlock(e, sched)
	return last
}

func TestDigitKeysRequestCatalogEntries(t *testing.T) {
	m, req := newModel(t)

	m = send(t, m, keys("1"))
	m = send(t, m, keys("3"))
	send(t, m, keys("0"))

	require.Len(t, req.requests, 3)
	assert.Equal(t, "first_match", req.requests[0].id)
	assert.Equal(t, "night_owl", req.requests[1].id)
	assert.Equal(t, "platinum_member", req.requests[2].id)
	assert.Nil(t, req.requests[0].progress)
}

func TestDigitIndex(t *testing.T) {
	tests := []struct {
		key  string
		want int
		ok   bool
	}{
		{"1", 0, true},
		{"9", 8, true},
		{"0", 9, true},
		{"a", 0, false},
		{"10", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := digitIndex(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.want, got, tt.key)
	}
}

func TestRandomKey(t *testing.T) {
	m, req := newModel(t)
	send(t, m, keys("r"))
	assert.Equal(t, 1, req.randoms)
	assert.Empty(t, req.requests)
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t)
	next, cmd := m.Update(keys("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestCommandBarFuzzyMatchWithProgress(t *testing.T) {
	m, req := newModel(t)

	m = send(t, m, keys(":"))
	assert.Contains(t, m.View(), ": ")
	m = send(t, m, keys("explorr 40%"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, req.requests, 1)
	assert.Equal(t, "explorer", req.requests[0].id)
	require.NotNil(t, req.requests[0].progress)
	assert.Equal(t, 40.0, req.requests[0].progress.Current)
	assert.Equal(t, 100.0, req.requests[0].progress.Max)
	assert.Contains(t, m.View(), "requested explorer")

	// Any later key clears the status line
	m = send(t, m, keys("x"))
	assert.NotContains(t, m.View(), "requested explorer")
}

func TestCommandBarExactIDWins(t *testing.T) {
	m, req := newModel(t)
	m = send(t, m, keys(":"))
	m = send(t, m, keys("streak_7"))
	send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, req.requests, 1)
	assert.Equal(t, "streak_7", req.requests[0].id)
	assert.Nil(t, req.requests[0].progress)
}

func TestCommandBarNoMatch(t *testing.T) {
	m, req := newModel(t)
	m = send(t, m, keys(":"))
	m = send(t, m, keys("zzzq"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, req.requests)
	assert.Contains(t, m.View(), `no achievement matches "zzzq"`)
}

func TestCommandBarEscape(t *testing.T) {
	m, req := newModel(t)
	m = send(t, m, keys(":"))
	m = send(t, m, keys("explorer"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Empty(t, req.requests)
	assert.Contains(t, m.View(), "q quit")

	// Keys go back to the field after closing
	send(t, m, keys("2"))
	require.Len(t, req.requests, 1)
	assert.Equal(t, "early_bird", req.requests[0].id)
}

func TestParseCommand(t *testing.T) {
	q, p := parseCommand("  night   owl ")
	assert.Equal(t, "night owl", q)
	assert.Nil(t, p)

	q, p = parseCommand("explorer 75")
	assert.Equal(t, "explorer", q)
	require.NotNil(t, p)
	assert.Equal(t, 75.0, p.Current)

	q, p = parseCommand("42")
	assert.Equal(t, "42", q)
	assert.Nil(t, p)
}

func TestViewShowsActiveCard(t *testing.T) {
	m, _ := newModel(t)
	frame := engineFrames(t, func(e *engine.Engine, sched *scheduler.Manual) {
		e.RequestUnlock("first_match", nil)
		sched.Advance(time.Second)
		e.RequestUnlock("explorer", achievement.Percent(60))
		sched.Advance(3 * time.Second)
		e.Tick(16 * time.Millisecond)
	})

	m = send(t, m, FrameMsg(frame))
	view := m.View()

	assert.Contains(t, view, "Achievement Unlocked!")
	assert.Contains(t, view, "City Explorer")
	assert.Contains(t, view, "EPIC")
	assert.Contains(t, view, "60/100")
	assert.Contains(t, view, "2/10 unlocked")
	assert.Contains(t, view, "3 seconds ago")
	assert.Contains(t, view, "First Match!")
	assert.Contains(t, view, "4 seconds ago")
}

func TestViewWithoutActiveCard(t *testing.T) {
	m, _ := newModel(t)
	frame := engineFrames(t, func(e *engine.Engine, sched *scheduler.Manual) {
		e.RequestUnlock("night_owl", nil)
		sched.Advance(6 * time.Second)
	})
	require.Nil(t, frame.Active)

	m = send(t, m, FrameMsg(frame))
	view := m.View()
	assert.NotContains(t, view, "Achievement Unlocked!")
	assert.Contains(t, view, "Night Owl")
	assert.Contains(t, view, "1/10 unlocked")
}

func TestNewActiveSetsWindowTitle(t *testing.T) {
	m, _ := newModel(t)
	frame := engineFrames(t, func(e *engine.Engine, _ *scheduler.Manual) {
		e.RequestUnlock("night_owl", nil)
	})

	next, cmd := m.Update(FrameMsg(frame))
	assert.NotNil(t, cmd)

	// The same active achievement does not set it again
	_, cmd = next.Update(FrameMsg(frame))
	assert.Nil(t, cmd)
}

func TestRenderFieldPlacesGlyphs(t *testing.T) {
	ps := []particle.Particle{
		{X: 400, Y: 300, Kind: particle.KindHeart, Life: 80, MaxLife: 80, Color: "#ec4899"},
		{X: 0, Y: 0, Kind: particle.KindStar, Life: 10, MaxLife: 80, Color: "#fbbf24"},
		{X: -5, Y: 10, Kind: particle.KindCoin, Life: 80, MaxLife: 80},
		{X: 900, Y: 10, Kind: particle.KindCoin, Life: 80, MaxLife: 80},
	}

	field := renderField(ps, 800, 600, 80, 20)
	lines := strings.Split(field, "\n")
	require.Len(t, lines, 20)

	row := []rune(lines[10])
	require.Len(t, row, 80)
	assert.Equal(t, '♥', row[40])
	assert.Equal(t, '★', []rune(lines[0])[0])
	assert.Equal(t, 2, strings.Count(field, "★")+strings.Count(field, "♥"))
	assert.NotContains(t, field, "●")
}

func TestRenderFieldLaterParticleWins(t *testing.T) {
	ps := []particle.Particle{
		{X: 10, Y: 10, Kind: particle.KindStar, Life: 80, MaxLife: 80},
		{X: 10, Y: 10, Kind: particle.KindSparkle, Life: 80, MaxLife: 80},
	}
	field := renderField(ps, 800, 600, 80, 20)
	assert.Contains(t, field, "✦")
	assert.NotContains(t, field, "★")
	assert.Empty(t, renderField(ps, 800, 600, 0, 20))
}

func TestShare(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { writeClipboard = orig })

	m, _ := newModel(t)
	m = send(t, m, keys("s"))
	assert.Contains(t, m.View(), "nothing to share")
	assert.Empty(t, copied)

	frame := engineFrames(t, func(e *engine.Engine, _ *scheduler.Manual) {
		e.RequestUnlock("speed_demon", achievement.Percent(100))
	})
	m = send(t, m, FrameMsg(frame))
	m = send(t, m, keys("s"))

	assert.Contains(t, m.View(), "copied to clipboard")
	assert.Contains(t, copied, `"Speed Demon"`)
	assert.Contains(t, copied, "LEGENDARY")
	assert.Contains(t, copied, "[100/100]")

	writeClipboard = func(string) error { return errors.New("no display") }
	m = send(t, m, keys("s"))
	assert.Contains(t, m.View(), "clipboard unavailable")
}

func TestCatalogBrowser(t *testing.T) {
	m, req := newModel(t)

	m = send(t, m, keys("c"))
	view := m.View()
	assert.Contains(t, view, "Achievements")
	assert.Contains(t, view, "First Match!")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, req.requests, 1)
	assert.Equal(t, "first_match", req.requests[0].id)
	assert.Contains(t, m.View(), "Bytspot Rewards")

	m = send(t, m, keys("c"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Contains(t, m.View(), "q quit")
	assert.Len(t, req.requests, 1)
}

func TestBrowserMarksUnlocked(t *testing.T) {
	frame := engineFrames(t, func(e *engine.Engine, _ *scheduler.Manual) {
		e.RequestUnlock("early_bird", nil)
	})
	items := browserItems(achievement.DefaultCatalog(), frame.Recent)
	require.Len(t, items, 10)

	first := items[0].(catalogItem)
	second := items[1].(catalogItem)
	assert.False(t, first.unlocked)
	assert.True(t, second.unlocked)
	assert.True(t, strings.HasPrefix(second.Title(), "✓"))
	assert.Contains(t, second.Description(), "RARE")
}

type fakeSender struct{ msgs []tea.Msg }

func (f *fakeSender) Send(msg tea.Msg) { f.msgs = append(f.msgs, msg) }

func TestFrameSinkForwardsFrames(t *testing.T) {
	s := &fakeSender{}
	sink := FrameSink(s)
	sink(engine.Frame{Total: 10})

	require.Len(t, s.msgs, 1)
	assert.Equal(t, FrameMsg(engine.Frame{Total: 10}), s.msgs[0])
}

func TestPadIcon(t *testing.T) {
	assert.Equal(t, "★ ", padIcon("★"))
	assert.Equal(t, "🏆", padIcon("🏆"))
}

func TestLevelUpStatus(t *testing.T) {
	m, _ := newModel(t)
	frame := engineFrames(t, func(e *engine.Engine, _ *scheduler.Manual) {
		e.RequestUnlock("first_match", nil)
		e.RequestUnlock("speed_demon", nil)
	})

	m = send(t, m, FrameMsg(frame))
	view := m.View()
	assert.Contains(t, view, "Level up! Lv 3 Regular")
	assert.Contains(t, view, "110 XP")

	// The same total does not announce again
	m = send(t, m, keys("x"))
	m = send(t, m, FrameMsg(frame))
	assert.NotContains(t, m.View(), "Level up!")
}

func TestBrowserRefreshesOnlyWhenUnlocksChange(t *testing.T) {
	m, _ := newModel(t)
	one := engineFrames(t, func(e *engine.Engine, _ *scheduler.Manual) {
		e.RequestUnlock("early_bird", nil)
	})
	two := engineFrames(t, func(e *engine.Engine, _ *scheduler.Manual) {
		e.RequestUnlock("early_bird", nil)
		e.RequestUnlock("first_match", nil)
	})
	unlockedAt := func(m Model, i int) bool {
		return m.browser.Items()[i].(catalogItem).unlocked
	}

	m = send(t, m, keys("c"))
	m = send(t, m, FrameMsg(one))
	assert.Equal(t, 1, m.listed)
	assert.True(t, unlockedAt(m, 1))

	// Ticks with the same unlocks leave the items alone
	m.browser.SetItems(browserItems(m.catalog, nil))
	m = send(t, m, FrameMsg(one))
	assert.False(t, unlockedAt(m, 1))

	m = send(t, m, FrameMsg(two))
	assert.Equal(t, 2, m.listed)
	assert.True(t, unlockedAt(m, 0))
	assert.True(t, unlockedAt(m, 1))
}
