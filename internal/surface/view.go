package surface

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/rivo/uniseg"

	"github.com/bytspot/rewards/internal/achievement"
	"github.com/bytspot/rewards/internal/particle"
	"github.com/bytspot/rewards/internal/score"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#22d3ee")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b"))
	cardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
	boldStyle   = lipgloss.NewStyle().Bold(true)
)

var rarityColors = map[achievement.Rarity]lipgloss.Color{
	achievement.RarityCommon:    "#22c55e",
	achievement.RarityRare:      "#3b82f6",
	achievement.RarityEpic:      "#a855f7",
	achievement.RarityLegendary: "#f59e0b",
}

var glyphs = map[particle.Kind]string{
	particle.KindStar:    "★",
	particle.KindSparkle: "✦",
	particle.KindCoin:    "●",
	particle.KindHeart:   "♥",
}

const (
	maxCardWidth = 44
	recentShown  = 3
	helpText     = "1-0 unlock · r random · c catalog · : command · s share · q quit"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	bottom := m.bottomLine()
	if m.mode == modeBrowse {
		return m.browser.View() + "\n" + bottom
	}

	level := score.LevelFromTotalXP(m.xp)
	header := titleStyle.Render("Bytspot Rewards") +
		dimStyle.Render(fmt.Sprintf("  %d/%d unlocked · Lv %d %s · %d XP",
			len(m.frame.Recent), m.catalog.Len(), level, score.TitleForLevel(level), m.xp))

	var card string
	if m.frame.Active != nil {
		card = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.renderCard(*m.frame.Active))
	}
	footer := m.renderFooter()

	used := 2
	if card != "" {
		used += lipgloss.Height(card)
	}
	if footer != "" {
		used += lipgloss.Height(footer)
	}
	rows := m.height - used
	if rows < 1 {
		rows = 1
	}

	parts := []string{header, renderField(m.frame.Particles, m.frame.Width, m.frame.Height, m.width, rows)}
	if card != "" {
		parts = append(parts, card)
	}
	if footer != "" {
		parts = append(parts, footer)
	}
	parts = append(parts, bottom)
	return strings.Join(parts, "\n")
}

func (m Model) bottomLine() string {
	switch {
	case m.mode == modeCommand:
		return m.command.View()
	case m.status != "":
		return statusStyle.Render(m.status)
	default:
		return dimStyle.Render(m.fit(helpText))
	}
}

func (m Model) renderCard(u achievement.Unlocked) string {
	color, ok := rarityColors[u.Rarity]
	if !ok {
		color = rarityColors[achievement.RarityCommon]
	}

	inner := maxCardWidth
	if m.width-6 < inner {
		inner = m.width - 6
	}
	if inner < 10 {
		inner = 10
	}

	lines := []string{
		dimStyle.Render("Achievement Unlocked!"),
		boldStyle.Render(padIcon(u.Icon) + " " + u.Title),
		wordwrap.String(u.Description, inner),
	}

	if u.Progress != nil {
		bar := m.progress
		bar.Width = inner - 10
		lines = append(lines, bar.ViewAs(u.Progress.Fraction())+
			dimStyle.Render(fmt.Sprintf(" %.0f/%.0f", u.Progress.Current, u.Progress.Max)))
	}

	badge := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#0b1020")).
		Background(color).
		Bold(true).
		Padding(0, 1).
		Render(strings.ToUpper(string(u.Rarity)))
	lines = append(lines, badge)

	return cardStyle.BorderForeground(color).Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderFooter() string {
	recent := m.frame.Recent
	if len(recent) == 0 {
		return ""
	}
	if len(recent) > recentShown {
		recent = recent[:recentShown]
	}

	lines := make([]string, len(recent))
	for i, u := range recent {
		when := humanize.RelTime(u.UnlockedAt, m.frame.At, "ago", "from now")
		lines[i] = dimStyle.Render(m.fit(fmt.Sprintf("%s %s · %s", padIcon(u.Icon), u.Title, when)))
	}
	return strings.Join(lines, "\n")
}

// fit truncates plain text to the terminal width
func (m Model) fit(s string) string {
	if m.width <= 0 || ansi.PrintableRuneWidth(s) <= m.width {
		return s
	}
	return truncate.StringWithTail(s, uint(m.width), "…")
}

// padIcon pads an icon to two cells so titles line up
func padIcon(icon string) string {
	if w := uniseg.StringWidth(icon); w < 2 {
		return icon + strings.Repeat(" ", 2-w)
	}
	return icon
}

func glyphFor(k particle.Kind) string {
	if g, ok := glyphs[k]; ok {
		return g
	}
	return "*"
}

func particleStyle(p particle.Particle) lipgloss.Style {
	s := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color))
	if p.Alpha() < 0.3 {
		s = s.Faint(true)
	}
	return s
}

// renderField scales world coordinates onto a cols x rows grid. Later
// particles draw over earlier ones; particles outside the world are skipped.
func renderField(particles []particle.Particle, worldW, worldH float64, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}

	cells := make([][]string, rows)
	widths := make([][]int, rows)
	for r := range cells {
		cells[r] = make([]string, cols)
		widths[r] = make([]int, cols)
		for c := range cells[r] {
			cells[r][c] = " "
			widths[r][c] = 1
		}
	}

	if worldW > 0 && worldH > 0 {
		for _, p := range particles {
			if p.X < 0 || p.Y < 0 {
				continue
			}
			col := int(p.X / worldW * float64(cols))
			row := int(p.Y / worldH * float64(rows))
			if col >= cols || row >= rows {
				continue
			}

			glyph := glyphFor(p.Kind)
			w := runewidth.StringWidth(glyph)
			if w < 1 {
				w = 1
			}
			// widths 0 marks the tail cell of a wide glyph
			if col+w > cols || widths[row][col] == 0 {
				continue
			}
			if widths[row][col] == 2 {
				cells[row][col+1], widths[row][col+1] = " ", 1
			}
			if w == 2 {
				if widths[row][col+1] == 2 {
					cells[row][col+2], widths[row][col+2] = " ", 1
				}
				cells[row][col+1], widths[row][col+1] = "", 0
			}
			cells[row][col], widths[row][col] = particleStyle(p).Render(glyph), w
		}
	}

	lines := make([]string, rows)
	for r := range cells {
		lines[r] = strings.Join(cells[r], "")
	}
	return strings.Join(lines, "\n")
}
