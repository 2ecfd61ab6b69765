package surface

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/bytspot/rewards/internal/achievement"
)

func (m Model) updateCommand(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeField
		m.command.Blur()
		return m, nil
	case tea.KeyEnter:
		m.mode = modeField
		m.command.Blur()
		m.status = m.runCommand(m.command.Value())
		return m, nil
	}

	var cmd tea.Cmd
	m.command, cmd = m.command.Update(msg)
	return m, cmd
}

// runCommand resolves the typed query and submits the match. It returns the
// status line to show.
func (m Model) runCommand(input string) string {
	query, progress := parseCommand(input)
	if query == "" {
		return ""
	}

	t, ok := resolve(m.catalog, query)
	if !ok {
		return fmt.Sprintf("no achievement matches %q", query)
	}

	m.logger.Debug("command bar request", zap.String("query", query), zap.String("id", t.ID))
	m.requester.Submit(t.ID, progress)
	return fmt.Sprintf("requested %s", t.ID)
}

// parseCommand splits "query [percent]" into the query and an optional
// progress out of 100
func parseCommand(input string) (string, *achievement.Progress) {
	fields := strings.Fields(input)
	if len(fields) >= 2 {
		last := strings.TrimSuffix(fields[len(fields)-1], "%")
		if v, err := strconv.ParseFloat(last, 64); err == nil {
			return strings.Join(fields[:len(fields)-1], " "), achievement.Percent(v)
		}
	}
	return strings.Join(fields, " "), nil
}

// resolve prefers an exact id, then the best fuzzy match over ids and titles
func resolve(catalog *achievement.Catalog, query string) (achievement.Template, bool) {
	if t, ok := catalog.Lookup(query); ok {
		return t, true
	}

	templates := catalog.All()
	matches := fuzzy.FindFrom(query, templateSource(templates))
	if len(matches) == 0 {
		return achievement.Template{}, false
	}
	return templates[matches[0].Index], true
}

// templateSource adapts catalog templates for fuzzy matching
type templateSource []achievement.Template

func (s templateSource) String(i int) string {
	return s[i].ID + " " + s[i].Title
}

func (s templateSource) Len() int {
	return len(s)
}
