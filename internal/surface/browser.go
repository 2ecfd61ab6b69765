package surface

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bytspot/rewards/internal/achievement"
)

// catalogItem is one catalog entry in the browser
type catalogItem struct {
	template achievement.Template
	unlocked bool
}

func (i catalogItem) Title() string {
	mark := " "
	if i.unlocked {
		mark = "✓"
	}
	return fmt.Sprintf("%s %s %s", mark, padIcon(i.template.Icon), i.template.Title)
}

func (i catalogItem) Description() string {
	return fmt.Sprintf("%s · %s · %s", strings.ToUpper(string(i.template.Rarity)), i.template.Category, i.template.Description)
}

func (i catalogItem) FilterValue() string {
	return i.template.ID + " " + i.template.Title
}

func browserItems(catalog *achievement.Catalog, recent []achievement.Unlocked) []list.Item {
	unlocked := make(map[string]bool, len(recent))
	for _, u := range recent {
		unlocked[u.ID] = true
	}

	templates := catalog.All()
	items := make([]list.Item, len(templates))
	for i, t := range templates {
		items[i] = catalogItem{template: t, unlocked: unlocked[t.ID]}
	}
	return items
}

func newBrowser(catalog *achievement.Catalog, width, height int) list.Model {
	l := list.New(browserItems(catalog, nil), list.NewDefaultDelegate(), width, height-2)
	l.Title = "Achievements"
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(false)
	l.DisableQuitKeybindings()
	return l
}

func (m Model) updateBrowser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While filtering every key belongs to the list
	if m.browser.FilterState() != list.Filtering {
		switch msg.String() {
		case "esc", "c", "q":
			m.mode = modeField
			return m, nil
		case "enter":
			if item, ok := m.browser.SelectedItem().(catalogItem); ok && !item.unlocked {
				m.requester.Submit(item.template.ID, nil)
				m.status = fmt.Sprintf("requested %s", item.template.ID)
			}
			m.mode = modeField
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.browser, cmd = m.browser.Update(msg)
	return m, cmd
}
