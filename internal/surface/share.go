package surface

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/bytspot/rewards/internal/achievement"
)

// writeClipboard is swapped out in tests
var writeClipboard = clipboard.WriteAll

// ShareText is the message copied when the user shares an unlock
func ShareText(u achievement.Unlocked) string {
	text := fmt.Sprintf("%s I just unlocked %q (%s) on Bytspot: %s", u.Icon, u.Title, strings.ToUpper(string(u.Rarity)), u.Description)
	if u.Progress != nil {
		text += fmt.Sprintf(" [%.0f/%.0f]", u.Progress.Current, u.Progress.Max)
	}
	return text
}

// share copies the active achievement and returns the status line
func (m Model) share() string {
	if m.frame.Active == nil {
		return "nothing to share"
	}
	if err := writeClipboard(ShareText(*m.frame.Active)); err != nil {
		m.logger.Warn("failed to copy share text", zap.Error(err))
		return "clipboard unavailable"
	}
	return "copied to clipboard"
}
