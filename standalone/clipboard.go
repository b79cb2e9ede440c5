package standalone

import (
	"sync"

	"golang.design/x/clipboard"

	"github.com/user-none/consolehost/logger"
)

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

// CopyTextToClipboard places text on the system clipboard. It reports
// false when no clipboard is available.
func CopyTextToClipboard(text string) bool {
	clipboardOnce.Do(func() {
		clipboardErr = clipboard.Init()
	})
	if clipboardErr != nil {
		logger.WithFunc("standalone.CopyTextToClipboard").Warn().Err(clipboardErr).Msg("clipboard unavailable")
		return false
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return true
}
