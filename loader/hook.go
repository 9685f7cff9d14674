package loader

import (
	"os/exec"
	"strconv"

	"github.com/kballard/go-shellquote"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
)

// RunPostImportHook executes the hooks.post_import command with the series
// name and day index appended as arguments. An empty hook is a no-op. The
// hook runs after the snapshot is committed, so a failing or missing command
// is logged and swallowed rather than failing the import.
func RunPostImportHook(hook, seriesName string, dateDays int) {
	if hook == "" {
		return
	}
	words, err := shellquote.Split(hook)
	if err != nil {
		logger.Warnw("post-import hook is not parseable",
			"hook", hook,
			"error", err)
		return
	}
	if len(words) == 0 {
		return
	}
	args := append(words[1:], seriesName, strconv.Itoa(dateDays))
	cmd := exec.Command(words[0], args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		logger.Warnw("post-import hook failed",
			"hook", words[0],
			"series", seriesName,
			"error", err,
			"output", string(out))
		return
	}
	logger.Debugw("post-import hook finished",
		"hook", words[0],
		"series", seriesName,
		"date_days", dateDays)
}
