package merge

import (
	"log/slog"
	"os"
)

// TriggerCounter reports the number of trigger records a file
// declares. Reading the domain event-table formats is a collaborator
// concern, not reimplemented here.
type TriggerCounter interface {
	Count(path string) (int64, error)
}

// RemoveEmpty deletes trigger files whose declared record count is
// zero, logging each deletion. Files that cannot be read or counted
// are logged and skipped. Returns the counts of files examined and
// removed.
func RemoveEmpty(paths []string, counter TriggerCounter, log *slog.Logger) (examined, removed int) {
	if log == nil {
		log = slog.Default()
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			log.Error("cannot stat trigger file", "path", p, "error", err)
			continue
		}
		n, err := counter.Count(p)
		if err != nil {
			log.Error("cannot count triggers", "path", p, "error", err)
			continue
		}
		examined++
		if n > 0 {
			continue
		}
		if err := os.Remove(p); err != nil {
			log.Error("cannot remove empty trigger file", "path", p, "error", err)
			continue
		}
		log.Info("removed empty trigger file", "path", p)
		removed++
	}
	return examined, removed
}
