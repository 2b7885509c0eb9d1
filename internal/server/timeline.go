package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// timelineAttempts is the number of file names tried before giving up.
const timelineAttempts = 10

// TimelineService creates the files receiving the timelines of the games.
type TimelineService struct {
	dir string
	now func() time.Time
}

// NewTimelineService stores the timelines in dir, creating it if needed.
func NewTimelineService(dir string, now func() time.Time) (*TimelineService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating timeline directory: %w", err)
	}

	logger.Info("Recording timelines.", "dir", dir)
	return &TimelineService{dir: dir, now: now}, nil
}

// Create opens a new file for the timeline of the game on the given
// channel. The name of the file is made of the date, the process id and the
// channel, plus a suffix if the name is taken.
func (t *TimelineService) Create(channel uint32) (io.WriteCloser, error) {
	base := fmt.Sprintf("%s_%d_%010d", t.now().UTC().Format("20060102_150405"), os.Getpid(), channel)

	for i := 0; i != timelineAttempts; i++ {
		name := base
		if i != 0 {
			name = fmt.Sprintf("%s_%d", base, i)
		}

		path := filepath.Join(t.dir, name+".bim")
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			logger.Debug("Created timeline file.", "path", path)
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("creating timeline file: %w", err)
		}
	}

	return nil, fmt.Errorf("no free timeline file name for %s", base)
}
