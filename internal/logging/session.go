package logging

import (
	"path/filepath"
	"time"
)

// SessionTimeLayout is the timestamp layout embedded in session log names.
const SessionTimeLayout = "20060102_150405"

// SessionLogPath returns <dir>/<label>_<YYYYmmdd_HHMMSS>.log for now.
// It only computes the path; pass it as Options.FileName to log there.
func SessionLogPath(label, dir string, now time.Time) string {
	return filepath.Join(dir, label+"_"+now.Format(SessionTimeLayout)+".log")
}
