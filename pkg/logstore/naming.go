package logstore

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// File names are allocated per process so two stores opened within the same
// clock tick never share a file.
var (
	nameMu    sync.Mutex
	lastStamp float64
)

// newFileName returns a name of the form <unix-seconds-with-fraction><ext>
// that is strictly greater than every name previously returned in this process
// and is not already present in dir.
func newFileName(dir, ext string, now time.Time) (string, float64) {
	nameMu.Lock()
	defer nameMu.Unlock()

	stamp := float64(now.UnixNano()) / 1e9
	if stamp <= lastStamp {
		stamp = math.Nextafter(lastStamp, math.Inf(1))
	}
	for {
		name := formatStamp(stamp) + ext
		if _, err := os.Lstat(filepath.Join(dir, name)); err != nil {
			lastStamp = stamp
			return name, stamp
		}
		stamp = math.Nextafter(stamp, math.Inf(1))
	}
}

func formatStamp(stamp float64) string {
	return strconv.FormatFloat(stamp, 'f', -1, 64)
}

// parseStamp parses the numeric timestamp encoded in a log file name.
// Names that do not parse sort as 0, the oldest possible value.
func parseStamp(name, ext string) float64 {
	base := strings.TrimSuffix(name, ext)
	v, err := strconv.ParseFloat(base, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// formatLine prefixes a message with its UTC ISO-8601 timestamp.
func formatLine(msg string, ts time.Time) string {
	return ts.UTC().Format(time.RFC3339) + " " + msg
}
