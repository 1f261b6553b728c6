package catalog

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MaxEstimatedDuration caps size based estimates; no single track runs longer.
const MaxEstimatedDuration = 2 * time.Hour

// Bitrates are deliberately on the high side so size based estimates do not
// overestimate the duration.
var formatBitrates = map[string]int64{
	"mp3":  320_000,
	"aac":  256_000,
	"m4a":  256_000,
	"mp4":  256_000,
	"ogg":  160_000,
	"opus": 160_000,
	"flac": 1_000_000,
	"wav":  1_411_200, // 16-bit 44.1kHz stereo
}

const defaultBitrate int64 = 256_000

// BitrateFor returns the assumed bits per second for a format tag or file name.
func BitrateFor(format string) int64 {
	f := strings.ToLower(strings.TrimSpace(format))
	if i := strings.LastIndex(f, "."); i >= 0 {
		f = f[i+1:]
	}
	if bps, ok := formatBitrates[f]; ok {
		return bps
	}
	return defaultBitrate
}

// EstimateDuration guesses the play time of a file from its size and format.
// It returns 0 when the size is unknown.
func EstimateDuration(sizeBytes int64, format string) time.Duration {
	if sizeBytes <= 0 {
		return 0
	}
	seconds := math.Round(float64(sizeBytes*8) / float64(BitrateFor(format)))
	if seconds < 1 {
		seconds = 1
	}
	d := time.Duration(seconds) * time.Second
	if d > MaxEstimatedDuration {
		d = MaxEstimatedDuration
	}
	return d
}

// FormatDuration renders m:ss, or a dash placeholder for unknown durations.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "—"
	}
	total := int64(math.Round(d.Seconds()))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
