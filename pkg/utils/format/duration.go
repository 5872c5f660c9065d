// Package format renders values for API responses.
package format

import "fmt"

// Duration renders seconds as "M:SS", or "H:MM:SS" from an hour up.
// Unknown (zero or negative) durations render as "".
func Duration(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
