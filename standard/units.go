package standard

import (
	"fmt"
	"math"
	"strconv"
)

var binaryPrefixes = []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

// BytesToMB converts bytes to mebibytes rounded to two decimals.
func BytesToMB(bytes uint64) float64 {
	return round2(float64(bytes) / (1024 * 1024))
}

// BytesToHuman renders bytes with a binary prefix and two decimals,
// e.g. "15.53 GiB". Values below 1 KiB are rendered as "N bytes".
func BytesToHuman(bytes uint64) string {
	if bytes < 1024 {
		return strconv.FormatUint(bytes, 10) + " bytes"
	}
	exponent := int(math.Floor(math.Log2(float64(bytes)) / 10))
	if exponent > len(binaryPrefixes) {
		exponent = len(binaryPrefixes)
	}
	converted := float64(bytes) / math.Pow(1024, float64(exponent))
	return fmt.Sprintf("%.2f %s", converted, binaryPrefixes[exponent-1])
}

// SecondsToHuman renders an uptime: "3 days", "1 day", "1:02 hours" or
// "12 minutes".
func SecondsToHuman(seconds int64) string {
	minutes := (seconds / 60) % 60
	hours := seconds / (60 * 60)
	days := seconds / (60 * 60 * 24)

	switch {
	case days > 1:
		return fmt.Sprintf("%d days", days)
	case days == 1:
		return "1 day"
	case hours > 0:
		return fmt.Sprintf("%d:%02d hours", hours, minutes)
	default:
		return fmt.Sprintf("%d minutes", minutes)
	}
}

// Capacity renders used/total as a percentage with two decimals.
func Capacity(used, total uint64) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(used)/float64(total)*100)
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
