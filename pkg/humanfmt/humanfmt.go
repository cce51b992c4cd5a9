// Package humanfmt renders sizes, durations, rates and counts for the
// --human log mode and CLI reports.
package humanfmt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Binary (IEC) units for bytes.
const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
	TiB = 1024 * GiB
)

var binaryUnits = []struct {
	size float64
	name string
}{
	{TiB, "TiB"},
	{GiB, "GiB"},
	{MiB, "MiB"},
	{KiB, "KiB"},
}

// scaled formats v with the largest binary unit not exceeding it.
// ok is false when v is below 1 KiB.
func scaled(v float64, suffix string) (string, bool) {
	for _, u := range binaryUnits {
		if v >= u.size {
			return fmt.Sprintf("%.2f %s%s", v/u.size, u.name, suffix), true
		}
	}
	return "", false
}

// Bytes formats a byte count like "1.23 GiB".
func Bytes(b int64) string {
	if b >= 0 {
		if s, ok := scaled(float64(b), ""); ok {
			return s
		}
	}
	return fmt.Sprintf("%d B", b)
}

// BytesUint64 is Bytes for unsigned sizes such as memory probes.
func BytesUint64(b uint64) string {
	return Bytes(int64(b))
}

// Duration formats d compactly: "1.23s", "45.6ms", "1m30s", "2h15m".
func Duration(d time.Duration) string {
	switch {
	case d < 0:
		return d.String()
	case d >= time.Hour:
		return compound(int64(d/time.Hour), "h", int64((d%time.Hour)/time.Minute), "m")
	case d >= time.Minute:
		return compound(int64(d/time.Minute), "m", int64((d%time.Minute)/time.Second), "s")
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fµs", float64(d)/float64(time.Microsecond))
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}

func compound(major int64, majorUnit string, minor int64, minorUnit string) string {
	if minor == 0 {
		return fmt.Sprintf("%d%s", major, majorUnit)
	}
	return fmt.Sprintf("%d%s%d%s", major, majorUnit, minor, minorUnit)
}

// Throughput formats bytes over d as a rate like "123.40 MiB/s".
func Throughput(bytes int64, d time.Duration) string {
	if d <= 0 {
		return "∞"
	}
	bps := float64(bytes) / d.Seconds()
	if s, ok := scaled(bps, "/s"); ok {
		return s
	}
	return fmt.Sprintf("%.0f B/s", bps)
}

// Count formats a line or item count: "1.23M", "456.00K", "789".
func Count(n int64) string {
	const (
		thousand = 1000
		million  = 1000 * thousand
		billion  = 1000 * million
	)

	switch {
	case n >= billion:
		return fmt.Sprintf("%.2fB", float64(n)/billion)
	case n >= million:
		return fmt.Sprintf("%.2fM", float64(n)/million)
	case n >= thousand:
		return fmt.Sprintf("%.2fK", float64(n)/thousand)
	default:
		return strconv.FormatInt(n, 10)
	}
}

var sizeSuffixes = map[string]float64{
	"": 1, "B": 1,
	"K": KiB, "KiB": KiB, "KB": 1e3,
	"M": MiB, "MiB": MiB, "MB": 1e6,
	"G": GiB, "GiB": GiB, "GB": 1e9,
	"T": TiB, "TiB": TiB, "TB": 1e12,
}

// ParseBytes reads sizes such as "512MiB", "4G", "1.5GB" or "1000".
// Single-letter and *iB suffixes are binary; KB, MB, GB and TB are decimal.
func ParseBytes(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty size")
	}

	end := strings.IndexFunc(s, func(r rune) bool { return (r < '0' || r > '9') && r != '.' })
	if end < 0 {
		end = len(s)
	}
	num, suffix := s[:end], strings.TrimSpace(s[end:])

	mult, ok := sizeSuffixes[suffix]
	if !ok {
		return 0, fmt.Errorf("unknown size suffix %q", suffix)
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid size number %q", num)
	}
	return uint64(v * mult), nil
}
