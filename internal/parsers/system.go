package parsers

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	cpuAMDKeywords   = []string{"tctl", "tdie", "k10temp"}
	cpuIntelKeywords = []string{"package id", "core 0", "coretemp"}
	cpuKeywords      = []string{"cpu", "core", "package", "processor", "tctl", "tdie"}
	boardKeywords    = []string{
		"motherboard", "mobo", "mb", "system", "chipset",
		"ambient", "temp1:", "temp2:", "temp3:", "systin",
		"acpitz", "thermal", "pch", "platform", "board",
		"sys", "acpi", "isa",
	}
	fanKeywords = []string{"fan", "rpm"}

	degreesC    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*°c`)
	bareC       = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*c\b`)
	looseC      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*°?\s*c\b`)
	sensorValue = regexp.MustCompile(`:\s*(.*)$`)
)

// ParseUptime reads seconds from /proc/uptime.
func ParseUptime(out string) (float64, bool) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// FormatUptime renders seconds as "X天 Y小时 Z分钟". Leading zero units are
// omitted; minutes always appear when nothing else does.
func FormatUptime(seconds float64) string {
	total := int64(seconds)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d天", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d小时", hours))
	}
	if minutes > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d分钟", minutes))
	}
	return strings.Join(parts, " ")
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// plusReading extracts the "+45.0" in "+45.0°C" style sensor lines.
func plusReading(line string) (float64, bool) {
	i := strings.Index(line, "+")
	if i < 0 {
		return 0, false
	}
	rest := line[i+1:]
	if j := strings.Index(rest, "°"); j >= 0 {
		rest = rest[:j]
	} else {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
	return v, err == nil
}

func formatCelsius(v float64) string {
	return fmt.Sprintf("%.1f °C", v)
}

// ParseCPUTemperature scans `sensors` output for the first AMD, Intel or
// generic CPU reading between 0 and 150°C.
func ParseCPUTemperature(sensors string) (string, bool) {
	for _, line := range strings.Split(sensors, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		if !strings.Contains(line, "+") || !strings.Contains(lower, "°c") {
			continue
		}

		amd := containsAny(lower, cpuAMDKeywords)
		intel := containsAny(lower, cpuIntelKeywords) && !strings.Contains(lower, "fan")
		generic := strings.Contains(lower, "cpu") || strings.Contains(lower, "processor")
		if !amd && !intel && !generic {
			continue
		}

		if v, ok := plusReading(line); ok && v > 0 && v < 150 {
			return formatCelsius(v), true
		}
	}
	return "", false
}

// ParseMotherboardTemperature scans `sensors` output for board readings.
// Candidate lines carry a board keyword, no CPU keyword and no fan or RPM
// reading. Readings outside 10-80°C are discarded. The first candidate in
// the 25-45°C band wins, else the first candidate at all. When no keyword
// matches, any non-CPU reading in 15-60°C is used.
//
// The 25-45°C preference reflects typical board sensors and is
// vendor-dependent.
func ParseMotherboardTemperature(sensors string) (string, bool) {
	lines := strings.Split(sensors, "\n")
	var candidates []float64

	for _, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		if !containsAny(lower, boardKeywords) || containsAny(lower, cpuKeywords) || containsAny(lower, fanKeywords) {
			continue
		}

		v, ok := boardReading(line, lower)
		if !ok {
			continue
		}
		if v >= 10 && v <= 80 {
			candidates = append(candidates, v)
		}
	}

	if len(candidates) > 0 {
		for _, v := range candidates {
			if v >= 25 && v <= 45 {
				return formatCelsius(v), true
			}
		}
		return formatCelsius(candidates[0]), true
	}

	return boardFallback(lines)
}

// boardReading accepts "+45.0°C", "45.0°C" and "45.0 C".
func boardReading(line, lower string) (float64, bool) {
	if strings.Contains(line, "+") && strings.Contains(lower, "°c") {
		if v, ok := plusReading(line); ok {
			return v, true
		}
	}
	if strings.Contains(lower, "°c") {
		if m := degreesC.FindStringSubmatch(lower); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			return v, err == nil
		}
	}
	// Only look past the label so names like "acpitz" don't count as units.
	if m := sensorValue.FindStringSubmatch(lower); m != nil {
		if c := bareC.FindStringSubmatch(m[1]); c != nil {
			v, err := strconv.ParseFloat(c[1], 64)
			return v, err == nil
		}
	}
	return 0, false
}

func boardFallback(lines []string) (string, bool) {
	for _, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		if containsAny(lower, cpuKeywords) {
			continue
		}
		m := sensorValue.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		c := looseC.FindStringSubmatch(m[1])
		if c == nil {
			continue
		}
		if v, err := strconv.ParseFloat(c[1], 64); err == nil && v >= 15 && v <= 60 {
			return formatCelsius(v), true
		}
	}
	return "", false
}

// Memory is the Mem row of `free -b`, in bytes.
type Memory struct {
	Total     uint64
	Used      uint64
	Available uint64
}

// ParseFree parses `free -b`, reading total, used and available from the
// Mem row.
func ParseFree(out string) (Memory, bool) {
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 7 || !strings.HasPrefix(fields[0], "Mem") {
			continue
		}

		var vals [3]uint64
		for i, idx := range []int{1, 2, 6} {
			v, err := strconv.ParseUint(fields[idx], 10, 64)
			if err != nil {
				return Memory{}, false
			}
			vals[i] = v
		}
		return Memory{Total: vals[0], Used: vals[1], Available: vals[2]}, true
	}
	return Memory{}, false
}
