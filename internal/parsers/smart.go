package parsers

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/rileyhilliard/nasmon/internal/snapshot"
)

// Health labels produced by MapHealth.
const (
	HealthGood        = "良好"
	HealthFailed      = "故障"
	HealthError       = "错误"
	HealthWarning     = "警告"
	HealthCritical    = "严重"
	HealthUnknown     = snapshot.Unknown
	HealthUnavailable = "不可用"
)

// Temperature history keys stored in DiskRecord.Attributes.
const (
	AttrTempMin       = "最低温度"
	AttrTempMax       = "最高温度"
	AttrTempCurrent   = "当前温度"
	AttrTempThreshold = "阈值"
)

const hoursSuffix = " 小时"

var healthMap = map[string]string{
	"PASSED":        HealthGood,
	"PASS":          HealthGood,
	"OK":            HealthGood,
	"GOOD":          HealthGood,
	"FAILED":        HealthFailed,
	"FAIL":          HealthFailed,
	"ERROR":         HealthError,
	"WARNING":       HealthWarning,
	"CRITICAL":      HealthCritical,
	"UNKNOWN":       HealthUnknown,
	"NOT AVAILABLE": HealthUnavailable,
}

var (
	modelPatterns = compileAll(
		`(?im)^\s*Device Model:\s*(.+)$`,
		`(?im)^\s*Model(?: Family)?\s*:\s*(.+)$`,
		`(?im)^\s*Model\s*Number:\s*(.+)$`,
		`(?im)^\s*Product:\s*(.+)$`,
	)
	serialPatterns = compileAll(
		`(?im)^\s*Serial Number\s*:\s*(.+)$`,
		`(?im)^\s*Serial\s*:\s*(.+)$`,
	)
	capacityPatterns = compileAll(
		`(?im)User Capacity:\s*([^\[\n]+)`,
		`(?im)Namespace 1 Size/Capacity:\s*([^\[\n]+)`,
		`(?im)Total NVM Capacity:\s*([^\[\n]+)`,
		`(?im)Capacity:\s*([^\[\n]+)`,
	)
	healthPatterns = compileAll(
		`(?im)SMART overall-health self-assessment test result:\s*([A-Za-z][A-Za-z ]*)`,
		`(?im)SMART Health Status:\s*([A-Za-z][A-Za-z ]*)`,
	)

	capacityUnit = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(bytes?|[KMGT]i?B)\b`)
	digitRun     = regexp.MustCompile(`\d+`)

	tempTextPatterns = compileAll(
		`(?im)Temperature:\s*(\d+)\s*Celsius`,
		`(?im)Composite:\s*\+?(\d+(?:\.\d+)?)°C`,
		`(?im)Current Temperature:\s*(\d+)`,
		`(?im)\bTemp\s*[=:]\s*(\d+)`,
	)

	nvmeHoursPattern = regexp.MustCompile(`(?i)Power On (?:Hours|Time)\s*:\s*([\d,]+)`)
	attr9Duration    = regexp.MustCompile(`(?im)^\s*9\s+Power_On_Hours\b[^\n]+\s+(\d+)h(?:\+(\d+)m(?:\+(\d+)\.\d+s)?)?`)
	attr9Plain       = regexp.MustCompile(`(?im)^\s*9\s+Power_On_Hours\b[^\n]+\s+(\d+)\s*$`)
	hoursTextPattern = compileAll(
		`(?im)Power On Hours\s+(\d+)`,
		`(?im)Power on time\s*:\s*(\d+)\s*hours`,
	)
	durationAnywhere = regexp.MustCompile(`(\d+)h(?:\+(\d+)m(?:\+(\d+)\.\d+s)?)?`)

	minMaxHistory  = regexp.MustCompile(`\(\s*Min/Max\s+(\d+)/(\d+)\s*\)`)
	listHistory    = regexp.MustCompile(`\(\s*([\d\s]+?)\s*\)?\s*$`)
	leadingInteger = regexp.MustCompile(`^\d+`)
)

// ParseSmartModel extracts the model from `smartctl -i` (SATA or NVMe).
func ParseSmartModel(info string) (string, bool) {
	return firstMatch(info, modelPatterns)
}

// ParseSmartSerial extracts the serial number from `smartctl -i`.
func ParseSmartSerial(info string) (string, bool) {
	return firstMatch(info, serialPatterns)
}

// ParseSmartCapacity extracts the capacity from `smartctl -i` and normalises
// it with NormalizeCapacity.
func ParseSmartCapacity(info string) (string, bool) {
	raw, ok := firstMatch(info, capacityPatterns)
	if !ok {
		return "", false
	}
	return NormalizeCapacity(raw), true
}

// NormalizeCapacity renders a capacity string in the largest whole binary
// unit with one decimal: "1,000,204,886,016 bytes" becomes "931.5 GB" and
// "2 TB" becomes "2.0 TB". A bare number is read as bytes. Input with no
// digits is returned unchanged.
func NormalizeCapacity(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == snapshot.Unknown {
		return snapshot.Unknown
	}

	clean := strings.ReplaceAll(raw, ",", "")
	var b float64

	if m := capacityUnit.FindStringSubmatch(clean); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return raw
		}
		b = v * unitMultiplier(m[2])
	} else {
		// Take the longest digit run as the byte count
		longest := ""
		for _, d := range digitRun.FindAllString(clean, -1) {
			if len(d) > len(longest) {
				longest = d
			}
		}
		if longest == "" {
			return raw
		}
		v, err := strconv.ParseFloat(longest, 64)
		if err != nil {
			return raw
		}
		b = v
	}

	return formatBinary(b)
}

func unitMultiplier(unit string) float64 {
	switch strings.ToUpper(unit) {
	case "KB", "KIB":
		return 1 << 10
	case "MB", "MIB":
		return 1 << 20
	case "GB", "GIB":
		return 1 << 30
	case "TB", "TIB":
		return 1 << 40
	}
	return 1
}

func formatBinary(b float64) string {
	switch {
	case b >= 1<<40:
		return fmt.Sprintf("%.1f TB", b/(1<<40))
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", b/(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", b/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", b/(1<<10))
	}
	return fmt.Sprintf("%.1f B", b)
}

// ParseSmartHealth extracts the raw health verdict from `smartctl -H`,
// "UNKNOWN" when absent.
func ParseSmartHealth(out string) string {
	if v, ok := firstMatch(out, healthPatterns); ok {
		return v
	}
	return "UNKNOWN"
}

// MapHealth maps a raw health verdict onto the fixed label set,
// case-insensitively. Anything unrecognised is HealthUnknown.
func MapHealth(raw string) string {
	if label, ok := healthMap[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return label
	}
	return HealthUnknown
}

// attributeRow is one row of the `smartctl -A` ATA attribute table.
type attributeRow struct {
	id   string
	name string
	raw  string
}

// attributeRows returns rows shaped like
// "ID# ATTRIBUTE_NAME FLAG VALUE WORST THRESH TYPE UPDATED WHEN_FAILED RAW_VALUE".
func attributeRows(out string) []attributeRow {
	var rows []attributeRow
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 10 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		rows = append(rows, attributeRow{
			id:   fields[0],
			name: fields[1],
			raw:  strings.Join(fields[9:], " "),
		})
	}
	return rows
}

func rawInt(raw string) (int, bool) {
	m := leadingInteger.FindString(raw)
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(m)
	return v, err == nil
}

// ParseSmartTemperature picks the drive temperature from `smartctl -A`.
// Attribute 194's raw value wins when present; otherwise the highest value
// across the other known vendor formats is used.
func ParseSmartTemperature(attrs string) (string, bool) {
	var candidates []int
	for _, row := range attributeRows(attrs) {
		if row.id == "194" && strings.EqualFold(row.name, "Temperature_Celsius") {
			if v, ok := rawInt(row.raw); ok {
				return fmt.Sprintf("%d °C", v), true
			}
		}
		if strings.Contains(row.name, "Temperature_Cel") {
			if v, ok := rawInt(row.raw); ok {
				candidates = append(candidates, v)
			}
		}
	}

	for _, re := range tempTextPatterns {
		for _, m := range re.FindAllStringSubmatch(attrs, -1) {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				candidates = append(candidates, int(v))
			}
		}
	}

	if len(candidates) == 0 {
		return "", false
	}
	return fmt.Sprintf("%d °C", slices.Max(candidates)), true
}

// ParseSmartPowerOnHours extracts power-on time from `smartctl -A`, trying
// in order: the NVMe health-log key (nvme only), attribute 9 in
// "Hh+Mm+S.Ss" form, attribute 9 as a plain integer, the raw value of any
// Power_On_Hours row, free-text variants, then a scan of any line naming the
// attribute.
func ParseSmartPowerOnHours(attrs string, nvme bool) (string, bool) {
	if attrs == "" {
		return "", false
	}

	if nvme {
		if m := nvmeHoursPattern.FindStringSubmatch(attrs); m != nil {
			if h, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
				return fmt.Sprintf("%d%s", h, hoursSuffix), true
			}
		}
	}

	if m := attr9Duration.FindStringSubmatch(attrs); m != nil {
		return durationHours(m), true
	}

	if m := attr9Plain.FindStringSubmatch(attrs); m != nil {
		if h, err := strconv.Atoi(m[1]); err == nil {
			return fmt.Sprintf("%d%s", h, hoursSuffix), true
		}
	}

	for _, row := range attributeRows(attrs) {
		if strings.EqualFold(row.name, "Power_On_Hours") {
			if h, ok := rawInt(row.raw); ok {
				return fmt.Sprintf("%d%s", h, hoursSuffix), true
			}
		}
	}

	if v, ok := firstMatch(attrs, hoursTextPattern); ok {
		if h, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d%s", h, hoursSuffix), true
		}
	}

	for _, line := range strings.Split(attrs, "\n") {
		if !strings.Contains(line, "Power_On_Hours") {
			continue
		}
		if m := durationAnywhere.FindStringSubmatch(line); m != nil {
			return durationHours(m), true
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			if h, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
				return fmt.Sprintf("%d%s", h, hoursSuffix), true
			}
		}
	}

	return "", false
}

// durationHours renders an "Hh+Mm" match as fractional hours.
func durationHours(m []string) string {
	h, _ := strconv.Atoi(m[1])
	hours := float64(h)
	if len(m) > 2 && m[2] != "" {
		mins, _ := strconv.Atoi(m[2])
		hours += float64(mins) / 60
	}
	return fmt.Sprintf("%.1f%s", hours, hoursSuffix)
}

// ParseTemperatureHistory reads the min/max/current history that some
// drives append to attribute 194's raw value, either as
// "36 (Min/Max 20/53)" or as a bare list "36 (0 20 53 70)". Returns nil when
// the drive reports no history.
func ParseTemperatureHistory(attrs string) map[string]string {
	for _, row := range attributeRows(attrs) {
		if row.id != "194" {
			continue
		}

		if m := minMaxHistory.FindStringSubmatch(row.raw); m != nil {
			cur, _ := rawInt(row.raw)
			return map[string]string{
				AttrTempMin:     m[1] + " °C",
				AttrTempMax:     m[2] + " °C",
				AttrTempCurrent: strconv.Itoa(cur) + " °C",
			}
		}

		if m := listHistory.FindStringSubmatch(row.raw); m != nil {
			vals := strings.Fields(m[1])
			if len(vals) >= 4 {
				return map[string]string{
					AttrTempMin:       vals[0] + " °C",
					AttrTempMax:       vals[1] + " °C",
					AttrTempCurrent:   vals[2] + " °C",
					AttrTempThreshold: vals[3] + " °C",
				}
			}
		}
	}
	return nil
}
