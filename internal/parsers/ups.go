package parsers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rileyhilliard/nasmon/internal/snapshot"
)

var upsStatusWords = map[string]string{
	"OL":      "在线",
	"OB":      "电池供电",
	"LB":      "电量低",
	"HB":      "电量高",
	"RB":      "需更换电池",
	"CHRG":    "充电中",
	"DISCHRG": "放电中",
	"BYPASS":  "旁路",
	"OFF":     "关闭",
	"OVER":    "过载",
	"TRIM":    "降压",
	"BOOST":   "升压",
	"CAL":     "校准中",
}

// ParseUpscList parses `upsc -l`: one UPS name per line.
func ParseUpscList(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Init SSL") || strings.Contains(line, " ") {
			continue
		}
		names = append(names, line)
	}
	return names
}

// ParseUpscVars parses `upsc <ups>` "key: value" lines.
func ParseUpscVars(out string) map[string]string {
	vars := map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || strings.Contains(key, " ") {
			continue
		}
		vars[key] = strings.TrimSpace(val)
	}
	return vars
}

// ParsePowerBackup maps `upsc <ups>` output onto PowerBackupInfo. Returns
// the zero value when the output carries no UPS variables.
func ParsePowerBackup(name, out string) snapshot.PowerBackupInfo {
	vars := ParseUpscVars(out)
	if len(vars) == 0 {
		return snapshot.PowerBackupInfo{}
	}

	info := snapshot.PowerBackupInfo{
		Name:          name,
		Model:         firstVar(vars, "ups.model", "device.model"),
		Status:        UPSStatus(vars["ups.status"]),
		BatteryLevel:  vars["battery.charge"],
		OutputVoltage: firstVar(vars, "output.voltage", "input.voltage"),
		Load:          vars["ups.load"],
		Type:          firstVar(vars, "ups.type", "device.type", "driver.name"),
	}

	if secs, err := strconv.ParseFloat(vars["battery.runtime"], 64); err == nil {
		info.Runtime = fmt.Sprintf("%.0f", secs/60)
	}
	return info
}

// UPSStatus translates NUT status flags ("OL CHRG") into readable words.
// Unknown flags are kept verbatim.
func UPSStatus(raw string) string {
	flags := strings.Fields(raw)
	if len(flags) == 0 {
		return snapshot.Unknown
	}
	words := make([]string, 0, len(flags))
	for _, f := range flags {
		if w, ok := upsStatusWords[strings.ToUpper(f)]; ok {
			words = append(words, w)
		} else {
			words = append(words, f)
		}
	}
	return strings.Join(words, ", ")
}

func firstVar(vars map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := vars[k]; v != "" {
			return v
		}
	}
	return ""
}
