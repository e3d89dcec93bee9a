package parsers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rileyhilliard/nasmon/internal/snapshot"
)

// ZpoolListColumns is the -o list ParseZpoolList expects, in order.
const ZpoolListColumns = "name,size,alloc,free,ckpoint,expandsz,frag,cap,dedup,health"

// Scrub states.
const (
	ScrubNone       = "none"
	ScrubInProgress = "scrubbing"
	ScrubFinished   = "finished"
	ScrubCanceled   = "canceled"
)

var (
	scanLine      = regexp.MustCompile(`(?m)^\s*scan:\s*(.*)$`)
	scrubProgress = regexp.MustCompile(`(\d+(?:\.\d+)?)%\s*done`)
	scrubETA      = regexp.MustCompile(`(\S+)\s+to go`)
	scrubIssuedAt = regexp.MustCompile(`(\S+)\s+issued at\s+(\S+)`)
	scrubScanned  = regexp.MustCompile(`scanned at\s+(\S+)`)
	repairedIn    = regexp.MustCompile(`repaired\s+(\S+)\s+in`)
	repairedLead  = regexp.MustCompile(`(\S+)\s+repaired`)
	withErrors    = regexp.MustCompile(`with\s+(\d+)\s+errors`)
	finishedOn    = regexp.MustCompile(`errors on\s+(.+)$`)
	canceledOn    = regexp.MustCompile(`canceled on\s+(.+)$`)
)

// ParseZpoolList parses `zpool list -H -o <ZpoolListColumns>` (tab separated).
func ParseZpoolList(out string) []snapshot.StoragePoolRecord {
	pools := []snapshot.StoragePoolRecord{}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) < 10 {
			f = strings.Fields(line)
		}
		if len(f) < 10 {
			continue
		}
		pools = append(pools, snapshot.StoragePoolRecord{
			Name:          f[0],
			Size:          f[1],
			Alloc:         f[2],
			Free:          f[3],
			Checkpoint:    f[4],
			ExpandSize:    f[5],
			Fragmentation: f[6],
			Capacity:      f[7],
			Dedup:         f[8],
			Health:        f[9],
		})
	}
	return pools
}

// ParseScrubStatus summarises the scan section of `zpool status <pool>`.
// The scan section may wrap over the following indented lines.
func ParseScrubStatus(out string) snapshot.ScrubStatus {
	st := snapshot.ScrubStatus{State: snapshot.Unknown}

	loc := scanLine.FindStringSubmatchIndex(out)
	if loc == nil {
		return st
	}
	scan := out[loc[2]:loc[3]]

	// Continuation lines are indented and come before the next "key:" line.
	for _, line := range strings.Split(out[loc[1]:], "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasSuffix(strings.Fields(trimmed)[0], ":") {
			break
		}
		scan += " " + trimmed
	}

	switch {
	case strings.Contains(scan, "none requested"):
		st.State = ScrubNone
	case strings.Contains(scan, "scrub in progress"):
		st.State = ScrubInProgress
		st.InProgress = true
	case strings.Contains(scan, "scrub canceled"):
		st.State = ScrubCanceled
		if m := canceledOn.FindStringSubmatch(scan); m != nil {
			st.LastRun = strings.TrimSpace(m[1])
		}
	case strings.Contains(scan, "scrub repaired"):
		st.State = ScrubFinished
		st.Progress = 100
		if m := finishedOn.FindStringSubmatch(scan); m != nil {
			st.LastRun = strings.TrimSpace(m[1])
		}
	default:
		return st
	}

	if m := scrubProgress.FindStringSubmatch(scan); m != nil {
		st.Progress, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := scrubETA.FindStringSubmatch(scan); m != nil {
		st.ETA = trimComma(m[1])
	}
	if m := scrubIssuedAt.FindStringSubmatch(scan); m != nil {
		st.Issued = trimComma(m[1])
		st.Rate = trimComma(m[2])
	} else if m := scrubScanned.FindStringSubmatch(scan); m != nil {
		st.Rate = trimComma(m[1])
	}
	if m := repairedIn.FindStringSubmatch(scan); m != nil {
		st.Repaired = trimComma(m[1])
	} else if m := repairedLead.FindStringSubmatch(scan); m != nil {
		st.Repaired = trimComma(m[1])
	}
	if m := withErrors.FindStringSubmatch(scan); m != nil {
		st.Errors = m[1]
	}
	return st
}

func trimComma(s string) string {
	return strings.TrimRight(s, ",")
}
