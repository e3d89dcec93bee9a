package parsers

import (
	"encoding/xml"
	"strings"

	"github.com/rileyhilliard/nasmon/internal/snapshot"
)

// ParseVirshList parses `virsh list --all`. The first two lines are the
// header and its rule. State is lower-cased and may contain spaces
// ("shut off"). Title is left empty for ResolveVMTitle.
func ParseVirshList(out string) []snapshot.VMRecord {
	vms := []snapshot.VMRecord{}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) <= 2 {
		return vms
	}
	for _, line := range lines[2:] {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		vms = append(vms, snapshot.VMRecord{
			ID:    fields[0],
			Name:  fields[1],
			State: strings.ToLower(strings.Join(fields[2:], " ")),
		})
	}
	return vms
}

type domainXML struct {
	Title string `xml:"title"`
}

// ResolveVMTitle returns the <title> of a `virsh dumpxml` document, or name
// when the title is missing or the document doesn't parse.
func ResolveVMTitle(dumpxml, name string) string {
	var dom domainXML
	if err := xml.Unmarshal([]byte(dumpxml), &dom); err != nil {
		return name
	}
	if t := strings.TrimSpace(dom.Title); t != "" {
		return t
	}
	return name
}

// ParseDockerPs parses `docker ps -a --format '{{.Names}}\t{{.State}}'`.
func ParseDockerPs(out string) []snapshot.ContainerRecord {
	containers := []snapshot.ContainerRecord{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, state, ok := strings.Cut(line, "\t")
		if !ok {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			name, state = fields[0], fields[1]
		}
		containers = append(containers, snapshot.ContainerRecord{
			Name:   strings.TrimSpace(name),
			Status: strings.ToLower(strings.TrimSpace(state)),
		})
	}
	return containers
}
