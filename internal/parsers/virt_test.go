package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rileyhilliard/nasmon/internal/snapshot"
)

func TestParseVirshList(t *testing.T) {
	out := ` Id   Name       State
------------------------------
 1    win10      running
 -    ubuntu     shut off
 3    router     Paused

`
	assert.Equal(t, []snapshot.VMRecord{
		{ID: "1", Name: "win10", State: snapshot.VMRunning},
		{ID: "-", Name: "ubuntu", State: snapshot.VMShutOff},
		{ID: "3", Name: "router", State: snapshot.VMPaused},
	}, ParseVirshList(out))
}

func TestParseVirshList_Empty(t *testing.T) {
	got := ParseVirshList(" Id   Name   State\n--------------------\n")
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, ParseVirshList(""))
}

func TestResolveVMTitle(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want string
	}{
		{
			name: "title present",
			xml:  "<domain type='kvm'>\n  <name>win10</name>\n  <title> Windows 10 Gaming </title>\n</domain>",
			want: "Windows 10 Gaming",
		},
		{
			name: "no title",
			xml:  "<domain type='kvm'><name>win10</name></domain>",
			want: "win10",
		},
		{name: "empty output", xml: "", want: "win10"},
		{name: "not xml", xml: "error: failed to get domain 'win10'", want: "win10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveVMTitle(tt.xml, "win10"))
		})
	}
}

func TestParseDockerPs(t *testing.T) {
	out := "plex\trunning\nnextcloud\texited\nhome assistant\tRestarting\n\n"
	assert.Equal(t, []snapshot.ContainerRecord{
		{Name: "plex", Status: "running"},
		{Name: "nextcloud", Status: "exited"},
		{Name: "home assistant", Status: "restarting"},
	}, ParseDockerPs(out))

	assert.Equal(t, []snapshot.ContainerRecord{{Name: "db", Status: "paused"}}, ParseDockerPs("db paused"))
	assert.Empty(t, ParseDockerPs(""))
}
