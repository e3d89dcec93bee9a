package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/nasmon/internal/action"
	naserrors "github.com/rileyhilliard/nasmon/internal/errors"
	sshtesting "github.com/rileyhilliard/nasmon/pkg/sshutil/testing"
)

func TestGuestCommand_VMStart(t *testing.T) {
	writeTestConfig(t)
	nas := useFakeNAS(t, true, func(c *sshtesting.MockClient) {
		c.SetOutput("virsh start homeassistant 2>&1", "Domain 'homeassistant' started\n")
	})

	var buf bytes.Buffer
	err := guestCommand(context.Background(), GuestVM, "homeassistant", "start", DefaultActionTimeout, &buf)

	require.NoError(t, err)
	assert.True(t, nas.ran("virsh start homeassistant 2>&1"))
	assert.Contains(t, buf.String(), "✓ virsh start homeassistant")
}

func TestGuestCommand_ContainerRestart(t *testing.T) {
	writeTestConfig(t)
	nas := useFakeNAS(t, true, func(c *sshtesting.MockClient) {
		c.SetOutput("docker restart plex 2>&1", "plex\n")
	})

	var buf bytes.Buffer
	err := guestCommand(context.Background(), GuestContainer, "plex", "restart", DefaultActionTimeout, &buf)

	require.NoError(t, err)
	assert.True(t, nas.ran("docker restart plex 2>&1"))
}

func TestGuestCommand_Refused(t *testing.T) {
	writeTestConfig(t)
	useFakeNAS(t, true, func(c *sshtesting.MockClient) {
		c.SetOutput("virsh start ghost 2>&1", "error: failed to get domain 'ghost'\n")
	})

	var buf bytes.Buffer
	err := guestCommand(context.Background(), GuestVM, "ghost", "start", DefaultActionTimeout, &buf)

	require.Error(t, err)
	assert.True(t, naserrors.IsCode(err, naserrors.ErrAction))
	assert.Contains(t, err.Error(), `nas.test refused to start "ghost"`)
	assert.Contains(t, buf.String(), "✗ virsh start ghost")
}

func TestGuestCommand_InvalidActionSendsNothing(t *testing.T) {
	writeTestConfig(t)
	nas := useFakeNAS(t, true, nil)

	var buf bytes.Buffer
	err := guestCommand(context.Background(), GuestContainer, "plex", "explode", DefaultActionTimeout, &buf)

	require.Error(t, err)
	assert.True(t, errors.Is(err, action.ErrInvalidAction))
	assert.False(t, nas.ranPrefix("docker"))
}

func TestScrubCommand(t *testing.T) {
	writeTestConfig(t)
	nas := useFakeNAS(t, true, func(c *sshtesting.MockClient) {
		c.SetOutput("zpool scrub tank 2>&1 && echo 'scrub started'", "scrub started\n")
	})

	var buf bytes.Buffer
	require.NoError(t, scrubCommand(context.Background(), "tank", DefaultActionTimeout, &buf))
	assert.True(t, nas.ranPrefix("zpool scrub tank"))
	assert.Contains(t, buf.String(), "✓ zpool scrub tank")
}

func TestScrubCommand_Fails(t *testing.T) {
	writeTestConfig(t)
	useFakeNAS(t, true, func(c *sshtesting.MockClient) {
		c.SetOutput("zpool scrub nope 2>&1 && echo 'scrub started'", "cannot open 'nope': no such pool\n")
	})

	var buf bytes.Buffer
	err := scrubCommand(context.Background(), "nope", DefaultActionTimeout, &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Couldn't start a scrub on "nope"`)
}

func TestGuestCompletion(t *testing.T) {
	vm, container := action.Actions()

	got, directive := guestCompletion(GuestVM)(&cobra.Command{}, []string{"homeassistant"}, "")
	assert.Equal(t, vm, got)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)

	got, _ = guestCompletion(GuestContainer)(&cobra.Command{}, []string{"plex"}, "")
	assert.Equal(t, container, got)

	got, _ = guestCompletion(GuestVM)(&cobra.Command{}, nil, "")
	assert.Empty(t, got)
}
