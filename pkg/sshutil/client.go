package sshutil

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/rileyhilliard/nasmon/internal/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// DefaultDialTimeout bounds TCP connect plus SSH handshake.
const DefaultDialTimeout = 5 * time.Second

// Client wraps an SSH connection with additional metadata.
type Client struct {
	*ssh.Client
	Host    string // The original host/alias used to connect
	Address string // The resolved address (host:port)
}

// DialOptions carries the credentials nasmon is configured with.
// Zero values fall back to ~/.ssh/config, then to defaults.
type DialOptions struct {
	User     string
	Password string
	Port     int
	KeyFile  string
	Timeout  time.Duration
}

// Dial establishes an SSH connection to the NAS.
// The host can be:
//   - An SSH config alias (e.g., "nas")
//   - A hostname or IP (e.g., "192.168.1.10")
//   - A user@hostname:port string
//
// Host keys are not verified: NAS appliances regenerate them on reinstall
// and the connection only carries read-mostly telemetry commands.
func Dial(host string, opts DialOptions) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultDialTimeout
	}

	settings := resolveSSHSettings(host, opts, filepath.Join(homeDir(), ".ssh", "config"))

	config, err := buildSSHConfig(settings, opts)
	if err != nil {
		var nasErr *errors.Error
		if stderrors.As(err, &nasErr) {
			return nil, err
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't set up SSH for '%s'", host),
			"Check the password or key file in your nasmon config")
	}

	address := settings.address()
	conn, err := net.DialTimeout("tcp", address, opts.Timeout)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't reach '%s' at %s", host, address),
			suggestionForDialError(err))
	}

	// Handshake shares the connect budget.
	_ = conn.SetDeadline(time.Now().Add(opts.Timeout))
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("SSH handshake with '%s' didn't go through", host),
			suggestionForHandshakeError(err))
	}
	_ = conn.SetDeadline(time.Time{})

	return &Client{
		Client:  ssh.NewClient(sshConn, chans, reqs),
		Host:    host,
		Address: address,
	}, nil
}

// Close closes the SSH connection.
func (c *Client) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// GetHost returns the original host/alias used to connect.
func (c *Client) GetHost() string {
	return c.Host
}

// GetAddress returns the resolved host:port address.
func (c *Client) GetAddress() string {
	return c.Address
}

// sshSettings holds resolved SSH connection parameters.
type sshSettings struct {
	hostname     string
	port         string
	user         string
	identityFile string
}

func (s *sshSettings) address() string {
	return net.JoinHostPort(s.hostname, s.port)
}

// ResolveHost returns the hostname and port a Dial with the same arguments
// would connect to, after ~/.ssh/config aliases are applied.
func ResolveHost(host string, opts DialOptions) (hostname string, port int) {
	s := resolveSSHSettings(host, opts, filepath.Join(homeDir(), ".ssh", "config"))
	port, err := strconv.Atoi(s.port)
	if err != nil {
		port = 22
	}
	return s.hostname, port
}

// resolveSSHSettings merges, in increasing precedence: defaults, ~/.ssh/config,
// user@host:port in the host string, and explicit DialOptions.
func resolveSSHSettings(host string, opts DialOptions, sshConfigPath string) *sshSettings {
	settings := &sshSettings{
		port: "22",
		user: currentUser(),
	}

	explicitUser := ""
	if atIdx := strings.Index(host, "@"); atIdx != -1 {
		explicitUser = host[:atIdx]
		host = host[atIdx+1:]
	}

	explicitPort := ""
	if colonIdx := strings.LastIndex(host, ":"); colonIdx != -1 {
		if _, err := strconv.Atoi(host[colonIdx+1:]); err == nil {
			explicitPort = host[colonIdx+1:]
			host = host[:colonIdx]
		}
	}

	settings.hostname = host
	applySSHConfig(settings, host, sshConfigPath)

	if explicitUser != "" {
		settings.user = explicitUser
	}
	if explicitPort != "" {
		settings.port = explicitPort
	}
	if opts.User != "" {
		settings.user = opts.User
	}
	if opts.Port > 0 {
		settings.port = strconv.Itoa(opts.Port)
	}
	if opts.KeyFile != "" {
		settings.identityFile = expandPath(opts.KeyFile)
	}
	return settings
}

// applySSHConfig fills settings from the alias entry in the SSH config file.
// A missing or unparsable file leaves settings untouched.
func applySSHConfig(settings *sshSettings, alias, path string) {
	content, _, err := preprocessSSHConfig(path)
	if err != nil {
		return
	}
	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return
	}

	if hostname, _ := cfg.Get(alias, "HostName"); hostname != "" {
		settings.hostname = hostname
	}
	if port, _ := cfg.Get(alias, "Port"); port != "" {
		settings.port = port
	}
	if user, _ := cfg.Get(alias, "User"); user != "" {
		settings.user = user
	}
	if identity, _ := cfg.Get(alias, "IdentityFile"); identity != "" {
		settings.identityFile = expandPath(identity)
	}
}

// buildSSHConfig assembles auth methods: password, keyboard-interactive with
// the same password, the configured key file, then the agent.
func buildSSHConfig(settings *sshSettings, opts DialOptions) (*ssh.ClientConfig, error) {
	var authMethods []ssh.AuthMethod

	if opts.Password != "" {
		authMethods = append(authMethods,
			ssh.Password(opts.Password),
			ssh.KeyboardInteractive(passwordChallenge(opts.Password)))
	}

	if settings.identityFile != "" {
		keyAuth, err := keyFileAuth(settings.identityFile)
		if err != nil {
			var encErr *EncryptedKeyError
			if stderrors.As(err, &encErr) && opts.Password == "" {
				return nil, errors.New(errors.ErrSSH,
					encErr.Error(),
					fmt.Sprintf("Add the key to your agent: ssh-add %s", settings.identityFile))
			}
		} else {
			authMethods = append(authMethods, keyAuth)
		}
	}

	if agentAuth := sshAgentAuth(); agentAuth != nil {
		authMethods = append(authMethods, agentAuth)
	}

	if len(authMethods) == 0 {
		return nil, errors.New(errors.ErrSSH,
			"No SSH auth methods available",
			"Set 'password' or 'ssh_key' in your nasmon config")
	}

	return &ssh.ClientConfig{
		User:            settings.user,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // NAS host keys are not pinned
		Timeout:         opts.Timeout,
	}, nil
}

// passwordChallenge answers every keyboard-interactive prompt with the password.
func passwordChallenge(password string) ssh.KeyboardInteractiveChallenge {
	return func(user, instruction string, questions []string, echos []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i := range questions {
			answers[i] = password
		}
		return answers, nil
	}
}

var (
	agentClient   agent.ExtendedAgent
	agentConnOnce sync.Once
)

// sshAgentAuth returns an auth method using the SSH agent if one with keys is running.
func sshAgentAuth() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	agentConnOnce.Do(func() {
		conn, err := net.Dial("unix", socket)
		if err != nil {
			return
		}
		agentClient = agent.NewClient(conn)
	})

	if agentClient == nil {
		return nil
	}

	// An empty agent causes auth failures when placed before other methods.
	signers, err := agentClient.Signers()
	if err != nil || len(signers) == 0 {
		return nil
	}

	return ssh.PublicKeysCallback(agentClient.Signers)
}

// keyFileAuth returns an auth method using a private key file.
// Returns EncryptedKeyError if the key requires a passphrase.
func keyFileAuth(keyPath string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if stderrors.As(err, &missing) || bytes.Contains(key, []byte("ENCRYPTED")) {
			return nil, &EncryptedKeyError{Path: keyPath}
		}
		return nil, err
	}

	return ssh.PublicKeys(signer), nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

func currentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "root"
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

func suggestionForDialError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") {
		return "Is SSH enabled on the NAS? Check its system settings."
	}
	if strings.Contains(errStr, "no route to host") || strings.Contains(errStr, "network is unreachable") {
		return "Can't route to the NAS. Check your network connection."
	}
	if strings.Contains(errStr, "timeout") {
		return "Connection timed out. The NAS might be powered off or asleep."
	}
	return "Make sure the NAS is reachable: ping <host>"
}

func suggestionForHandshakeError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "unable to authenticate") || strings.Contains(errStr, "no supported methods") {
		return "Auth failed. Check the username and password in your nasmon config."
	}
	return "Something went wrong during SSH setup. Try: ssh <user>@<host>"
}

// EncryptedKeyError is returned when an SSH key requires a passphrase.
type EncryptedKeyError struct {
	Path string
}

func (e *EncryptedKeyError) Error() string {
	return fmt.Sprintf("SSH key at %s is encrypted (passphrase protected)", e.Path)
}

// preprocessSSHConfig reads the SSH config and returns content up to the first
// Match directive, which ssh_config cannot decode. Also returns the 1-based
// line of that directive (0 if none).
func preprocessSSHConfig(configPath string) ([]byte, int, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, 0, err
	}

	lines := strings.Split(string(content), "\n")
	var result []string
	matchLine := 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(trimmed), "match ") {
			matchLine = i + 1
			break
		}
		result = append(result, line)
	}

	return []byte(strings.Join(result, "\n")), matchLine, nil
}
