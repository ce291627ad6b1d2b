package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/ovsman-net/ovsman/pkg/util"
)

const dialTimeout = 10 * time.Second

// SSHRunner runs commands over a persistent SSH connection with a fresh
// session per call (stateless, no shell).
type SSHRunner struct {
	name   string
	client *ssh.Client
}

// DialSSH connects to the host. Key file auth is tried before password
// auth when both are configured.
func DialSSH(cfg *Config) (*SSHRunner, error) {
	var auth []ssh.AuthMethod

	if cfg.KeyFile != "" {
		key, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading key file for %s: %w", cfg.Name, err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parsing key file for %s: %w", cfg.Name, err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("host %q has no key file or password", cfg.Name)
	}

	config := &ssh.ClientConfig{
		User: cfg.User,
		Auth: auth,
		// Proxmox hosts are enrolled by the operator; host keys are not
		// verified, matching ssh's accept-new behavior.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	}

	client, err := ssh.Dial("tcp", cfg.DialAddr(), config)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s (%s): %w", cfg.Name, cfg.DialAddr(), err)
	}

	return &SSHRunner{name: cfg.Name, client: client}, nil
}

// Run executes command in its own SSH session with separate stdout and
// stderr capture. A remote non-zero exit comes back as the exit code, not
// an error; ctx expiry tears the session down and returns ctx's error.
func (r *SSHRunner) Run(ctx context.Context, command string) (string, string, int, error) {
	session, err := r.client.NewSession()
	if err != nil {
		return "", "", -1, util.NewRemoteError(r.name, command, -1, "", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Start(command); err != nil {
		return "", "", -1, util.NewRemoteError(r.name, command, -1, "", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Wait()
	}()

	select {
	case <-ctx.Done():
		session.Close()
		<-done
		return stdout.String(), stderr.String(), -1, ctx.Err()
	case err := <-done:
		if err == nil {
			return stdout.String(), stderr.String(), 0, nil
		}
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), stderr.String(), exitErr.ExitStatus(), nil
		}
		return stdout.String(), stderr.String(), -1, util.NewRemoteError(r.name, command, -1, stderr.String(), err)
	}
}

// Close shuts the SSH connection down.
func (r *SSHRunner) Close() error {
	return r.client.Close()
}
