package host

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// PromptPassword reads a password from the controlling terminal without
// echo. The prompt goes to stderr so piped stdout stays clean.
func PromptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// EnsureCredentials prompts for a password when the config carries
// neither a key file nor a password. The prompted value is kept on the
// config for the lifetime of the process, never persisted.
func (c *Config) EnsureCredentials() error {
	if c.KeyFile != "" || c.Password != "" {
		return nil
	}
	pw, err := PromptPassword(fmt.Sprintf("Password for %s@%s: ", c.User, c.Addr))
	if err != nil {
		return err
	}
	c.Password = pw
	return nil
}
