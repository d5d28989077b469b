package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// SecretReader reads one line of input with echo disabled.
type SecretReader interface {
	ReadSecret() ([]byte, error)
}

// terminalSecretReader reads from a terminal file descriptor.
type terminalSecretReader struct {
	fd int
}

// NewTerminalSecretReader reads secrets from stdin.
func NewTerminalSecretReader() SecretReader {
	return terminalSecretReader{fd: int(os.Stdin.Fd())}
}

func (t terminalSecretReader) ReadSecret() ([]byte, error) {
	if !term.IsTerminal(t.fd) {
		return nil, fmt.Errorf("stdin is not a terminal, pass the password as --with-encryption=<password>")
	}
	return term.ReadPassword(t.fd)
}

// PromptConfirmedSecret asks for a secret twice and returns it once both
// entries match and are non-empty. Mismatches ask again; read errors are
// returned.
func PromptConfirmedSecret(r SecretReader, w io.Writer) ([]byte, error) {
	for {
		first, err := readSecret(r, w, "Enter password: ")
		if err != nil {
			return nil, err
		}
		if len(first) == 0 {
			fmt.Fprintln(w, "Password must not be empty, please try again.")
			continue
		}

		second, err := readSecret(r, w, "Confirm password: ")
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(first, second) {
			fmt.Fprintln(w, "Passwords do not match, please try again.")
			continue
		}
		return first, nil
	}
}

func readSecret(r SecretReader, w io.Writer, label string) ([]byte, error) {
	fmt.Fprint(w, label)
	secret, err := r.ReadSecret()
	// The terminal swallowed the newline along with the echo.
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return secret, nil
}
