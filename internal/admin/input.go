package admin

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// promptPassword asks for a password on w. On a terminal the input is not
// echoed; otherwise a single line is read from in, which lets scripts pipe
// the password.
func promptPassword(in *bufio.Reader, w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}

	fd := int(os.Stdin.Fd())
	if isTerminal(fd) {
		pw, err := readPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readNewPassword prompts twice and requires both entries to match.
func readNewPassword(in *bufio.Reader, w io.Writer) (string, error) {
	first, err := promptPassword(in, w, "Enter password")
	if err != nil {
		return "", err
	}
	second, err := promptPassword(in, w, "Repeat password")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}
