// ABOUTME: Interactive prompts shared by destructive commands and paging.
// ABOUTME: Refuses to prompt when stdin is not a terminal.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

var errNotInteractive = errors.New("stdin is not a terminal")

func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // Fd fits in int on supported platforms
}

// readYes reads one line and reports whether it was y or yes.
func readYes() bool {
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// confirm asks question and waits for y/yes. flag names the option that
// skips the prompt in scripts.
func confirm(question, flag string) (bool, error) {
	if !interactive() {
		return false, fmt.Errorf("%w: pass %s to confirm", errNotInteractive, flag)
	}
	fmt.Printf("%s [y/N] ", question)
	return readYes(), nil
}
