package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

func copyToClipboard(data string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard utility found; try --ssh-copy")
	}
	if err := clipboard.WriteAll(data); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

// osc52Sequence wraps data in an OSC 52 escape so the terminal emulator sets
// the local clipboard, which also works over SSH. tmux and screen need the
// sequence passed through.
func osc52Sequence(data string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(data))
	seq := fmt.Sprintf("\x1b]52;c;%s\x07", encoded)
	if os.Getenv("TMUX") != "" {
		return "\x1bPtmux;" + seq + "\x1b\\"
	}
	if strings.HasPrefix(os.Getenv("TERM"), "screen") {
		return "\x1bP" + seq + "\x1b\\"
	}
	return seq
}

func copyToOSC52(w io.Writer, data string) error {
	if _, err := io.WriteString(w, osc52Sequence(data)); err != nil {
		return fmt.Errorf("failed to write OSC 52 sequence: %w", err)
	}
	return nil
}
