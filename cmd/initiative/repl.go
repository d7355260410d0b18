package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"initiative/internal/console"
)

func completer() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(console.Commands)+1)
	for _, word := range console.Commands {
		items = append(items, readline.PcItem(word))
	}
	items = append(items, readline.PcItem("quit"))
	return readline.NewPrefixCompleter(items...)
}

type lineReader interface {
	Readline() (string, error)
	Close() error
}

func repl(ctx context.Context, c *console.Console, stdin io.Reader, stdout, stderr io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		Stdin:           io.NopCloser(stdin),
		Stdout:          stdout,
		Stderr:          stderr,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	return readLoop(ctx, c, rl, stdout)
}

// readLoop runs commands until EOF, "quit", or an interrupt on an empty
// line. Command failures are printed and do not end the session.
func readLoop(ctx context.Context, c *console.Console, rl lineReader, stdout io.Writer) error {
	defer func() {
		_ = rl.Close()
	}()

	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
		line = strings.TrimSpace(line)
		if line == "quit" || line == "exit" {
			return nil
		}
		out, err := c.Run(ctx, line)
		if err != nil {
			fmt.Fprintln(stdout, err)
			continue
		}
		if out != "" {
			fmt.Fprintln(stdout, out)
		}
	}
}
