// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command coldsign is an offline signer for partially signed bitcoin
// transactions. Every command prints a JSON result on stdout.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
)

// app carries the state of one invocation.
type app struct {
	cfg    config
	stdin  io.Reader
	stdout io.Writer

	// prompt reads a secret from the user.
	prompt func(string) ([]byte, error)
}

func newApp(stdin io.Reader, stdout io.Writer) *app {
	return &app{
		cfg:    defaultConfig(),
		stdin:  stdin,
		stdout: stdout,
		prompt: promptSecret,
	}
}

// newParser builds the command line parser of the app.
func (a *app) newParser() (*flags.Parser, error) {
	parser := flags.NewParser(&a.cfg, flags.HelpFlag|flags.PassDoubleDash)
	parser.CommandHandler = a.runCommand

	for _, c := range a.commands() {
		_, err := parser.AddCommand(c.name, c.short, c.long, c.data)
		if err != nil {
			return nil, err
		}
	}

	return parser, nil
}

// runCommand sets up logging around a command.
func (a *app) runCommand(command flags.Commander, args []string) error {
	if command == nil {
		return nil
	}

	if !a.cfg.NoLogFile {
		logFile := filepath.Join(
			cleanAndExpandPath(a.cfg.LogDir), defaultLogFilename,
		)
		if err := initLogRotator(logFile); err != nil {
			return err
		}
		defer closeLogRotator()
	}

	if err := parseAndSetDebugLevels(a.cfg.DebugLevel); err != nil {
		return err
	}

	return command.Execute(args)
}

// run parses args and executes the selected command.
func (a *app) run(args []string) error {
	parser, err := a.newParser()
	if err != nil {
		return err
	}

	if err := loadConfigFile(parser, args); err != nil {
		return err
	}

	_, err = parser.ParseArgs(args)

	var flagsErr *flags.Error
	if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
		fmt.Fprintln(a.stdout, err)
		return nil
	}

	return err
}

func main() {
	if err := newApp(os.Stdin, os.Stdout).run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
