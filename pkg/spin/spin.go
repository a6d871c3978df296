// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package spin provides a terminal spinner for long running operations.
package spin

import (
	"fmt"
	"io"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/theckman/yacspin"
)

// writer is the sink for spinner frames and Println output. Tests override
// it to capture output.
var writer io.Writer = colorable.NewColorableStdout()

type Spinner struct {
	spinner *yacspin.Spinner
}

// New creates a spinner with the given title.
func New(title string) *Spinner {
	config := yacspin.Config{
		Frequency:         200 * time.Millisecond,
		CharSet:           yacspin.CharSets[33],
		Suffix:            " " + title,
		SuffixAutoColon:   true,
		StopCharacter:     "(✓) Done",
		StopColors:        []string{"fgGreen"},
		StopFailCharacter: "(x) Error",
		StopFailColors:    []string{"fgRed"},
		Writer:            writer,
	}

	spinner, _ := yacspin.New(config)
	return &Spinner{spinner: spinner}
}

// Start begins rendering the spinner.
func (s *Spinner) Start() error {
	return s.spinner.Start()
}

// Stop halts the spinner, rendering the success stop character.
func (s *Spinner) Stop() error {
	return s.spinner.Stop()
}

// StopFail halts the spinner, rendering the failure stop character.
func (s *Spinner) StopFail() error {
	return s.spinner.StopFail()
}

// Message updates the text displayed next to the spinner title.
func (s *Spinner) Message(message string) {
	s.spinner.Message(message)
}

// Println prints a line above the spinner without corrupting its frame.
func (s *Spinner) Println(message string) {
	_ = s.spinner.Pause()
	fmt.Fprintln(writer, message)
	_ = s.spinner.Unpause()
}

// Run starts the spinner, executes runFn and stops the spinner, rendering
// failure when runFn errors.
func (s *Spinner) Run(runFn func() error) error {
	_ = s.Start()

	err := runFn()
	if err != nil {
		_ = s.StopFail()
		return err
	}

	_ = s.Stop()
	return nil
}

// Run executes runFn under a spinner titled with the given prefix. The
// finalFuncs run after runFn completes, whether it succeeded or not, and may
// adjust the spinner before it stops.
func Run(prefix string, runFn func() error, finalFuncs ...func(s *yacspin.Spinner)) error {
	spinner := New(prefix)
	_ = spinner.Start()

	err := runFn()
	for _, final := range finalFuncs {
		final(spinner.spinner)
	}

	if err != nil {
		_ = spinner.StopFail()
		return err
	}

	_ = spinner.Stop()
	return nil
}
