package input

import (
	"context"
	"fmt"
	"io"

	"github.com/AlecAivazis/survey/v2"
)

// Console is the host's interactive surface. All user-facing text flows
// through here so commands stay testable.
type Console interface {
	Message(ctx context.Context, message string)
	Prompt(ctx context.Context, options ConsoleOptions) (string, error)
	Select(ctx context.Context, options ConsoleOptions) (int, error)
	Confirm(ctx context.Context, options ConsoleOptions) (bool, error)
	// Handles returns the underlying streams the console writes to and
	// reads from.
	Handles() ConsoleHandles
}

type ConsoleOptions struct {
	Message      string
	Options      []string
	DefaultValue any

	// IsPassword masks the input when prompting.
	IsPassword bool
}

type ConsoleHandles struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// AskerConsole is a Console implementation backed by an Asker.
type AskerConsole struct {
	asker   Asker
	handles ConsoleHandles
}

// NewConsole creates a Console bound to the given handles.
func NewConsole(noPrompt bool, isTerminal bool, handles ConsoleHandles) Console {
	return &AskerConsole{
		asker:   NewAsker(noPrompt, isTerminal, handles.Stdout, handles.Stdin),
		handles: handles,
	}
}

func (c *AskerConsole) Handles() ConsoleHandles {
	return c.handles
}

func (c *AskerConsole) Message(ctx context.Context, message string) {
	fmt.Fprintln(c.handles.Stdout, message)
}

func (c *AskerConsole) Prompt(ctx context.Context, options ConsoleOptions) (string, error) {
	var response string

	if options.IsPassword {
		prompt := &survey.Password{
			Message: options.Message,
		}

		if err := c.asker(prompt, &response); err != nil {
			return "", err
		}

		return response, nil
	}

	var defaultValue string
	if value, ok := options.DefaultValue.(string); ok {
		defaultValue = value
	}

	prompt := &survey.Input{
		Message: options.Message,
		Default: defaultValue,
	}

	if err := c.asker(prompt, &response); err != nil {
		return "", err
	}

	return response, nil
}

func (c *AskerConsole) Select(ctx context.Context, options ConsoleOptions) (int, error) {
	prompt := &survey.Select{
		Message: options.Message,
		Options: options.Options,
		Default: options.DefaultValue,
	}

	var response int

	if err := c.asker(prompt, &response); err != nil {
		return -1, err
	}

	return response, nil
}

func (c *AskerConsole) Confirm(ctx context.Context, options ConsoleOptions) (bool, error) {
	var defaultValue bool
	if value, ok := options.DefaultValue.(bool); ok {
		defaultValue = value
	}

	prompt := &survey.Confirm{
		Message: options.Message,
		Default: defaultValue,
	}

	var response bool

	if err := c.asker(prompt, &response); err != nil {
		return false, err
	}

	return response, nil
}
