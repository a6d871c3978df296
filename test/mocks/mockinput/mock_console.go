// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package mockinput

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/kubelens/kubelens/pkg/input"
)

// A predicate function definition for registering expressions
type WhenPredicate func(options input.ConsoleOptions) bool

// An action definition for providing responses or errors for an interaction
type RespondFn func(options input.ConsoleOptions) (any, error)

// A mock implementation of the input.Console interface
type MockConsole struct {
	expressions []*MockConsoleExpression
	log         []string
}

func NewMockConsole() *MockConsole {
	return &MockConsole{
		expressions: []*MockConsoleExpression{},
	}
}

// Output returns every message written to the console, in order.
func (c *MockConsole) Output() []string {
	return c.log
}

func (c *MockConsole) Handles() input.ConsoleHandles {
	return input.ConsoleHandles{
		Stdout: io.Discard,
		Stderr: io.Discard,
		Stdin:  bytes.NewBufferString(""),
	}
}

// Prints a message to the console
func (c *MockConsole) Message(ctx context.Context, message string) {
	c.log = append(c.log, message)
}

// Writes a single answer prompt to the console for the user to complete
func (c *MockConsole) Prompt(ctx context.Context, options input.ConsoleOptions) (string, error) {
	c.log = append(c.log, options.Message)
	value, err := c.respond("Prompt", options)
	return value.(string), err
}

// Writes a multiple choice selection to the console for the user to choose
func (c *MockConsole) Select(ctx context.Context, options input.ConsoleOptions) (int, error) {
	c.log = append(c.log, options.Message)
	value, err := c.respond("Select", options)
	return value.(int), err
}

// Prints a confirmation message to the console for the user to confirm
func (c *MockConsole) Confirm(ctx context.Context, options input.ConsoleOptions) (bool, error) {
	c.log = append(c.log, options.Message)
	value, err := c.respond("Confirm", options)
	return value.(bool), err
}

// Finds a matching mock expression and returns the configured value
func (c *MockConsole) respond(command string, options input.ConsoleOptions) (any, error) {
	var match *MockConsoleExpression

	for _, expr := range c.expressions {
		if command == expr.command && expr.predicateFn(options) {
			match = expr
			break
		}
	}

	if match == nil {
		panic(fmt.Sprintf("No mock found for command: '%s' with options: '%+v'", command, options))
	}

	return match.respond(options)
}

// Registers a prompt expression for mocking in unit tests
func (c *MockConsole) WhenPrompt(predicate WhenPredicate) *MockConsoleExpression {
	expr := MockConsoleExpression{
		command:     "Prompt",
		console:     c,
		predicateFn: predicate,
	}

	c.expressions = append(c.expressions, &expr)
	return &expr
}

// Registers a multiple choice selection expression for mocking in unit tests
func (c *MockConsole) WhenSelect(predicate WhenPredicate) *MockConsoleExpression {
	expr := MockConsoleExpression{
		command:     "Select",
		console:     c,
		predicateFn: predicate,
	}

	c.expressions = append(c.expressions, &expr)
	return &expr
}

// Registers a confirmation expression for mocking in unit tests
func (c *MockConsole) WhenConfirm(predicate WhenPredicate) *MockConsoleExpression {
	expr := MockConsoleExpression{
		command:     "Confirm",
		console:     c,
		predicateFn: predicate,
	}

	c.expressions = append(c.expressions, &expr)
	return &expr
}

// MockConsoleExpression is an expression with options response or error
type MockConsoleExpression struct {
	command     string
	respond     RespondFn
	console     *MockConsole
	predicateFn WhenPredicate
}

// Sets the response that will be returned for the current expression
func (e *MockConsoleExpression) Respond(value any) *MockConsole {
	e.respond = func(_ input.ConsoleOptions) (any, error) { return value, nil }
	return e.console
}

// Sets the error that will be returned for the current expression
func (e *MockConsoleExpression) SetError(err error) *MockConsole {
	e.respond = func(_ input.ConsoleOptions) (any, error) { return nil, err }
	return e.console
}

// Sets the function that will be used to provide the response or error
// for the current expression
func (e *MockConsoleExpression) RespondFn(respond RespondFn) *MockConsole {
	e.respond = respond
	return e.console
}
