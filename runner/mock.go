package runner

import (
	"context"
	"strings"
	"sync"
)

// MockResponse is a canned result for MockRunner.
type MockResponse struct {
	Stdout string
	Err    error

	// Do runs before the response is returned, for simulating side effects
	// such as files written by the command.
	Do func(call MockCall) error
}

// MockCall records a single invocation.
type MockCall struct {
	WorkDir string
	Command string
	Args    []string
}

// MockRunner is a CommandRunner for tests.
//
// Responses are matched by the full command line first, then by command name,
// then by the wildcard registered with OnAnyCommand, then DefaultResponse.
type MockRunner struct {
	mu sync.Mutex

	Responses       map[string]MockResponse
	DefaultResponse MockResponse
	Calls           []MockCall
}

// NewMockRunner creates an empty MockRunner.
func NewMockRunner() *MockRunner {
	return &MockRunner{Responses: make(map[string]MockResponse)}
}

const wildcardKey = "*"

// MockExpectation registers a response for a command.
type MockExpectation struct {
	runner *MockRunner
	key    string
}

// OnCommand starts an expectation for an exact command line.
func (m *MockRunner) OnCommand(name string, args ...string) *MockExpectation {
	return &MockExpectation{runner: m, key: commandKey(name, args)}
}

// OnAnyCommand starts an expectation matching every command.
func (m *MockRunner) OnAnyCommand() *MockExpectation {
	return &MockExpectation{runner: m, key: wildcardKey}
}

// Return sets the output and error for the expectation.
func (e *MockExpectation) Return(stdout string, err error) *MockExpectation {
	e.runner.mu.Lock()
	defer e.runner.mu.Unlock()
	resp := e.runner.Responses[e.key]
	resp.Stdout, resp.Err = stdout, err
	e.runner.Responses[e.key] = resp
	return e
}

// Do attaches a side effect to the expectation.
func (e *MockExpectation) Do(fn func(call MockCall) error) *MockExpectation {
	e.runner.mu.Lock()
	defer e.runner.mu.Unlock()
	resp := e.runner.Responses[e.key]
	resp.Do = fn
	e.runner.Responses[e.key] = resp
	return e
}

// Run implements CommandRunner.
func (m *MockRunner) Run(_ context.Context, workDir string, name string, args ...string) (string, error) {
	call := MockCall{WorkDir: workDir, Command: name, Args: args}

	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	resp, ok := m.Responses[commandKey(name, args)]
	if !ok {
		resp, ok = m.Responses[name]
	}
	if !ok {
		resp, ok = m.Responses[wildcardKey]
	}
	if !ok {
		resp = m.DefaultResponse
	}
	m.mu.Unlock()

	if resp.Do != nil {
		if err := resp.Do(call); err != nil {
			return "", err
		}
	}
	return resp.Stdout, resp.Err
}

func commandKey(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
