// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/zgs-harness/blob/master/LICENSE

package harness

import "fmt"

// ConfigError reports invalid or contradictory node configuration, detected
// at construction rather than at first use.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Reason
}

func configErrf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// NodeStartupError reports a node process that failed to launch or never
// became ready within its timeout. LogPath points at the captured process
// output when there is any.
type NodeStartupError struct {
	Node    string
	LogPath string
	Err     error
}

func (e *NodeStartupError) Error() string {
	if e.LogPath != "" {
		return fmt.Sprintf("%s failed to start (log at %s): %v", e.Node, e.LogPath, e.Err)
	}
	return fmt.Sprintf("%s failed to start: %v", e.Node, e.Err)
}

func (e *NodeStartupError) Unwrap() error {
	return e.Err
}

// NodeShutdownError reports a stop command that itself failed. Cleanup of
// already-missing paths is not an error.
type NodeShutdownError struct {
	Node string
	Err  error
}

func (e *NodeShutdownError) Error() string {
	return fmt.Sprintf("%s failed to stop: %v", e.Node, e.Err)
}

func (e *NodeShutdownError) Unwrap() error {
	return e.Err
}
