package sandbox

import "errors"

var (
	// ErrNavigation covers timeouts, DNS failures and refused connections
	ErrNavigation = errors.New("navigation failed")
	// ErrInteraction is recorded as a debug note only
	ErrInteraction = errors.New("interaction failed")
	// ErrScreenshot leaves screenshot_path unset
	ErrScreenshot = errors.New("screenshot failed")
	// ErrSession means the browser or its context could not be started
	ErrSession = errors.New("session failed")
)
