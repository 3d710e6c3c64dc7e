// Package internal contains test helpers for ldtest. They live in a separate package so that
// stacktrace filtering can be tested against a package other than ldtest itself.
package internal

// RunAction calls the action.
func RunAction(action func()) {
	action()
}
