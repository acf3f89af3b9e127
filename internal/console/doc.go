// Package console is the client-side controller for a BundleGen server.
//
// A Console owns the bundle list, the live generation log, the generation
// form and the generate/delete cycles. Every operation returns a tea.Cmd that
// performs the request off the event loop; the result comes back as a message
// to Update, which is the only place those results change state. The same
// Console runs inside the Bubble Tea UI or under a headless Loop for CLI
// commands.
//
// Generation is single-flight: Submit is a no-op while a request is in
// flight. The log buffer is cleared when a cycle starts and only grows until
// the next one. Refresh results are fenced so that a slow, older response
// never replaces a newer list.
package console
