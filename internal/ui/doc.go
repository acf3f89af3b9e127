// Package ui provides the terminal user interface for bundlectl.
//
// The UI is a Bubble Tea program. All client state (bundle list, generation
// log, form, generation cycle) lives in a console.Console; the Model forwards
// every message to the console first and then re-syncs its widgets from it,
// so the same behavior is available to the headless commands.
//
// # Views
//
//   - Bundles: table of generated bundles, newest first, with the live
//     generation log underneath. Delete asks for confirmation; download saves
//     to the configured directory.
//   - Generate: the generation form (platform, library matching, image file
//     or URL, registry credentials, app metadata) above the same log panel.
//     An image file is picked with the file browser; while one is selected
//     the URL field is skipped.
//   - Client log: tail of bundlectl's own log file.
//
// Generation results are shown in a modal that stays until dismissed.
//
// # Key Bindings
//
//   - n/b/l: Generate, bundles, client log
//   - tab: Cycle views (next field on the form)
//   - r/d/s: Refresh, delete, download
//   - f: Pause or follow the generation log
//   - ctrl+s: Generate
//   - T: Cycle theme
//   - h/?: Help
//   - e or ctrl+c: Exit
package ui
