// Package state holds the view state shared between background loads and the
// UI.
//
// A Store owns one view's data plus its load phase:
//
//	Idle → Loading → {Loaded, Failed}
//	Loaded/Failed → Loading   (filter change or explicit reload)
//
// Every load starts with Begin, which hands out a Ticket and a context. A
// newer Begin cancels the older context, and Resolve ignores any ticket that
// is not the newest, so a slow response can never overwrite the result of a
// later request. Abandon lets a caller drop its own load silently, for
// example when its context was cancelled.
//
// On failure Resolve keeps the previous data and records the error, so the UI
// can keep showing the last good list next to the error message.
//
// Mutate edits loaded data in place without touching the phase. It refuses
// to run before the first successful load.
//
// Snapshot returns a copy made with the clone function given to NewStore, so
// callers may modify what they receive.
package state
