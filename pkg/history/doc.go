/*
Package history provides the recall buffer behind a line source and the guard
that keeps it consistent with suppressed input.

Buffer implements golang.org/x/term's History interface, so it can be plugged
into term.Terminal directly. In that interface index 0 is the most recent
entry; accordingly Guard.Restore removes the newest entries, the ones typed
after the guard was locked.
*/
package history
