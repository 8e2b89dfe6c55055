// Package poststate persists posting progress between runs.
//
// The state file holds the resume point (the caption id the last run reached)
// and, in thread mode, the id of the most recent post. It is read once at
// startup and rewritten atomically when a run completes. A missing, empty, or
// unparsable file means "start from the beginning"; it is never fatal.
//
// A sibling .lock file guards the state against two concurrent runs.
package poststate
