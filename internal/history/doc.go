// Package history keeps a SQLite ledger of every publish attempt.
//
// Each posting run gets a UUID; every caption the scheduler attempts is
// recorded with its window, outcome, and post URL or error. The ledger is
// informational: the resume point lives in the state file, not here.
package history
