// Package scheduler drives the posting loop.
//
// A run walks the caption sequence in order. When the state file holds a
// resume point, captions before it are discarded without rendering. Each
// remaining caption is rendered to a GIF and published once; publish failures
// are reported and counted but do not stop the run, while a render failure
// aborts it. A post budget ends the run early, and a fixed delay, when set,
// spaces consecutive posts. Otherwise pacing is left to the publisher.
//
// On completion the id of the last caption the loop reached and the thread
// parent are written back to the state file. Aborted or cancelled runs leave
// the previous state untouched.
package scheduler
