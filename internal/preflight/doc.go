// Package preflight provides readiness checks for the transcoder, the
// filesystem paths substweet writes to, and the optional ntfy topic.
//
// The post command runs RunAll before touching the publisher so a missing
// scratch directory or an ffmpeg build without libass fails in seconds rather
// than after the first caption. The doctor command renders the same results,
// plus binary availability from CheckSystemDeps, as a table.
package preflight
