// Package main hosts the substweet CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the transcoder,
// publisher and persistence collaborators, and hands a caption sequence to the
// posting scheduler. Maintenance commands inspect the history ledger and the
// resume state, scaffold configuration, and check the environment.
//
// Keep this package lean: behaviour belongs in the internal packages, and the
// commands here only wire them together and render results.
package main
