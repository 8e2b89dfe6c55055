// Package captions parses SubRip (SRT) subtitle text into caption records.
//
// Parse walks the input once and yields records lazily in source order. Lines
// that are not an integer sequence number are tolerated as noise while the
// parser is looking for the next block; a block whose timing line lacks the
// " --> " separator ends the parse with ErrMalformedTiming. Blocks without any
// text are dropped. Timestamps are only split and normalized (comma to dot),
// never validated; the transcoder is where a bad timestamp surfaces.
package captions
