// Package clip renders a caption window of a video into a size-capped GIF.
//
// Each Generate call runs ffmpeg three times: it slices the subtitle track to
// the window, builds a palette tuned to that segment, then renders the GIF
// with the subtitles burned in. ffmpeg's -fs cap truncates the output rather
// than failing, so long windows come back shorter instead of not at all.
// Intermediate files live only for the duration of the call.
package clip
