// Package publisher posts GIF clips to a Twitter-compatible v1.1 REST API.
//
// Client signs every request with OAuth 1.0a, uploads the GIF as a media
// attachment, then creates a status that references it, optionally as a reply
// to an earlier post. API failures decode into *APIError.
//
// When the caller does not pace posts itself, the client does: it spaces status
// updates with a token-bucket limiter and, when the server reports an exhausted
// rate window, sleeps until the advertised reset before trying again.
package publisher
