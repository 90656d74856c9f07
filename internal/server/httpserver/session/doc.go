// Package session issues and resolves cookie-carried sessions.
//
// A Manager maps random tokens to arbitrary values. CreateSession stores a
// value and writes the token to the client as the mySessionId cookie;
// GetSession and Expire read the same cookie back from a request.
//
// A missing cookie, an unknown token, or a request without cookies are all
// plain misses reported through the ok result, never errors. Sessions have
// no TTL and live until Expire or process exit.
package session
