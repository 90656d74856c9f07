// Package memory provides in-memory storage for hello-login.
//
// MemberStore keeps members in a map keyed by a sequence-assigned id and
// remembers insertion order for listing and login-id scans.
//
// Thread Safety:
//
// All operations are safe for concurrent use. Reads take the read lock,
// Save and Clear take the write lock. Nothing is persisted; state is lost
// on restart.
package memory
