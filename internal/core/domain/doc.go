// Package domain defines the core domain models for hello-login.
//
// Domain models are plain values without IO or HTTP coupling:
//
//   - Member: registered user record with a store-assigned id
//   - Errors: coded application errors and their HTTP status table
//
// Stores and handlers in other packages speak in these types.
package domain
