// Package service provides the application services behind the HTTP API.
//
// Services hold the business rules and talk to storage through small
// interfaces so handlers and tests can inject any implementation:
//
//   - MemberService: registration and member lookup
//   - LoginService: credential check against the member store
//
// Services are stateless apart from their dependencies and safe for
// concurrent use.
package service
