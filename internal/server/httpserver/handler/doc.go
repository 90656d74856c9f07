// Package handler provides the HTTP request handlers for hello-login.
//
// Endpoints:
//
//   - GET  /                      home: logged-in member or guest
//   - POST /members/add           register a member
//   - GET  /members, /members/{id} member lookup (login required)
//   - POST /login, /logout        session cookie lifecycle
//   - GET  /api/...               error mapping demo endpoints
//   - GET  /health, /ready        liveness and readiness
//
// Every JSON body uses the Response envelope. Errors are resolved to a
// status and code through domain.Resolve so all handlers share one table.
package handler
