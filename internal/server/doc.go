// Package server implements the HTTP surface of the file-sharing backend.
// It wires the routes, middleware, and dependencies (metadata stores,
// content store) and enforces all per-file access checks: existence before
// ownership, owner-only share/revoke/delete, owner-or-shared reads.
package server
