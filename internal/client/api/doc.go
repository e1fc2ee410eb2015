// Package api is the sole entry point for server calls.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Gateway interface) for the
//     endpoints the client consumes: guest creation, login, conversion,
//     profile fetch and the children ownership list.
//  2. A concrete REST implementation (see HTTPClient) that attaches the
//     bearer access token and the device id, asks the session coordinator
//     for a fresh pair on 401, and retries the original request exactly
//     once. A second 401 is terminal and clears the stored credentials.
//  3. NewRefreshFunc, the wire half of the token-rotation protocol, kept
//     as a standalone function so the session package stays free of
//     transport concerns.
//
// # Error Handling
//
// Authentication failures surface as common.ErrorUnauthorized and
// unreachable servers as common.ErrorUnavailable, both matchable with
// errors.Is. Any other non-2xx response becomes a *StatusError carrying
// the HTTP status and raw body; it is never retried automatically.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation/timeouts, except the shared
// refresh, which always runs to completion (see the session package).
package api
