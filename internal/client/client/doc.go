// Package client contains the client-side building blocks of the gophauth
// CLI.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) for the
//     gophauth account API: SignUp, SignIn, Refresh, GetSession,
//     ResetPassword, ChangePassword and Ping.
//  2. A gRPC implementation (see GRPCClient) that holds the current token
//     pair, attaches the access token to protected calls through an
//     interceptor, transparently refreshes the pair once when a protected
//     call is rejected, and maps gRPC status codes to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database with embedded goose migrations.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrUnavailable, ErrUnauthorized, ErrNoSession. Other
// server rejections surface as *RemoteError.
package client
