// Package cli provides the gophauth command-line client.
//
// Every account operation is a cobra subcommand: signup, signin, refresh,
// me, reset-password, change-password, signout and ping. The token pair
// issued by signup, signin and refresh is kept in a local SQLite session
// file, so later invocations (me, change-password) are authenticated
// without prompting again. Passwords are always read from the terminal
// without echo.
package cli
