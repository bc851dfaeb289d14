// Package server runs the temporary localhost HTTP server that completes
// OAuth2 authorization code flows for the CLI.
//
// When the user runs an auth command, [Authorize] starts a server on the
// redirect address, prints the authorization URL, waits for the provider to
// redirect back with a code, exchanges it for a token, and shuts the server
// down. The callback validates the state parameter and is processed at most
// once.
package server
