// Package command provides the branchweb-cli command tree.
//
// The user commands edit the user file directly and need no running
// server. Every other command calls a server endpoint through
// connection.HTTPClient and prints the payload in the selected format.
package command
