// Package main provides the entry point for branchweb-cli.
//
// branchweb-cli edits the user file offline and calls the endpoints of
// a running branchweb-server:
//
//	branchweb-cli user add -p secret alice
//	branchweb-cli -s localhost:8080 login -u alice -p secret
//	branchweb-cli -o json keys KEY
package main
