// Package app wires application dependencies for the CLI.
//
// It loads Config from <home>/olm.conf, sets up the subsystem loggers, and
// builds the file store and high-level services, exposing them via the Wire
// struct for commands to use.
package app
