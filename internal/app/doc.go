// Package app contains the core application logic of the fieldgo command. It
// defines the App struct, its configuration, and the inspection lifecycle:
// documents are loaded, resolved into a session, and reported as a summary
// or re-serialised. It is decoupled from any specific entrypoint like a CLI.
package app
