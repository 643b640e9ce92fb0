// Package config defines the format-agnostic document model the resolver
// consumes, along with the Loader interface that produces it.
//
// A Document is only a markup tree plus where it came from. Concrete
// loaders for XML and HCL files, and for the built-in library, live in the
// loader package.
package config
