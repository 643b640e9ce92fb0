// Package arrayio reads and writes the numeric payload of array data sources.
//
// Only the plain text format is supported: values are whitespace separated
// tokens in row-major order. A TextWriter appends whole rows of the outermost
// axis; a TextReader consumes them in the same order. Both keep a cursor on
// axis 0 and accept a slab only when it starts exactly at the cursor and
// covers every inner axis in full.
//
// The backing stream is chosen from the resource location: a file on an
// afero.Fs, or the in-memory buffer of an inline resource. Streams are opened
// when the writer or reader is created and released by Close.
package arrayio
