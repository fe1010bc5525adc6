// Package shred overwrites files with random bytes and removes them.
//
// Destroyer.Destroy runs a fixed number of passes over the full file
// length, syncing after each pass, then unlinks the file. Once the first
// pass starts the overwrite runs to completion; cancellation is honored
// only before it begins. An overwrite that fails part way leaves the file
// in place.
//
// The outcome distinguishes three results:
//
//	Overwritten && Removed   every pass completed and the file is gone
//	Overwritten && !Removed  content destroyed, directory entry remains (ErrPartialDestroy)
//	!Overwritten             a pass failed, file untouched by removal (ErrIO)
package shred
