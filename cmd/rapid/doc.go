// Package main hosts the rapid CLI entrypoint and command graph.
//
// The Cobra-based command tree covers one-shot batch uploads, queue
// inspection and maintenance, the local photo record cache, and
// configuration scaffolding. Keep this package lean: add new functionality
// by extending the internal packages first, then surface it through
// dedicated commands or flags here.
package main
