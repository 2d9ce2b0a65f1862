// Package vm implements the core of the Wren virtual machine.
//
// This package contains:
//   - Tagged value representation and heap object kinds
//   - Built-in classes and their native methods
//   - Fibers and the call/run/try/yield control protocol
//   - The bootstrap sequence and the core prelude
//   - The bytecode interpreter
//   - VM image snapshots
//
// A VM is single-threaded and cooperative: exactly one fiber executes at a
// time, and control moves between fibers only through the explicit fiber
// protocol. Callers that share a VM across goroutines must serialize access
// themselves (see the server package's worker).
package vm
