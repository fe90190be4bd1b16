// Package reax is a reactive primitives library: a dispatch core
// (Reactor/Connection) plus four observable entities — Signal, Value,
// Future/Promise, and the reactive collections (RList, RMap, RSet) —
// on which client code registers listeners that react to changes.
//
// reax does not prescribe threading, I/O, or UI concerns. It is driven
// synchronously by an external caller: every listener invocation runs
// on the stack of the Emit/Update/Complete/mutation call that
// triggered it. See the package-level docs on Reactor (in the internal
// dispatch core) for the re-entrancy guarantees that make it safe for
// listeners to add, remove, or trigger further notifications of their
// own reactor while a dispatch frame is in flight.
package reax
