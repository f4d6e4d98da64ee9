/*
Package engine drives workflow executions.

Each execution runs as one sequential loop in its own goroutine, emitting
immutable runtime snapshots over a channel in strict causal order: a
state's snapshot is always delivered before the next state is evaluated.
Multiple executions run concurrently and independently; the Registry is
the only structure shared between them.

Suspension points are the trigger poll delay, the human-gate approval
wait (an approval channel raced against a timer) and the parallel-state
join barrier. Cancellation is cooperative: it is checked at the top of
every loop iteration and honored inside all three suspension points.
*/
package engine
