/*
Package ports defines the narrow interfaces between the Espalier core and
its collaborators (checkpoint storage, agent executors, trigger
evaluators).

The engine depends only on these contracts; adapters under
internal/adapters provide the implementations.
*/
package ports
