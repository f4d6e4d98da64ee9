/*
Package domain contains the core data model for Espalier workflows.

It is intentionally free of behavior beyond structural queries and
copy-on-write state transitions: parsing lives in internal/loader,
validation in internal/validator, and execution in internal/engine.
Keeping the model pure makes it safe to serialize into checkpoints and
to share across adapters.
*/
package domain
