// Package ledger persists render history in SQLite: one row per run, keyed
// by the derived output id and the effective inputs digest, so repeated
// renders of the same inputs can be compared after the fact.
package ledger
