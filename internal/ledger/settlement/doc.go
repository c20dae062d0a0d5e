// Package settlement completes two-phase transfers.
//
// A transfer debits the sender at creation and stays PENDING. The Sweeper
// periodically finds PENDING transfers older than a threshold and, for each
// one, flips the status to SETTLED and credits the receiver in a single
// atomic unit guarded by the status predicate, so concurrent sweeps never
// credit a transfer twice.
package settlement
