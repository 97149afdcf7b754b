// Package projection converts a budget, a growth rate, and a period count
// into future or required budgets.
//
// Everything here is pure and deterministic. Values computed by this
// package are previews; only the escalation engine persists budgets.
package projection
