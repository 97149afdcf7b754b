// Package campaign implements the budget escalation engine.
//
// The service layer owns every rule about how a campaign's budget evolves
// across periods: creation and target projection, uniform and custom-split
// advances, rollback, bulk runs, the strategy-adjustment ledger, lifecycle
// transitions, and display ordering. It depends on the Repository interface
// defined in this package and should never import from api/.
//
// Repository implementations live in repository/postgres/ and repository/memory/.
//
// Rollback, bulk rollback, and permanent delete are destructive and require
// prior confirmation by the caller; the engine does not prompt.
package campaign
