// Package models defines the core domain models for splitledger.
//
// # Groups and participants
//
// A Group owns its participants. Expenses reference participants by ID and never
// own them.
//
// # Expenses as version chains
//
// One logical expense is a chain of physical rows. Creating an expense inserts a
// CURRENT row with no predecessor. Every update appends a new CURRENT row whose
// PrevVersionID points at the row it supersedes, and flips that row to MODIFIED.
// A delete appends a terminal DELETED row carrying the prior content. Rows are
// never removed, so the full history of an expense can always be rebuilt.
//
// # Design Principles
//
//  1. **Integers only**: amounts are minor units, percentages are basis points
//  2. **Avoid circular references**: rows point backwards with an ID string; the
//     forward link and the resolved PrevVersion/NextVersion pointers are derived
//     by the ledger when a history view is requested
//  3. **Order matters**: PaidFor keeps insertion order because the last entry
//     absorbs the rounding remainder of a split
package models
