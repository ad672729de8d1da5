// Package todo provides type-safe Go definitions for the Scribe todo store.
//
// # Overview
//
// Scribe keeps independent, named todo lists for many isolated tenants
// ("guilds" - one chat server/community each). The types in this package are
// the shared vocabulary between the in-memory store, both storage backends
// and the CLI: a List owns an ordered slice of Items, and a Snapshot maps
// guild IDs to their lists.
//
// # Core Concepts
//
// Lists are created by a user, named uniquely within their guild
// (case-insensitive), and may only be deleted by their creator.
//
// Items are checkable entries inside a list. An item is addressed by its
// 1-based position in the list, which is always dense: removing an item
// shifts every later item down by one. Positions are therefore never stored
// on the item itself - they are an index into the parent slice.
//
// Snapshots are the unit of persistence. Backends load and save whole
// snapshots; partial writes are never observable.
//
// # Design Principles
//
// - Type Safety: all data structures have validation methods
// - Isolation: guild IDs partition all data, no cross-guild references exist
// - Simplicity: minimal dependencies (only google/uuid for identifiers)
package todo
