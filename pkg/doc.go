// Package pkg provides the core libraries of cargounify, the cargo workspace
// feature unifier.
//
// # Overview
//
// cargounify computes, for every workspace member, the minimal set of
// synthetic dependency additions such that building the member in isolation
// produces the same resolved feature set for every transitive dependency as
// building the full workspace. It edits each member's manifest to add those
// synthetic dependencies, stashing the originals so they can be restored.
//
// # Architecture
//
// The typical data flow:
//
//	cargo metadata JSON
//	         ↓
//	 [metadata] package (stable package indices, workspace membership)
//	         ↓
//	 [featgraph] package (node/edge graph, Collector traversal)
//	         ↓
//	 [changeset] package (per-member diff algorithm)
//	         ↓
//	 [classify] package (origin classification, relative paths)
//	         ↓
//	 [manifest] package (stash, edit, checksum, restore)
//
// # Main packages
//
// [metadata] decodes a `cargo metadata --format-version 1` snapshot into
// PIDs, workspace membership, and per-package feature/dependency maps.
//
// [featgraph] builds the feature dependency graph, a directed graph whose
// nodes are (package, feature) pairs rather than bare packages, plus the
// Collector that computes reachable feature sets under a given collection
// mode.
//
// [changeset] computes each workspace member's feature-unification diff by
// comparing a workspace-wide Collector run against a per-member one.
//
// [classify] reduces a dependency edge to a (name, version, origin) triple
// and prunes redundant requested features.
//
// [manifest] reads, edits, stashes, checksums, and restores Cargo.toml files.
//
// [target] parses `cfg(...)` predicates and target triples, used to decide
// whether a dependency edge is active under the build's current target.
package pkg
