// Package storage persists tables as CSV files, one per source.
//
// Architecture:
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│  Collector  │────▶│    Store    │────▶│ <table>.csv │
//	│   (runs)    │     │  (append)   │     │  (data dir) │
//	└─────────────┘     └─────────────┘     └─────────────┘
//	                                               │
//	                         ┌─────────────────────┼─────────────────────┐
//	                         ▼                     ▼                     ▼
//	                  ┌─────────────┐       ┌─────────────┐       ┌─────────────┐
//	                  │    query    │       │  aggregate  │       │   parquet   │
//	                  │  (DuckDB)   │       │ (DDSketch)  │       │  (export)   │
//	                  └─────────────┘       └─────────────┘       └─────────────┘
//
// Append is a read-merge-write cycle: the existing file is read fully, the
// new records are appended after its rows with columns aligned by name,
// and the merged table replaces the file atomically. A missing file and
// an empty file both read as an empty table.
//
// The store assumes a single writer per data directory. Nothing locks the
// files; overlapping runs against the same directory can lose rows.
package storage
