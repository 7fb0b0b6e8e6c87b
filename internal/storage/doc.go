package storage

// Package storage provides a minimal persistence layer for mining data.
//
// It currently supports:
//   - Material sighting appends (one row per reading)
//   - Session summary snapshots (to survive restarts)
