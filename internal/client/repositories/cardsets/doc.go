// Package cardsets provides the client-side persistence layer for card sets.
//
// # Overview
//
// The package defines a Repository interface for CRUD and query operations on
// CardSet models (see internal/client/models). A SQLite-backed implementation
// (SQLiteRepository) persists data using a dbx.DBTX (either *sql.DB or *sql.Tx).
//
// # Data Model
//
// A card set is stored as one card_sets row, its cards as ordered rows in
// cards and its tags as ordered rows in card_set_tags. Timestamps are unix
// milliseconds. Writes touch several tables, so callers run Insert, Update
// and Delete inside dbx.WithTx.
//
// Key Types
//
//   - type Repository        — interface used by higher-level services
//   - type SQLiteRepository  — SQLite implementation over dbx.DBTX
//
// Typical Usage
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    return cardsets.NewSQLiteRepository(tx).Insert(ctx, set)
//	})
//	all, _ := cardsets.NewSQLiteRepository(db).GetAll(ctx)
package cardsets
