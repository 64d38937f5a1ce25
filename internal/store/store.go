package store

import "database/sql"

// Store holds all sub-stores used by the application.
type Store struct {
	DB         *sql.DB
	Registry   *Registry
	Repository Repository
}

// New creates a Store serving the entities of registry.
func New(db *sql.DB, registry *Registry, opts ...RepositoryOption) *Store {
	return &Store{
		DB:         db,
		Registry:   registry,
		Repository: NewSQLiteRepository(db, registry, opts...),
	}
}
