package internal

import (
	"database/sql"
)

// KVStore is durable key/value storage for client state
type KVStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Storage is the sqlite-backed KVStore
type Storage struct {
	db *sql.DB
}

// NewStorage creates a new Storage instance
func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Get reads a value; a missing key is not an error
func (s *Storage) Get(key string) (string, bool, error) {
	value, ok, err := GetValue(s.db, key)
	if err != nil {
		return "", false, &PersistenceError{Op: "read", Key: key, Err: err}
	}
	return value, ok, nil
}

// Set writes a value
func (s *Storage) Set(key, value string) error {
	if err := SetValue(s.db, key, value); err != nil {
		return &PersistenceError{Op: "write", Key: key, Err: err}
	}
	return nil
}

// Keys lists stored keys with their value sizes
func (s *Storage) Keys() (map[string]int, error) {
	pairs, err := QueryKV(s.db, "%")
	if err != nil {
		return nil, &PersistenceError{Op: "read", Key: "*", Err: err}
	}
	sizes := make(map[string]int, len(pairs))
	for _, pair := range pairs {
		sizes[pair.Key] = len(pair.Value)
	}
	return sizes, nil
}
