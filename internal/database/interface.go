package database

import "errors"

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("database: key not found")

// DB is the durable key/value store the client keeps its local state in.
// Both SQLiteDatabase and FileDatabase implement it.
type DB interface {
	Put(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
	Close() error
}
