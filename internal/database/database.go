package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileDatabase keeps application state in a single JSON file. Every write
// replaces the file atomically through a temporary file and a rename.
type FileDatabase struct {
	mu      sync.RWMutex
	path    string
	entries map[string]string
}

// OpenFile opens or creates a file database
func OpenFile(path string) (*FileDatabase, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db := &FileDatabase{
		path:    path,
		entries: make(map[string]string),
	}

	if err := db.load(); err != nil {
		return nil, fmt.Errorf("failed to load database: %w", err)
	}

	return db, nil
}

// Close flushes nothing; every write is already on disk.
func (db *FileDatabase) Close() error {
	return nil
}

// Put stores value under key
func (db *FileDatabase) Put(key, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	prev, existed := db.entries[key]
	db.entries[key] = value

	if err := db.save(); err != nil {
		if existed {
			db.entries[key] = prev
		} else {
			delete(db.entries, key)
		}
		return err
	}
	return nil
}

// Get returns the value stored under key or ErrNotFound
func (db *FileDatabase) Get(key string) (string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	value, ok := db.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Delete removes key
func (db *FileDatabase) Delete(key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	prev, ok := db.entries[key]
	if !ok {
		return nil
	}
	delete(db.entries, key)

	if err := db.save(); err != nil {
		db.entries[key] = prev
		return err
	}
	return nil
}

func (db *FileDatabase) load() error {
	data, err := os.ReadFile(db.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, &db.entries)
}

// save writes the entire database to disk
func (db *FileDatabase) save() error {
	data, err := json.MarshalIndent(db.entries, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := db.path + ".tmp"
	tmpFile, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}

	// Sync to disk before the rename makes it visible
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, db.path)
}
