package main

import (
	"os"
	"sync"
	"time"
)

// cacheEntry stores one file's extracted tasks with the modification time
// they were extracted at.
type cacheEntry struct {
	modTime time.Time
	tasks   []*Task
}

// TaskCache caches extracted tasks per file, validated against file
// modification times. It keeps watcher-driven refreshes from re-reading
// the whole vault.
type TaskCache struct {
	mu    sync.RWMutex
	files map[string]*cacheEntry
}

// NewTaskCache creates an empty task cache.
func NewTaskCache() *TaskCache {
	return &TaskCache{files: make(map[string]*cacheEntry)}
}

// Get returns cached tasks if the file hasn't been modified since caching.
func (c *TaskCache) Get(path string) ([]*Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.files[path]
	if !exists {
		return nil, false
	}

	info, err := os.Stat(path)
	if err != nil || info.ModTime().After(entry.modTime) {
		return nil, false
	}

	return entry.tasks, true
}

// Set stores tasks for a file at its current modification time.
func (c *TaskCache) Set(path string, tasks []*Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		return
	}

	c.files[path] = &cacheEntry{modTime: info.ModTime(), tasks: tasks}
}

// Invalidate removes a file from the cache.
func (c *TaskCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, path)
}

// Len returns the number of cached files.
func (c *TaskCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}
