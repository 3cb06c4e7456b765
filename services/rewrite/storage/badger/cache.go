// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key derives the content address for one source file under one rule
// set. Any change to the source bytes or to the rule fingerprint yields
// a different key, so stale outputs are never served; they simply stop
// being addressed and age out.
func Key(source []byte, fingerprint string) string {
	h := sha256.New()
	h.Write(source)
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

// CacheConfig configures a Cache namespace on a shared store.
type CacheConfig struct {
	// Namespace isolates this cache's keys from other users of the
	// store. Defaults to "rewrite".
	Namespace string

	// TTL bounds entry lifetime. 0 keeps entries until overwritten or
	// deleted.
	TTL time.Duration
}

// Cache stores rewrite outputs keyed by content address.
//
// Thread Safety: Safe for concurrent use; the underlying store handles
// transaction isolation and the counters are atomic.
type Cache struct {
	db     *DB
	prefix []byte
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a cache namespace over an open store.
func NewCache(db *DB, cfg CacheConfig) *Cache {
	ns := cfg.Namespace
	if ns == "" {
		ns = "rewrite"
	}
	return &Cache{
		db:     db,
		prefix: []byte(ns + "/"),
		ttl:    cfg.TTL,
	}
}

func (c *Cache) storeKey(key string) []byte {
	k := make([]byte, 0, len(c.prefix)+len(key))
	k = append(k, c.prefix...)
	return append(k, key...)
}

// Get returns the cached output for key. ok is false on a miss; a miss
// is not an error.
func (c *Cache) Get(ctx context.Context, key string) (output []byte, ok bool, err error) {
	err = c.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(c.storeKey(key))
		if err != nil {
			return err
		}
		output, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		c.misses.Add(1)
		recordCacheLookup(ctx, false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	c.hits.Add(1)
	recordCacheLookup(ctx, true)
	return output, true, nil
}

// Put stores output under key, applying the configured TTL.
func (c *Cache) Put(ctx context.Context, key string, output []byte) error {
	err := c.db.WithTxn(ctx, func(txn *badger.Txn) error {
		entry := badger.NewEntry(c.storeKey(key), output)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	recordCachePut(ctx, len(output))
	return nil
}

// Delete removes key from the cache. Deleting an absent key is not an
// error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Delete(c.storeKey(key))
	})
	if err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Stats returns hit and miss counts since the cache was created.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
