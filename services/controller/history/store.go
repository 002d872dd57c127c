// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history persists one immutable record per finished test session.
//
// # Description
//
// Records live in an embedded BadgerDB under a fixed key prefix, JSON
// encoded. Appends happen at session finalization only and sessions are
// serialized by the controller's slot invariant, so concurrent appends
// cannot occur; reads and operator deletes may happen at any time.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/GameProbe/services/controller/datatypes"
)

// ErrNotFound indicates no history record exists for the requested ID.
var ErrNotFound = errors.New("history record not found")

const keyPrefix = "history:"

// Store is the BadgerDB-backed session archive.
//
// # Thread Safety
//
// Safe for concurrent use; BadgerDB transactions provide isolation.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// NewStore creates a store on an open database. The caller retains
// ownership of db.
func NewStore(db *badger.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     db,
		logger: logger.With(slog.String("component", "history_store")),
	}
}

func recordKey(id string) []byte {
	return []byte(keyPrefix + id)
}

// Append archives one finished session. The record must carry a unique ID.
func (s *Store) Append(rec datatypes.HistoryRecord) error {
	if rec.ID == "" {
		return errors.New("history record missing id")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.ID), payload)
	})
	if err != nil {
		return fmt.Errorf("append history record %s: %w", rec.ID, err)
	}
	s.logger.Info("archived session",
		"id", rec.ID, "genre", rec.Genre, "status", rec.Status)
	return nil
}

// Get returns the record with the given ID, or ErrNotFound.
func (s *Store) Get(id string) (datatypes.HistoryRecord, error) {
	var rec datatypes.HistoryRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	return rec, err
}

func (s *Store) scan(visit func(rec datatypes.HistoryRecord)) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec datatypes.HistoryRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					// A corrupt entry should not take down listing.
					s.logger.Warn("skipping unreadable history record",
						"key", string(it.Item().Key()), "error", err)
					return nil
				}
				visit(rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func matches(rec datatypes.HistoryRecord, f datatypes.HistoryFilter) bool {
	if f.Genre != "" && !strings.EqualFold(rec.Genre, f.Genre) {
		return false
	}
	if f.Algorithm != "" && !strings.EqualFold(rec.Algorithm, f.Algorithm) {
		return false
	}
	if f.Status != "" && !strings.EqualFold(string(rec.Status), f.Status) {
		return false
	}
	return true
}

// List returns filtered records, most recent first, plus the total count of
// matching records before the limit was applied.
func (s *Store) List(f datatypes.HistoryFilter) ([]datatypes.HistoryRecord, int, error) {
	var out []datatypes.HistoryRecord
	err := s.scan(func(rec datatypes.HistoryRecord) {
		if matches(rec, f) {
			out = append(out, rec)
		}
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	total := len(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

// Delete removes one record. Returns ErrNotFound when absent.
func (s *Store) Delete(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(recordKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return txn.Delete(recordKey(id))
	})
	if err == nil {
		s.logger.Info("deleted history record", "id", id)
	}
	return err
}

// Clear removes every record and returns how many were deleted.
func (s *Store) Clear() (int, error) {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("collect history keys: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	s.logger.Info("cleared history", "deleted", len(keys))
	return len(keys), nil
}

// Statistics aggregates the whole archive.
func (s *Store) Statistics() (datatypes.HistoryStatistics, error) {
	stats := datatypes.HistoryStatistics{
		ByGenre:     make(map[string]int),
		ByAlgorithm: make(map[string]int),
		ByStatus:    make(map[string]int),
	}
	var coverageSum, crashSum int
	err := s.scan(func(rec datatypes.HistoryRecord) {
		stats.Total++
		stats.ByGenre[rec.Genre]++
		stats.ByAlgorithm[rec.Algorithm]++
		stats.ByStatus[string(rec.Status)]++
		coverageSum += rec.Metrics.Coverage
		crashSum += rec.Metrics.Crashes
	})
	if err != nil {
		return stats, fmt.Errorf("aggregate history: %w", err)
	}
	if stats.Total > 0 {
		stats.AverageCoverage = float64(coverageSum) / float64(stats.Total)
		stats.AverageCrashes = float64(crashSum) / float64(stats.Total)
	}
	stats.TotalCrashes = crashSum
	return stats, nil
}
