package store

import "time"

// NopStore is used for one-off checks. It never records anything, so every
// posting looks new and no watch is ever treated as a first run.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) HasSeen(watch, key string) (bool, error)  { return false, nil }
func (s *NopStore) MarkSeen(watch, key string) error         { return nil }
func (s *NopStore) Cleanup(olderThan time.Duration) error    { return nil }
func (s *NopStore) IsEmpty(watch string) (bool, error)       { return false, nil }
