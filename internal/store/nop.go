package store

import "time"

// NopSentCache never remembers anything, so every posting appears new.
// Used by check and preview runs, which must not touch real state.
type NopSentCache struct{}

func NewNopSentCache() *NopSentCache { return &NopSentCache{} }

func (c *NopSentCache) IsNew(identity string) bool                       { return true }
func (c *NopSentCache) Record(identities []string, sentAt time.Time)     {}
func (c *NopSentCache) Prune(olderThan time.Duration, now time.Time) int { return 0 }
func (c *NopSentCache) Save() error                                      { return nil }
