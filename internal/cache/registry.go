package cache

import (
	"context"
	"time"

	"kharcha/internal/ports"
)

// KnownUsers remembers registered names so that returning users skip the
// registry insert. Users is always read from the underlying registry.
type KnownUsers struct {
	next  ports.UserRegistry
	known *LRUCache[struct{}]
}

var _ ports.UserRegistry = (*KnownUsers)(nil)

func NewKnownUsers(next ports.UserRegistry, size int, ttl time.Duration) *KnownUsers {
	return &KnownUsers{next: next, known: NewLRUCache[struct{}](size, ttl)}
}

func (k *KnownUsers) Register(ctx context.Context, name string) (bool, error) {
	if _, ok := k.known.Get(name); ok {
		return false, nil
	}
	created, err := k.next.Register(ctx, name)
	if err != nil {
		return false, err
	}
	k.known.Set(name, struct{}{})
	return created, nil
}

func (k *KnownUsers) Users(ctx context.Context) ([]string, error) {
	return k.next.Users(ctx)
}

// Cache exposes the membership cache for periodic cleanup.
func (k *KnownUsers) Cache() Cleaner {
	return k.known
}
