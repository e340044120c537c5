package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/LumeraProtocol/notary/pkg/chain/modules/notary"
	"github.com/LumeraProtocol/notary/pkg/chain/modules/tx"
	"github.com/LumeraProtocol/notary/pkg/hasher"
	"github.com/LumeraProtocol/notary/pkg/logtrace"
	ristretto "github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"
)

const (
	cacheNumCounters = 10_000
	// With per-item cost of 1, cap total items to 1000.
	cacheMaxCost     = 1_000
	cacheBufferItems = 64
	cacheItemCost    = 1
)

// cachedNotary serves repeated lookups of notarized digests from memory.
// A record never changes once it exists on-chain, so only found records are
// cached; a miss always goes to the node.
type cachedNotary struct {
	notary.Module

	records *ristretto.Cache[string, notary.Record]
	ttl     time.Duration
	sf      singleflight.Group
}

func newCachedNotary(inner notary.Module, ttl time.Duration) notary.Module {
	c, err := ristretto.NewCache(&ristretto.Config[string, notary.Record]{
		NumCounters: cacheNumCounters,
		MaxCost:     cacheMaxCost,
		BufferItems: cacheBufferItems,
	})
	if err != nil {
		return inner
	}
	return &cachedNotary{Module: inner, records: c, ttl: ttl}
}

func (c *cachedNotary) key(digest hasher.Digest) string {
	return c.Module.Address().Hex() + ":" + digest.Hex()
}

func (c *cachedNotary) VerifyDocument(ctx context.Context, digest hasher.Digest) (notary.Record, error) {
	key := c.key(digest)
	if rec, ok := c.records.Get(key); ok && rec.Exists {
		logtrace.Debug(ctx, "record served from cache", logtrace.Fields{
			logtrace.FieldHashHex:  digest.Hex(),
			logtrace.FieldCacheHit: true,
		})
		return rec, nil
	}

	// Deduplicate concurrent lookups for the same digest
	res, err, _ := c.sf.Do(key, func() (any, error) {
		if rec, ok := c.records.Get(key); ok && rec.Exists {
			return rec, nil
		}
		rec, err := c.Module.VerifyDocument(ctx, digest)
		if err != nil {
			return notary.Record{}, err
		}
		if rec.Exists {
			c.records.SetWithTTL(key, rec, cacheItemCost, c.ttl)
			c.records.Wait()
		}
		return rec, nil
	})
	if err != nil {
		return notary.Record{}, err
	}
	rec, ok := res.(notary.Record)
	if !ok {
		return notary.Record{}, fmt.Errorf("%w: unexpected cache value %T", tx.ErrRPC, res)
	}
	return rec, nil
}

func (c *cachedNotary) DocumentExists(ctx context.Context, digest hasher.Digest) (bool, error) {
	if rec, ok := c.records.Get(c.key(digest)); ok && rec.Exists {
		return true, nil
	}
	return c.Module.DocumentExists(ctx, digest)
}

func (c *cachedNotary) close() {
	c.records.Close()
}
