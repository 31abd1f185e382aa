package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"gymdesk/internal/adapters/persistence/models"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "gymdesk:membership"

	// versions live outside keyPrefix so InvalidateAll's scan leaves them alone
	versionPrefix  = "gymdesk:membership-version"
	generationKey  = versionPrefix + ":all"
	versionKeepFor = 24 * time.Hour

	// InvalidationChannel receives "<company>:<id>" or "*" after membership data changes
	InvalidationChannel = "gymdesk:membership:invalidate"
)

// MembershipCache caches membership views in redis and publishes an
// invalidation message whenever entries are dropped
type MembershipCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMembershipCache creates a membership cache on client
func NewMembershipCache(client *redis.Client, ttl time.Duration) *MembershipCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MembershipCache{client: client, ttl: ttl}
}

var errStaleView = errors.New("membership view is stale")

func key(companyID, id uint) string {
	return fmt.Sprintf("%s:%d:%d", keyPrefix, companyID, id)
}

func versionKey(companyID, id uint) string {
	return fmt.Sprintf("%s:%d:%d", versionPrefix, companyID, id)
}

// Get returns a cached membership view
func (c *MembershipCache) Get(ctx context.Context, companyID, id uint) (*models.MembershipResponse, bool) {
	raw, err := c.client.Get(ctx, key(companyID, id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("⚠️ Cache get error: %v", err)
		}
		return nil, false
	}

	var resp models.MembershipResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

// Version returns the entry's invalidation token, the sum of its own counter
// and the global generation
func (c *MembershipCache) Version(ctx context.Context, companyID, id uint) (int64, bool) {
	version, err := readVersion(ctx, c.client, companyID, id)
	if err != nil {
		log.Printf("⚠️ Cache version error: %v", err)
		return 0, false
	}
	return version, true
}

type multiGetter interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

func readVersion(ctx context.Context, client multiGetter, companyID, id uint) (int64, error) {
	values, err := client.MGet(ctx, versionKey(companyID, id), generationKey).Result()
	if err != nil {
		return 0, err
	}
	var version int64
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, err
		}
		version += n
	}
	return version, nil
}

// Set stores a membership view unless the entry was invalidated after
// version was taken
func (c *MembershipCache) Set(ctx context.Context, companyID uint, membership *models.MembershipResponse, version int64) {
	raw, err := json.Marshal(membership)
	if err != nil {
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readVersion(ctx, tx, companyID, membership.ID)
		if err != nil {
			return err
		}
		if current != version {
			return errStaleView
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(companyID, membership.ID), raw, c.ttl)
			return nil
		})
		return err
	}, versionKey(companyID, membership.ID), generationKey)

	switch {
	case err == nil, errors.Is(err, errStaleView), errors.Is(err, redis.TxFailedErr):
	default:
		log.Printf("⚠️ Cache set error: %v", err)
	}
}

// Invalidate drops one membership view
func (c *MembershipCache) Invalidate(ctx context.Context, companyID, id uint) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(companyID, id))
		pipe.Expire(ctx, versionKey(companyID, id), versionKeepFor)
		pipe.Del(ctx, key(companyID, id))
		return nil
	})
	if err != nil {
		log.Printf("⚠️ Cache delete error: %v", err)
	}
	c.publish(ctx, fmt.Sprintf("%d:%d", companyID, id))
}

// InvalidateAll drops every membership view
func (c *MembershipCache) InvalidateAll(ctx context.Context) {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		log.Printf("⚠️ Cache generation error: %v", err)
	}
	iter := c.client.Scan(ctx, 0, keyPrefix+":*", 500).Iterator()
	keys := make([]string, 0, 500)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == cap(keys) {
			c.client.Del(ctx, keys...)
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("⚠️ Cache scan error: %v", err)
	}
	if len(keys) > 0 {
		c.client.Del(ctx, keys...)
	}
	c.publish(ctx, "*")
}

func (c *MembershipCache) publish(ctx context.Context, message string) {
	if err := c.client.Publish(ctx, InvalidationChannel, message).Err(); err != nil {
		log.Printf("⚠️ Cache publish error: %v", err)
	}
}
