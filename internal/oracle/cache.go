package oracle

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"log"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoizes oracle results keyed by oracle name plus an input
// fingerprint. Lookups go through an in-memory LRU first, then an optional
// sqlite table that survives restarts. The cache is an optimization only:
// every failure path behaves as a plain miss.
type Cache struct {
	mem *lru.Cache[string, string]
	db  *sql.DB
}

// NewCache creates a cache with the given in-memory capacity. db may be nil
// for a memory-only cache.
func NewCache(size int, db *sql.DB) (*Cache, error) {
	mem, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Cache{mem: mem, db: db}, nil
}

func cacheKey(name, input string) string {
	sum := sha256.Sum256([]byte(input))
	return name + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached value for (name, input) if present.
func (c *Cache) Get(name, input string) (string, bool) {
	key := cacheKey(name, input)
	if v, ok := c.mem.Get(key); ok {
		return v, true
	}
	if c.db == nil {
		return "", false
	}
	var value string
	err := c.db.QueryRow("SELECT value FROM oracle_cache WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		log.Printf("[OracleCache] Lookup failed for %s: %v", name, err)
		return "", false
	}
	c.mem.Add(key, value)
	return value, true
}

// Put stores the value for (name, input) in both tiers.
func (c *Cache) Put(name, input, value string) {
	key := cacheKey(name, input)
	c.mem.Add(key, value)
	if c.db == nil {
		return
	}
	_, err := c.db.Exec(
		"INSERT INTO oracle_cache (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP",
		key, value)
	if err != nil {
		log.Printf("[OracleCache] Store failed for %s: %v", name, err)
	}
}

// CachedDistanceOracle memoizes a DistanceOracle. Errors are never cached.
type CachedDistanceOracle struct {
	Inner DistanceOracle
	Cache *Cache
}

func (o *CachedDistanceOracle) DrivingDistance(ctx context.Context, origin, destination string) (float64, error) {
	input := origin + "|" + destination
	if v, ok := o.Cache.Get("driving", input); ok {
		if d, err := strconv.ParseFloat(v, 64); err == nil {
			return d, nil
		}
	}
	d, err := o.Inner.DrivingDistance(ctx, origin, destination)
	if err != nil {
		return 0, err
	}
	o.Cache.Put("driving", input, strconv.FormatFloat(d, 'f', -1, 64))
	return d, nil
}

func (o *CachedDistanceOracle) DrivingDistanceByAddress(ctx context.Context, city, origin, destination string) (float64, error) {
	input := city + "|" + origin + "|" + destination
	if v, ok := o.Cache.Get("driving_addr", input); ok {
		if d, err := strconv.ParseFloat(v, 64); err == nil {
			return d, nil
		}
	}
	d, err := o.Inner.DrivingDistanceByAddress(ctx, city, origin, destination)
	if err != nil {
		return 0, err
	}
	o.Cache.Put("driving_addr", input, strconv.FormatFloat(d, 'f', -1, 64))
	return d, nil
}

// CachedGeoOracle memoizes a GeoOracle.
type CachedGeoOracle struct {
	Inner GeoOracle
	Cache *Cache
}

func (o *CachedGeoOracle) ReverseGeocode(ctx context.Context, location string) (District, error) {
	if v, ok := o.Cache.Get("regeo", location); ok {
		var d District
		if err := json.Unmarshal([]byte(v), &d); err == nil {
			return d, nil
		}
	}
	d, err := o.Inner.ReverseGeocode(ctx, location)
	if err != nil {
		return District{}, err
	}
	if encoded, err := json.Marshal(d); err == nil {
		o.Cache.Put("regeo", location, string(encoded))
	}
	return d, nil
}
