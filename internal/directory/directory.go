// Package directory keeps a Redis-backed view of live rooms so operators can
// list what the process is currently hosting. It is optional: a nil Directory
// is a no-op everywhere.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const entryTTL = 24 * time.Hour

// Entry describes one live room.
type Entry struct {
	Code         string    `json:"code"`
	Participants int       `json:"participants"`
	Seated       int       `json:"seated"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Directory struct {
	rdb *redis.Client
}

// New connects to Redis at redisURL and verifies the connection.
func New(redisURL string) (*Directory, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for room directory")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Directory{rdb: rdb}, nil
}

func (d *Directory) Close() error {
	if d == nil || d.rdb == nil {
		return nil
	}
	return d.rdb.Close()
}

func keyEntry(code string) string { return "room:live:" + strings.TrimSpace(code) }
func keyIndex() string            { return "room:live" }

// Upsert records or refreshes one room entry and keeps it in the index.
func (d *Directory) Upsert(ctx context.Context, e Entry) error {
	if d == nil || d.rdb == nil {
		return nil
	}
	e.UpdatedAt = time.Now()
	raw, err := json.Marshal(&e)
	if err != nil {
		return err
	}
	if err := d.rdb.Set(ctx, keyEntry(e.Code), raw, entryTTL).Err(); err != nil {
		return err
	}
	if err := d.rdb.SAdd(ctx, keyIndex(), e.Code).Err(); err != nil {
		return err
	}
	return d.rdb.Expire(ctx, keyIndex(), entryTTL).Err()
}

// Remove drops a room from the directory.
func (d *Directory) Remove(ctx context.Context, code string) error {
	if d == nil || d.rdb == nil {
		return nil
	}
	if err := d.rdb.Del(ctx, keyEntry(code)).Err(); err != nil {
		return err
	}
	return d.rdb.SRem(ctx, keyIndex(), code).Err()
}

// List returns all live rooms. Index members whose entry expired are pruned.
func (d *Directory) List(ctx context.Context) ([]Entry, error) {
	if d == nil || d.rdb == nil {
		return nil, nil
	}
	codes, err := d.rdb.SMembers(ctx, keyIndex()).Result()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, c := range codes {
		raw, err := d.rdb.Get(ctx, keyEntry(c)).Bytes()
		if err == redis.Nil {
			_ = d.rdb.SRem(ctx, keyIndex(), c).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
