package clientstate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"movietix/internal/pkg/cache"
)

// Kinds of client-held state the backend keeps a server copy of. The browser
// remains the primary store; the server copy only exists so state survives
// device switches, reconciled by an explicit merge policy instead of
// last-write-wins clobbering.
const (
	KindCart      = "cart"
	KindFavorites = "favorites"
)

var ErrUnknownKind = errors.New("unknown client state kind")

// Entry is one keyed item (a cart line, a favorited movie) with the client's
// last-modified stamp in unix milliseconds.
type Entry struct {
	Value     json.RawMessage `json:"value"`
	UpdatedAt int64           `json:"updated_at"`
}

// Document is a client-state snapshot keyed by item id.
type Document map[string]Entry

// ValidKind reports whether the kind is one the store accepts.
func ValidKind(kind string) bool {
	return kind == KindCart || kind == KindFavorites
}

// Merge reconciles a client copy with the server copy: key union, and for
// keys present in both the entry with the higher timestamp wins. On equal
// timestamps the server copy wins so the merge stays deterministic.
func Merge(server, client Document) Document {
	merged := make(Document, len(server)+len(client))
	for k, v := range server {
		merged[k] = v
	}
	for k, v := range client {
		existing, ok := merged[k]
		if !ok || v.UpdatedAt > existing.UpdatedAt {
			merged[k] = v
		}
	}
	return merged
}

func storageKey(kind string, userID uint) string {
	return fmt.Sprintf("clientstate:%s:%d", kind, userID)
}

// Load fetches the server copy for a user; a missing key is an empty document.
func Load(kind string, userID uint) (Document, error) {
	if !ValidKind(kind) {
		return nil, ErrUnknownKind
	}
	raw, err := cache.Get(storageKey(kind, userID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Document{}, nil
		}
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// MergeAndSave merges the client copy into the server copy and persists the
// result, returning the merged document for the client to adopt.
func MergeAndSave(kind string, userID uint, client Document) (Document, error) {
	server, err := Load(kind, userID)
	if err != nil {
		return nil, err
	}
	merged := Merge(server, client)
	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(storageKey(kind, userID), string(raw), 0); err != nil {
		return nil, err
	}
	return merged, nil
}
