package clientstate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func entry(val string, ts int64) Entry {
	return Entry{Value: json.RawMessage(`"` + val + `"`), UpdatedAt: ts}
}

func TestMergeUnionsDisjointKeys(t *testing.T) {
	server := Document{"m1": entry("a", 10)}
	client := Document{"m2": entry("b", 20)}

	merged := Merge(server, client)

	assert.Len(t, merged, 2)
	assert.Equal(t, server["m1"], merged["m1"])
	assert.Equal(t, client["m2"], merged["m2"])
}

func TestMergeNewerTimestampWins(t *testing.T) {
	server := Document{"m1": entry("stale", 10)}
	client := Document{"m1": entry("fresh", 30)}

	merged := Merge(server, client)

	assert.Equal(t, entry("fresh", 30), merged["m1"])

	// And the other way around: an older client copy must not clobber.
	merged = Merge(Document{"m1": entry("fresh", 30)}, Document{"m1": entry("stale", 10)})
	assert.Equal(t, entry("fresh", 30), merged["m1"])
}

func TestMergeEqualTimestampsKeepServerCopy(t *testing.T) {
	server := Document{"m1": entry("server", 10)}
	client := Document{"m1": entry("client", 10)}

	merged := Merge(server, client)

	assert.Equal(t, entry("server", 10), merged["m1"])
}

func TestMergeEmptySides(t *testing.T) {
	doc := Document{"m1": entry("a", 1)}

	assert.Equal(t, doc, Merge(nil, doc))
	assert.Equal(t, doc, Merge(doc, nil))
	assert.Empty(t, Merge(nil, nil))
}

func TestValidKind(t *testing.T) {
	assert.True(t, ValidKind(KindCart))
	assert.True(t, ValidKind(KindFavorites))
	assert.False(t, ValidKind("wishlist"))
}
