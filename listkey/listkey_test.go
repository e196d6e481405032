package listkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	assert.Equal(t, "list-0/ids", Encode(0, IDs))
	assert.Equal(t, "list-0/codes", Encode(0, Codes))
	assert.Equal(t, "list-1234/codes", Encode(1234, Codes))
}

func TestEncode_PanicsOnOther(t *testing.T) {
	assert.Panics(t, func() { Encode(1, Other) })
	assert.Panics(t, func() { Encode(-1, IDs) })
}

func TestRoundTrip(t *testing.T) {
	const nlist = 1024
	for _, n := range []int{0, 1, 42, nlist - 1} {
		for _, kind := range []Kind{IDs, Codes} {
			gotKind, gotN := Decode(Encode(n, kind))
			assert.Equal(t, kind, gotKind, "list %d kind %s", n, kind)
			assert.Equal(t, n, gotN, "list %d kind %s", n, kind)
		}
	}
}

func TestDecode_Garbage(t *testing.T) {
	tests := []string{
		"",
		"junk",
		"list-/ids",
		"list-12/other",
		"foo/list-3/ids",
		"list-3",
		"list-3/",
		"/ids",
		"list-3a/ids",
		"list--3/ids",
		"list-+3/ids",
		"list-007/ids",
		"List-3/ids",
		"list-3/IDS",
		"list-99999999999999999999999/codes",
	}
	for _, key := range tests {
		t.Run(key, func(t *testing.T) {
			kind, n := Decode(key)
			assert.Equal(t, Other, kind)
			assert.Equal(t, 0, n)
		})
	}
}

func TestCodec_Prefix(t *testing.T) {
	c := NewCodec("/shard-a/")
	assert.Equal(t, "shard-a", c.Prefix)

	key := c.Encode(7, Codes)
	assert.Equal(t, "shard-a/list-7/codes", key)

	kind, n := c.Decode(key)
	assert.Equal(t, Codes, kind)
	assert.Equal(t, 7, n)

	// Keys of another namespace and bare keys are not ours.
	kind, _ = c.Decode("shard-b/list-7/codes")
	assert.Equal(t, Other, kind)
	kind, _ = c.Decode("list-7/codes")
	assert.Equal(t, Other, kind)

	assert.Equal(t, "shard-a/list-", c.ListPrefix())
}

func TestCodec_Zero(t *testing.T) {
	var c Codec
	assert.Equal(t, "list-3/ids", c.Encode(3, IDs))
	kind, n := c.Decode("list-3/ids")
	assert.Equal(t, IDs, kind)
	assert.Equal(t, 3, n)
	assert.Equal(t, "list-", c.ListPrefix())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "ids", IDs.String())
	assert.Equal(t, "codes", Codes.String())
	assert.Equal(t, "other", Other.String())
}
