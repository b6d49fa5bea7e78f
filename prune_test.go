package export

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPrune(t *testing.T) {
	cases := []struct {
		name   string
		given  any
		want   any
		wantOK bool
	}{
		{"nil", nil, nil, false},
		{"empty string", "", nil, false},
		{"string", "x", "x", true},
		{"zero is kept", json.Number("0"), json.Number("0"), true},
		{"false is kept", false, false, true},
		{"empty list", []any{}, nil, false},
		{"list of empties", []any{"", nil, []any{}}, nil, false},
		{"empty object", map[string]any{}, nil, false},
		{
			"nested",
			map[string]any{"a": "", "b": map[string]any{"c": nil}, "d": []any{"x", ""}},
			map[string]any{"d": []any{"x"}},
			true,
		},
	}
	for _, c := range cases {
		got, ok := Prune(c.given)
		assert.Equal(t, c.wantOK, ok, c.name)
		assert.Equal(t, c.want, got, c.name)
	}
}

func jsonTree() *rapid.Generator[any] {
	leaf := rapid.OneOf(
		rapid.Just[any](nil),
		rapid.Just[any](""),
		rapid.Map(rapid.StringN(0, 5, -1), func(s string) any { return s }),
		rapid.Map(rapid.Bool(), func(b bool) any { return b }),
		rapid.Map(rapid.IntRange(-10, 10), func(i int) any { return json.Number(strconv.Itoa(i)) }),
	)
	return rapid.Custom(func(t *rapid.T) any {
		return drawTree(t, leaf, 3)
	})
}

func drawTree(t *rapid.T, leaf *rapid.Generator[any], depth int) any {
	kind := 0
	if depth > 0 {
		kind = rapid.IntRange(0, 2).Draw(t, "kind")
	}
	switch kind {
	case 1:
		n := rapid.IntRange(0, 3).Draw(t, "len")
		out := make([]any, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, drawTree(t, leaf, depth-1))
		}
		return out
	case 2:
		n := rapid.IntRange(0, 3).Draw(t, "len")
		out := make(map[string]any, n)
		for i := 0; i < n; i++ {
			out[rapid.StringN(1, 4, -1).Draw(t, "key")] = drawTree(t, leaf, depth-1)
		}
		return out
	}
	return leaf.Draw(t, "leaf")
}

// hasEmpty reports whether the tree still contains a value Prune drops.
func hasEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		if len(t) == 0 {
			return true
		}
		for _, item := range t {
			if hasEmpty(item) {
				return true
			}
		}
	case map[string]any:
		if len(t) == 0 {
			return true
		}
		for _, item := range t {
			if hasEmpty(item) {
				return true
			}
		}
	}
	return false
}

func TestPruneProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tree := jsonTree().Draw(t, "tree")
		pruned, ok := Prune(tree)
		if !ok {
			assert.Nil(t, pruned)
			return
		}
		assert.False(t, hasEmpty(pruned))

		again, ok := Prune(pruned)
		assert.True(t, ok)
		assert.Equal(t, pruned, again)
	})
}

func TestEncodePayload(t *testing.T) {
	b, err := encodePayload([]any{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	b, err = encodePayload(map[string]any{"name": "", "features": []any{}})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	b, err = encodePayload(map[string]any{"id": "1", "name": ""})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": "1"}`, string(b))
}

func TestEncodeRecords(t *testing.T) {
	records := []Record{
		Record(`{"id": "1", "description": "", "permissions": 1099511627775}`),
		Record(`not json`),
		Record(`{"id": "2", "soundId": "s2", "user": {"id": "u2"}}`),
	}
	b, err := encodeRecords(discardLogger(), records, normalizeSound)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id": "1", "permissions": 1099511627775},
		{"id": "2", "sound_id": "s2", "user_id": "u2"}
	]`, string(b))

	b, err = encodeRecords(discardLogger(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestNormalizeSound(t *testing.T) {
	cases := []struct {
		given map[string]any
		want  map[string]any
	}{
		{
			map[string]any{"sound_id": "s1", "user": map[string]any{"id": "u1", "username": "a"}},
			map[string]any{"sound_id": "s1", "user_id": "u1"},
		},
		{
			map[string]any{"soundId": json.Number("42"), "userId": "u2"},
			map[string]any{"sound_id": "42", "user_id": "u2"},
		},
		{
			map[string]any{"sound_id": "s3", "user_id": "u3", "userId": "other"},
			map[string]any{"sound_id": "s3", "user_id": "u3"},
		},
		{
			map[string]any{"name": "no ids", "user": nil},
			map[string]any{"name": "no ids"},
		},
	}
	for _, c := range cases {
		normalizeSound(c.given)
		assert.Equal(t, c.want, c.given)
	}
}
