package datapath

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	root := map[string]any{
		"user": map[string]any{
			"name": "John",
			"tags": []any{"a", "b"},
		},
		"count": 3.0,
	}

	tests := []struct {
		name  string
		path  string
		want  any
		found bool
	}{
		{name: "empty path returns root", path: "", want: root, found: true},
		{name: "nested key", path: "user.name", want: "John", found: true},
		{name: "array index", path: "user.tags.1", want: "b", found: true},
		{name: "index out of range", path: "user.tags.5", found: false},
		{name: "non numeric index on array", path: "user.tags.x", found: false},
		{name: "missing key", path: "user.email", found: false},
		{name: "through scalar", path: "count.value", found: false},
		{name: "through string", path: "user.name.first", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Get(root, tt.path)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestGetNilRoot(t *testing.T) {
	_, ok := Get(nil, "a.b")
	assert.False(t, ok)
}

func TestSetRoundTrip(t *testing.T) {
	paths := []string{
		"a",
		"a.b.c",
		"list.0",
		"list.3.name",
		"deep.1.2.3.leaf",
		"0",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			root := map[string]any{}
			require.NoError(t, Set(root, path, "value"))
			got, ok := Get(root, path)
			require.True(t, ok)
			assert.Equal(t, "value", got)
		})
	}
}

func TestSetCreatesContainersByNextSegment(t *testing.T) {
	root := map[string]any{}
	require.NoError(t, Set(root, "items.2.title", "third"))

	items, ok := root["items"].([]any)
	require.True(t, ok, "numeric next segment should create an array")
	require.Len(t, items, 3)
	assert.Nil(t, items[0])
	assert.Nil(t, items[1])

	entry, ok := items[2].(map[string]any)
	require.True(t, ok, "non numeric next segment should create an object")
	assert.Equal(t, "third", entry["title"])
}

func TestSetOverwritesNonContainer(t *testing.T) {
	root := map[string]any{"user": "not an object"}
	require.NoError(t, Set(root, "user.name", "John"))

	got, ok := Get(root, "user.name")
	require.True(t, ok)
	assert.Equal(t, "John", got)
	assert.Equal(t, map[string]any{"name": "John"}, root["user"])
}

func TestSetReplacesArrayForNamedSegment(t *testing.T) {
	root := map[string]any{"user": []any{"x"}}
	require.NoError(t, Set(root, "user.name", "John"))
	assert.Equal(t, map[string]any{"name": "John"}, root["user"])
}

func TestSetKeepsObjectForNumericSegment(t *testing.T) {
	root := map[string]any{"byID": map[string]any{"7": "seven"}}
	require.NoError(t, Set(root, "byID.8", "eight"))
	assert.Equal(t, map[string]any{"7": "seven", "8": "eight"}, root["byID"])
}

func TestSetMutatesInPlace(t *testing.T) {
	inner := map[string]any{}
	root := map[string]any{"user": inner}
	require.NoError(t, Set(root, "user.name", "John"))
	assert.Equal(t, "John", inner["name"])
}

func TestSetIgnoresEmptyPath(t *testing.T) {
	root := map[string]any{"a": 1}
	require.NoError(t, Set(root, "", "value"))
	assert.Equal(t, map[string]any{"a": 1}, root)
}

func TestWithLeavesOriginalUntouched(t *testing.T) {
	tags := []any{"a"}
	user := map[string]any{"name": "John", "tags": tags}
	other := map[string]any{"k": "v"}
	root := map[string]any{"user": user, "other": other}

	next, err := With(root, "user.tags.1", "b")
	require.NoError(t, err)

	assert.Equal(t, []any{"a"}, tags)
	assert.Equal(t, map[string]any{"name": "John", "tags": []any{"a"}}, user)

	got, ok := Get(next, "user.tags")
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, got)

	// Untouched branches are shared.
	nextOther := next["other"].(map[string]any)
	nextOther["k"] = "changed"
	assert.Equal(t, "changed", other["k"])
}

func TestWithNilRoot(t *testing.T) {
	next, err := With(nil, "a.b", 1)
	require.NoError(t, err)
	got, ok := Get(next, "a.b")
	require.True(t, ok)
	assert.Equal(t, 1, got)
}

func TestWithEmptyPathReplacesRoot(t *testing.T) {
	replacement := map[string]any{"fresh": true}
	next, err := With(map[string]any{"old": 1}, "", replacement)
	require.NoError(t, err)
	assert.Equal(t, replacement, next)

	next, err = With(map[string]any{"old": 1}, "", "scalar")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, next)
}

func TestArrayGrowthBounds(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		wantLen int
		wantErr bool
	}{
		{name: "last slot", index: 1, wantLen: 2},
		{name: "append at length", index: 2, wantLen: 3},
		{name: "one past length", index: 3, wantLen: 4},
		{name: "largest allowed gap", index: 2 + MaxArrayGap, wantLen: 3 + MaxArrayGap},
		{name: "beyond allowed gap", index: 3 + MaxArrayGap, wantErr: true},
		{name: "huge index", index: 1_000_000_000, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "list." + strconv.Itoa(tt.index)

			root := map[string]any{"list": []any{"a", "b"}}
			err := Set(root, path, "x")
			if tt.wantErr {
				require.ErrorIs(t, err, ErrIndexOutOfRange)
				assert.Equal(t, []any{"a", "b"}, root["list"])
			} else {
				require.NoError(t, err)
				assert.Len(t, root["list"], tt.wantLen)
				got, _ := Get(root, path)
				assert.Equal(t, "x", got)
			}

			shared := map[string]any{"list": []any{"a", "b"}}
			next, err := With(shared, path, "x")
			assert.Equal(t, []any{"a", "b"}, shared["list"])
			if tt.wantErr {
				require.ErrorIs(t, err, ErrIndexOutOfRange)
				assert.Equal(t, shared, next)
			} else {
				require.NoError(t, err)
				assert.Len(t, next["list"], tt.wantLen)
			}
		})
	}
}

func TestSetRejectsHugeIndexOnMissingArray(t *testing.T) {
	root := map[string]any{"keep": 1}
	err := Set(root, "fresh.nested.50000000", 1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Equal(t, map[string]any{"keep": 1}, root)
}

func TestSetFailureLeavesExistingContainers(t *testing.T) {
	user := map[string]any{"name": "John"}
	root := map[string]any{"user": user}
	err := Set(root, "user.tags.99", "x")
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Equal(t, map[string]any{"name": "John"}, user)
}

func TestWithout(t *testing.T) {
	root := map[string]any{
		"user": map[string]any{"name": "John", "age": 30},
		"list": []any{"a", "b", "c"},
	}

	next := Without(root, "user.name")
	_, ok := Get(next, "user.name")
	assert.False(t, ok)
	age, ok := Get(next, "user.age")
	require.True(t, ok)
	assert.Equal(t, 30, age)

	_, ok = Get(root, "user.name")
	assert.True(t, ok, "original must keep the removed key")

	next = Without(root, "list.1")
	assert.Equal(t, []any{"a", nil, "c"}, next["list"])
	assert.Equal(t, []any{"a", "b", "c"}, root["list"])
}

func TestWithoutMissingPath(t *testing.T) {
	root := map[string]any{"a": 1}
	next := Without(root, "b.c")
	assert.Equal(t, root, next)
	_, ok := next["b"]
	assert.False(t, ok)
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "user.name", Join("user", "name"))
	assert.Equal(t, "name", Join("", "name"))
	assert.Equal(t, "user", Join("user", ""))
}

func TestClone(t *testing.T) {
	src := map[string]any{"a": []any{map[string]any{"b": 1}}}
	cloned := Clone(src).(map[string]any)
	require.NoError(t, Set(cloned, "a.0.b", 2))

	got, _ := Get(src, "a.0.b")
	assert.Equal(t, 1, got)
}
