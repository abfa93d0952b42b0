package edn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToValue_Map(t *testing.T) {
	f, err := ReadOne(`{:limit 10 "order" :desc sym [1 2.5]}`)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"limit": int64(10),
		"order": Keyword{Name: "desc"},
		"sym":   []any{int64(1), 2.5},
	}, ToValue(f))
}

func TestFromValue_SortsKeys(t *testing.T) {
	f, err := FromValue(map[string]any{"z": 1, "a": []any{true, nil, "s"}, "m": uint8(3)})
	require.NoError(t, err)
	assert.Equal(t, `{:a [true nil "s"] :m 3 :z 1}`, Print(f))
}

func TestFromValue_Inverse(t *testing.T) {
	f, err := ReadOne(`{:a [:k "v" 1 2.5 false] :b {:c nil}}`)
	require.NoError(t, err)

	back, err := FromValue(ToValue(f))
	require.NoError(t, err)
	assert.Equal(t, ToValue(f), ToValue(back))
}

func TestFromValue_Unsupported(t *testing.T) {
	_, err := FromValue(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot represent")

	_, err = FromValue(map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `key "bad"`)
}

func TestKeyName(t *testing.T) {
	assert.Equal(t, "a", KeyName(K("a")))
	assert.Equal(t, "b", KeyName(Sym("b")))
	assert.Equal(t, "c", KeyName(Str("c")))
	assert.Equal(t, "[:t 1]", KeyName(Vec(K("t"), I(1))))
}
