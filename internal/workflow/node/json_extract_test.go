package node

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject_SurroundingProse(t *testing.T) {
	in := "Sure! Here is the result:\n```json\n{\"a\": 1}\n```\nHope that helps."
	require.JSONEq(t, `{"a": 1}`, ExtractJSONObject(in))
}

func TestExtractJSONObject_PlainObject(t *testing.T) {
	require.JSONEq(t, `{"x": "y"}`, ExtractJSONObject(`{"x": "y"}`))
}

func TestExtractJSONObject_NoJSONReturnsInput(t *testing.T) {
	in := "there is no json here"
	require.Equal(t, in, ExtractJSONObject(in))
}

func TestUnmarshalLenient(t *testing.T) {
	var out struct {
		Intent string `json:"intent"`
	}
	err := UnmarshalLenient(`The label is: {"intent": "greeting"} as requested`, &out)
	require.NoError(t, err)
	require.Equal(t, "greeting", out.Intent)

	require.Error(t, UnmarshalLenient("not json at all", &out))
}

func TestCountWords(t *testing.T) {
	require.Equal(t, 0, CountWords(""))
	require.Equal(t, 0, CountWords("   \n\t"))
	require.Equal(t, 3, CountWords("one  two\nthree"))
}

func TestTruncateByRunes(t *testing.T) {
	require.Equal(t, "hello", TruncateByRunes("hello", 10))
	require.Equal(t, "he", TruncateByRunes("hello", 2))
	require.Equal(t, "", TruncateByRunes("hello", 0))
}
