package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringList_ScanValue(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  StringList
	}{
		{name: "nil", input: nil, want: nil},
		{name: "json bytes", input: []byte(`["a","b"]`), want: StringList{"a", "b"}},
		{name: "json string", input: `["http://x/y.png"]`, want: StringList{"http://x/y.png"}},
		{name: "empty string", input: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StringList
			require.NoError(t, got.Scan(tt.input))
			assert.Equal(t, tt.want, got)
		})
	}

	var bad StringList
	assert.Error(t, bad.Scan(42))

	v, err := StringList{"a", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	v, err = StringList{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
