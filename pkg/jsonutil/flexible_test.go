package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"string", `"disclosure"`, "disclosure"},
		{"integer", `3`, "3"},
		{"float", `0.75`, "0.75"},
		{"boolean", `true`, "true"},
		{"null", `null`, ""},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FlexibleStringValue(json.RawMessage(tt.raw)))
		})
	}
}

func TestFlexibleIntSlice(t *testing.T) {
	got, err := FlexibleIntSlice(json.RawMessage(`[0, 2, 5]`))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 5}, got)

	got, err = FlexibleIntSlice(json.RawMessage(`["1", "4"]`))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4}, got)

	got, err = FlexibleIntSlice(json.RawMessage(`[0, "3"]`))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, got)

	got, err = FlexibleIntSlice(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = FlexibleIntSlice(json.RawMessage(`"not an array"`))
	assert.Error(t, err)

	_, err = FlexibleIntSlice(json.RawMessage(`["one"]`))
	assert.Error(t, err)
}

func TestFlexibleFloatValue(t *testing.T) {
	assert.Equal(t, 0.65, FlexibleFloatValue(json.RawMessage(`0.65`)))
	assert.Equal(t, 0.9, FlexibleFloatValue(json.RawMessage(`"0.9"`)))
	assert.Equal(t, 0.0, FlexibleFloatValue(json.RawMessage(`null`)))
	assert.Equal(t, 0.0, FlexibleFloatValue(json.RawMessage(`"high"`)))
}
