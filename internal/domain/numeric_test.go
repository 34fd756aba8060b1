package domain

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntFlag_Unmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want IntFlag
	}{
		{`1`, 1},
		{`0`, 0},
		{`"1"`, 1},
		{`" 0 "`, 0},
		{`true`, 1},
		{`false`, 0},
		{`"true"`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var f IntFlag
			require.NoError(t, json.Unmarshal([]byte(tt.in), &f))
			assert.Equal(t, tt.want, f)
		})
	}

	var f IntFlag
	assert.Error(t, json.Unmarshal([]byte(`"yes please"`), &f))
	assert.Error(t, json.Unmarshal([]byte(`""`), &f))
	assert.Error(t, json.Unmarshal([]byte(`1.5`), &f))
}

func TestInt64_Unmarshal(t *testing.T) {
	var body struct {
		Time *Int64 `json:"Time"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"Time":"123456"}`), &body))
	require.NotNil(t, body.Time)
	assert.Equal(t, Int64(123456), *body.Time)

	body.Time = nil
	require.NoError(t, json.Unmarshal([]byte(`{"Time":1700000000}`), &body))
	assert.Equal(t, Int64(1700000000), *body.Time)

	body.Time = nil
	require.NoError(t, json.Unmarshal([]byte(`{"Time":null}`), &body))
	assert.Nil(t, body.Time)

	assert.Error(t, json.Unmarshal([]byte(`{"Time":"soon"}`), &body))
}

func TestVisit_MarshalsFlagsAsNumbers(t *testing.T) {
	ts := Int64(123456)
	out, err := json.Marshal(Visit{New: 1, Archive: 0, VPN: 1, Time: &ts})
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &got))
	assert.EqualValues(t, 1, got["New"])
	assert.EqualValues(t, 0, got["Archive"])
	assert.EqualValues(t, 1, got["VPN"])
	assert.EqualValues(t, 123456, got["Time"])
}
