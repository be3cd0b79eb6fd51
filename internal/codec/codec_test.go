package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string    `json:"name" plist:"name" yaml:"name" toml:"name"`
	Count    int       `json:"count" plist:"count" yaml:"count" toml:"count"`
	Payload  []byte    `json:"payload" plist:"payload" yaml:"payload" toml:"payload"`
	Created  Timestamp `json:"created" plist:"created" yaml:"created" toml:"created"`
	Tags     []string  `json:"tags" plist:"tags" yaml:"tags" toml:"tags"`
	Disabled bool      `json:"disabled" plist:"disabled" yaml:"disabled" toml:"disabled"`
}

func TestJSONRoundTrip(t *testing.T) {
	in := sample{
		Name:    "resource",
		Count:   3,
		Payload: []byte{0x00, 0x01, 0xfe},
		Created: NewTimestamp(time.Date(2024, 5, 1, 12, 30, 0, 250_000_000, time.UTC)),
		Tags:    []string{"a", "b"},
	}

	data, err := JSON.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"payload":"AAH+"`)
	assert.Contains(t, string(data), `"created":1714566600.25`)

	var out sample
	require.NoError(t, JSON.Unmarshal(data, &out))
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Payload, out.Payload)
	assert.True(t, in.Created.Equal(out.Created.Time))
	assert.Equal(t, in.Tags, out.Tags)
}

func TestPListRoundTrip(t *testing.T) {
	in := sample{
		Name:    "plist",
		Count:   7,
		Payload: []byte("hello"),
		Created: NewTimestamp(time.Unix(1_700_000_000, 0)),
		Tags:    []string{"x"},
	}

	data, err := PList.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<plist")

	var out sample
	require.NoError(t, PList.Unmarshal(data, &out))
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Count, out.Count)
	assert.Equal(t, in.Payload, out.Payload)
	assert.True(t, in.Created.Equal(out.Created.Time))
}

func TestYAMLAndTOMLRoundTrip(t *testing.T) {
	type flat struct {
		Name  string `yaml:"name" toml:"name"`
		Count int    `yaml:"count" toml:"count"`
	}

	for _, c := range []Codec{YAML, TOML} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(flat{Name: "n", Count: 2})
			require.NoError(t, err)

			var out flat
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, flat{Name: "n", Count: 2}, out)
		})
	}
}

func TestUnmarshalErrors(t *testing.T) {
	var out sample
	assert.Error(t, JSON.Unmarshal([]byte("{"), &out))
	assert.Error(t, PList.Unmarshal([]byte(`<?xml version="1.0"?><plist><dict><key>name</key>`), &out))
}

func TestTimestampText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"whole seconds", "0", time.Unix(0, 0).UTC()},
		{"fractional", "1.5", time.Unix(1, 500_000_000).UTC()},
		{"negative", "-10", time.Unix(-10, 0).UTC()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, ts.UnmarshalText([]byte(tt.in)))
			assert.True(t, tt.want.Equal(ts.Time))
		})
	}

	var ts Timestamp
	assert.Error(t, ts.UnmarshalText([]byte("soon")))
}

func TestForName(t *testing.T) {
	c, ok := ForName("yml")
	require.True(t, ok)
	assert.Equal(t, "yaml", c.Name())

	_, ok = ForName("xml")
	assert.False(t, ok)
}
