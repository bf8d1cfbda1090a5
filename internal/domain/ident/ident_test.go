package ident

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{raw: `"abc"`, want: "abc", ok: true},
		{raw: `"12"`, want: "12", ok: true},
		{raw: `12`, want: "12", ok: true},
		{raw: ` -7 `, want: "-7", ok: true},
		{raw: `null`},
		{raw: `true`},
		{raw: `{"id":1}`},
		{raw: `[1]`},
		{raw: `12abc`},
		{raw: ``},
	}

	for _, tt := range tests {
		got, ok := Parse([]byte(tt.raw))
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestIDUnmarshal(t *testing.T) {
	var ids []ID
	assert.NoError(t, json.Unmarshal([]byte(`[1, "two", null, 30]`), &ids))
	assert.Equal(t, []ID{"1", "two", "", "30"}, ids)

	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"nested":1}`), &id))
}
