package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

var identityDoc = []byte(`{
  "fantasy_content": {
    "users": {
      "0": {"user": [{"guid": "ABCDEF123"}, {"profile": {"display_name": "hoops"}}]},
      "count": 1
    },
    "num": "12",
    "raw": 7
  }
}`)

func TestLookupString(t *testing.T) {
	testCases := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "object key index", path: "fantasy_content.users.0.user.0.guid", expected: "ABCDEF123"},
		{name: "nested profile", path: "fantasy_content.users.0.user.1.profile.display_name", expected: "hoops"},
		{name: "missing path", path: "fantasy_content.users.1.user.0.guid", expected: "fallback"},
		{name: "wrong type", path: "fantasy_content.raw", expected: "fallback"},
		{name: "container is not a string", path: "fantasy_content.users", expected: "fallback"},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LookupString(identityDoc, tt.path, "fallback"))
		})
	}
}

func TestLookupInt(t *testing.T) {
	assert.Equal(t, 12, LookupInt(identityDoc, "fantasy_content.num", -1))
	assert.Equal(t, 7, LookupInt(identityDoc, "fantasy_content.raw", -1))
	assert.Equal(t, -1, LookupInt(identityDoc, "fantasy_content.users.0.user.0.guid", -1))
	assert.Equal(t, -1, LookupInt(identityDoc, "nope", -1))
}

func TestLookupInvalidJSON(t *testing.T) {
	assert.Equal(t, "d", LookupString([]byte("{not json"), "a", "d"))
	_, ok := Lookup(nil, "a")
	assert.False(t, ok)
}

func TestEachSkipsCount(t *testing.T) {
	var keys []string
	Each(identityDoc, "fantasy_content.users", func(key string, _ gjson.Result) bool {
		keys = append(keys, key)
		return true
	})
	assert.Equal(t, []string{"0"}, keys)
}
