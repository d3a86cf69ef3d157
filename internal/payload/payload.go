// Package payload reads values out of the provider's nested JSON documents.
//
// Provider responses nest differently depending on the granted scopes, so callers
// address values by dotted path ("fantasy_content.users.0.user.0.guid") and always
// supply the value to use when the path is absent or holds a different type.
// Numeric path segments match both array indexes and object keys such as "0".
package payload

import (
	"github.com/tidwall/gjson"
)

// Lookup returns the raw JSON found at path and whether it exists
func Lookup(raw []byte, path string) (gjson.Result, bool) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, false
	}
	res := gjson.GetBytes(raw, path)
	return res, res.Exists()
}

// LookupString returns the string at path, or def when missing or not a string
func LookupString(raw []byte, path, def string) string {
	res, ok := Lookup(raw, path)
	if !ok || res.Type != gjson.String {
		return def
	}
	return res.Str
}

// LookupInt returns the integer at path, or def when missing or not numeric.
// Numeric strings are accepted since the provider quotes most counters.
func LookupInt(raw []byte, path string, def int) int {
	res, ok := Lookup(raw, path)
	if !ok {
		return def
	}
	switch res.Type {
	case gjson.Number:
		return int(res.Int())
	case gjson.String:
		n := gjson.Parse(res.Str)
		if n.Type == gjson.Number {
			return int(n.Int())
		}
	}
	return def
}

// Each calls fn for every element found at path. Objects are walked in document
// order and their "count" key is skipped.
func Each(raw []byte, path string, fn func(key string, value gjson.Result) bool) {
	res, ok := Lookup(raw, path)
	if !ok {
		return
	}
	res.ForEach(func(key, value gjson.Result) bool {
		if key.Str == "count" {
			return true
		}
		return fn(key.String(), value)
	})
}
