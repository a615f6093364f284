package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Envelope keys the backend has been seen wrapping payloads in.
var envelopeKeys = []string{"data", "items", "results"}

// listPayload finds the array in a response body. The body may be a bare
// array or an object wrapping it under one of keys or a common envelope.
func listPayload(body []byte, keys ...string) (gjson.Result, bool) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, false
	}
	root := gjson.ParseBytes(body)
	if root.IsArray() {
		return root, true
	}
	if !root.IsObject() {
		return gjson.Result{}, false
	}

	candidates := make([]string, 0, len(keys)*2+len(envelopeKeys))
	candidates = append(candidates, keys...)
	candidates = append(candidates, envelopeKeys...)
	for _, k := range keys {
		candidates = append(candidates, "data."+k)
	}
	for _, path := range candidates {
		if r := root.Get(path); r.IsArray() {
			return r, true
		}
	}
	return gjson.Result{}, false
}

// objectPayload finds the single record in a response body.
func objectPayload(body []byte, keys ...string) (gjson.Result, bool) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, false
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return gjson.Result{}, false
	}
	for _, k := range keys {
		if r := root.Get(k); r.IsObject() {
			return r, true
		}
	}
	if r := root.Get("data"); r.IsObject() {
		return r, true
	}
	return root, true
}

func decodeList[T any](body []byte, keys ...string) ([]T, error) {
	payload, ok := listPayload(body, keys...)
	if !ok {
		return nil, ErrBadPayload
	}
	out := make([]T, 0)
	if err := json.Unmarshal([]byte(payload.Raw), &out); err != nil {
		return nil, fmt.Errorf("%w: decode list: %v", ErrBadPayload, err)
	}
	return out, nil
}

// decodeObject returns nil, nil for an empty body.
func decodeObject[T any](body []byte, keys ...string) (*T, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	payload, ok := objectPayload(body, keys...)
	if !ok {
		return nil, ErrBadPayload
	}
	var out T
	if err := json.Unmarshal([]byte(payload.Raw), &out); err != nil {
		return nil, fmt.Errorf("%w: decode object: %v", ErrBadPayload, err)
	}
	return &out, nil
}

// errorMessage pulls a human-readable message out of an error body.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	r := gjson.GetManyBytes(body, "message", "error", "detail", "error.message")
	for _, v := range r {
		if v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

// firstString returns the first string value found at any of paths.
func firstString(body []byte, paths ...string) string {
	for _, v := range gjson.GetManyBytes(body, paths...) {
		if v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}
