package models

import "time"

// Token is one catalogued secret record. CreatedAt is kept as the raw
// ISO-8601 string so timestamps recovered from legacy files round-trip
// byte for byte.
type Token struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Value     string `json:"value"`
	Tag       string `json:"tag"`
	CreatedAt string `json:"createdAt"`
}

// TokenInput carries the caller-editable fields of a token.
// CreatedAt is optional; when empty the store fills in the write time
// (insert) or keeps the existing value (update).
type TokenInput struct {
	Name      string
	Value     string
	Tag       string
	CreatedAt string
}

// timestampLayout matches the millisecond-precision UTC form the
// collection has always been written with.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t in the collection's canonical createdAt form.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
