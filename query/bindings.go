package query

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Bucket names a partition of the binding table.
type Bucket string

// Binding buckets, in flattening order.
const (
	BucketMatches Bucket = "matches"
	BucketSelect  Bucket = "select"
	BucketWhere   Bucket = "where"
	BucketHaving  Bucket = "having"
	BucketOrder   Bucket = "order"
)

var bucketOrder = []Bucket{BucketMatches, BucketSelect, BucketWhere, BucketHaving, BucketOrder}

type entry struct {
	key   string
	value any
}

// Bindings holds the named parameter values of one statement, grouped by
// clause bucket. Every name is unique across all buckets.
type Bindings struct {
	buckets  map[Bucket][]entry
	reserved map[string]struct{}
	synth    int
}

// NewBindings creates an empty binding table.
func NewBindings() *Bindings {
	b := &Bindings{
		buckets:  make(map[Bucket][]entry, len(bucketOrder)),
		reserved: make(map[string]struct{}),
	}

	for _, name := range bucketOrder {
		b.buckets[name] = nil
	}

	return b
}

// Reserve allocates a binding name derived from base: base itself when it
// is free, otherwise base_2, base_3 and so on.
func (b *Bindings) Reserve(base string) string {
	base = b.sanitize(base)

	key := base
	for n := 2; b.taken(key); n++ {
		key = base + "_" + strconv.Itoa(n)
	}

	b.reserved[key] = struct{}{}

	return key
}

// Add stores value under key in bucket. The key must have been reserved or
// be free; a free key is reserved on the way.
func (b *Bindings) Add(bucket Bucket, key string, value any) error {
	entries, ok := b.buckets[bucket]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBucket, bucket)
	}

	key = b.sanitize(key)
	b.reserved[key] = struct{}{}

	for i, e := range entries {
		if e.key == key {
			entries[i].value = value

			return nil
		}
	}

	b.buckets[bucket] = append(entries, entry{key: key, value: value})

	return nil
}

// Bind stores a caller-named value in bucket. Unlike Add it refuses names
// that are already part of the table.
func (b *Bindings) Bind(bucket Bucket, key string, value any) error {
	if _, ok := b.buckets[bucket]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBucket, bucket)
	}

	if b.taken(key) {
		return fmt.Errorf("%w: %s", ErrBindingCollision, key)
	}

	return b.Add(bucket, key, value)
}

// Bucket returns a copy of one bucket's values.
func (b *Bindings) Bucket(bucket Bucket) (map[string]any, error) {
	entries, ok := b.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBucket, bucket)
	}

	out := make(map[string]any, len(entries))
	for _, e := range entries {
		out[e.key] = e.value
	}

	return out, nil
}

// All returns the flattened parameter set.
func (b *Bindings) All() map[string]any {
	out := make(map[string]any)

	for _, name := range bucketOrder {
		for _, e := range b.buckets[name] {
			out[e.key] = e.value
		}
	}

	return out
}

// Keys returns every stored binding name in flattening order.
func (b *Bindings) Keys() []string {
	var keys []string

	for _, name := range bucketOrder {
		for _, e := range b.buckets[name] {
			keys = append(keys, e.key)
		}
	}

	return keys
}

// Len returns the number of stored bindings.
func (b *Bindings) Len() int {
	n := 0
	for _, entries := range b.buckets {
		n += len(entries)
	}

	return n
}

// Merged returns All with extra values layered on top.
func (b *Bindings) Merged(extra map[string]any) map[string]any {
	out := b.All()
	for k, v := range extra {
		out[k] = v
	}

	return out
}

// clone copies the table so a cloned spec can evolve separately.
func (b *Bindings) clone() *Bindings {
	c := NewBindings()
	c.synth = b.synth

	for k := range b.reserved {
		c.reserved[k] = struct{}{}
	}

	for name, entries := range b.buckets {
		c.buckets[name] = append([]entry(nil), entries...)
	}

	return c
}

// swap replaces a bucket's entries and returns the previous ones.
func (b *Bindings) swap(bucket Bucket, entries []entry) []entry {
	prev := b.buckets[bucket]
	b.buckets[bucket] = entries

	return prev
}

func (b *Bindings) taken(key string) bool {
	_, ok := b.reserved[key]

	return ok
}

// sanitize turns a name into a valid, non-numeric parameter identifier.
func (b *Bindings) sanitize(name string) string {
	var sb strings.Builder

	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}

	key := strings.Trim(sb.String(), "_")
	if key == "" || isNumeric(key) {
		b.synth++

		return "param_" + strconv.Itoa(b.synth)
	}

	if unicode.IsDigit(rune(key[0])) {
		key = "p" + key
	}

	return key
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return s != ""
}
