package store

import "sort"

// collection is an ordered set of records keyed by id.
type collection[T any] struct {
	items []T
	id    func(*T) string
	less  func(a, b *T) bool
}

func newCollection[T any](id func(*T) string, less func(a, b *T) bool) collection[T] {
	return collection[T]{id: id, less: less}
}

func (c *collection[T]) replaceAll(items []T) {
	c.items = append(make([]T, 0, len(items)), items...)
	sort.SliceStable(c.items, func(i, j int) bool { return c.less(&c.items[i], &c.items[j]) })
}

func (c *collection[T]) index(id string) int {
	for i := range c.items {
		if c.id(&c.items[i]) == id {
			return i
		}
	}
	return -1
}

// upsert replaces the record with the same id or inserts it at its sorted
// position, after any records that compare equal.
func (c *collection[T]) upsert(item T) {
	if i := c.index(c.id(&item)); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
	pos := sort.Search(len(c.items), func(i int) bool { return c.less(&item, &c.items[i]) })
	c.items = append(c.items, item)
	copy(c.items[pos+1:], c.items[pos:])
	c.items[pos] = item
}

func (c *collection[T]) remove(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

// removeWhere drops every matching record and returns their ids.
func (c *collection[T]) removeWhere(match func(*T) bool) []string {
	var removed []string
	kept := c.items[:0]
	for i := range c.items {
		if match(&c.items[i]) {
			removed = append(removed, c.id(&c.items[i]))
			continue
		}
		kept = append(kept, c.items[i])
	}
	var zero T
	for i := len(kept); i < len(c.items); i++ {
		c.items[i] = zero
	}
	c.items = kept
	return removed
}

func (c *collection[T]) get(id string) (T, bool) {
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

func (c *collection[T]) update(match func(*T) bool, fn func(*T)) {
	for i := range c.items {
		if match(&c.items[i]) {
			fn(&c.items[i])
		}
	}
}

func (c *collection[T]) snapshot() []T {
	return append(make([]T, 0, len(c.items)), c.items...)
}

func (c *collection[T]) len() int {
	return len(c.items)
}
