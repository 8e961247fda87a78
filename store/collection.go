package store

import "github.com/jacentio/arbor/tree"

// Collection is an ordered ID to record mapping. Collections returned by the
// Store are copies; changing them does not change stored state.
type Collection struct {
	root *tree.Value
}

func newCollection(root *tree.Value) *Collection {
	if root == nil {
		root = tree.EmptyMap()
	}
	return &Collection{root: root}
}

// Len returns the number of records.
func (c *Collection) Len() int { return c.root.Len() }

// IDs returns the record IDs in stored order.
func (c *Collection) IDs() []string { return c.root.Keys() }

// Has reports whether id is present.
func (c *Collection) Has(id string) bool {
	_, ok := c.root.Lookup(id)
	return ok
}

// Get returns the record stored under id.
func (c *Collection) Get(id string) (*tree.Value, bool) {
	return c.root.Lookup(id)
}

// Records returns the ID/record pairs in stored order.
func (c *Collection) Records() []tree.Entry { return c.root.Entries() }

// Value returns the collection as a single mapping keyed by ID.
func (c *Collection) Value() *tree.Value { return c.root }

// Clone returns a deep copy.
func (c *Collection) Clone() *Collection { return &Collection{root: c.root.Clone()} }

func (c *Collection) put(id string, record *tree.Value) { c.root.Put(id, record) }

func (c *Collection) remove(id string) (*tree.Value, bool) { return c.root.Remove(id) }

// rename removes from and stores record under to. A new ID is appended at the
// end; an existing record under to is replaced in place.
func (c *Collection) rename(from, to string, record *tree.Value) {
	if from != to {
		c.root.Remove(from)
	}
	c.root.Put(to, record)
}
