package storage

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Go-Global/storygraph-v0/pkg/logging"
)

type indexKey struct {
	label    string
	property string
}

// UniqueIndex maps the value of one property to the single node of a label
// that carries it.
type UniqueIndex struct {
	Label    string
	Property string
	entries  map[string]uint64
}

// IndexSpec names a unique index; it is what snapshots persist.
type IndexSpec struct {
	Label    string
	Property string
}

// indexValue renders a scalar as an index entry. Slices and other values
// are not indexable.
func indexValue(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return "s:" + x, true
	case int64:
		return fmt.Sprintf("n:%d", x), true
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return fmt.Sprintf("n:%d", int64(x)), true
		}
		return fmt.Sprintf("f:%g", x), true
	case bool:
		return fmt.Sprintf("b:%t", x), true
	case time.Time:
		return "t:" + x.UTC().Format(time.RFC3339Nano), true
	}
	return "", false
}

// CreateUniqueIndex indexes property on every node with label and rejects
// later writes that would give two such nodes the same value. Creating an
// existing index is a no-op. Existing duplicates fail the call.
func (gs *GraphStorage) CreateUniqueIndex(label, property string) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if err := gs.checkClosed("CreateUniqueIndex"); err != nil {
		return err
	}
	return gs.createUniqueIndexLocked(label, property)
}

func (gs *GraphStorage) createUniqueIndexLocked(label, property string) error {
	key := indexKey{label, property}
	if _, exists := gs.uniqueIndexes[key]; exists {
		return nil
	}

	idx := &UniqueIndex{Label: label, Property: property, entries: make(map[string]uint64)}
	for _, id := range gs.nodesByLabel[label] {
		v, ok := gs.nodes[id].Properties[property]
		if !ok {
			continue
		}
		entry, ok := indexValue(v)
		if !ok {
			return NewError("CreateUniqueIndex").Index(label+"."+property).Cause(ErrUnindexableValue).Err()
		}
		if other, dup := idx.entries[entry]; dup && other != id {
			return UniqueViolationError("CreateUniqueIndex", label, property, v)
		}
		idx.entries[entry] = id
	}

	gs.uniqueIndexes[key] = idx
	gs.indexesByLabel[label] = append(gs.indexesByLabel[label], idx)
	gs.logger.Debug("unique index created", logging.String("label", label), logging.String("property", property))
	return nil
}

// HasUniqueIndex reports whether a unique index exists on (label, property).
func (gs *GraphStorage) HasUniqueIndex(label, property string) bool {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	_, ok := gs.uniqueIndexes[indexKey{label, property}]
	return ok
}

// UniqueIndexes lists the unique indexes ordered by label then property.
func (gs *GraphStorage) UniqueIndexes() []IndexSpec {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.indexSpecsLocked()
}

func (gs *GraphStorage) indexSpecsLocked() []IndexSpec {
	specs := make([]IndexSpec, 0, len(gs.uniqueIndexes))
	for k := range gs.uniqueIndexes {
		specs = append(specs, IndexSpec{Label: k.label, Property: k.property})
	}
	sort.Slice(specs, func(i, j int) bool {
		if specs[i].Label != specs[j].Label {
			return specs[i].Label < specs[j].Label
		}
		return specs[i].Property < specs[j].Property
	})
	return specs
}

// checkUnique verifies that giving node id these labels and properties
// would not collide with another node in any unique index.
func (gs *GraphStorage) checkUnique(op string, id uint64, labels []string, props map[string]any) error {
	for _, label := range labels {
		for _, idx := range gs.indexesByLabel[label] {
			v, ok := props[idx.Property]
			if !ok {
				continue
			}
			entry, ok := indexValue(v)
			if !ok {
				return NewError(op).Index(label+"."+idx.Property).Cause(ErrUnindexableValue).Err()
			}
			if other, exists := idx.entries[entry]; exists && other != id {
				return UniqueViolationError(op, label, idx.Property, v)
			}
		}
	}
	return nil
}

func (gs *GraphStorage) indexNode(n *Node) {
	for _, label := range n.Labels {
		for _, idx := range gs.indexesByLabel[label] {
			if v, ok := n.Properties[idx.Property]; ok {
				if entry, ok := indexValue(v); ok {
					idx.entries[entry] = n.ID
				}
			}
		}
	}
}

func (gs *GraphStorage) unindexNode(n *Node) {
	for _, label := range n.Labels {
		for _, idx := range gs.indexesByLabel[label] {
			if v, ok := n.Properties[idx.Property]; ok {
				if entry, ok := indexValue(v); ok && idx.entries[entry] == n.ID {
					delete(idx.entries, entry)
				}
			}
		}
	}
}

// lookupUnique returns the node indexed under (label, property, value).
func (gs *GraphStorage) lookupUnique(label, property string, value any) (uint64, bool, bool) {
	idx, ok := gs.uniqueIndexes[indexKey{label, property}]
	if !ok {
		return 0, false, false
	}
	entry, ok := indexValue(value)
	if !ok {
		return 0, false, true
	}
	id, found := idx.entries[entry]
	return id, found, true
}
