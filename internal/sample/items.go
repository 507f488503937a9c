package sample

import (
	"fmt"

	"github.com/meigma/tablepack"
)

// Item is one row of the Items table.
type Item struct {
	ID    int32
	Name  string
	Price int32
}

// Items is the Items table.
type Items struct {
	DataList []*Item
	DataMap  map[int32]*Item
}

// Get returns the item with the given id.
func (t *Items) Get(id int32) (*Item, bool) {
	item, ok := t.DataMap[id]
	return item, ok
}

// DecodeItems builds the Items table from its bytes.
func DecodeItems(v tablepack.View) (*Items, error) {
	r := rowReader{b: v.Bytes()}
	n, err := r.count(12)
	if err != nil {
		return nil, err
	}
	t := &Items{
		DataList: make([]*Item, 0, n),
		DataMap:  make(map[int32]*Item, n),
	}
	for range n {
		var item Item
		if item.ID, err = r.int32(); err != nil {
			return nil, err
		}
		if item.Name, err = r.string(); err != nil {
			return nil, err
		}
		if item.Price, err = r.int32(); err != nil {
			return nil, err
		}
		if _, dup := t.DataMap[item.ID]; dup {
			return nil, fmt.Errorf("sample: duplicate item id %d", item.ID)
		}
		t.DataList = append(t.DataList, &item)
		t.DataMap[item.ID] = &item
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return t, nil
}

// EncodeItems encodes rows in the Items table format.
func EncodeItems(items []Item) []byte {
	b := appendInt32(nil, int32(len(items))) //nolint:gosec // test-sized tables
	for _, item := range items {
		b = appendInt32(b, item.ID)
		b = appendString(b, item.Name)
		b = appendInt32(b, item.Price)
	}
	return b
}
