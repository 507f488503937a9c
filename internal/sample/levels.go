package sample

import (
	"fmt"
	"math/rand/v2"

	"github.com/meigma/tablepack"
)

// Level is one row of the Levels table.
type Level struct {
	ID         int32
	ItemID     int32
	Difficulty int32
	IsLoop     bool

	// Item is the reward item, linked by ResolveRefs.
	Item *Item
}

// Levels is the Levels table.
type Levels struct {
	DataList []*Level
	DataMap  map[int32]*Level

	loopLevels   []*Level
	byDifficulty map[int32][]*Level
}

// Get returns the level with the given id.
func (t *Levels) Get(id int32) (*Level, bool) {
	level, ok := t.DataMap[id]
	return level, ok
}

// LoopLevels returns the levels flagged as loop levels, in table order.
func (t *Levels) LoopLevels() []*Level {
	if t.loopLevels != nil {
		return t.loopLevels
	}
	t.loopLevels = make([]*Level, 0)
	for _, level := range t.DataList {
		if level.IsLoop {
			t.loopLevels = append(t.loopLevels, level)
		}
	}
	return t.loopLevels
}

// ByDifficulty returns the loop levels of one difficulty.
func (t *Levels) ByDifficulty(difficulty int32) []*Level {
	if t.byDifficulty == nil {
		t.byDifficulty = make(map[int32][]*Level)
		for _, level := range t.LoopLevels() {
			t.byDifficulty[level.Difficulty] = append(t.byDifficulty[level.Difficulty], level)
		}
	}
	return t.byDifficulty[difficulty]
}

// RandomLevel picks a loop level of the given difficulty.
func (t *Levels) RandomLevel(rng *rand.Rand, difficulty int32) (int32, bool) {
	candidates := t.ByDifficulty(difficulty)
	if len(candidates) == 0 {
		return -1, false
	}
	return candidates[rng.IntN(len(candidates))].ID, true
}

// resolve links each level to its reward item. Nothing is linked unless
// every reference resolves.
func (t *Levels) resolve(items *Items) error {
	links := make([]*Item, len(t.DataList))
	for i, level := range t.DataList {
		item, ok := items.Get(level.ItemID)
		if !ok {
			return fmt.Errorf("sample: level %d references missing item %d", level.ID, level.ItemID)
		}
		links[i] = item
	}
	for i, level := range t.DataList {
		level.Item = links[i]
	}
	return nil
}

// DecodeLevels builds the Levels table from its bytes.
func DecodeLevels(v tablepack.View) (*Levels, error) {
	r := rowReader{b: v.Bytes()}
	n, err := r.count(13)
	if err != nil {
		return nil, err
	}
	t := &Levels{
		DataList: make([]*Level, 0, n),
		DataMap:  make(map[int32]*Level, n),
	}
	for range n {
		var level Level
		if level.ID, err = r.int32(); err != nil {
			return nil, err
		}
		if level.ItemID, err = r.int32(); err != nil {
			return nil, err
		}
		if level.Difficulty, err = r.int32(); err != nil {
			return nil, err
		}
		if level.IsLoop, err = r.bool(); err != nil {
			return nil, err
		}
		if _, dup := t.DataMap[level.ID]; dup {
			return nil, fmt.Errorf("sample: duplicate level id %d", level.ID)
		}
		t.DataList = append(t.DataList, &level)
		t.DataMap[level.ID] = &level
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return t, nil
}

// EncodeLevels encodes rows in the Levels table format. Item links are not encoded.
func EncodeLevels(levels []Level) []byte {
	b := appendInt32(nil, int32(len(levels))) //nolint:gosec // test-sized tables
	for _, level := range levels {
		b = appendInt32(b, level.ID)
		b = appendInt32(b, level.ItemID)
		b = appendInt32(b, level.Difficulty)
		b = appendBool(b, level.IsLoop)
	}
	return b
}
