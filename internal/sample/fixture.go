package sample

// FixtureItems is a small Items table used by tests and the CLI demo.
var FixtureItems = []Item{
	{ID: 1, Name: "Sword", Price: 100},
	{ID: 2, Name: "Shield", Price: 80},
	{ID: 3, Name: "Potion", Price: 5},
}

// FixtureLevels is a small Levels table referencing FixtureItems.
var FixtureLevels = []Level{
	{ID: 10, ItemID: 1, Difficulty: 1, IsLoop: true},
	{ID: 11, ItemID: 3, Difficulty: 1, IsLoop: false},
	{ID: 12, ItemID: 2, Difficulty: 2, IsLoop: true},
	{ID: 13, ItemID: 3, Difficulty: 2, IsLoop: true},
}

// FixtureTables returns the encoded fixture tables keyed by table name.
func FixtureTables() map[string][]byte {
	return map[string][]byte{
		ItemsTable:  EncodeItems(FixtureItems),
		LevelsTable: EncodeLevels(FixtureLevels),
	}
}
