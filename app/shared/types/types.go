package sharedtypes

// GameName identifies a tracked activity with its own independent ledger.
type GameName string

func (n GameName) String() string { return string(n) }

// Username is free text and may contain spaces.
type Username string

func (u Username) String() string { return string(u) }

// CycleNumber is the 1-based repetition attempt for a (username, game) pair.
type CycleNumber int

// RecordDate is a bare "MM-DD" string. It carries no year and is never
// validated; insertion order is the authoritative ordering key.
type RecordDate string

// Count is the running cumulative count within a cycle at write time.
type Count int

// RecordEntry is one (date, count) pair as it appears in a spreadsheet cell.
type RecordEntry struct {
	Date  RecordDate `json:"date"`
	Count Count      `json:"count"`
}
