// Package termtabpb defines the request/response envelopes exchanged
// between termtab-cli and termtabd, encoded with encoding/gob the same
// way the teacher repo's wal package gob-encodes its head-block index
// rather than hand-rolling a binary layout for internal-only traffic.
package termtabpb

// Op names one RPC the daemon understands. It mirrors spec.md §6's
// operation surface in full — termtabrpc exposes exactly this set.
type Op string

const (
	OpInsert        Op = "insert"
	OpInsertOrFail  Op = "insert_or_fail"
	OpLookup        Op = "lookup"
	OpMember        Op = "member"
	OpGetElement    Op = "get_element"
	OpDelete        Op = "delete"
	OpDeleteObject  Op = "erase_object"
	OpTake          Op = "take"
	OpCreate        Op = "create"
	OpDrop          Op = "drop"
	OpStats         Op = "stats"
	OpSlot          Op = "slot"
	OpFix           Op = "fix"
	OpUnfix         Op = "unfix"
	OpFirst         Op = "first"
	OpNext          Op = "next"
	OpFirstValues   Op = "first_with_values"
	OpNextValues    Op = "next_with_values"
	OpSelect        Op = "select"
	OpSelectCount   Op = "select_count"
	OpSelectDel     Op = "select_delete"
	OpSelectReplace Op = "select_replace"
	OpSelectCont    Op = "select_continue"
	OpDeleteAll     Op = "delete_all_objects"
	OpFreeContinue  Op = "free_table_continue"
	OpPrint         Op = "print"
)

// EncodedTerm is a table term already run through internal/term.Encode,
// kept opaque at the RPC layer so termtabpb doesn't need to depend on
// internal/term's concrete types directly.
type EncodedTerm []byte

// GuardDTO mirrors internal/matchspec.Guard for wire transport, keeping
// termtabpb free of a matchspec import; termtabrpc converts on both
// ends.
type GuardDTO struct {
	Op   int
	A, B int
}

// Request is the envelope for one RPC call.
type Request struct {
	Op           Op
	Table        string
	Object       EncodedTerm // Insert, InsertOrFail, EraseObject
	Key          EncodedTerm // Lookup, Member, GetElement, Delete, Take
	Pos          int         // GetElement
	Semantics    int         // Create
	KeyPos       int         // Create
	Compressed   bool        // Create
	MatchHead    EncodedTerm // Select*
	MatchBody    EncodedTerm // Select*
	Guards       []GuardDTO  // Select*
	Cursor       uint64      // Next, NextWithValues
	Slot         uint64      // Slot diagnostic
	Continuation string      // SelectContinue
	ChunkSize    int         // Select* (0 or less means the server default of 1000)
	Budget       int         // FreeContinue
}

// Response is the envelope for one RPC reply.
type Response struct {
	OK           bool
	Err          string
	Objects      []EncodedTerm
	Key          EncodedTerm // FirstWithValues, NextWithValues
	Count        int
	Cursor       uint64
	Continuation string // non-empty when a select* call trapped
	Done         bool
	Text         string // Print dump
	Stats        *StatsDTO
}

// StatsDTO mirrors internal/linhash.Stats for wire transport.
type StatsDTO struct {
	Size           int64
	NumSlots       uint64
	NumSegments    int
	NumStripes     int
	FixCount       int64
	MinChainLen    int
	MaxChainLen    int
	AvgChainLen    float64
	StdDevChainLen float64
}
