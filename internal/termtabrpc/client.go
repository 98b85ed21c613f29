package termtabrpc

import (
	"errors"
	"net/rpc"

	"github.com/loxia-systems/termtab/internal/linhash"
	"github.com/loxia-systems/termtab/internal/matchspec"
	"github.com/loxia-systems/termtab/internal/term"
	"github.com/loxia-systems/termtab/pkg/termtabpb"
)

// Client is a thin wrapper around net/rpc.Client bound to the
// "Termtab" service name registered by Server.
type Client struct {
	rpcClient *rpc.Client
}

// Dial connects to a termtabd RPC listener.
func Dial(addr string) (*Client, error) {
	c, err := rpc.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{rpcClient: c}, nil
}

func (c *Client) Close() error { return c.rpcClient.Close() }

func (c *Client) call(method string, req *termtabpb.Request) (*termtabpb.Response, error) {
	var resp termtabpb.Response
	if err := c.rpcClient.Call("Termtab."+method, req, &resp); err != nil {
		return nil, err
	}
	if !resp.OK && resp.Err != "" {
		return &resp, errors.New(resp.Err)
	}
	return &resp, nil
}

func (c *Client) CreateTable(name string, opts linhash.Options) error {
	_, err := c.call("Create", &termtabpb.Request{
		Table: name, Semantics: int(opts.Semantics), KeyPos: opts.KeyPos, Compressed: opts.Compressed,
	})
	return err
}

func (c *Client) DropTable(name string) error {
	_, err := c.call("Drop", &termtabpb.Request{Table: name})
	return err
}

func (c *Client) Insert(table string, obj term.Term) error {
	_, err := c.call("Insert", &termtabpb.Request{Table: table, Object: term.Encode(nil, obj)})
	return err
}

// InsertOrFail inserts obj, failing with BADKEY instead of overwriting
// if a live entry already exists under obj's key, regardless of the
// table's configured Semantics.
func (c *Client) InsertOrFail(table string, obj term.Term) error {
	_, err := c.call("InsertOrFail", &termtabpb.Request{Table: table, Object: term.Encode(nil, obj)})
	return err
}

func (c *Client) Lookup(table string, key term.Term) ([]term.Term, error) {
	resp, err := c.call("Lookup", &termtabpb.Request{Table: table, Key: term.Encode(nil, key)})
	if err != nil {
		return nil, err
	}
	return decodeAll(resp.Objects)
}

func (c *Client) Member(table string, key term.Term) (bool, error) {
	resp, err := c.call("Member", &termtabpb.Request{Table: table, Key: term.Encode(nil, key)})
	if err != nil {
		return false, err
	}
	return resp.OK, nil
}

// GetElement returns the pos'th tuple field (1-indexed) of every live
// object under key.
func (c *Client) GetElement(table string, key term.Term, pos int) ([]term.Term, error) {
	resp, err := c.call("GetElement", &termtabpb.Request{Table: table, Key: term.Encode(nil, key), Pos: pos})
	if err != nil {
		return nil, err
	}
	return decodeAll(resp.Objects)
}

func (c *Client) Delete(table string, key term.Term) ([]term.Term, error) {
	resp, err := c.call("Delete", &termtabpb.Request{Table: table, Key: term.Encode(nil, key)})
	if err != nil {
		return nil, err
	}
	return decodeAll(resp.Objects)
}

// EraseObject removes exactly obj (spec.md's erase_object), leaving
// other objects under the same key untouched.
func (c *Client) EraseObject(table string, obj term.Term) error {
	_, err := c.call("EraseObject", &termtabpb.Request{Table: table, Object: term.Encode(nil, obj)})
	return err
}

// Take deletes and returns every live object under key in one call.
func (c *Client) Take(table string, key term.Term) ([]term.Term, error) {
	resp, err := c.call("Take", &termtabpb.Request{Table: table, Key: term.Encode(nil, key)})
	if err != nil {
		return nil, err
	}
	return decodeAll(resp.Objects)
}

// First returns the first object in cursor order along with the
// cursor to pass to Next.
func (c *Client) First(table string) (obj term.Term, cursor uint64, ok bool, err error) {
	resp, err := c.call("First", &termtabpb.Request{Table: table})
	if err != nil {
		return nil, 0, false, err
	}
	if !resp.OK || len(resp.Objects) == 0 {
		return nil, 0, false, nil
	}
	obj, _, err = term.Decode(resp.Objects[0])
	return obj, resp.Cursor, err == nil, err
}

// Next resumes cursor-order traversal from cursor.
func (c *Client) Next(table string, cursor uint64) (obj term.Term, next uint64, ok bool, err error) {
	resp, err := c.call("Next", &termtabpb.Request{Table: table, Cursor: cursor})
	if err != nil {
		return nil, 0, false, err
	}
	if !resp.OK || len(resp.Objects) == 0 {
		return nil, 0, false, nil
	}
	obj, _, err = term.Decode(resp.Objects[0])
	return obj, resp.Cursor, err == nil, err
}

// FirstWithValues is First, additionally returning the key of the
// first entry.
func (c *Client) FirstWithValues(table string) (key, obj term.Term, cursor uint64, ok bool, err error) {
	resp, err := c.call("FirstWithValues", &termtabpb.Request{Table: table})
	if err != nil {
		return nil, nil, 0, false, err
	}
	if !resp.OK || len(resp.Objects) == 0 {
		return nil, nil, 0, false, nil
	}
	key, _, err = term.Decode(resp.Key)
	if err != nil {
		return nil, nil, 0, false, err
	}
	obj, _, err = term.Decode(resp.Objects[0])
	return key, obj, resp.Cursor, err == nil, err
}

// NextWithValues is Next, additionally returning the key of the
// resumed entry.
func (c *Client) NextWithValues(table string, cursor uint64) (key, obj term.Term, next uint64, ok bool, err error) {
	resp, err := c.call("NextWithValues", &termtabpb.Request{Table: table, Cursor: cursor})
	if err != nil {
		return nil, nil, 0, false, err
	}
	if !resp.OK || len(resp.Objects) == 0 {
		return nil, nil, 0, false, nil
	}
	key, _, err = term.Decode(resp.Key)
	if err != nil {
		return nil, nil, 0, false, err
	}
	obj, _, err = term.Decode(resp.Objects[0])
	return key, obj, resp.Cursor, err == nil, err
}

// Slot returns the number of live entries chained off raw bucket
// index slot, or false if slot is out of range. An unstable
// diagnostic: slot numbering shifts across a split/merge.
func (c *Client) Slot(table string, slot uint64) (int, bool, error) {
	resp, err := c.call("Slot", &termtabpb.Request{Table: table, Slot: slot})
	if err != nil {
		return 0, false, err
	}
	return resp.Count, resp.OK, nil
}

// guardDTOs converts matchspec guards to their wire form.
func guardDTOs(guards []matchspec.Guard) []termtabpb.GuardDTO {
	out := make([]termtabpb.GuardDTO, len(guards))
	for i, g := range guards {
		out[i] = termtabpb.GuardDTO{Op: int(g.Op), A: g.A, B: g.B}
	}
	return out
}

// selectResult is the shared decode path for every select* RPC:
// objects, an opaque continuation id (empty once the traversal is
// exhausted), and whether it's done.
type selectResult struct {
	Objects      []term.Term
	Continuation string
	Done         bool
}

func (c *Client) selectCall(table string, head, body term.Term, guards []matchspec.Guard, op termtabpb.Op, chunkSize int) (*selectResult, error) {
	resp, err := c.call("Select", &termtabpb.Request{
		Table: table, Op: op,
		MatchHead: term.Encode(nil, head), MatchBody: term.Encode(nil, body),
		Guards: guardDTOs(guards), ChunkSize: chunkSize,
	})
	if err != nil {
		return nil, err
	}
	objs, err := decodeAll(resp.Objects)
	if err != nil {
		return nil, err
	}
	return &selectResult{Objects: objs, Continuation: resp.Continuation, Done: resp.Done}, nil
}

// Select runs one bounded select chunk against table, returning
// matched/rewritten objects and a continuation id to pass to
// SelectContinue if the traversal trapped (Done is false).
func (c *Client) Select(table string, head term.Term, guards []matchspec.Guard, body term.Term, chunkSize int) (*selectResult, error) {
	return c.selectCall(table, head, body, guards, termtabpb.OpSelect, chunkSize)
}

// SelectCount is Select for OpSelectCount.
func (c *Client) SelectCount(table string, head term.Term, guards []matchspec.Guard, body term.Term, chunkSize int) (*selectResult, error) {
	return c.selectCall(table, head, body, guards, termtabpb.OpSelectCount, chunkSize)
}

// SelectDelete is Select for select_delete.
func (c *Client) SelectDelete(table string, head term.Term, guards []matchspec.Guard, body term.Term, chunkSize int) (*selectResult, error) {
	return c.selectCall(table, head, body, guards, termtabpb.OpSelectDel, chunkSize)
}

// SelectReplace is Select for select_replace; body must be
// key-preserving or the server returns BADPARAM.
func (c *Client) SelectReplace(table string, head term.Term, guards []matchspec.Guard, body term.Term, chunkSize int) (*selectResult, error) {
	return c.selectCall(table, head, body, guards, termtabpb.OpSelectReplace, chunkSize)
}

// SelectContinue resumes a trapped select* traversal by its
// continuation id.
func (c *Client) SelectContinue(table, continuation string) (*selectResult, error) {
	resp, err := c.call("SelectContinue", &termtabpb.Request{Table: table, Continuation: continuation})
	if err != nil {
		return nil, err
	}
	objs, err := decodeAll(resp.Objects)
	if err != nil {
		return nil, err
	}
	return &selectResult{Objects: objs, Continuation: resp.Continuation, Done: resp.Done}, nil
}

// DeleteAllObjects removes every object from table without dropping
// it.
func (c *Client) DeleteAllObjects(table string) error {
	_, err := c.call("DeleteAll", &termtabpb.Request{Table: table})
	return err
}

// FreeContinue runs one bounded chunk of a free-table teardown and
// reports whether the table is now fully freed.
func (c *Client) FreeContinue(table string, budget int) (bool, error) {
	resp, err := c.call("FreeContinue", &termtabpb.Request{Table: table, Budget: budget})
	if err != nil {
		return false, err
	}
	return resp.Done, nil
}

// Print returns a human-readable dump of table's contents.
func (c *Client) Print(table string) (string, error) {
	resp, err := c.call("Print", &termtabpb.Request{Table: table})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (c *Client) Stats(table string) (*termtabpb.StatsDTO, error) {
	resp, err := c.call("Stats", &termtabpb.Request{Table: table})
	if err != nil {
		return nil, err
	}
	return resp.Stats, nil
}

func (c *Client) Fix(table string) error {
	_, err := c.call("Fix", &termtabpb.Request{Table: table})
	return err
}

func (c *Client) Unfix(table string) error {
	_, err := c.call("Unfix", &termtabpb.Request{Table: table})
	return err
}

func decodeAll(encoded []termtabpb.EncodedTerm) ([]term.Term, error) {
	out := make([]term.Term, len(encoded))
	for i, e := range encoded {
		t, _, err := term.Decode(e)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
