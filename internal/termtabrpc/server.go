// Package termtabrpc exposes a registry of tables over the network
// using net/rpc with its default gob codec. The teacher repo's own
// RPC surface (grpc + gogo/protobuf, wired through tempodb/backendscheduler)
// is tied to distributed tracing's block-transfer semantics and isn't a
// fit here; termtab's wire traffic is small request/response envelopes
// exchanged between one daemon and its CLI, so net/rpc's gob codec
// (the same encoding the teacher's wal package already uses for its
// on-disk index) is the right-sized ambient choice. See DESIGN.md.
package termtabrpc

import (
	"bytes"
	"net"
	"net/rpc"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/loxia-systems/termtab/internal/linhash"
	"github.com/loxia-systems/termtab/internal/matchspec"
	"github.com/loxia-systems/termtab/internal/registry"
	"github.com/loxia-systems/termtab/internal/term"
	"github.com/loxia-systems/termtab/pkg/termtabpb"
)

// defaultChunkSize bounds a single select* RPC call's work when the
// caller doesn't specify one, mirroring internal/linhash's own
// reductionBudget so a huge scanning select traps into a continuation
// instead of blocking one RPC call indefinitely.
const defaultChunkSize = 1000

// Service adapts a *registry.Registry to the net/rpc calling
// convention: every exported method takes (*Request, *Response) and
// returns error. It also holds in-flight select* continuations, keyed
// by an opaque id handed to the client — Continuation's fields are all
// unexported, so the server is the only place that can hold one
// between RPC calls.
type Service struct {
	reg    *registry.Registry
	logger log.Logger

	contMu sync.Mutex
	conts  map[string]*linhash.Continuation
}

// Server wraps an rpc.Server bound to a TCP listener.
type Server struct {
	logger   log.Logger
	listener net.Listener
	rpcSrv   *rpc.Server
}

// NewServer registers reg's table operations under the RPC name
// "Termtab" and binds addr.
func NewServer(addr string, reg *registry.Registry, logger log.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	rpcSrv := rpc.NewServer()
	svc := &Service{reg: reg, logger: logger, conts: make(map[string]*linhash.Continuation)}
	if err := rpcSrv.RegisterName("Termtab", svc); err != nil {
		ln.Close()
		return nil, err
	}
	return &Server{logger: logger, listener: ln, rpcSrv: rpcSrv}, nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Serve accepts connections until the listener is closed.
func (s *Server) Serve() error {
	level.Info(s.logger).Log("msg", "termtabrpc server listening", "addr", s.listener.Addr())
	s.rpcSrv.Accept(s.listener)
	return nil
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

func decodeTerm(e termtabpb.EncodedTerm) (term.Term, error) {
	t, _, err := term.Decode(e)
	return t, err
}

func encodeTerm(t term.Term) termtabpb.EncodedTerm {
	return term.Encode(nil, t)
}

// compileProgram builds a matchspec.Program from a request's
// head/guards/body fields against tbl's configured key position.
func compileProgram(req *termtabpb.Request, tbl *linhash.Table) (*matchspec.Program, error) {
	head, err := decodeTerm(req.MatchHead)
	if err != nil {
		return nil, err
	}
	body, err := decodeTerm(req.MatchBody)
	if err != nil {
		return nil, err
	}
	guards := make([]matchspec.Guard, len(req.Guards))
	for i, g := range req.Guards {
		guards[i] = matchspec.Guard{Op: matchspec.GuardOp(g.Op), A: g.A, B: g.B}
	}
	return matchspec.Compile(head, guards, body, tbl.KeyPos())
}

// Create handles termtabpb.OpCreate.
func (s *Service) Create(req *termtabpb.Request, resp *termtabpb.Response) error {
	opts := linhash.DefaultOptions()
	opts.Semantics = linhash.Semantics(req.Semantics)
	opts.KeyPos = req.KeyPos
	opts.Compressed = req.Compressed
	_, err := s.reg.Create(req.Table, opts)
	return fillErr(resp, err)
}

// Drop handles termtabpb.OpDrop.
func (s *Service) Drop(req *termtabpb.Request, resp *termtabpb.Response) error {
	return fillErr(resp, s.reg.Drop(req.Table))
}

// Insert handles termtabpb.OpInsert.
func (s *Service) Insert(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	obj, err := decodeTerm(req.Object)
	if err != nil {
		return fillErr(resp, err)
	}
	return fillErr(resp, tbl.Insert(obj))
}

// InsertOrFail handles termtabpb.OpInsertOrFail.
func (s *Service) InsertOrFail(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	obj, err := decodeTerm(req.Object)
	if err != nil {
		return fillErr(resp, err)
	}
	return fillErr(resp, tbl.InsertOrFail(obj))
}

// Lookup handles termtabpb.OpLookup.
func (s *Service) Lookup(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	key, err := decodeTerm(req.Key)
	if err != nil {
		return fillErr(resp, err)
	}
	objs, err := tbl.Lookup(key)
	if err != nil {
		return fillErr(resp, err)
	}
	return fillObjects(resp, objs)
}

// Member handles termtabpb.OpMember.
func (s *Service) Member(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	key, err := decodeTerm(req.Key)
	if err != nil {
		return fillErr(resp, err)
	}
	member, err := tbl.Member(key)
	if err != nil {
		return fillErr(resp, err)
	}
	resp.OK = member
	return nil
}

// GetElement handles termtabpb.OpGetElement.
func (s *Service) GetElement(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	key, err := decodeTerm(req.Key)
	if err != nil {
		return fillErr(resp, err)
	}
	objs, err := tbl.GetElement(key, req.Pos)
	if err != nil {
		return fillErr(resp, err)
	}
	return fillObjects(resp, objs)
}

// Delete handles termtabpb.OpDelete.
func (s *Service) Delete(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	key, err := decodeTerm(req.Key)
	if err != nil {
		return fillErr(resp, err)
	}
	objs, err := tbl.Delete(key)
	if err != nil {
		return fillErr(resp, err)
	}
	return fillObjects(resp, objs)
}

// EraseObject handles termtabpb.OpDeleteObject.
func (s *Service) EraseObject(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	obj, err := decodeTerm(req.Object)
	if err != nil {
		return fillErr(resp, err)
	}
	return fillErr(resp, tbl.DeleteObject(obj))
}

// Take handles termtabpb.OpTake.
func (s *Service) Take(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	key, err := decodeTerm(req.Key)
	if err != nil {
		return fillErr(resp, err)
	}
	objs, err := tbl.Take(key)
	if err != nil {
		return fillErr(resp, err)
	}
	return fillObjects(resp, objs)
}

// First handles termtabpb.OpFirst.
func (s *Service) First(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	obj, cursor, found := tbl.First()
	resp.OK = found
	if found {
		resp.Objects = []termtabpb.EncodedTerm{encodeTerm(obj)}
		resp.Cursor = cursor
	}
	return nil
}

// Next handles termtabpb.OpNext.
func (s *Service) Next(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	obj, cursor, found := tbl.Next(req.Cursor)
	resp.OK = found
	if found {
		resp.Objects = []termtabpb.EncodedTerm{encodeTerm(obj)}
		resp.Cursor = cursor
	}
	return nil
}

// FirstWithValues handles termtabpb.OpFirstValues.
func (s *Service) FirstWithValues(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	key, obj, cursor, found := tbl.FirstWithValues()
	resp.OK = found
	if found {
		resp.Key = encodeTerm(key)
		resp.Objects = []termtabpb.EncodedTerm{encodeTerm(obj)}
		resp.Cursor = cursor
	}
	return nil
}

// NextWithValues handles termtabpb.OpNextValues.
func (s *Service) NextWithValues(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	key, obj, cursor, found := tbl.NextWithValues(req.Cursor)
	resp.OK = found
	if found {
		resp.Key = encodeTerm(key)
		resp.Objects = []termtabpb.EncodedTerm{encodeTerm(obj)}
		resp.Cursor = cursor
	}
	return nil
}

// Slot handles termtabpb.OpSlot, the unstable-under-resize raw
// bucket-index diagnostic.
func (s *Service) Slot(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	n := tbl.SlotLen(req.Slot)
	resp.OK = n >= 0
	resp.Count = n
	return nil
}

// Select handles termtabpb.OpSelect/OpSelectCount/OpSelectDel/
// OpSelectReplace: compiles req into a matchspec.Program, runs one
// bounded chunk, and — if the traversal trapped — stashes the
// continuation under a fresh id returned to the caller for
// SelectContinue.
func (s *Service) Select(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	prog, err := compileProgram(req, tbl)
	if err != nil {
		return fillErr(resp, err)
	}
	var op linhash.SelectOp
	switch req.Op {
	case termtabpb.OpSelect:
		op = linhash.OpSelect
	case termtabpb.OpSelectCount:
		op = linhash.OpSelectCount
	case termtabpb.OpSelectDel:
		op = linhash.OpSelectDelete
	case termtabpb.OpSelectReplace:
		if !prog.IsKeyPreserving() {
			return fillErr(resp, &linhash.Error{Code: linhash.BADPARAM, Msg: "select_replace body is not key-preserving"})
		}
		op = linhash.OpSelectReplace
	default:
		return fillErr(resp, &linhash.Error{Code: linhash.BADPARAM, Msg: "unknown select op"})
	}
	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	out, cont, err := tbl.SelectChunk(prog, op, chunkSize)
	if err != nil {
		return fillErr(resp, err)
	}
	if err := fillObjects(resp, out); err != nil {
		return err
	}
	if cont != nil {
		id := uuid.NewString()
		s.contMu.Lock()
		s.conts[id] = cont
		s.contMu.Unlock()
		resp.Continuation = id
	} else {
		resp.Done = true
	}
	return nil
}

// SelectContinue handles termtabpb.OpSelectCont, resuming a trapped
// traversal by its continuation id.
func (s *Service) SelectContinue(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	s.contMu.Lock()
	cont, ok := s.conts[req.Continuation]
	s.contMu.Unlock()
	if !ok {
		return fillErr(resp, &linhash.Error{Code: linhash.BADPARAM, Msg: "unknown or expired continuation"})
	}
	out, next, err := tbl.SelectContinue(cont)
	s.contMu.Lock()
	delete(s.conts, req.Continuation)
	if next != nil {
		id := uuid.NewString()
		s.conts[id] = next
		resp.Continuation = id
	} else {
		resp.Done = true
	}
	s.contMu.Unlock()
	if err != nil {
		return fillErr(resp, err)
	}
	return fillObjects(resp, out)
}

// DeleteAll handles termtabpb.OpDeleteAll.
func (s *Service) DeleteAll(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	tbl.DeleteAllObjects()
	resp.OK = true
	return nil
}

// FreeContinue handles termtabpb.OpFreeContinue.
func (s *Service) FreeContinue(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	budget := req.Budget
	if budget <= 0 {
		budget = defaultChunkSize
	}
	resp.Done = tbl.FreeContinue(budget)
	resp.OK = true
	return nil
}

// Print handles termtabpb.OpPrint.
func (s *Service) Print(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	var buf bytes.Buffer
	if err := tbl.Print(&buf); err != nil {
		return fillErr(resp, err)
	}
	resp.OK = true
	resp.Text = buf.String()
	return nil
}

// Stats handles termtabpb.OpStats.
func (s *Service) Stats(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	st := tbl.Stats()
	resp.OK = true
	resp.Stats = &termtabpb.StatsDTO{
		Size: st.Size, NumSlots: st.NumSlots, NumSegments: st.NumSegments,
		NumStripes: st.NumStripes, FixCount: st.FixCount, MinChainLen: st.MinChainLen,
		MaxChainLen: st.MaxChainLen, AvgChainLen: st.AvgChainLen, StdDevChainLen: st.StdDevChainLen,
	}
	return nil
}

// Fix handles termtabpb.OpFix.
func (s *Service) Fix(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	tbl.Fix()
	resp.OK = true
	return nil
}

// Unfix handles termtabpb.OpUnfix.
func (s *Service) Unfix(req *termtabpb.Request, resp *termtabpb.Response) error {
	tbl, ok := s.reg.Lookup(req.Table)
	if !ok {
		return fillErr(resp, errNoTable(req.Table))
	}
	tbl.Unfix()
	resp.OK = true
	return nil
}

func fillObjects(resp *termtabpb.Response, objs []term.Term) error {
	resp.OK = true
	resp.Count = len(objs)
	resp.Objects = make([]termtabpb.EncodedTerm, len(objs))
	for i, o := range objs {
		resp.Objects[i] = encodeTerm(o)
	}
	return nil
}

func fillErr(resp *termtabpb.Response, err error) error {
	if err != nil {
		resp.OK = false
		resp.Err = err.Error()
		return nil
	}
	resp.OK = true
	return nil
}

func errNoTable(name string) error {
	return &linhash.Error{Code: linhash.BADPARAM, Msg: "no such table: " + name}
}
