// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codegen lowers a script's IR (internal/ir) to native amd64
// machine code through github.com/twitchyliquid64/golang-asm, the
// stack-slot variable cache (internal/stackcache), constant pooling
// (internal/constpool), the pausable-function ABI and the
// custom-block call ABI — spec §4.E in full.
package codegen

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/twitchyliquid64/golang-asm/obj"

	"github.com/hatrun/stagejit/internal/codegen/amd64"
	"github.com/hatrun/stagejit/internal/codegen/exec"
	"github.com/hatrun/stagejit/internal/constpool"
	"github.com/hatrun/stagejit/internal/ir"
	"github.com/hatrun/stagejit/internal/stackcache"
)

// Func holds the generator's working state for one script compilation.
type Func struct {
	ctxt    *obj.Link
	pp      *Progs
	layout  *stackcache.Layout
	consts  *constpool.Pool
	helpers *RuntimeSymbols

	typemap ir.TypeMap
	numArgs int

	isPausable   bool
	breakCounter int64
	constNext    int32
	// resumeLabels maps a resume label to the Prog it should dispatch
	// to; the prologue's cascade compares the incoming label against
	// each entry in order.
	resumeLabels map[int64]*obj.Prog
	// dispatchJump is the placeholder unconditional jump prologue emits
	// in place of the resume-dispatch cascade; patchResumeDispatch
	// retargets it once every resumeLabels entry is known.
	dispatchJump *obj.Prog
}

// CompileResult is everything the thread layer (internal/thread)
// needs to run a script: the executable mapping, the declared
// argument count (needed to size the call-time argument buffer), and
// the number of distinct resume points the pausable ABI allocated,
// useful for diagnostics and the disasm command. The variable heap
// itself is not part of this result — Ptr indices are process-wide
// (internal/ir), so the heap is one buffer sized off ir.Project.NumVars
// and shared by every script in the project, not something a single
// script's compilation determines.
type CompileResult struct {
	Code        *exec.CodeMapping
	NumArgs     int
	BreakPoints int64
}

// NewContext creates a fresh golang-asm link context targeted at amd64.
func NewContext() *obj.Link {
	ctxt := obj.Linknew(amd64.LinkArch)
	amd64.New(ctxt)
	return ctxt
}

// Compile lowers script to native code and returns an executable
// mapping. It returns an error (spec §7's "Compile errors" bucket) for
// structural impossibilities discovered while walking the IR, and also
// when the back end produces no code, a runtime-helper symbol is
// unresolved, or the executable mapping cannot be created or sealed.
func Compile(script *ir.Script, ctxt *obj.Link, helpers *RuntimeSymbols) (*CompileResult, error) {
	f, err := lower(script, ctxt, helpers)
	if err != nil {
		return nil, err
	}
	return finish(f)
}

// CompileListing compiles script exactly as Compile does, additionally
// returning a textual instruction listing of the Prog chain before
// assembly — the `stagejit disasm` command's data source (spec §12
// item 3). Kept as a separate entry point rather than an option on
// Compile so the hot path never pays for string-building it doesn't
// need.
func CompileListing(script *ir.Script, ctxt *obj.Link, helpers *RuntimeSymbols) (*CompileResult, string, error) {
	f, err := lower(script, ctxt, helpers)
	if err != nil {
		return nil, "", err
	}
	listing := Listing(f.pp.First())
	res, err := finish(f)
	if err != nil {
		return nil, "", err
	}
	return res, listing, nil
}

// Listing renders a Prog chain one instruction per line, in the same
// spirit as `go tool compile -S`'s output.
func Listing(first *obj.Prog) string {
	var sb strings.Builder
	for p := first; p != nil; p = p.Link {
		sb.WriteString(p.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// lower runs every IR-to-Prog lowering step, stopping just short of
// handing the chain to the back end's assemble pass.
func lower(script *ir.Script, ctxt *obj.Link, helpers *RuntimeSymbols) (*Func, error) {
	f := &Func{
		ctxt:         ctxt,
		pp:           NewProgs(ctxt),
		layout:       stackcache.Build(script.Body),
		consts:       constpool.New(),
		helpers:      helpers,
		typemap:      ir.TypeMap{},
		numArgs:      script.Trigger.NumArgs,
		isPausable:   ir.CouldRefreshScreen(script.Body),
		resumeLabels: map[int64]*obj.Prog{0: nil},
	}

	entry := f.prologue(script)
	f.resumeLabels[0] = entry

	if err := f.stmt(script.Body); err != nil {
		return nil, errors.Wrapf(err, "codegen: lowering script body")
	}
	// Every straight-line path must end in a terminator (stop, return,
	// or yield); if control falls off the end, the script implicitly
	// stops.
	f.emitStop()

	f.patchResumeDispatch()
	return f, nil
}

// finish runs the back end over f's Prog chain and maps the resulting
// machine code into executable memory.
func finish(f *Func) (*CompileResult, error) {
	code, relocs, err := assemble(f.ctxt, f.pp.First())
	if err != nil {
		return nil, errors.Wrap(err, "codegen: assemble")
	}
	mapping, err := exec.NewWritable(code)
	if err != nil {
		return nil, errors.Wrap(err, "codegen: map writable pages")
	}
	if err := resolveRelocs(mapping.Bytes(), mapping.Entry(), relocs); err != nil {
		return nil, errors.Wrap(err, "codegen: resolve relocations")
	}
	if err := mapping.Finalize(); err != nil {
		return nil, errors.Wrap(err, "codegen: finalize executable pages")
	}
	return &CompileResult{
		Code:        mapping,
		NumArgs:     f.numArgs,
		BreakPoints: f.breakCounter,
	}, nil
}

// prologue emits the ABI preamble described in spec §4.E: the loop
// stack pointer is moved out of REGARG1 first since every path (fresh
// or resumed) needs it, then a placeholder unconditional jump stands
// in for the resume dispatch cascade patchResumeDispatch rewrites once
// every resume label is known. Only the fresh-call path (label 0)
// falls through past the placeholder into the argument-copy loop and
// the stack cache's init sequence; every other label bypasses both,
// since a resumed call's variables already live in its own inline
// resume point captured at the yield site (see lowerScreenRefresh,
// lowerCallPausable).
func (f *Func) prologue(script *ir.Script) *obj.Prog {
	amd64.Mov64(f.pp, amd64.REGARG1, amd64.REGLOOPSTACK)

	f.dispatchJump = amd64.Jmp(f.pp)

	normalStart := f.pp.Prog(obj.ANOP)
	// Argument cells: four words per argument, copied verbatim from
	// the incoming buffer (REGARG2) into the reserved argument region
	// at the base of the stack-cache area, offset i*SlotBytes — the
	// same offset OpArgRead's lowering (exprObjectAt) reads back from.
	for i := 0; i < script.Trigger.NumArgs; i++ {
		srcOff := int64(i * stackcache.SlotBytes)
		for w := 0; w < stackcache.WordsPerValue; w++ {
			amd64.LoadMem64(f.pp, amd64.REGARG2, srcOff+int64(w)*stackcache.WordSize, amd64.REGTMP0)
			amd64.StoreMem64(f.pp, amd64.REGTMP0, REGSP, srcOff+int64(w)*stackcache.WordSize)
		}
	}
	f.initStackCache()
	return normalStart
}

// argsRegionSize is the byte width of the reserved argument region at
// the base of the stack-cache area (spec §4.E's incoming argument
// buffer). Every other region — tracked variables, the scratch
// object, the call argument-marshalling buffer, the constant pool —
// is offset past it so OpArgRead's fixed i*SlotBytes addressing never
// collides with a tracked Ptr's slot.
func (f *Func) argsRegionSize() int32 {
	return int32(f.numArgs) * stackcache.SlotBytes
}

// varOffset is f.layout.Offset shifted past the argument region; every
// lowering that addresses a tracked variable's stack-cache slot goes
// through this instead of the layout directly.
func (f *Func) varOffset(ptr ir.Ptr) (int32, bool) {
	off, ok := f.layout.Offset(ptr)
	return f.argsRegionSize() + off, ok
}

// initStackCache loads every tracked Ptr's four words from the
// variable heap into its stack slot. Invoked at function entry and
// after every resume (spec §4.D).
func (f *Func) initStackCache() *obj.Prog {
	var first *obj.Prog
	for _, ptr := range f.layout.Tracked() {
		off, _ := f.varOffset(ptr)
		for w := 0; w < stackcache.WordsPerValue; w++ {
			p := amd64.LoadMem64(f.pp, amd64.REGARG3, int64(ptr)*stackcache.SlotBytes+int64(w)*stackcache.WordSize, amd64.REGTMP0)
			if first == nil {
				first = p
			}
			amd64.StoreMem64(f.pp, amd64.REGTMP0, REGSP, int64(off)+int64(w)*stackcache.WordSize)
		}
	}
	if first == nil {
		// A script with no tracked variables still needs an anchor
		// instruction for resume labels to target.
		first = f.pp.Prog(obj.ANOP)
	}
	return first
}

// saveStackCache writes every tracked Ptr's four words back to the
// variable heap. Invoked before every yield, stop, return, or call
// that may mutate variable memory (spec §4.D, §9).
func (f *Func) saveStackCache() {
	for _, ptr := range f.layout.Tracked() {
		off, _ := f.varOffset(ptr)
		for w := 0; w < stackcache.WordsPerValue; w++ {
			amd64.LoadMem64(f.pp, REGSP, int64(off)+int64(w)*stackcache.WordSize, amd64.REGTMP0)
			amd64.StoreMem64(f.pp, amd64.REGTMP0, amd64.REGARG3, int64(ptr)*stackcache.SlotBytes+int64(w)*stackcache.WordSize)
		}
	}
}

// REGSP names the base register of the stack-cache region for
// readability at call sites above; it is not the hardware stack
// pointer, it is the frame-local base the generator reserves for the
// cache (spec §4.D: "a single contiguous stack slot").
const REGSP = amd64.REGTMP2

func (f *Func) nextBreakLabel() int64 {
	f.breakCounter++
	return f.breakCounter
}

// emitStop implements the Stop-script statement: save the cache,
// return -1, then emit an unreachable NOP so any following
// instructions (dead code after an explicit "stop this script") still
// typecheck against the back end's basic-block graph.
func (f *Func) emitStop() {
	f.saveStackCache()
	amd64.MovConst64(f.pp, -1, amd64.REGRET)
	amd64.Ret(f.pp)
	f.pp.Prog(obj.ANOP)
}

// patchResumeDispatch rewrites the placeholder jump prologue emitted in
// place of the resume dispatch cascade (spec §4.E): compare the
// incoming label (REGARG0, untouched since function entry) against
// every known resume point in turn, branching to the matching one;
// falling through every comparison means label 0, the fresh-call
// default, so the cascade's last instruction jumps to the normal
// entry path unconditionally. Kept as its own step (rather than
// threaded through stmt) because the cascade must precede every label
// it targets, which is only knowable after the whole body has been
// lowered once and every yield point has registered its resume label.
func (f *Func) patchResumeDispatch() {
	cascade := f.pp.Prog(obj.ANOP)
	Patch(f.dispatchJump, cascade)

	labels := make([]int64, 0, len(f.resumeLabels))
	for label := range f.resumeLabels {
		if label == 0 {
			continue
		}
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	for _, label := range labels {
		jeq := amd64.CmpConstJumpIfEqual(f.pp, amd64.REGARG0, label)
		Patch(jeq, f.resumeLabels[label])
	}

	def := amd64.Jmp(f.pp)
	Patch(def, f.resumeLabels[0])
}

// assemble runs the back end's own optimize+compile pipeline (spec
// §4.E) over the Prog chain and returns the resulting machine code.
//
// golang-asm's Flushplist drives the same Preprocess+Assemble steps
// cmd/asm's main.go triggers via obj.Flushplist (see ./asm/main.go):
// once a function's Prog chain hangs off an ATEXT pseudo-instruction
// naming its symbol, Flushplist populates that symbol's P field with
// the encoded bytes and its R field with the relocations (CALLs to
// runtime-helper symbols, branch targets already resolved to
// PC-relative offsets by the arch's own span pass). resolveRelocs is
// this JIT's linker: for every CALL relocation it patches in the
// absolute address of the Go function the symbol names, which is as
// far as this back end goes — there is no further linking step
// because the only "other object" a compiled script ever calls into
// is this process's own runtime-helper table.
func assemble(ctxt *obj.Link, first *obj.Prog) ([]byte, []obj.Reloc, error) {
	fnSym := ctxt.Lookup("stagejit.script")
	text := ctxt.NewProg()
	text.As = obj.ATEXT
	text.From.Type = obj.TYPE_MEM
	text.From.Sym = fnSym
	text.Link = first

	pl := &obj.Plist{Firstpc: text}
	obj.Flushplist(ctxt, pl, nil, "")

	if fnSym.P == nil {
		return nil, nil, errors.New("codegen: back end produced no machine code")
	}
	code := make([]byte, len(fnSym.P))
	copy(code, fnSym.P)
	return code, fnSym.R, nil
}

// resolveRelocs patches every CALL relocation's displacement to point
// at the absolute address of the named runtime-helper symbol,
// resolved through the process-wide registry RegisterHelper populates
// at start-up. mem is the mapping's own backing memory (see
// exec.CodeMapping.Bytes) and codeBase its final executable address.
func resolveRelocs(mem []byte, codeBase uintptr, relocs []obj.Reloc) error {
	for _, r := range relocs {
		addr, ok := lookupHelperAddr(r.Sym.Name)
		if !ok {
			return errors.Errorf("codegen: unresolved runtime symbol %q", r.Sym.Name)
		}
		patchCallRel32(mem, codeBase, r.Off, addr)
	}
	return nil
}
