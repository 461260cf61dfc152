package asm

import (
	"bufio"
	"fmt"
	"maps"
	"strings"

	"github.com/sarchlab/rh850sim/loader"
)

// maxPasses bounds label relaxation.
const maxPasses = 16

// Program is assembled machine code.
type Program struct {
	// Origin is the address of Code[0].
	Origin uint32
	// Code holds the little-endian machine code.
	Code []byte
	// Labels maps every label to its address.
	Labels map[string]uint32
}

// Loadable wraps the program as a single loadable segment entered at its
// origin.
func (p *Program) Loadable() *loader.Program {
	return &loader.Program{
		EntryPoint: p.Origin,
		Segments: []loader.Segment{{
			VirtAddr: p.Origin,
			Data:     p.Code,
			MemSize:  uint32(len(p.Code)),
			Flags:    loader.SegmentFlagRead | loader.SegmentFlagExecute,
		}},
	}
}

// Assembler translates RH850 assembly source.
//
// Each line holds optional "label:" prefixes and one instruction or
// directive. "#" starts a comment. Immediates, displacements and branch
// targets are Starlark expressions over labels, equates and "pc", the
// address of the current line. Directives are .equ/.set, .word, .hword,
// .byte, .align and .space.
//
// Instructions with several encodings take the shortest one that holds
// their operands, and label addresses are iterated until they settle.
type Assembler struct {
	// Origin is the address of the first instruction.
	Origin uint32
	// Predefine holds symbols visible to every expression.
	Predefine map[string]int64
}

// Assemble assembles src placed at origin.
func Assemble(src string, origin uint32) (*Program, error) {
	a := &Assembler{Origin: origin}
	return a.Assemble(src)
}

type sourceLine struct {
	no     int
	text   string
	labels []string
	op     string
	args   []string
}

// Assemble assembles src.
func (a *Assembler) Assemble(src string) (*Program, error) {
	lines, err := parseSource(src)
	if err != nil {
		return nil, err
	}

	labels := map[string]uint32{}
	for _, l := range lines {
		for _, name := range l.labels {
			labels[name] = a.Origin
		}
	}

	for i := 0; i < maxPasses; i++ {
		p := a.run(lines, labels)
		if maps.Equal(p.labels, labels) {
			if p.err != nil {
				return nil, p.err
			}
			return &Program{Origin: a.Origin, Code: p.code, Labels: p.labels}, nil
		}
		labels = p.labels
	}

	return nil, ErrNoConvergence
}

func parseSource(src string) ([]sourceLine, error) {
	var lines []sourceLine

	scanner := bufio.NewScanner(strings.NewReader(src))
	for no := 1; scanner.Scan(); no++ {
		text := scanner.Text()
		body, _, _ := strings.Cut(text, "#")
		body = strings.TrimSpace(body)

		l := sourceLine{no: no, text: text}
		for {
			head, rest, found := strings.Cut(body, ":")
			name := strings.TrimSpace(head)
			if !found || !isIdent(name) {
				break
			}
			l.labels = append(l.labels, name)
			body = strings.TrimSpace(rest)
		}

		if body != "" {
			op, rest, _ := strings.Cut(body, " ")
			if i := strings.IndexAny(op, "\t"); i >= 0 {
				op, rest = op[:i], op[i+1:]+" "+rest
			}
			l.op = strings.ToLower(op)
			l.args = splitOperands(rest)
		}

		if l.op != "" || len(l.labels) > 0 {
			lines = append(lines, l)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	return lines, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// pass is one sweep over the source with a fixed guess of the label
// addresses.
type pass struct {
	a       *Assembler
	guess   map[string]uint32
	labels  map[string]uint32
	equates map[string]int64

	pc   uint32
	code []byte
	err  error
}

func (a *Assembler) run(lines []sourceLine, guess map[string]uint32) *pass {
	p := &pass{
		a:       a,
		guess:   guess,
		labels:  map[string]uint32{},
		equates: map[string]int64{},
		pc:      a.Origin,
	}

	for i := range lines {
		p.line(&lines[i])
	}
	return p
}

func (p *pass) fail(l *sourceLine, err error) {
	if p.err == nil {
		p.err = ErrSyntax{LineNo: l.no, Line: strings.TrimSpace(l.text), Err: err}
	}
}

func (p *pass) line(l *sourceLine) {
	for _, name := range l.labels {
		if _, dup := p.labels[name]; dup {
			p.fail(l, ErrLabelDuplicate)
			continue
		}
		p.labels[name] = p.pc
	}

	if l.op == "" {
		return
	}

	if strings.HasPrefix(l.op, ".") {
		if err := p.directive(l); err != nil {
			p.fail(l, err)
		}
		return
	}

	hws, err := p.instruction(l.op, l.args)
	if err != nil {
		p.fail(l, err)
		// Reserve the longest encoding so later labels stay plausible.
		hws = make([]uint16, 3)
	}
	p.emit(Bytes(hws))
}

func (p *pass) emit(b []byte) {
	p.code = append(p.code, b...)
	p.pc += uint32(len(b))
}

func (p *pass) symbols() map[string]int64 {
	syms := make(map[string]int64, len(p.guess)+len(p.equates)+len(p.a.Predefine)+1)
	for k, v := range p.a.Predefine {
		syms[k] = v
	}
	for k, v := range p.guess {
		syms[k] = int64(v)
	}
	for k, v := range p.labels {
		syms[k] = int64(v)
	}
	for k, v := range p.equates {
		syms[k] = v
	}
	syms["pc"] = int64(p.pc)
	return syms
}

func (p *pass) expr(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return eval(s, p.symbols())
}

func (p *pass) directive(l *sourceLine) error {
	switch l.op {
	case ".equ", ".set":
		if len(l.args) != 2 || !isIdent(l.args[0]) {
			return ErrEquateSyntax
		}
		v, err := p.expr(l.args[1])
		if err != nil {
			return err
		}
		p.equates[l.args[0]] = v
	case ".word", ".hword", ".byte":
		size := map[string]int{".word": 4, ".hword": 2, ".byte": 1}[l.op]
		for _, arg := range l.args {
			v, err := p.expr(arg)
			if err != nil {
				return err
			}
			for i := 0; i < size; i++ {
				p.emit([]byte{byte(v >> (8 * i))})
			}
		}
	case ".align":
		if len(l.args) != 1 {
			return ErrOperandCount
		}
		n, err := p.expr(l.args[0])
		if err != nil {
			return err
		}
		if n <= 0 || n&(n-1) != 0 {
			return ErrRange
		}
		for int64(p.pc)&(n-1) != 0 {
			p.emit([]byte{0})
		}
	case ".space":
		if len(l.args) != 1 {
			return ErrOperandCount
		}
		n, err := p.expr(l.args[0])
		if err != nil {
			return err
		}
		if n < 0 {
			return ErrRange
		}
		p.emit(make([]byte, n))
	default:
		return ErrOpcodeInvalid
	}
	return nil
}
