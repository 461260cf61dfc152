package asm

import (
	"strings"

	"github.com/sarchlab/rh850sim/emu"
	"github.com/sarchlab/rh850sim/insts"
)

var regAliases = map[string]uint8{
	"zero": 0, "sp": emu.RegSP, "gp": emu.RegGP, "tp": emu.RegTP,
	"ep": emu.RegEP, "lp": emu.RegLP,
}

// parseReg returns the register named by s.
func parseReg(s string) (uint8, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if r, ok := regAliases[s]; ok {
		return r, true
	}
	if len(s) < 2 || len(s) > 3 || s[0] != 'r' {
		return 0, false
	}

	n := 0
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if n > 31 || (len(s) == 3 && s[1] == '0') {
		return 0, false
	}
	return uint8(n), true
}

func isReg(s string) bool {
	_, ok := parseReg(s)
	return ok
}

var condByName = func() map[string]insts.Cond {
	m := map[string]insts.Cond{
		"l": insts.CondL, "e": insts.CondE, "n": insts.CondN,
		"nl": insts.CondNL, "ne": insts.CondNE, "p": insts.CondP,
	}
	for c := insts.Cond(0); c < 16; c++ {
		m[c.String()] = c
	}
	return m
}()

func parseCond(s string) (insts.Cond, bool) {
	c, ok := condByName[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

// splitOperands splits s at commas outside brackets and braces.
func splitOperands(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var out []string
	depth, start := 0, 0
	for i, c := range s {
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

// splitMemory splits "disp[reg]" into its displacement expression and base
// register text.
func splitMemory(s string) (disp, base string, ok bool) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "]") {
		return "", "", false
	}
	open := strings.LastIndex(s, "[")
	if open < 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:open]), s[open+1 : len(s)-1], true
}

// parseIndirect returns the register of a "[reg]" operand.
func parseIndirect(s string) (uint8, bool) {
	disp, base, ok := splitMemory(s)
	if !ok || disp != "" {
		return 0, false
	}
	return parseReg(base)
}

// parseRange parses "rh-rt".
func parseRange(s string) (uint8, uint8, bool) {
	lo, hi, found := strings.Cut(s, "-")
	if !found {
		return 0, 0, false
	}
	rh, ok1 := parseReg(lo)
	rt, ok2 := parseReg(hi)
	return rh, rt, ok1 && ok2
}

// parseList parses a register list such as "{r20, r24-r27, lp}" into a
// mask with bit n set for rn.
func parseList(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return 0, ErrListInvalid
	}

	var mask uint32
	for _, item := range splitOperands(s[1 : len(s)-1]) {
		if rh, rt, ok := parseRange(item); ok {
			if rh > rt {
				return 0, ErrListInvalid
			}
			for r := rh; r <= rt; r++ {
				mask |= 1 << r
			}
			continue
		}

		r, ok := parseReg(item)
		if !ok {
			return 0, ErrListInvalid
		}
		mask |= 1 << r
	}
	return mask, nil
}
