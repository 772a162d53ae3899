// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bufio"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// maxLineSize bounds a single line of simulation output.
const maxLineSize = 4 * 1024 * 1024

// eachLine streams the file resolved for role, calling fn for every line.
func eachLine(in Inputs, role string, fn func(line string)) error {
	f, err := in.Open(role)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	for sc.Scan() {
		fn(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", in.Path(role), err)
	}
	return nil
}

// lastSubmatch returns capture group 1 of the last line matching re.
func lastSubmatch(in Inputs, role string, re *regexp.Regexp) (string, bool, error) {
	var (
		val   string
		found bool
	)
	err := eachLine(in, role, func(line string) {
		if m := re.FindStringSubmatch(line); m != nil {
			val, found = m[1], true
		}
	})
	return val, found, err
}

// firstSubmatch returns capture group 1 of the first line matching re.
func firstSubmatch(in Inputs, role string, re *regexp.Regexp) (string, bool, error) {
	var (
		val   string
		found bool
	)
	err := eachLine(in, role, func(line string) {
		if found {
			return
		}
		if m := re.FindStringSubmatch(line); m != nil {
			val, found = m[1], true
		}
	})
	return val, found, err
}

// lastFloat extracts the number captured by re on its last matching line.
// No match yields a nil Partial.
func lastFloat(in Inputs, role string, re *regexp.Regexp, units string) (*Partial, error) {
	s, ok, err := lastSubmatch(in, role, re)
	if err != nil || !ok {
		return nil, err
	}
	v, err := parseFloat(s)
	if err != nil {
		return nil, err
	}
	return Value(v, units), nil
}

// firstInt extracts the integer captured by re on its first matching line.
func firstInt(in Inputs, role string, re *regexp.Regexp) (*Partial, error) {
	s, ok, err := firstSubmatch(in, role, re)
	if err != nil || !ok {
		return nil, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("parsing integer %q: %w", s, err)
	}
	return Value(n, ""), nil
}

// parseFloat parses a number as printed by Fortran codes, accepting D
// exponents. Overflowed fields ("*****") are errors.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "*") {
		return 0, fmt.Errorf("overflowed numeric field %q", s)
	}
	s = strings.NewReplacer("D", "E", "d", "e").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing number %q: %w", s, err)
	}
	return v, nil
}

// parseFloats parses every field of fields.
func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := parseFloat(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// norm3 returns the Euclidean length of a 3-vector.
func norm3(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}

// splitLines splits text into lines, dropping a trailing carriage return.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// elementSymbol reduces a species label such as "Ni_pv", "Fe1" or "si" to
// its element symbol.
func elementSymbol(label string) (string, error) {
	runes := []rune(strings.TrimSpace(label))
	if len(runes) == 0 || !unicode.IsLetter(runes[0]) {
		return "", fmt.Errorf("invalid species label %q", label)
	}
	sym := string(unicode.ToUpper(runes[0]))
	if len(runes) > 1 && unicode.IsLower(runes[1]) {
		sym += string(runes[1])
	}
	return sym, nil
}

// composition accumulates element counts in first-seen order.
type composition struct {
	order  []string
	counts map[string]int
}

func newComposition() *composition {
	return &composition{counts: make(map[string]int)}
}

func (c *composition) add(element string, n int) {
	if _, ok := c.counts[element]; !ok {
		c.order = append(c.order, element)
	}
	c.counts[element] += n
}

// formula renders the composition as a chemical formula; counts of one are
// omitted.
func (c *composition) formula() string {
	var b strings.Builder
	for _, el := range c.order {
		b.WriteString(el)
		if n := c.counts[el]; n != 1 {
			b.WriteString(strconv.Itoa(n))
		}
	}
	return b.String()
}
