package util

import (
	"fmt"
	"strconv"
	"strings"
)

// matrix represents a 2 dimensional matrix.
type matrix struct {
	nRow, nCol int
	data       []int // row-major nRow*nCol array.
}

// newMatrix returns an n x m matrix.
func newMatrix(n, m int) (x matrix) {
	return matrix{
		nRow: n,
		nCol: m,
		data: make([]int, n*m),
	}
}

func (m matrix) at(i, j int) int     { return m.data[i*m.nCol+j] }
func (m matrix) set(i, j int, v int) { m.data[i*m.nCol+j] = v }

// String returns a string representation of a matrix.
func (m matrix) String() (r string) {
	maxLength := 0
	for _, d := range m.data {
		if l := len(strconv.Itoa(d)); l > maxLength {
			maxLength = l
		}
	}

	lines := []string{"\n"}
	for i := 0; i < m.nRow; i++ {
		var parts []string
		for j := 0; j < m.nCol; j++ {
			parts = append(parts, fmt.Sprintf("%*s", maxLength, strconv.Itoa(m.data[i*m.nCol+j])))
		}
		lines = append(lines, strings.Join(parts, " | "))
	}
	return strings.Join(lines, "\n")
}

// Scoring holds linear match/mismatch/gap scores for the reference DP.
type Scoring struct {
	Match, Mismatch, Gap int
}

func (s Scoring) w(a, b byte) int {
	if a == b {
		return s.Match
	}
	return s.Mismatch
}

func max(a, b int) int {
	if a < b {
		return b
	}
	return a
}

// LocalScore fills the full (len(subject)+1) x (len(query)+1) Smith-Waterman
// table, with row and column 0 set to zero and every cell floored at zero,
// and returns its largest cell.
//
// This is the quadratic-memory reference the systolic engine is checked
// against; it is not meant for long sequences.
func LocalScore(subject, query []byte, sc Scoring) int {
	m := newMatrix(len(subject)+1, len(query)+1)
	maximum := 0
	for i := 1; i <= len(subject); i++ {
		for j := 1; j <= len(query); j++ {
			diag := m.at(i-1, j-1) + sc.w(subject[i-1], query[j-1])
			gap := sc.Gap + max(m.at(i-1, j), m.at(i, j-1))
			h := max(0, max(diag, gap))
			m.set(i, j, h)
			maximum = max(maximum, h)
		}
	}
	return maximum
}

// GlobalColumn fills the unfloored table seeded with top (row 0, length
// len(query)+1) and left (column 0 below row 0, length len(subject)), and
// returns the last column below row 0, H[1..len(subject)][len(query)].  The
// last element is the bottom-right cell.
//
// It panics if the boundary lengths don't match the sequences.
func GlobalColumn(subject, query []byte, top, left []int, sc Scoring) []int {
	if len(top) != len(query)+1 || len(left) != len(subject) {
		panic(fmt.Sprintf("GlobalColumn: boundary lengths %d/%d for a %dx%d table", len(top), len(left), len(subject), len(query)))
	}
	m := newMatrix(len(subject)+1, len(query)+1)
	for j, v := range top {
		m.set(0, j, v)
	}
	for i, v := range left {
		m.set(i+1, 0, v)
	}
	for i := 1; i <= len(subject); i++ {
		for j := 1; j <= len(query); j++ {
			diag := m.at(i-1, j-1) + sc.w(subject[i-1], query[j-1])
			gap := sc.Gap + max(m.at(i-1, j), m.at(i, j-1))
			m.set(i, j, max(diag, gap))
		}
	}
	col := make([]int, len(subject))
	for i := range col {
		col[i] = m.at(i+1, len(query))
	}
	return col
}

// GlobalScore is the bottom-right cell of GlobalColumn's table.
func GlobalScore(subject, query []byte, top, left []int, sc Scoring) int {
	col := GlobalColumn(subject, query, top, left, sc)
	if len(col) == 0 {
		return top[len(top)-1]
	}
	return col[len(col)-1]
}

// NWBoundary returns the Needleman-Wunsch boundary for an n x m table:
// top[j] = j*gap and left[i] = (i+1)*gap.
func NWBoundary(n, m, gap int) (top, left []int) {
	top = make([]int, m+1)
	for j := range top {
		top[j] = j * gap
	}
	left = make([]int, n)
	for i := range left {
		left[i] = (i + 1) * gap
	}
	return
}
