// Package grid lays text out on a fixed-width character grid.
package grid

import "strings"

// GetGridCoords converts a linear cell index into column and row.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// Wrap breaks text into rows of at most cols runes. Explicit newlines always
// start a new row; long words are split where they hit the edge.
func Wrap(text string, cols int) []string {
	if cols <= 0 {
		return nil
	}
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		if len(runes) == 0 {
			rows = append(rows, "")
			continue
		}
		for len(runes) > cols {
			cut := cols
			if i := lastSpace(runes[:cols+1]); i > 0 {
				cut = i
			}
			rows = append(rows, strings.TrimRight(string(runes[:cut]), " "))
			runes = runes[cut:]
			for len(runes) > 0 && runes[0] == ' ' {
				runes = runes[1:]
			}
		}
		if len(runes) > 0 {
			rows = append(rows, string(runes))
		}
	}
	return rows
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

// Cells places wrapped text on a cols-wide grid and returns each rune with
// its coordinates, stopping after maxRows rows.
func Cells(text string, cols, maxRows int) []Cell {
	var cells []Cell
	for y, row := range Wrap(text, cols) {
		if maxRows > 0 && y >= maxRows {
			break
		}
		for x, r := range []rune(row) {
			cells = append(cells, Cell{X: x, Y: y, Rune: r})
		}
	}
	return cells
}

// Cell is one placed character.
type Cell struct {
	X, Y int
	Rune rune
}
