package config

import (
	"fmt"
	"strings"
)

// DefaultLineSize is the line width used by Title.
const DefaultLineSize = 80

// Line returns a repeated-dash divider of the given size.
func Line(size int) string {
	return strings.Repeat("-", size)
}

// DoubleLine returns a repeated-equals divider of the given size.
func DoubleLine(size int) string {
	return strings.Repeat("=", size)
}

// Title centers title between two double-lines, e.g. "==== title ====".
func Title(title string) string {
	title = fmt.Sprintf(" %s ", title)
	startIndex := (DefaultLineSize / 2) - (len(title) / 2)
	delta := len(title) % 2

	return fmt.Sprintf("%s%s%s", DoubleLine(startIndex), title, DoubleLine(startIndex+delta))
}
