package ui

import "github.com/gdamore/tcell/v2"

// Colors used by the game screen.
var Colors = struct {
	MarkX     tcell.Color
	MarkO     tcell.Color
	Empty     tcell.Color
	Status    tcell.Color
	Winner    tcell.Color
	Highlight tcell.Color
}{
	MarkX:     tcell.ColorIndianRed,
	MarkO:     tcell.ColorSteelBlue,
	Empty:     tcell.ColorDimGray,
	Status:    tcell.ColorWhite,
	Winner:    tcell.ColorGold,
	Highlight: tcell.ColorDarkSlateGray,
}
