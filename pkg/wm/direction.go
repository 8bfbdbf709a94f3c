package wm

import (
	"errors"
	"strings"
)

// ErrInvalidDirection is returned when a resize direction is not one of the
// eight compass abbreviations.
var ErrInvalidDirection = errors.New("invalid resize direction")

// Direction is the edge or corner a resize drags. The zero value means a move.
type Direction string

// Resize directions.
const (
	DirectionNone Direction = ""
	DirectionN    Direction = "n"
	DirectionS    Direction = "s"
	DirectionE    Direction = "e"
	DirectionW    Direction = "w"
	DirectionNE   Direction = "ne"
	DirectionNW   Direction = "nw"
	DirectionSE   Direction = "se"
	DirectionSW   Direction = "sw"
)

// ParseDirection validates s. The empty string parses as DirectionNone.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DirectionNone, DirectionN, DirectionS, DirectionE, DirectionW,
		DirectionNE, DirectionNW, DirectionSE, DirectionSW:
		return d, nil
	}
	return DirectionNone, ErrInvalidDirection
}

// IsResize reports whether d resizes rather than moves.
func (d Direction) IsResize() bool {
	return d != DirectionNone
}

func (d Direction) north() bool { return strings.Contains(string(d), "n") }
func (d Direction) south() bool { return strings.Contains(string(d), "s") }
func (d Direction) east() bool  { return strings.Contains(string(d), "e") }
func (d Direction) west() bool  { return strings.Contains(string(d), "w") }
