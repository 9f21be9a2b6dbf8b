package art

import (
	"strings"

	"github.com/sethgrid/pixelpaws/internal/pet"
)

// Frames for the terminal host, one per pose. Poses without their own art
// fall back to idle.
var poseArt = map[pet.Pose]string{
	pet.Idle: ` /\_/\
( o.o )
 > ^ < `,
	pet.Walk: ` /\_/\
( o.o )
 /   \_`,
	pet.Run: ` /\_/\
( >.< )~
 //  \\ `,
	pet.Lifted: ` /\_/\
( O.O )
 /| |\ `,
	pet.Attack: ` /\_/\
( >w< )
 =[ ]= `,
	pet.Sit: ` /\_/\
( -.- )
 (   ) `,
	pet.LieDown: `
 /\_/\
(_-.-)_`,
	pet.Jump: ` /\_/\
( ^.^ )
 ' ' ' `,
	pet.Land: `
 /\_/\
( o.o )`,
}

// PoseArt returns the frame for p.
func PoseArt(p pet.Pose) string {
	if a, ok := poseArt[p]; ok {
		return a
	}
	return poseArt[pet.Idle]
}

// Lines splits a frame into rows, mirrored horizontally when asked.
func Lines(frame string, mirrored bool) []string {
	lines := strings.Split(frame, "\n")
	if !mirrored {
		return lines
	}
	width := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > width {
			width = n
		}
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = mirrorLine(l, width)
	}
	return out
}

var mirrorRunes = map[rune]rune{
	'/': '\\', '\\': '/',
	'(': ')', ')': '(',
	'[': ']', ']': '[',
	'<': '>', '>': '<',
}

func mirrorLine(line string, width int) string {
	runes := []rune(line)
	for len(runes) < width {
		runes = append(runes, ' ')
	}
	out := make([]rune, len(runes))
	for i, r := range runes {
		if m, ok := mirrorRunes[r]; ok {
			r = m
		}
		out[len(runes)-1-i] = r
	}
	return string(out)
}

// Bounds is the widest and tallest frame in cells.
func Bounds() (width, height int) {
	for _, frame := range poseArt {
		lines := strings.Split(frame, "\n")
		if len(lines) > height {
			height = len(lines)
		}
		for _, l := range lines {
			if n := len([]rune(l)); n > width {
				width = n
			}
		}
	}
	return width, height
}
