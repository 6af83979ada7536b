package study

import "slices"

var characters = []string{
	"Julius Caesar",
	"Brutus",
	"Mark Antony",
	"Cassius",
	"Portia",
	"Calpurnia",
	"Octavius",
	"Casca",
}

var scenesPerAct = map[int][]int{
	1: {1, 2, 3},
	2: {1, 2, 3, 4},
	3: {1, 2, 3},
	4: {1, 2, 3},
	5: {1, 2, 3, 4, 5},
}

// Characters returns the fixed roster in menu order.
func Characters() []string {
	return slices.Clone(characters)
}

// Acts returns the act numbers of the play.
func Acts() []int {
	return []int{1, 2, 3, 4, 5}
}

// Scenes returns the scene numbers of act, or nil for an unknown act.
func Scenes(act int) []int {
	return slices.Clone(scenesPerAct[act])
}

// ValidActScene reports whether scene exists in act.
func ValidActScene(act, scene int) bool {
	return slices.Contains(scenesPerAct[act], scene)
}

// ValidCharacter reports whether name is on the roster.
func ValidCharacter(name string) bool {
	return slices.Contains(characters, name)
}
