// Package agent contains the persona agent: a named identity with a fixed
// persona description and a single evolving opinion score in [-1, 1].
//
// An Agent reacts to one stimulus at a time through Perceive. It asks a
// model.Model for a judgment, parses the reply leniently (strict JSON
// first, then the first greedy brace-delimited span) and folds the declared
// sentiment shift into its score with an exponential memory decay:
//
//	score' = clamp(score*decay + shift/scale, -1, 1)
//
// Perceive never panics or returns an error; every failure becomes a Skip
// carried by the returned Outcome and leaves the score untouched.
package agent
