// Package evaluation summarizes a simulation output per agent: scores,
// skipped stimuli and the distribution of topics and actions.
package evaluation
