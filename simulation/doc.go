// Package simulation implements the driver that feeds an ordered stimulus
// sequence to a population of persona agents.
//
// The driver is strictly sequential: for every stimulus, in order, each agent
// perceives it in population order. Successful reactions are appended to the
// flat log and to the agent's trajectory; skipped pairings leave no trace in
// either view. Trajectories are indexed positionally against each agent's own
// successes, so the invocation order is part of the contract.
package simulation
