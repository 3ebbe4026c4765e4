// Package dataset loads labelled comment CSV files and draws stratified,
// reproducible samples from them to feed a simulation.
package dataset
