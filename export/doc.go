// Package export writes simulation results for downstream visualization and
// packages run deliverables into a zip bundle.
package export
