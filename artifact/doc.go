// Package artifact stores named binary outputs of a run, such as result
// files and deliverable bundles.
//
// Artifacts are addressed by a scope (usually a run id) and a name. Callers
// should depend on the Store interface so persistence can be swapped
// between the in-memory and file system implementations.
package artifact
