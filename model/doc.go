// Package model defines the provider‑agnostic abstractions for interacting with
// text generation services inside opinionsim.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight scripting for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so agents remain decoupled from vendor SDKs. Clients are constructed
// explicitly and injected; no package-level client exists.
package model
