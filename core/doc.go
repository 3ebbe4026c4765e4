// Package core provides the role-based message content shared by the model
// adapters. Agents build requests from Content values and model providers
// translate them into vendor specific message formats, so neither side needs
// to know about the other.
package core
