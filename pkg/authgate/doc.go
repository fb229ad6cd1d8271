// Package authgate defines the authorization interface the billing core
// consumes. The core asks only two questions - "does caller X own resource
// Y?" and "does caller X hold role R?" - and never implements the answers
// itself. An in-memory implementation is provided for tests and small
// deployments.
package authgate
