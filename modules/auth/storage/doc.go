// Package storage provides auth.Repository implementations: an in-memory
// map for tests, a JSON flat file matching the forum's original single-file
// persistence, and MongoDB and Postgres adapters for real deployments.
package storage
