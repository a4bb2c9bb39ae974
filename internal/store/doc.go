// Package store persists workflow and trigger-file provenance in a
// SQLite database so repeated runs can resume, skip already-covered
// time, and report on past submissions.
package store
