// Package history records project imports in the import_runs table so
// earlier runs can be listed and inspected.
package history
