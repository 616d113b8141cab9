// Package migrations contains the schema migrations for the diner database.
// Each file registers its migrations from init(), so importing this package
// for side effects is enough to make them visible to the migration runner.
package migrations
