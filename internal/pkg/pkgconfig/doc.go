// Package pkgconfig reads service settings through the Config interface.
//
// The Viper implementation loads a YAML file, lets environment variables
// override any key (database.url becomes DATABASE_URL) and picks up a local
// .env file when one exists. Ledger code reads fees, limits and sweep
// intervals through Config only, so tests can pass a plain map.
package pkgconfig
