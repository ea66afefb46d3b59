// Package workspace manages the staging directory the generator writes into,
// in either persistent (the configured staging_dir, reused and never
// cleared) or ephemeral (a throwaway temp directory for dry runs) mode.
package workspace
