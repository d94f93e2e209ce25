// Package preflight runs environment checks ahead of an ingestion run:
// directory access, external binaries, and LLM endpoint reachability.
package preflight
