// Package entry implements the entry command group, single add, read and
// fence operations against one bookie through the per channel bookie client.
//
// The master key of a ledger is the SHA-1 digest of --password. Every command
// prints the resulting status code and exits non-zero unless it is OK.
//
// Example:
//
//	dledger entry add 1 0 "hello" --password secret
//	dledger entry read 1 lac
//	dledger entry fence 1 lac --password secret
//	dledger entry add 1 1 "late" --password secret --recovery
package entry
