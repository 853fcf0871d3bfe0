// Package lease manages resource leases on the client side: the Lease value
// and its ordering, the per-robot Wallet, the processors that attach leases to
// outgoing requests and ingest lease use results, the lease service client and
// the KeepAlive loop that retains a lease in the background.
package lease
