// Package status carries the result of every SDK operation: a Code drawn from
// a closed taxonomy and a human readable message.
//
// Codes live in categories of three kinds. SDK codes are produced by the
// client itself (wallet misses, unknown services, stream codec failures). RPC
// codes are produced by mapping transport failures (see FromTransport). Response
// codes are produced by the robot inside a response and are grouped into one
// category per response enum.
//
// A zero Status is Success. Status implements error, so the usual pattern is
//
//	if err := wallet.RemoveLease("body"); err != nil {
//	    st := status.FromError(err)
//	    if st.IsRetryable() { ... }
//	}
//
// Use Is to test for a specific code through wrapping.
package status
