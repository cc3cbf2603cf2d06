// Package mockchan provides Channel, an in-memory stand-in for a byte-oriented
// dependency (a file, a socket, an IO handler callback) that a function under
// test reads from and writes to.
//
// A Channel is pre-loaded with readable bytes and collects everything written
// to it in an append-only sink. Every operation is recorded in a
// recorder.Recorder, in call order.
//
// # Two views
//
// Next and Put report transfers through counts only:
//
//	ch := mockchan.New([]byte{1, 0, 0, 0})
//	got := ch.Next(4)   // len(got) == 4
//	ch.Next(4)          // empty: end of buffer, never an error
//	ch.Put([]byte{7})   // returns 1
//
// The same channel also implements io.Reader, io.Writer and io.Seeker for
// functions under test written against the standard interfaces. Read returns
// io.EOF at the end of the buffer and Write returns io.ErrShortWrite when a
// fault cuts a write short.
//
// # Fault injection
//
// ArmFault arms a one-shot fault for the next operation of a kind:
//
//	ch.ArmFault(mockchan.FaultShortRead)   // next read transfers 0 bytes
//	ch.ArmFaultLimit(mockchan.FaultShortWrite, 2) // next write keeps 2 bytes
//
// A fault fires exactly once and disarms itself; the following operation of
// the same kind behaves normally. A short transfer always moves strictly fewer
// bytes than requested.
//
// # Allocations
//
// Alloc and Free model allocation hooks (calloc/free style) that a function
// under test may call. Outstanding reports allocations that were never freed;
// the harness treats them as leaks when the scenario ends.
package mockchan
