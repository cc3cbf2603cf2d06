// Package recorder captures the calls a function under test makes into its
// mocked dependencies.
//
// A Recorder keeps an append-only, ordered list of CallRecords. Insertion
// order is invocation order: the first record is the first call the function
// under test made. Each record gets a sequence number from a deterministic
// clock, so the same scenario always yields the same trace.
//
// Typical assertions read the recorder after the function under test returns:
//
//	rec := recorder.New()
//	ch := mockchan.New(input, mockchan.WithRecorder(rec))
//	_, _ = subject.ReadU32LE(ch)
//	rec.Count(recorder.KindRead)       // how many reads were issued
//	last, ok := rec.Last(recorder.KindRead)
//
// Callbacks that are not byte-oriented can be wrapped with Func0, Func1 or
// Func2 so that every invocation is recorded as a KindInvoke record.
//
// A Recorder shared between scenarios must be Reset in between; otherwise the
// counts of one scenario include the calls of the previous one.
package recorder
