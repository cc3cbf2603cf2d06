package recorder

// Func0 wraps fn so that each call is recorded as an invocation of name.
func Func0[R any](r *Recorder, name string, fn func() R) func() R {
	return func() R {
		r.RecordInvoke(name)
		return fn()
	}
}

// Func1 wraps a one-argument callback; the argument is kept in the record.
func Func1[A, R any](r *Recorder, name string, fn func(A) R) func(A) R {
	return func(a A) R {
		r.RecordInvoke(name, a)
		return fn(a)
	}
}

// Func2 wraps a two-argument callback; both arguments are kept in the record.
func Func2[A, B, R any](r *Recorder, name string, fn func(A, B) R) func(A, B) R {
	return func(a A, b B) R {
		r.RecordInvoke(name, a, b)
		return fn(a, b)
	}
}
