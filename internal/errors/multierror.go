package errors

import "strings"

// MultiError accumulates independent failures of one logical operation, up
// to a fixed capacity.
type MultiError struct {
	msg  string
	errs []error
	max  int
}

// NewMultiError returns an accumulator that reports once max errors have
// been pushed. A max below 1 is treated as 1.
func NewMultiError(msg string, max int) *MultiError {
	if max < 1 {
		max = 1
	}

	return &MultiError{
		msg:  msg,
		errs: make([]error, 0, max),
		max:  max,
	}
}

// Push records err. When the accumulator reaches capacity, it returns the
// aggregated error and starts over empty.
func (m *MultiError) Push(err error) error {
	if err == nil {
		return nil
	}

	m.errs = append(m.errs, err)
	if len(m.errs) < m.max {
		return nil
	}

	agg := &Aggregate{msg: m.msg, errs: m.errs}
	m.errs = make([]error, 0, m.max)

	return agg
}

// Clear drops every accumulated error.
func (m *MultiError) Clear() {
	m.errs = m.errs[:0]
}

// Len returns the number of accumulated errors.
func (m *MultiError) Len() int {
	return len(m.errs)
}

// ErrorOrNil flushes the accumulator: nil when empty, the error itself when
// only one was recorded, the aggregate otherwise.
func (m *MultiError) ErrorOrNil() error {
	switch len(m.errs) {
	case 0:
		return nil
	case 1:
		err := m.errs[0]
		m.Clear()
		return err
	}

	agg := &Aggregate{msg: m.msg, errs: m.errs}
	m.errs = make([]error, 0, m.max)

	return agg
}

// Aggregate is the error reported by a MultiError.
type Aggregate struct {
	msg  string
	errs []error
}

func (a *Aggregate) Error() string {
	var b strings.Builder
	b.WriteString(a.msg)
	for _, err := range a.errs {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}

	return b.String()
}

// Code implements the Error interface's classification accessor.
func (*Aggregate) Code() ErrorCode {
	return ErrMultiple
}

// Errors returns the aggregated errors in the order they were pushed.
func (a *Aggregate) Errors() []error {
	out := make([]error, len(a.errs))
	copy(out, a.errs)

	return out
}

func (a *Aggregate) Unwrap() []error {
	return a.Errors()
}
