package guarderr

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Errors accumulates GuardError values. A nil *Errors is empty and safe to use.
type Errors struct {
	errs []GuardError
}

func (r *Errors) With(err ...GuardError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil {
		return r
	}
	if len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

func (r *Errors) Errors() []GuardError {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) HasError() bool {
	if r == nil {
		return false
	}
	return len(r.errs) > 0
}

// Err returns r as an error, or nil when it is empty
func (r *Errors) Err() error {
	if !r.HasError() {
		return nil
	}
	return r
}

func (r *Errors) Error() string {
	if !r.HasError() {
		return "no errors"
	}
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "%d error(s):", len(r.errs))
	for _, err := range r.errs {
		sb.WriteString("\n- ")
		sb.WriteString(FormatWithCode(err))
	}
	return sb.String()
}

// Unwrap lets errors.As find any of the accumulated errors
func (r *Errors) Unwrap() []error {
	if r == nil {
		return nil
	}
	unwrapped := make([]error, len(r.errs))
	for i, err := range r.errs {
		unwrapped[i] = err
	}
	return unwrapped
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("e", i),
			Value: slog.GroupValue(
				slog.Attr{
					Key:   "msg",
					Value: slog.StringValue(FormatWithCode(v)),
				},
			),
		})
	}
	return slog.GroupValue(vals...)
}

// CodeOf returns the code of the first GuardError found in err's chain, or None
func CodeOf(err error) ErrCode {
	var guardErr GuardError
	if errors.As(err, &guardErr) {
		return guardErr.Code()
	}
	return None
}
