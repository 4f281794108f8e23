package analysis

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// PanicError is returned by a Safe analyzer that panicked.
type PanicError struct {
	Analyzer string
	Value    any
	Stack    []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("analyzer %s panicked: %v", e.Analyzer, e.Value)
}

// Safe wraps fn so that a panic is returned as a *PanicError.
func Safe(name string, fn Func) Func {
	return func(ctx context.Context, rows []models.FailureRecord, query string) (res models.AnalysisResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Analyzer: name, Value: r, Stack: debug.Stack()}
			}
		}()
		return fn(ctx, rows, query)
	}
}
