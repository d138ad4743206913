package frozen

import (
	"errors"
	"fmt"
	"strings"
)

// EvaluationError captures property-engine metadata alongside the
// originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Record string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("frozen: %s evaluator %s record=%s: %v", e.Engine, describeExpression(e.Expr), e.Record, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "frozen:") {
		return err
	}
	return fmt.Errorf("frozen: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr, record string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Record == "" {
			evalErr.Record = record
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Record: record,
		Err:    err,
	}
}
