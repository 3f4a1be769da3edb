package guarderr

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// enableDebugErrorPrinting makes errors include the frame that created them when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	Syntax
	UnresolvedName
	ArityMismatch
	VisibilityMismatch
	UnexpectedArgument
	UnexpectedReturn
	MissingMethod
	AlreadyWrapped
)

type GuardError interface {
	Error() string
	Code() ErrCode

	withStack([]byte) GuardError
	getStack() []byte
}

func FormatWithCode(e GuardError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			lines := strings.Split(stack, "\n")
			if len(lines) > 6 {
				stack = lines[6]
			}
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

func New[E GuardError](err E) GuardError {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From  error
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Unwrap() error    { return e.From }
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) GuardError {
	e.stack = stack
	return e
}

// NewSyntax is a malformed annotation. Pos is the byte offset into Input.
type NewSyntax struct {
	Input   string
	Pos     int
	Message string
	stack   []byte
}

func (e NewSyntax) Error() string {
	return fmt.Sprintf("%s at position %d in '%s'", e.Message, e.Pos, e.Input)
}
func (e NewSyntax) Code() ErrCode    { return Syntax }
func (e NewSyntax) getStack() []byte { return e.stack }
func (e NewSyntax) withStack(stack []byte) GuardError {
	e.stack = stack
	return e
}

type NewUnresolvedName struct {
	// Owner is the definition the annotation belongs to, e.g. Geo::Point#dist
	Owner  string
	Name   string
	Source string
	stack  []byte
}

func (e NewUnresolvedName) Error() string {
	return fmt.Sprintf("uninitialized constant '%s' referenced by '%s' defined in %s", e.Name, e.Owner, e.Source)
}
func (e NewUnresolvedName) Code() ErrCode    { return UnresolvedName }
func (e NewUnresolvedName) getStack() []byte { return e.stack }
func (e NewUnresolvedName) withStack(stack []byte) GuardError {
	e.stack = stack
	return e
}

type NewArityMismatch struct {
	Method   string
	Expected int
	Actual   int
	Source   string
	stack    []byte
}

func (e NewArityMismatch) Error() string {
	return fmt.Sprintf("expected arity of '%d' but received '%d' for '%s' defined in %s", e.Expected, e.Actual, e.Method, e.Source)
}
func (e NewArityMismatch) Code() ErrCode    { return ArityMismatch }
func (e NewArityMismatch) getStack() []byte { return e.stack }
func (e NewArityMismatch) withStack(stack []byte) GuardError {
	e.stack = stack
	return e
}

type NewVisibilityMismatch struct {
	Method   string
	Expected string
	Actual   string
	Source   string
	stack    []byte
}

func (e NewVisibilityMismatch) Error() string {
	return fmt.Sprintf("expected visibility of '%s' but received '%s' for '%s' defined in %s", e.Expected, e.Actual, e.Method, e.Source)
}
func (e NewVisibilityMismatch) Code() ErrCode    { return VisibilityMismatch }
func (e NewVisibilityMismatch) getStack() []byte { return e.stack }
func (e NewVisibilityMismatch) withStack(stack []byte) GuardError {
	e.stack = stack
	return e
}

type NewUnexpectedArgument struct {
	Method    string
	Parameter string
	Expected  string
	Actual    string
	Source    string
	CallSite  string
	stack     []byte
}

func (e NewUnexpectedArgument) Error() string {
	return fmt.Sprintf("expected %s for %s but received incompatible %s in '%s' defined in %s and called from %s",
		e.Expected, e.Parameter, e.Actual, e.Method, e.Source, e.CallSite)
}
func (e NewUnexpectedArgument) Code() ErrCode    { return UnexpectedArgument }
func (e NewUnexpectedArgument) getStack() []byte { return e.stack }
func (e NewUnexpectedArgument) withStack(stack []byte) GuardError {
	e.stack = stack
	return e
}

type NewUnexpectedReturn struct {
	Method   string
	Expected string
	Actual   string
	Source   string
	CallSite string
	stack    []byte
}

func (e NewUnexpectedReturn) Error() string {
	return fmt.Sprintf("expected %s for return but received incompatible %s in '%s' defined in %s and called from %s",
		e.Expected, e.Actual, e.Method, e.Source, e.CallSite)
}
func (e NewUnexpectedReturn) Code() ErrCode    { return UnexpectedReturn }
func (e NewUnexpectedReturn) getStack() []byte { return e.stack }
func (e NewUnexpectedReturn) withStack(stack []byte) GuardError {
	e.stack = stack
	return e
}

type NewMissingMethod struct {
	Method string
	Source string
	stack  []byte
}

func (e NewMissingMethod) Error() string {
	return fmt.Sprintf("documented method '%s' defined in %s does not exist in the live namespace", e.Method, e.Source)
}
func (e NewMissingMethod) Code() ErrCode    { return MissingMethod }
func (e NewMissingMethod) getStack() []byte { return e.stack }
func (e NewMissingMethod) withStack(stack []byte) GuardError {
	e.stack = stack
	return e
}

type NewAlreadyWrapped struct {
	Method string
	stack  []byte
}

func (e NewAlreadyWrapped) Error() string {
	return fmt.Sprintf("method '%s' is already wrapped", e.Method)
}
func (e NewAlreadyWrapped) Code() ErrCode    { return AlreadyWrapped }
func (e NewAlreadyWrapped) getStack() []byte { return e.stack }
func (e NewAlreadyWrapped) withStack(stack []byte) GuardError {
	e.stack = stack
	return e
}
