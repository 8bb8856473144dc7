package assuan

import "errors"

// Handler is a command handler bound to a named Assuan command. state is
// the connection's service state, exclusively owned by the ServerLoop for
// the lifetime of the connection; args is the percent-decoded argument
// string, or nil if the command line carried none.
//
// A non-nil error is reported to the client as "ERR <code> <desc>\n" and
// does not terminate the connection (spec.md §4.6/§7). Its ErrorCode is
// resolved via errors.As against HasErrorCode; an error that doesn't
// implement HasErrorCode is reported as ErrGeneral. This is the Go
// equivalent of the "tiny interface with two operations" design note in
// spec.md §9: rather than a compile-time bound per handler (which Go's
// method-based generics can't express across a single slice of handlers of
// varying error types), the bound is checked per error value at dispatch
// time.
type Handler[S any] func(state *S, args *string) (Response, error)

type binding[S any] struct {
	name    string
	handler Handler[S]
}

// CommandRegistry is an ordered list of (name, handler) bindings, the
// composable dispatch model of spec.md §4.5. Lookup is first-match by
// exact, case-sensitive name; a built-in tail providing NOP and BYE is
// consulted after every registered command, unless disabled with
// WithoutBuiltins.
type CommandRegistry[S any] struct {
	handlers   []binding[S]
	noBuiltins bool
}

// NewCommandRegistry returns an empty registry with the built-in NOP/BYE
// tail enabled.
func NewCommandRegistry[S any]() *CommandRegistry[S] {
	return &CommandRegistry[S]{}
}

// WithoutBuiltins disables the built-in NOP/BYE tail, so an unregistered
// NOP or BYE command is treated like any other unknown command.
func (r *CommandRegistry[S]) WithoutBuiltins() *CommandRegistry[S] {
	r.noBuiltins = true
	return r
}

// Register appends a handler for the exact command name cmd. Registration
// order determines lookup precedence: the first matching name wins,
// including between two handlers registered for the same name.
func (r *CommandRegistry[S]) Register(cmd string, h Handler[S]) *CommandRegistry[S] {
	r.handlers = append(r.handlers, binding[S]{name: cmd, handler: h})
	return r
}

// dispatch looks up cmd and invokes its handler. The boolean result reports
// whether a handler (user-registered or built-in) was found at all; when
// false, the caller should report ASS_UNKNOWN_CMD.
func (r *CommandRegistry[S]) dispatch(cmd string, state *S, args *string) (Response, error, bool) {
	for _, b := range r.handlers {
		if b.name == cmd {
			resp, err := b.handler(state, args)
			return resp, err, true
		}
	}
	if !r.noBuiltins {
		switch cmd {
		case "NOP":
			return NewOk(), nil, true
		case "BYE":
			return NewOk().CloseConnection(true), nil, true
		}
	}
	return nil, nil, false
}

// codeOf resolves the ErrorCode to report for err, defaulting to ErrGeneral
// if err doesn't implement HasErrorCode anywhere in its chain.
func codeOf(err error) ErrorCode {
	var coder HasErrorCode
	if errors.As(err, &coder) {
		return coder.Code()
	}
	return ErrGeneral
}
