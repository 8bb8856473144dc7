package pinentry

import (
	"strings"

	"github.com/go-assuan/pinentry/assuan"
)

// defaultGetPinTitle and defaultConfirmTitle are the window titles used
// when SETTITLE was never called, taken from original_source's
// pinentry/src/lib.rs (spec.md §4.7 states only the GETPIN default
// explicitly; this repo also carries the CONFIRM/MESSAGE default).
const (
	defaultGetPinTitle  = "Enter PIN"
	defaultConfirmTitle = "Confirm"
	defaultPrompt       = "PIN: "
	defaultOKLabel      = "OK"
	defaultCancelLabel  = "Cancel"
)

// Service is the PinentryService of spec.md §4.7/C7: a stateful façade
// over a Backend. It accumulates per-interaction configuration via SET*
// commands and consumes (without clearing) that configuration on
// GETPIN/CONFIRM/MESSAGE.
type Service struct {
	backend Backend

	desc         *string
	prompt       *string
	windowTitle  *string
	buttonOK     *string
	buttonNotOK  *string
	buttonCancel *string
	errorText    *string
}

// NewService returns a Service driving backend.
func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// Register binds the pinentry command set to reg, appending to whatever
// commands are already registered. This is the hook mentioned in spec.md
// §4.6/C6: the pinentry service layers its commands on top of the generic
// ServerLoop via the same CommandRegistry every other service uses.
func Register(reg *assuan.CommandRegistry[Service]) {
	reg.Register("OPTION", (*Service).option)
	reg.Register("SETTIMEOUT", (*Service).notCurrentlySupported)
	reg.Register("SETQUALITYBAR", (*Service).notCurrentlySupported)
	reg.Register("SETQUALITYBAR_TT", (*Service).notCurrentlySupported)
	reg.Register("SETDESC", (*Service).setDesc)
	reg.Register("SETPROMPT", (*Service).setPrompt)
	reg.Register("SETTITLE", (*Service).setWindowTitle)
	reg.Register("SETOK", (*Service).setButtonOK)
	reg.Register("SETNOTOK", (*Service).setButtonNotOK)
	reg.Register("SETCANCEL", (*Service).setButtonCancel)
	reg.Register("SETERROR", (*Service).setErrorText)
	reg.Register("GETPIN", (*Service).getPin)
	reg.Register("CONFIRM", (*Service).confirm)
	reg.Register("MESSAGE", (*Service).message)
}

// handleError is the Go stand-in for spec.md §9's "tiny interface with two
// operations": it wraps both pinentry-specific outcomes (no pin given,
// confirm refused/cancelled) and a propagated Backend error behind a single
// assuan.HasErrorCode implementation, the way original_source's
// HandleError<E> maps onto ErrorCode.
type handleError struct {
	kind    pinentryErrKind
	wrapped error
	code    assuan.ErrorCode
}

type pinentryErrKind int

const (
	kindNoPin pinentryErrKind = iota
	kindConfirmRefused
	kindConfirmCanceled
	kindBackend
)

func newPinentryErr(kind pinentryErrKind) error {
	code := assuan.ErrGeneral
	switch kind {
	case kindNoPin:
		code = assuan.ErrNoPin
	case kindConfirmRefused:
		code = assuan.ErrNotConfirmed
	case kindConfirmCanceled:
		code = assuan.ErrCanceled
	}
	return &handleError{kind: kind, code: code}
}

func newBackendErr(err error) error {
	code := assuan.ErrGeneral
	if coder, ok := err.(assuan.HasErrorCode); ok {
		code = coder.Code()
	}
	return &handleError{kind: kindBackend, wrapped: err, code: code}
}

func (e *handleError) Error() string {
	switch e.kind {
	case kindNoPin:
		return "no pin given"
	case kindConfirmRefused:
		return "refused"
	case kindConfirmCanceled:
		return "canceled"
	default:
		return e.wrapped.Error()
	}
}

func (e *handleError) Code() assuan.ErrorCode { return e.code }

func (e *handleError) Unwrap() error { return e.wrapped }

func (s *Service) option(args *string) (assuan.Response, error) {
	if args == nil {
		return assuan.NewOkWithDebugInfo("ignored, no args")
	}
	var key, value string
	if idx := strings.IndexAny(*args, " ="); idx >= 0 {
		key, value = (*args)[:idx], (*args)[idx+1:]
	} else {
		key = *args
	}
	if key == "ttyname" {
		if err := s.backend.SetTTY(value); err != nil {
			return nil, newBackendErr(err)
		}
		return assuan.NewOk(), nil
	}
	return assuan.NewOkWithDebugInfo("unknown option, ignored")
}

func (s *Service) notCurrentlySupported(_ *string) (assuan.Response, error) {
	return assuan.NewOkWithDebugInfo("not currently supported, ignored")
}

// setField sets *field to the new value, or clears it (spec.md §4.7: "SET*
// <empty args> clears the corresponding field") when args is nil or empty.
func setField(field **string, args *string) {
	if args == nil || *args == "" {
		*field = nil
		return
	}
	v := *args
	*field = &v
}

func (s *Service) setDesc(args *string) (assuan.Response, error) {
	setField(&s.desc, args)
	return assuan.NewOk(), nil
}

func (s *Service) setPrompt(args *string) (assuan.Response, error) {
	setField(&s.prompt, args)
	if s.prompt != nil && !strings.HasSuffix(*s.prompt, " ") {
		withSpace := *s.prompt + " "
		s.prompt = &withSpace
	}
	return assuan.NewOk(), nil
}

func (s *Service) setWindowTitle(args *string) (assuan.Response, error) {
	setField(&s.windowTitle, args)
	return assuan.NewOk(), nil
}

func (s *Service) setButtonOK(args *string) (assuan.Response, error) {
	setField(&s.buttonOK, args)
	return assuan.NewOk(), nil
}

func (s *Service) setButtonNotOK(args *string) (assuan.Response, error) {
	setField(&s.buttonNotOK, args)
	return assuan.NewOk(), nil
}

func (s *Service) setButtonCancel(args *string) (assuan.Response, error) {
	setField(&s.buttonCancel, args)
	return assuan.NewOk(), nil
}

func (s *Service) setErrorText(args *string) (assuan.Response, error) {
	setField(&s.errorText, args)
	return assuan.NewOk(), nil
}

func orDefault(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

func (s *Service) getPin(_ *string) (assuan.Response, error) {
	secret, err := s.backend.GetPin(
		orDefault(s.errorText, ""),
		orDefault(s.windowTitle, defaultGetPinTitle),
		orDefault(s.desc, ""),
		orDefault(s.prompt, defaultPrompt),
	)
	if err != nil {
		return nil, newBackendErr(err)
	}
	if secret == nil {
		return nil, newPinentryErr(kindNoPin)
	}
	return assuan.NewSecretData(*secret)
}

func (s *Service) confirmButtons(oneButton bool) Buttons {
	ok := orDefault(s.buttonOK, defaultOKLabel)
	if oneButton {
		return Buttons{OK: ok}
	}
	btns := Buttons{OK: ok, NotOK: s.buttonNotOK, Cancel: s.buttonCancel}
	if btns.NotOK == nil && btns.Cancel == nil {
		cancel := defaultCancelLabel
		btns.Cancel = &cancel
	}
	return btns
}

func (s *Service) doConfirm(oneButton bool) (assuan.Response, error) {
	choice, err := s.backend.Confirm(
		orDefault(s.errorText, ""),
		orDefault(s.windowTitle, defaultConfirmTitle),
		orDefault(s.desc, ""),
		s.confirmButtons(oneButton),
	)
	if err != nil {
		return nil, newBackendErr(err)
	}
	switch choice {
	case ChoiceOK:
		return assuan.NewOk(), nil
	case ChoiceNotOK:
		return nil, newPinentryErr(kindConfirmRefused)
	default:
		return nil, newPinentryErr(kindConfirmCanceled)
	}
}

func (s *Service) confirm(args *string) (assuan.Response, error) {
	oneButton := args != nil && strings.TrimSpace(*args) == "--one-button"
	return s.doConfirm(oneButton)
}

func (s *Service) message(_ *string) (assuan.Response, error) {
	return s.doConfirm(true)
}
