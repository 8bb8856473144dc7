package pinentry

import "github.com/go-assuan/pinentry/assuan"

// mockBackend is a hand-written test double standing in for a generated
// gomock Backend mock (the teacher's tests use go:generate mockgen; this
// package doesn't wire go tool mockgen's reflect-mode dependencies, see
// DESIGN.md, so its mock is hand-written in the same call-recording style).
type mockBackend struct {
	ttyPath   string
	ttyErr    error
	pin       *string
	pinErr    error
	choice    Choice
	choiceErr error

	setTTYCalls  []string
	getPinCalls  int
	getPinArgs   [4]string
	confirmCalls []Buttons
}

func (m *mockBackend) SetTTY(path string) error {
	m.setTTYCalls = append(m.setTTYCalls, path)
	return m.ttyErr
}

func (m *mockBackend) GetPin(errText, title, desc, prompt string) (*string, error) {
	m.getPinCalls++
	m.getPinArgs = [4]string{errText, title, desc, prompt}
	return m.pin, m.pinErr
}

func (m *mockBackend) Confirm(errText, title, desc string, buttons Buttons) (Choice, error) {
	m.confirmCalls = append(m.confirmCalls, buttons)
	return m.choice, m.choiceErr
}

type mockBackendErr struct {
	msg  string
	code assuan.ErrorCode
}

func (e *mockBackendErr) Error() string          { return e.msg }
func (e *mockBackendErr) Code() assuan.ErrorCode { return e.code }
