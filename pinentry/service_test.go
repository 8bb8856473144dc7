package pinentry

import (
	"testing"

	"github.com/go-assuan/pinentry/assuan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestOptionTTYNameForwardsToBackend(t *testing.T) {
	backend := &mockBackend{}
	svc := NewService(backend)

	resp, err := svc.option(strPtr("ttyname=/dev/pts/4"))
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Equal(t, []string{"/dev/pts/4"}, backend.setTTYCalls)
}

func TestOptionTTYNameSpaceSeparated(t *testing.T) {
	backend := &mockBackend{}
	svc := NewService(backend)

	_, err := svc.option(strPtr("ttyname /dev/pts/4"))
	require.NoError(t, err)
	require.Equal(t, []string{"/dev/pts/4"}, backend.setTTYCalls)
}

func TestOptionUnknownIsIgnored(t *testing.T) {
	backend := &mockBackend{}
	svc := NewService(backend)

	resp, err := svc.option(strPtr("lc-ctype=en_US.UTF-8"))
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Empty(t, backend.setTTYCalls)
}

func TestOptionNoArgs(t *testing.T) {
	backend := &mockBackend{}
	svc := NewService(backend)

	resp, err := svc.option(nil)
	require.NoError(t, err)
	require.NotNil(t, resp)
}

func TestOptionBackendErrorPropagates(t *testing.T) {
	backend := &mockBackend{ttyErr: &mockBackendErr{msg: "bad tty", code: assuan.ErrGeneral}}
	svc := NewService(backend)

	_, err := svc.option(strPtr("ttyname=/dev/bad"))
	require.Error(t, err)
	assert.Equal(t, assuan.ErrGeneral, codeOfTest(err))
}

func TestSetDescSetsAndClears(t *testing.T) {
	svc := NewService(&mockBackend{})

	_, err := svc.setDesc(strPtr("hello"))
	require.NoError(t, err)
	require.NotNil(t, svc.desc)
	assert.Equal(t, "hello", *svc.desc)

	_, err = svc.setDesc(strPtr(""))
	require.NoError(t, err)
	assert.Nil(t, svc.desc)
}

func TestSetPromptAppendsTrailingSpace(t *testing.T) {
	svc := NewService(&mockBackend{})

	_, err := svc.setPrompt(strPtr("Passphrase"))
	require.NoError(t, err)
	require.NotNil(t, svc.prompt)
	assert.Equal(t, "Passphrase ", *svc.prompt)
}

func TestSetPromptAlreadyHasTrailingSpace(t *testing.T) {
	svc := NewService(&mockBackend{})

	_, err := svc.setPrompt(strPtr("Passphrase "))
	require.NoError(t, err)
	assert.Equal(t, "Passphrase ", *svc.prompt)
}

func TestGetPinReturnsSecretData(t *testing.T) {
	backend := &mockBackend{pin: strPtr("1234")}
	svc := NewService(backend)

	resp, err := svc.getPin(nil)
	require.NoError(t, err)
	sd, ok := resp.(*assuan.SecretData)
	require.True(t, ok)
	sd.Destroy()
	assert.Equal(t, 1, backend.getPinCalls)
}

func TestGetPinUsesDefaultsWhenUnset(t *testing.T) {
	backend := &mockBackend{pin: strPtr("1234")}
	svc := NewService(backend)

	_, err := svc.getPin(nil)
	require.NoError(t, err)
	assert.Equal(t, [4]string{"", defaultGetPinTitle, "", defaultPrompt}, backend.getPinArgs)
}

func TestGetPinNilMeansNoPin(t *testing.T) {
	backend := &mockBackend{pin: nil}
	svc := NewService(backend)

	_, err := svc.getPin(nil)
	require.Error(t, err)
	assert.Equal(t, assuan.ErrNoPin, codeOfTest(err))
}

func TestGetPinBackendErrorPropagates(t *testing.T) {
	backend := &mockBackend{pinErr: &mockBackendErr{msg: "boom", code: assuan.ErrGeneral}}
	svc := NewService(backend)

	_, err := svc.getPin(nil)
	require.Error(t, err)
	assert.Equal(t, assuan.ErrGeneral, codeOfTest(err))
}

func TestConfirmOKReturnsOk(t *testing.T) {
	backend := &mockBackend{choice: ChoiceOK}
	svc := NewService(backend)

	resp, err := svc.confirm(nil)
	require.NoError(t, err)
	require.NotNil(t, resp)
}

func TestConfirmNotOKReturnsNotConfirmedError(t *testing.T) {
	backend := &mockBackend{choice: ChoiceNotOK}
	svc := NewService(backend)

	_, err := svc.confirm(nil)
	require.Error(t, err)
	assert.Equal(t, assuan.ErrNotConfirmed, codeOfTest(err))
}

func TestConfirmCanceledReturnsCanceledError(t *testing.T) {
	backend := &mockBackend{choice: ChoiceCanceled}
	svc := NewService(backend)

	_, err := svc.confirm(nil)
	require.Error(t, err)
	assert.Equal(t, assuan.ErrCanceled, codeOfTest(err))
}

func TestConfirmOneButtonOmitsNotOKAndCancel(t *testing.T) {
	backend := &mockBackend{choice: ChoiceOK}
	svc := NewService(backend)
	svc.buttonNotOK = strPtr("Never")
	svc.buttonCancel = strPtr("Abort")

	_, err := svc.confirm(strPtr("--one-button"))
	require.NoError(t, err)
	require.Len(t, backend.confirmCalls, 1)
	assert.Nil(t, backend.confirmCalls[0].NotOK)
	assert.Nil(t, backend.confirmCalls[0].Cancel)
}

func TestConfirmDefaultsCancelWhenNeitherSet(t *testing.T) {
	backend := &mockBackend{choice: ChoiceOK}
	svc := NewService(backend)

	_, err := svc.confirm(nil)
	require.NoError(t, err)
	require.Len(t, backend.confirmCalls, 1)
	require.NotNil(t, backend.confirmCalls[0].Cancel)
	assert.Equal(t, defaultCancelLabel, *backend.confirmCalls[0].Cancel)
}

func TestConfirmKeepsExplicitNotOKWithoutDefaultingCancel(t *testing.T) {
	backend := &mockBackend{choice: ChoiceOK}
	svc := NewService(backend)
	svc.buttonNotOK = strPtr("Never")

	_, err := svc.confirm(nil)
	require.NoError(t, err)
	require.Len(t, backend.confirmCalls, 1)
	require.NotNil(t, backend.confirmCalls[0].NotOK)
	assert.Nil(t, backend.confirmCalls[0].Cancel)
}

func TestMessageIsConfirmWithOneButton(t *testing.T) {
	backend := &mockBackend{choice: ChoiceOK}
	svc := NewService(backend)
	svc.buttonNotOK = strPtr("Never")

	_, err := svc.message(nil)
	require.NoError(t, err)
	require.Len(t, backend.confirmCalls, 1)
	assert.Nil(t, backend.confirmCalls[0].NotOK)
}

func TestRegisterDoesNotPanic(t *testing.T) {
	reg := assuan.NewCommandRegistry[Service]()
	assert.NotPanics(t, func() { Register(reg) })
}

// codeOfTest mirrors assuan's unexported codeOf for use from this package's
// tests, via the same HasErrorCode contract handlers are expected to honor.
func codeOfTest(err error) assuan.ErrorCode {
	if coder, ok := err.(assuan.HasErrorCode); ok {
		return coder.Code()
	}
	return assuan.ErrGeneral
}
