package sca_test

import (
	"context"
	"testing"

	"github.com/jerry-enebeli/banklink/internal/apierror"
	"github.com/jerry-enebeli/banklink/model"
	"github.com/jerry-enebeli/banklink/sca"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBankDialog struct {
	authenticateResult *sca.StepResult
	selectResult       *sca.StepResult
	authoriseResult    *sca.StepResult
	authenticateCalls  int
	selectCalls        int
	authoriseCalls     int
}

func (f *fakeBankDialog) AuthenticatePsu(_ context.Context, _ *model.UpdatePsuAuthenticationRequest) (*sca.StepResult, error) {
	f.authenticateCalls++
	return f.authenticateResult, nil
}

func (f *fakeBankDialog) SelectMethod(_ context.Context, _ *model.SelectScaMethodRequest) (*sca.StepResult, error) {
	f.selectCalls++
	return f.selectResult, nil
}

func (f *fakeBankDialog) AuthoriseTransaction(_ context.Context, _ *model.TransactionAuthorisationRequest) (*sca.StepResult, error) {
	f.authoriseCalls++
	return f.authoriseResult, nil
}

func twoMethods() []model.ScaMethod {
	return []model.ScaMethod{
		{ID: "901", Name: "photoTAN"},
		{ID: "902", Name: "smsTAN"},
	}
}

func TestFullDialogHappyPath(t *testing.T) {
	bank := &fakeBankDialog{
		authenticateResult: &sca.StepResult{Success: true, ScaMethods: twoMethods()},
		selectResult:       &sca.StepResult{Success: true, Challenge: &model.Challenge{Label: "enter TAN"}},
		authoriseResult:    &sca.StepResult{Success: true},
	}
	dialog := sca.NewDialog(bank, model.XS2A, false, "consent-1", "auth-1")

	resp, err := dialog.UpdatePsuAuthentication(context.Background(), &model.UpdatePsuAuthenticationRequest{PsuID: "psu", Password: "pin"})
	require.NoError(t, err)
	assert.Equal(t, model.ScaStatusPsuAuthenticated, resp.ScaStatus)
	assert.Len(t, resp.ScaMethods, 2)
	assert.Equal(t, []sca.Action{sca.ActionSelectMethod}, dialog.NextActions())

	resp, err = dialog.SelectScaMethod(context.Background(), &model.SelectScaMethodRequest{MethodID: "901"})
	require.NoError(t, err)
	assert.Equal(t, model.ScaStatusMethodSelected, resp.ScaStatus)
	assert.Equal(t, "enter TAN", resp.Challenge.Label)
	assert.Equal(t, "901", dialog.Authorisation().SelectedMethod.ID)

	resp, err = dialog.AuthoriseTransaction(context.Background(), &model.TransactionAuthorisationRequest{ScaResponse: "123456"})
	require.NoError(t, err)
	assert.Equal(t, model.ScaStatusFinalised, resp.ScaStatus)
	assert.Empty(t, dialog.NextActions())
}

func TestSingleMethodSkipsSelection(t *testing.T) {
	bank := &fakeBankDialog{
		authenticateResult: &sca.StepResult{
			Success:    true,
			ScaMethods: []model.ScaMethod{{ID: "901", Name: "photoTAN"}},
		},
	}
	dialog := sca.NewDialog(bank, model.XS2A, false, "consent-1", "auth-1")

	resp, err := dialog.UpdatePsuAuthentication(context.Background(), &model.UpdatePsuAuthenticationRequest{})
	require.NoError(t, err)

	assert.Equal(t, model.ScaStatusMethodSelected, resp.ScaStatus)
	assert.Equal(t, "901", dialog.Authorisation().SelectedMethod.ID)
	assert.Equal(t, []sca.Action{sca.ActionAuthoriseTransaction}, dialog.NextActions())
}

func TestBundledMethodsProtocolSkipsSelection(t *testing.T) {
	bank := &fakeBankDialog{
		authenticateResult: &sca.StepResult{Success: true, ScaMethods: twoMethods()},
	}
	dialog := sca.NewDialog(bank, model.HBCI, true, "consent-1", "auth-1")

	resp, err := dialog.UpdatePsuAuthentication(context.Background(), &model.UpdatePsuAuthenticationRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.ScaStatusMethodSelected, resp.ScaStatus)

	_, err = dialog.SelectScaMethod(context.Background(), &model.SelectScaMethodRequest{MethodID: "901"})
	require.Error(t, err)
	assert.Equal(t, apierror.ErrInvalidState, apierror.CodeOf(err))
	assert.Equal(t, 0, bank.selectCalls)
}

func TestStatusIsIdempotent(t *testing.T) {
	bank := &fakeBankDialog{
		authenticateResult: &sca.StepResult{Success: true, ScaMethods: twoMethods()},
	}
	dialog := sca.NewDialog(bank, model.XS2A, false, "consent-1", "auth-1")

	_, err := dialog.UpdatePsuAuthentication(context.Background(), &model.UpdatePsuAuthenticationRequest{})
	require.NoError(t, err)

	first := dialog.Status()
	second := dialog.Status()

	assert.Equal(t, first.ScaStatus, second.ScaStatus)
	assert.Equal(t, model.ScaStatusPsuAuthenticated, dialog.Authorisation().ScaStatus)
	assert.Equal(t, 1, bank.authenticateCalls)
}

func TestTerminalStatesRejectMutation(t *testing.T) {
	tests := []struct {
		name   string
		status string
	}{
		{name: "finalised", status: model.ScaStatusFinalised},
		{name: "failed", status: model.ScaStatusFailed},
		{name: "exempted", status: model.ScaStatusExempted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank := &fakeBankDialog{}
			dialog := sca.Resume(bank, false, &model.ConsentAuthorisation{
				ConsentID:       "consent-1",
				AuthorisationID: "auth-1",
				ScaStatus:       tt.status,
				BankAPI:         model.XS2A,
			})

			_, err := dialog.UpdatePsuAuthentication(context.Background(), &model.UpdatePsuAuthenticationRequest{})
			assert.Equal(t, apierror.ErrInvalidState, apierror.CodeOf(err))

			_, err = dialog.SelectScaMethod(context.Background(), &model.SelectScaMethodRequest{})
			assert.Equal(t, apierror.ErrInvalidState, apierror.CodeOf(err))

			_, err = dialog.AuthoriseTransaction(context.Background(), &model.TransactionAuthorisationRequest{})
			assert.Equal(t, apierror.ErrInvalidState, apierror.CodeOf(err))

			assert.Equal(t, 0, bank.authenticateCalls+bank.selectCalls+bank.authoriseCalls)
			assert.Equal(t, tt.status, dialog.Status().ScaStatus)
			assert.Empty(t, dialog.NextActions())
		})
	}
}

func TestExemptionReachableFromAnyStep(t *testing.T) {
	bank := &fakeBankDialog{
		authenticateResult: &sca.StepResult{Success: true, Exempted: true},
	}
	dialog := sca.NewDialog(bank, model.XS2A, false, "consent-1", "auth-1")

	resp, err := dialog.UpdatePsuAuthentication(context.Background(), &model.UpdatePsuAuthenticationRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.ScaStatusExempted, resp.ScaStatus)
}

func TestFailedAuthenticationIsTerminal(t *testing.T) {
	bank := &fakeBankDialog{
		authenticateResult: &sca.StepResult{Success: false, PsuMessage: "wrong credentials"},
	}
	dialog := sca.NewDialog(bank, model.XS2A, false, "consent-1", "auth-1")

	resp, err := dialog.UpdatePsuAuthentication(context.Background(), &model.UpdatePsuAuthenticationRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.ScaStatusFailed, resp.ScaStatus)
	assert.Equal(t, "wrong credentials", resp.PsuMessage)

	_, err = dialog.UpdatePsuAuthentication(context.Background(), &model.UpdatePsuAuthenticationRequest{})
	assert.Equal(t, apierror.ErrInvalidState, apierror.CodeOf(err))
	assert.Equal(t, 1, bank.authenticateCalls)
}

func TestNextActionsContract(t *testing.T) {
	assert.Equal(t, []sca.Action{sca.ActionUpdateAuthentication}, sca.NextActions(model.ScaStatusStarted, false))
	assert.Equal(t, []sca.Action{sca.ActionSelectMethod}, sca.NextActions(model.ScaStatusPsuAuthenticated, false))
	assert.Nil(t, sca.NextActions(model.ScaStatusPsuAuthenticated, true))
	assert.Equal(t, []sca.Action{sca.ActionAuthoriseTransaction}, sca.NextActions(model.ScaStatusMethodSelected, false))
	assert.Nil(t, sca.NextActions(model.ScaStatusFinalised, false))
	assert.Nil(t, sca.NextActions(model.ScaStatusFailed, false))
	assert.Nil(t, sca.NextActions(model.ScaStatusExempted, false))
}
