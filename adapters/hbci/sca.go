package hbci

import (
	"context"

	"github.com/jerry-enebeli/banklink/internal/apierror"
	"github.com/jerry-enebeli/banklink/model"
	"github.com/jerry-enebeli/banklink/sca"
)

// scaHandler performs the bank-side calls of an HBCI TAN dialog.
type scaHandler struct {
	adapter *Adapter
	req     *model.TransactionRequest
}

func (h *scaHandler) AuthenticatePsu(ctx context.Context, authReq *model.UpdatePsuAuthenticationRequest) (*sca.StepResult, error) {
	dialog, err := h.dialogRequest()
	if err != nil {
		return nil, err
	}
	dialog.UserID = authReq.PsuID
	dialog.Credential = authReq.Password

	result, err := h.adapter.dialer.SubmitAuthentication(ctx, dialog)
	if err != nil {
		return nil, err
	}
	return toStepResult(result), nil
}

// SelectMethod never runs for HBCI. The TAN method comes bundled with the
// authentication response, and the dialog rejects the transition before
// reaching the bank. Kept as a hard error in case that guard ever regresses.
func (h *scaHandler) SelectMethod(_ context.Context, _ *model.SelectScaMethodRequest) (*sca.StepResult, error) {
	return nil, apierror.NewBankError(apierror.ErrUnsupportedOperation, 0,
		"sca method selection not supported by HBCI")
}

func (h *scaHandler) AuthoriseTransaction(ctx context.Context, authReq *model.TransactionAuthorisationRequest) (*sca.StepResult, error) {
	dialog, err := h.dialogRequest()
	if err != nil {
		return nil, err
	}
	dialog.TanResponse = authReq.ScaResponse

	result, err := h.adapter.dialer.SubmitTan(ctx, dialog)
	if err != nil {
		return nil, err
	}
	return toStepResult(result), nil
}

// dialogRequest is the SCA variant of the adapter's builder: the pin may
// legitimately be absent here because AuthenticatePsu carries the credential
// in its own request.
func (h *scaHandler) dialogRequest() (*DialogRequest, error) {
	session, _ := h.req.SessionData.(SessionData)
	return &DialogRequest{
		BankCode:    h.req.BankCode,
		UserID:      h.req.UserID,
		IBAN:        h.req.IBAN,
		Credential:  session.Pin,
		SessionData: session.DialogState,
	}, nil
}

func toStepResult(result *AuthResult) *sca.StepResult {
	return &sca.StepResult{
		Success:    result.Success,
		ScaMethods: result.TanMethods,
		Challenge:  result.Challenge,
		PsuMessage: result.Message,
	}
}
