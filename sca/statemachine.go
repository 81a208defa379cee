package sca

import (
	"context"

	"github.com/jerry-enebeli/banklink/internal/apierror"
	"github.com/jerry-enebeli/banklink/model"
	"github.com/sirupsen/logrus"
)

// Action names the uniform operations a caller may invoke on a dialog. The
// names double as hypermedia rels on the API surface.
type Action string

const (
	ActionUpdateAuthentication Action = "updatePsuAuthentication"
	ActionSelectMethod         Action = "selectPsuAuthenticationMethod"
	ActionAuthoriseTransaction Action = "transactionAuthorisation"
)

// StepResult is what a bank dialog returns for one SCA step, already mapped
// from the bank's wire format by the owning adapter.
type StepResult struct {
	Success    bool
	Exempted   bool
	ScaMethods []model.ScaMethod
	Challenge  *model.Challenge
	PsuMessage string
}

// BankDialog performs the bank-side calls of an authorisation dialog.
// Implementations live in the protocol adapters; transport errors they return
// must already belong to the apierror taxonomy.
type BankDialog interface {
	AuthenticatePsu(ctx context.Context, req *model.UpdatePsuAuthenticationRequest) (*StepResult, error)
	SelectMethod(ctx context.Context, req *model.SelectScaMethodRequest) (*StepResult, error)
	AuthoriseTransaction(ctx context.Context, req *model.TransactionAuthorisationRequest) (*StepResult, error)
}

// Dialog drives one consent or payment authorisation through the uniform
// status model:
//
//	STARTED -> PSU_AUTHENTICATED -> SCA_METHOD_SELECTED -> FINALISED
//
// FAILED and EXEMPTED are terminal and reachable from any non-terminal state.
// Protocols that bundle the available SCA methods into the authentication
// challenge (HBCI) skip the selection step entirely; that is a declared
// capability, never inferred from response shape.
type Dialog struct {
	bank              BankDialog
	bankAPI           model.BankAPI
	bundlesScaMethods bool
	authorisation     *model.ConsentAuthorisation
	psuMessage        string
}

func NewDialog(bank BankDialog, bankAPI model.BankAPI, bundlesScaMethods bool, consentID, authorisationID string) *Dialog {
	return &Dialog{
		bank:              bank,
		bankAPI:           bankAPI,
		bundlesScaMethods: bundlesScaMethods,
		authorisation: &model.ConsentAuthorisation{
			ConsentID:       consentID,
			AuthorisationID: authorisationID,
			ScaStatus:       model.ScaStatusStarted,
			BankAPI:         bankAPI,
		},
	}
}

// Resume rebuilds a dialog around an existing authorisation, e.g. one loaded
// by the calling boundary between HTTP requests.
func Resume(bank BankDialog, bundlesScaMethods bool, authorisation *model.ConsentAuthorisation) *Dialog {
	return &Dialog{
		bank:              bank,
		bankAPI:           authorisation.BankAPI,
		bundlesScaMethods: bundlesScaMethods,
		authorisation:     authorisation,
	}
}

// Status returns the current dialog state. Safe to call repeatedly from any
// state, never mutates.
func (d *Dialog) Status() *model.UpdateAuthResponse {
	return d.response()
}

// Authorisation exposes the underlying authorisation record.
func (d *Dialog) Authorisation() *model.ConsentAuthorisation {
	return d.authorisation
}

// NextActions derives the operations valid from the current status. Callers
// must use this instead of guessing: protocols that bundle SCA methods never
// offer the selection step.
func (d *Dialog) NextActions() []Action {
	return NextActions(d.authorisation.ScaStatus, d.bundlesScaMethods)
}

// NextActions is the status -> allowed-operation contract of the state
// machine. Terminal states admit only a status query.
func NextActions(status string, bundlesScaMethods bool) []Action {
	switch status {
	case model.ScaStatusStarted:
		return []Action{ActionUpdateAuthentication}
	case model.ScaStatusPsuAuthenticated:
		if bundlesScaMethods {
			return nil
		}
		return []Action{ActionSelectMethod}
	case model.ScaStatusMethodSelected:
		return []Action{ActionAuthoriseTransaction}
	}
	return nil
}

// UpdatePsuAuthentication submits the PSU's authentication factor. On success
// the dialog moves to PSU_AUTHENTICATED, or straight to SCA_METHOD_SELECTED
// when the bank left nothing to select (a single offered method, or a
// protocol that bundles methods into the challenge).
func (d *Dialog) UpdatePsuAuthentication(ctx context.Context, req *model.UpdatePsuAuthenticationRequest) (*model.UpdateAuthResponse, error) {
	if err := d.guard(model.ScaStatusStarted, ActionUpdateAuthentication); err != nil {
		return nil, err
	}

	result, err := d.bank.AuthenticatePsu(ctx, req)
	if err != nil {
		return nil, err
	}
	d.applyStepArtifacts(result)

	switch {
	case result.Exempted:
		d.authorisation.ScaStatus = model.ScaStatusExempted
	case !result.Success:
		d.authorisation.ScaStatus = model.ScaStatusFailed
	case d.bundlesScaMethods || len(result.ScaMethods) == 1:
		if len(result.ScaMethods) == 1 {
			d.authorisation.SelectedMethod = &result.ScaMethods[0]
		}
		d.authorisation.ScaStatus = model.ScaStatusMethodSelected
	default:
		d.authorisation.ScaStatus = model.ScaStatusPsuAuthenticated
	}
	return d.response(), nil
}

// SelectScaMethod picks one of the offered SCA methods. Not available on
// protocols that bundle methods into the authentication challenge.
func (d *Dialog) SelectScaMethod(ctx context.Context, req *model.SelectScaMethodRequest) (*model.UpdateAuthResponse, error) {
	if d.bundlesScaMethods {
		return nil, apierror.NewAPIError(apierror.ErrInvalidState,
			"sca methods are delivered with the authentication challenge for this bank", nil)
	}
	if err := d.guard(model.ScaStatusPsuAuthenticated, ActionSelectMethod); err != nil {
		return nil, err
	}

	result, err := d.bank.SelectMethod(ctx, req)
	if err != nil {
		return nil, err
	}
	d.applyStepArtifacts(result)

	switch {
	case result.Exempted:
		d.authorisation.ScaStatus = model.ScaStatusExempted
	case !result.Success:
		d.authorisation.ScaStatus = model.ScaStatusFailed
	default:
		d.authorisation.SelectedMethod = d.findMethod(req.MethodID)
		d.authorisation.ScaStatus = model.ScaStatusMethodSelected
	}
	return d.response(), nil
}

// AuthoriseTransaction submits the challenge response and finalises the
// dialog.
func (d *Dialog) AuthoriseTransaction(ctx context.Context, req *model.TransactionAuthorisationRequest) (*model.UpdateAuthResponse, error) {
	if err := d.guard(model.ScaStatusMethodSelected, ActionAuthoriseTransaction); err != nil {
		return nil, err
	}

	result, err := d.bank.AuthoriseTransaction(ctx, req)
	if err != nil {
		return nil, err
	}
	d.applyStepArtifacts(result)

	switch {
	case result.Exempted:
		d.authorisation.ScaStatus = model.ScaStatusExempted
	case !result.Success:
		d.authorisation.ScaStatus = model.ScaStatusFailed
	default:
		d.authorisation.ScaStatus = model.ScaStatusFinalised
	}
	return d.response(), nil
}

func (d *Dialog) guard(expected string, action Action) error {
	status := d.authorisation.ScaStatus
	if model.ScaStatusTerminal(status) {
		logrus.Warnf("sca dialog %s: %s rejected, dialog already %s", d.authorisation.AuthorisationID, action, status)
		return apierror.NewAPIError(apierror.ErrInvalidState,
			"authorisation dialog already "+status, nil)
	}
	if status != expected {
		return apierror.NewAPIError(apierror.ErrInvalidState,
			string(action)+" not allowed in status "+status, nil)
	}
	return nil
}

func (d *Dialog) applyStepArtifacts(result *StepResult) {
	if len(result.ScaMethods) > 0 {
		d.authorisation.ScaMethods = result.ScaMethods
	}
	d.authorisation.Challenge = result.Challenge
	d.psuMessage = result.PsuMessage
}

func (d *Dialog) findMethod(methodID string) *model.ScaMethod {
	for i := range d.authorisation.ScaMethods {
		if d.authorisation.ScaMethods[i].ID == methodID {
			return &d.authorisation.ScaMethods[i]
		}
	}
	return &model.ScaMethod{ID: methodID}
}

func (d *Dialog) response() *model.UpdateAuthResponse {
	return &model.UpdateAuthResponse{
		ScaStatus:  d.authorisation.ScaStatus,
		BankAPI:    d.bankAPI,
		Challenge:  d.authorisation.Challenge,
		ScaMethods: d.authorisation.ScaMethods,
		PsuMessage: d.psuMessage,
	}
}
