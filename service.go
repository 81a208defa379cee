/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package banklink

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/jerry-enebeli/banklink/model"
	"github.com/jerry-enebeli/banklink/sca"
)

var tracer = otel.Tracer("banklink.service")

func logAndRecordError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	logrus.Error(msg, err)
	return err
}

// DiscoverAccounts lists the accounts a bank exposes for the request's user.
// When the request carries an already known account, the bank-side resource
// id discovered here is merged into it, so the same logical account
// accumulates one external id per protocol over time.
func (l *Banklink) DiscoverAccounts(ctx context.Context, req *model.TransactionRequest) (*model.AccountInformationResponse, error) {
	ctx, span := tracer.Start(ctx, "DiscoverAccounts")
	defer span.End()

	adapter, err := l.registry.ResolveFor(req)
	if err != nil {
		return nil, logAndRecordError(span, "resolving adapter failed: ", err)
	}

	resp, err := adapter.DiscoverAccounts(ctx, req)
	if err != nil {
		return nil, logAndRecordError(span, "account discovery failed: ", err)
	}

	l.mergeExternalIDs(req, adapter.BankAPI(), resp.Accounts)
	logrus.Infof("discovered %d account(s) at bank %s via %s", len(resp.Accounts), req.BankCode, adapter.BankAPI())
	return resp, nil
}

func (l *Banklink) ListTransactions(ctx context.Context, req *model.TransactionRequest) (*model.TransactionsResponse, error) {
	ctx, span := tracer.Start(ctx, "ListTransactions")
	defer span.End()

	adapter, err := l.registry.ResolveFor(req)
	if err != nil {
		return nil, logAndRecordError(span, "resolving adapter failed: ", err)
	}

	resp, err := adapter.ListTransactions(ctx, req)
	if err != nil {
		return nil, logAndRecordError(span, "transaction listing failed: ", err)
	}
	return resp, nil
}

func (l *Banklink) ListBalances(ctx context.Context, req *model.TransactionRequest) (*model.BalancesReport, error) {
	ctx, span := tracer.Start(ctx, "ListBalances")
	defer span.End()

	adapter, err := l.registry.ResolveFor(req)
	if err != nil {
		return nil, logAndRecordError(span, "resolving adapter failed: ", err)
	}
	return adapter.ListBalances(ctx, req)
}

func (l *Banklink) ListStandingOrders(ctx context.Context, req *model.TransactionRequest) ([]model.StandingOrder, error) {
	ctx, span := tracer.Start(ctx, "ListStandingOrders")
	defer span.End()

	adapter, err := l.registry.ResolveFor(req)
	if err != nil {
		return nil, logAndRecordError(span, "resolving adapter failed: ", err)
	}
	return adapter.ListStandingOrders(ctx, req)
}

func (l *Banklink) ExecutePayment(ctx context.Context, req *model.TransactionRequest) (*model.PaymentResponse, error) {
	ctx, span := tracer.Start(ctx, "ExecutePayment")
	defer span.End()

	adapter, err := l.registry.ResolveFor(req)
	if err != nil {
		return nil, logAndRecordError(span, "resolving adapter failed: ", err)
	}

	resp, err := adapter.ExecutePayment(ctx, req)
	if err != nil {
		return nil, logAndRecordError(span, "payment initiation failed: ", err)
	}
	if resp.PendingAuthorisation != nil {
		logrus.Infof("payment %s at bank %s pending sca authorisation %s",
			resp.PaymentID, req.BankCode, resp.PendingAuthorisation.AuthorisationID)
	}
	return resp, nil
}

// UpdatePsuAuthentication submits the PSU's credential for an authorisation
// dialog. The caller keeps the returned authorisation between steps; the
// dialog itself is request-scoped.
func (l *Banklink) UpdatePsuAuthentication(ctx context.Context, req *model.TransactionRequest, authorisation *model.ConsentAuthorisation, body *model.UpdatePsuAuthenticationRequest) (*model.UpdateAuthResponse, *model.ConsentAuthorisation, error) {
	ctx, span := tracer.Start(ctx, "UpdatePsuAuthentication")
	defer span.End()

	dialog, err := l.dialog(req, authorisation)
	if err != nil {
		return nil, nil, logAndRecordError(span, "opening sca dialog failed: ", err)
	}
	resp, err := dialog.UpdatePsuAuthentication(ctx, body)
	if err != nil {
		return nil, nil, logAndRecordError(span, "psu authentication failed: ", err)
	}
	return resp, dialog.Authorisation(), nil
}

func (l *Banklink) SelectScaMethod(ctx context.Context, req *model.TransactionRequest, authorisation *model.ConsentAuthorisation, body *model.SelectScaMethodRequest) (*model.UpdateAuthResponse, *model.ConsentAuthorisation, error) {
	ctx, span := tracer.Start(ctx, "SelectScaMethod")
	defer span.End()

	dialog, err := l.dialog(req, authorisation)
	if err != nil {
		return nil, nil, logAndRecordError(span, "opening sca dialog failed: ", err)
	}
	resp, err := dialog.SelectScaMethod(ctx, body)
	if err != nil {
		return nil, nil, logAndRecordError(span, "sca method selection failed: ", err)
	}
	return resp, dialog.Authorisation(), nil
}

func (l *Banklink) AuthoriseTransaction(ctx context.Context, req *model.TransactionRequest, authorisation *model.ConsentAuthorisation, body *model.TransactionAuthorisationRequest) (*model.UpdateAuthResponse, *model.ConsentAuthorisation, error) {
	ctx, span := tracer.Start(ctx, "AuthoriseTransaction")
	defer span.End()

	dialog, err := l.dialog(req, authorisation)
	if err != nil {
		return nil, nil, logAndRecordError(span, "opening sca dialog failed: ", err)
	}
	resp, err := dialog.AuthoriseTransaction(ctx, body)
	if err != nil {
		return nil, nil, logAndRecordError(span, "transaction authorisation failed: ", err)
	}
	return resp, dialog.Authorisation(), nil
}

// AuthorisationStatus reports the dialog state plus the operations valid from
// it. Pure query, callable from any state.
func (l *Banklink) AuthorisationStatus(req *model.TransactionRequest, authorisation *model.ConsentAuthorisation) (*model.UpdateAuthResponse, []sca.Action, error) {
	dialog, err := l.dialog(req, authorisation)
	if err != nil {
		return nil, nil, err
	}
	return dialog.Status(), dialog.NextActions(), nil
}

func (l *Banklink) dialog(req *model.TransactionRequest, authorisation *model.ConsentAuthorisation) (*sca.Dialog, error) {
	if authorisation != nil && authorisation.BankAPI != "" {
		adapter, err := l.registry.Get(authorisation.BankAPI)
		if err != nil {
			return nil, err
		}
		return adapter.Authorise(req, authorisation)
	}
	adapter, err := l.registry.ResolveFor(req)
	if err != nil {
		return nil, err
	}
	return adapter.Authorise(req, authorisation)
}

// mergeExternalIDs copies the discovered bank-side resource ids onto the
// account the caller already holds, matched by IBAN.
func (l *Banklink) mergeExternalIDs(req *model.TransactionRequest, api model.BankAPI, discovered []model.Account) {
	if req.Account == nil {
		return
	}
	for i := range discovered {
		if discovered[i].IBAN == req.Account.IBAN {
			req.Account.AddExternalID(api, discovered[i].ExternalID(api))
			return
		}
	}
}
