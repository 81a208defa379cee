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

	"github.com/jerry-enebeli/banklink/model"
	"github.com/jerry-enebeli/banklink/sca"
)

// Adapter is the uniform contract every banking protocol implements. Callers
// never see protocol detail: requests and responses use the model envelopes,
// errors belong to the apierror taxonomy. Capabilities a protocol lacks
// return UNSUPPORTED_OPERATION without contacting the bank.
type Adapter interface {
	BankAPI() model.BankAPI
	DiscoverAccounts(ctx context.Context, req *model.TransactionRequest) (*model.AccountInformationResponse, error)
	ListTransactions(ctx context.Context, req *model.TransactionRequest) (*model.TransactionsResponse, error)
	ListBalances(ctx context.Context, req *model.TransactionRequest) (*model.BalancesReport, error)
	ListStandingOrders(ctx context.Context, req *model.TransactionRequest) ([]model.StandingOrder, error)
	ExecutePayment(ctx context.Context, req *model.TransactionRequest) (*model.PaymentResponse, error)

	// Authorise opens a new SCA dialog, or resumes the given authorisation.
	// Dialogs are request-scoped, so the accessor takes the request.
	Authorise(req *model.TransactionRequest, authorisation *model.ConsentAuthorisation) (*sca.Dialog, error)
}

// BankInfo is the metadata record of one bank: which protocols it speaks and
// which one it prefers.
type BankInfo struct {
	BankCode      string
	Name          string
	SupportedAPIs []model.BankAPI
	PreferredAPI  model.BankAPI
}

// BankInfoResolver looks up bank metadata by bank code. The catalogue lives
// with the caller; a static map is enough for tests.
type BankInfoResolver interface {
	Resolve(bankCode string) (*BankInfo, error)
}

// Banklink represents the main struct for the banklink service: the adapter
// registry plus the uniform operations dispatched through it.
type Banklink struct {
	registry *Registry
}

// NewBanklink initializes a new instance of Banklink with the provided bank
// metadata resolver and protocol adapters.
func NewBanklink(resolver BankInfoResolver, adapters ...Adapter) *Banklink {
	registry := NewRegistry(resolver)
	for _, adapter := range adapters {
		registry.Register(adapter)
	}
	return &Banklink{registry: registry}
}

// Registry exposes the underlying adapter registry.
func (l *Banklink) Registry() *Registry {
	return l.registry
}
