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
	"sync"

	"github.com/jerry-enebeli/banklink/internal/apierror"
	"github.com/jerry-enebeli/banklink/model"
)

// Registry maps protocols to adapters and picks the adapter for a request.
// Selection order: the caller's preferred API when the bank supports it, then
// the bank's own preference, then the first supported protocol a registered
// adapter speaks.
type Registry struct {
	mu       sync.RWMutex
	adapters map[model.BankAPI]Adapter
	resolver BankInfoResolver
}

func NewRegistry(resolver BankInfoResolver) *Registry {
	return &Registry{
		adapters: make(map[model.BankAPI]Adapter),
		resolver: resolver,
	}
}

func (r *Registry) Register(adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.BankAPI()] = adapter
}

// Get returns the adapter registered for one protocol.
func (r *Registry) Get(api model.BankAPI) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[api]
	if !ok {
		return nil, apierror.NewBankError(apierror.ErrUnsupportedOperation, 0,
			"no adapter registered for "+string(api))
	}
	return adapter, nil
}

// ResolveFor picks the adapter serving one request.
func (r *Registry) ResolveFor(req *model.TransactionRequest) (Adapter, error) {
	info, err := r.resolver.Resolve(req.BankCode)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, apierror.NewBankError(apierror.ErrResourceNotFound, 0,
			"unknown bank code "+req.BankCode)
	}

	if req.PreferredAPI != "" && info.Supports(req.PreferredAPI) {
		if adapter, err := r.Get(req.PreferredAPI); err == nil {
			return adapter, nil
		}
	}
	if info.PreferredAPI != "" && info.Supports(info.PreferredAPI) {
		if adapter, err := r.Get(info.PreferredAPI); err == nil {
			return adapter, nil
		}
	}
	for _, api := range info.SupportedAPIs {
		if adapter, err := r.Get(api); err == nil {
			return adapter, nil
		}
	}
	return nil, apierror.NewBankError(apierror.ErrUnsupportedOperation, 0,
		"no registered adapter speaks a protocol of bank "+req.BankCode)
}

// StaticResolver is a fixed in-memory bank catalogue keyed by bank code.
type StaticResolver map[string]*BankInfo

func (r StaticResolver) Resolve(bankCode string) (*BankInfo, error) {
	return r[bankCode], nil
}

func (b *BankInfo) Supports(api model.BankAPI) bool {
	for _, supported := range b.SupportedAPIs {
		if supported == api {
			return true
		}
	}
	return false
}
