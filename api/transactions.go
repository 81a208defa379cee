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
package api

import (
	"net/http"

	model2 "github.com/jerry-enebeli/banklink/api/model"

	"github.com/gin-gonic/gin"
)

// ListTransactions returns the aggregated transaction report of one account:
// bookings newest-first with derived running balances, plus the balances the
// bank reported.
func (a Api) ListTransactions(c *gin.Context) {
	var req model2.ListTransactions
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.banklink.ListTransactions(c.Request.Context(), req.ToTransactionRequest())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ExecutePayment initiates a SEPA credit transfer. A pending authorisation in
// the response means the caller must finish the SCA dialog before the bank
// executes.
func (a Api) ExecutePayment(c *gin.Context) {
	var req model2.ExecutePayment
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.banklink.ExecutePayment(c.Request.Context(), req.ToTransactionRequest())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
