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
	"errors"

	"github.com/jerry-enebeli/banklink/config"
	"github.com/jerry-enebeli/banklink/internal/apierror"

	"github.com/jerry-enebeli/banklink/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jerry-enebeli/banklink"
)

type Api struct {
	banklink *banklink.Banklink
	router   *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/accounts/discover", a.DiscoverAccounts)
	router.POST("/transactions", a.ListTransactions)
	router.POST("/balances", a.ListBalances)
	router.POST("/standing-orders", a.ListStandingOrders)
	router.POST("/payments", a.ExecutePayment)

	router.PUT("/authorisations/psu-authentication", a.UpdatePsuAuthentication)
	router.PUT("/authorisations/select-method", a.SelectScaMethod)
	router.PUT("/authorisations/transaction-authorisation", a.AuthoriseTransaction)
	router.POST("/authorisations/status", a.AuthorisationStatus)
	return a.router
}

func NewAPI(b *banklink.Banklink) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{banklink: b, router: r}
}

// respondError renders an error through the taxonomy's status mapping. The
// taxonomy payload is the response body, so callers can branch on the code.
func respondError(c *gin.Context, err error) {
	var apiErr apierror.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apierror.MapErrorToHTTPStatus(err), apiErr)
		return
	}
	c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
}
