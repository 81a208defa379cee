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
	"github.com/jerry-enebeli/banklink/model"
	"github.com/jerry-enebeli/banklink/sca"

	"github.com/gin-gonic/gin"
)

// actionLinks maps the state machine's allowed operations to routes, so
// clients follow links instead of guessing which step comes next.
var actionLinks = map[sca.Action]string{
	sca.ActionUpdateAuthentication: "/authorisations/psu-authentication",
	sca.ActionSelectMethod:         "/authorisations/select-method",
	sca.ActionAuthoriseTransaction: "/authorisations/transaction-authorisation",
}

type authorisationResponse struct {
	*model.UpdateAuthResponse
	Authorisation *model.ConsentAuthorisation `json:"authorisation"`
	Links         map[string]string           `json:"_links,omitempty"`
}

// UpdatePsuAuthentication submits the PSU's credential for an SCA dialog.
func (a Api) UpdatePsuAuthentication(c *gin.Context) {
	step, ok := a.bindStep(c)
	if !ok {
		return
	}

	resp, authorisation, err := a.banklink.UpdatePsuAuthentication(c.Request.Context(),
		step.ToTransactionRequest(), step.Authorisation, step.ToAuthenticationRequest())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.withLinks(step, resp, authorisation))
}

// SelectScaMethod picks one of the SCA methods the bank offered.
func (a Api) SelectScaMethod(c *gin.Context) {
	step, ok := a.bindStep(c)
	if !ok {
		return
	}

	resp, authorisation, err := a.banklink.SelectScaMethod(c.Request.Context(),
		step.ToTransactionRequest(), step.Authorisation, step.ToSelectMethodRequest())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.withLinks(step, resp, authorisation))
}

// AuthoriseTransaction submits the challenge response and finalises the
// dialog.
func (a Api) AuthoriseTransaction(c *gin.Context) {
	step, ok := a.bindStep(c)
	if !ok {
		return
	}

	resp, authorisation, err := a.banklink.AuthoriseTransaction(c.Request.Context(),
		step.ToTransactionRequest(), step.Authorisation, step.ToAuthorisationRequest())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.withLinks(step, resp, authorisation))
}

// AuthorisationStatus reports the dialog state without mutating it.
func (a Api) AuthorisationStatus(c *gin.Context) {
	step, ok := a.bindStep(c)
	if !ok {
		return
	}

	resp, actions, err := a.banklink.AuthorisationStatus(step.ToTransactionRequest(), step.Authorisation)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, authorisationResponse{
		UpdateAuthResponse: resp,
		Authorisation:      step.Authorisation,
		Links:              links(actions),
	})
}

func (a Api) bindStep(c *gin.Context) (model2.AuthorisationStep, bool) {
	var step model2.AuthorisationStep
	if err := c.ShouldBindJSON(&step); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return step, false
	}
	if err := step.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return step, false
	}
	return step, true
}

// withLinks attaches the follow-up links valid from the new status. The
// status query is local, it never contacts the bank.
func (a Api) withLinks(step model2.AuthorisationStep, resp *model.UpdateAuthResponse, authorisation *model.ConsentAuthorisation) authorisationResponse {
	out := authorisationResponse{UpdateAuthResponse: resp, Authorisation: authorisation}
	if _, actions, err := a.banklink.AuthorisationStatus(step.ToTransactionRequest(), authorisation); err == nil {
		out.Links = links(actions)
	}
	return out
}

func links(actions []sca.Action) map[string]string {
	if len(actions) == 0 {
		return nil
	}
	out := make(map[string]string, len(actions))
	for _, action := range actions {
		out[string(action)] = actionLinks[action]
	}
	return out
}
