package xs2a

import (
	"context"

	"github.com/jerry-enebeli/banklink/model"
	"github.com/jerry-enebeli/banklink/sca"
)

// Berlin Group scaStatus values on the wire.
const (
	wireStatusFailed   = "failed"
	wireStatusExempted = "exempted"
)

// scaHandler performs the bank-side calls of an XS2A authorisation dialog.
type scaHandler struct {
	client *client
}

func (h *scaHandler) AuthenticatePsu(ctx context.Context, req *model.UpdatePsuAuthenticationRequest) (*sca.StepResult, error) {
	body := map[string]interface{}{
		"psuData": map[string]string{"password": req.Password},
	}
	to, err := h.client.updateAuthorisation(ctx, req.ConsentID, req.AuthorisationID, body)
	if err != nil {
		return nil, err
	}
	return toStepResult(to), nil
}

func (h *scaHandler) SelectMethod(ctx context.Context, req *model.SelectScaMethodRequest) (*sca.StepResult, error) {
	body := map[string]string{"authenticationMethodId": req.MethodID}
	to, err := h.client.updateAuthorisation(ctx, req.ConsentID, req.AuthorisationID, body)
	if err != nil {
		return nil, err
	}
	return toStepResult(to), nil
}

func (h *scaHandler) AuthoriseTransaction(ctx context.Context, req *model.TransactionAuthorisationRequest) (*sca.StepResult, error) {
	body := map[string]string{"scaAuthenticationData": req.ScaResponse}
	to, err := h.client.updateAuthorisation(ctx, req.ConsentID, req.AuthorisationID, body)
	if err != nil {
		return nil, err
	}
	return toStepResult(to), nil
}

func toStepResult(to *authorisationResponseTO) *sca.StepResult {
	result := &sca.StepResult{
		Success:    to.ScaStatus != wireStatusFailed,
		Exempted:   to.ScaStatus == wireStatusExempted,
		PsuMessage: to.PsuMessage,
	}
	for _, method := range to.ScaMethods {
		result.ScaMethods = append(result.ScaMethods, model.ScaMethod{
			ID:   method.AuthenticationMethodID,
			Name: method.Name,
			Type: method.AuthenticationType,
		})
	}
	if to.ChallengeData != nil {
		result.Challenge = &model.Challenge{
			Image:          to.ChallengeData.Image,
			Data:           to.ChallengeData.Data,
			Format:         to.ChallengeData.OtpFormat,
			AdditionalInfo: to.ChallengeData.AdditionalInformation,
		}
	}
	return result
}
