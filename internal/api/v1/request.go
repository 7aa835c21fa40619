package v1

import "github.com/danielsotopino/api-transbank/internal/service"

type StartInscriptionRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	ResponseURL string `json:"response_url"`
}

type FinishInscriptionRequest struct {
	Token string `json:"token"`
}

type DeleteInscriptionRequest struct {
	Username string `json:"username"`
	TbkUser  string `json:"tbk_user"`
}

type AuthorizeRequest struct {
	Username       string                   `json:"username"`
	TbkUser        string                   `json:"tbk_user"`
	ParentBuyOrder string                   `json:"parent_buy_order"`
	Details        []AuthorizeDetailRequest `json:"details"`
}

type AuthorizeDetailRequest struct {
	CommerceCode       string `json:"commerce_code"`
	BuyOrder           string `json:"buy_order"`
	Amount             int64  `json:"amount"`
	InstallmentsNumber int    `json:"installments_number"`
}

type CaptureRequest struct {
	CommerceCode      string `json:"commerce_code"`
	BuyOrder          string `json:"buy_order"`
	AuthorizationCode string `json:"authorization_code"`
	CaptureAmount     int64  `json:"capture_amount"`
}

type RefundRequest struct {
	CommerceCode string `json:"commerce_code"`
	BuyOrder     string `json:"buy_order"`
	Amount       int64  `json:"amount"`
}

func (r AuthorizeRequest) toCommand() service.AuthorizeCommand {
	details := make([]service.AuthorizeDetailCommand, 0, len(r.Details))
	for _, d := range r.Details {
		details = append(details, service.AuthorizeDetailCommand{
			CommerceCode:       d.CommerceCode,
			BuyOrder:           d.BuyOrder,
			Amount:             d.Amount,
			InstallmentsNumber: d.InstallmentsNumber,
		})
	}

	return service.AuthorizeCommand{
		Username:       r.Username,
		TbkUser:        r.TbkUser,
		ParentBuyOrder: r.ParentBuyOrder,
		Details:        details,
	}
}
