package oneclick

type StartInscriptionRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	ResponseURL string `json:"response_url"`
}

type DeleteInscriptionRequest struct {
	TbkUser  string `json:"tbk_user"`
	Username string `json:"username"`
}

type AuthorizeRequest struct {
	Username       string          `json:"username"`
	TbkUser        string          `json:"tbk_user"`
	ParentBuyOrder string          `json:"buy_order"`
	Details        []DetailRequest `json:"details"`
}

type DetailRequest struct {
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
	// BuyOrder goes in the path, the gateway identifies the child by DetailBuyOrder.
	BuyOrder       string `json:"-"`
	DetailBuyOrder string `json:"detail_buy_order"`
	Amount         int64  `json:"amount"`
}
