package oneclick

import "time"

const ResponseCodeApproved = 0

const (
	RefundTypeReversed  = "REVERSED"
	RefundTypeNullified = "NULLIFIED"
)

type StartInscriptionResponse struct {
	Token     string `json:"token"`
	URLWebpay string `json:"url_webpay"`
}

type FinishInscriptionResponse struct {
	ResponseCode      int    `json:"response_code"`
	TbkUser           string `json:"tbk_user"`
	AuthorizationCode string `json:"authorization_code"`
	CardType          string `json:"card_type"`
	CardNumber        string `json:"card_number"`
}

func (r FinishInscriptionResponse) Approved() bool {
	return r.ResponseCode == ResponseCodeApproved
}

type CardDetail struct {
	CardNumber string `json:"card_number"`
}

type TransactionResponse struct {
	ParentBuyOrder  string           `json:"buy_order"`
	SessionID       string           `json:"session_id"`
	CardDetail      CardDetail       `json:"card_detail"`
	AccountingDate  string           `json:"accounting_date"`
	TransactionDate time.Time        `json:"transaction_date"`
	Details         []DetailResponse `json:"details"`
}

type DetailResponse struct {
	Amount             int64  `json:"amount"`
	Status             string `json:"status"`
	AuthorizationCode  string `json:"authorization_code"`
	PaymentTypeCode    string `json:"payment_type_code"`
	ResponseCode       int    `json:"response_code"`
	InstallmentsNumber int    `json:"installments_number"`
	CommerceCode       string `json:"commerce_code"`
	BuyOrder           string `json:"buy_order"`
	Balance            *int64 `json:"balance,omitempty"`
}

func (d DetailResponse) Approved() bool {
	return d.ResponseCode == ResponseCodeApproved
}

// Detail finds the child matching the pair.
func (r TransactionResponse) Detail(commerceCode, buyOrder string) (DetailResponse, bool) {
	for _, d := range r.Details {
		if d.CommerceCode == commerceCode && d.BuyOrder == buyOrder {
			return d, true
		}
	}

	return DetailResponse{}, false
}

type CaptureResponse struct {
	AuthorizationCode string    `json:"authorization_code"`
	AuthorizationDate time.Time `json:"authorization_date"`
	CapturedAmount    int64     `json:"captured_amount"`
	ResponseCode      int       `json:"response_code"`
}

func (r CaptureResponse) Approved() bool {
	return r.ResponseCode == ResponseCodeApproved
}

type RefundResponse struct {
	Type              string     `json:"type"`
	AuthorizationCode string     `json:"authorization_code,omitempty"`
	AuthorizationDate *time.Time `json:"authorization_date,omitempty"`
	NullifiedAmount   int64      `json:"nullified_amount,omitempty"`
	Balance           *int64     `json:"balance,omitempty"`
	ResponseCode      int        `json:"response_code"`
}

func (r RefundResponse) Approved() bool {
	return r.ResponseCode == ResponseCodeApproved
}

type errorResponse struct {
	ErrorMessage string `json:"error_message"`
}
