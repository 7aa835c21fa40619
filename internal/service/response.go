package service

import "time"

type StartInscriptionResponse struct {
	Token     string    `json:"token"`
	URLWebpay string    `json:"url_webpay"`
	ExpiresAt time.Time `json:"expires_at"`
}

type FinishInscriptionResponse struct {
	Status            string `json:"status"`
	ResponseCode      int    `json:"response_code"`
	TbkUser           string `json:"tbk_user,omitempty"`
	AuthorizationCode string `json:"authorization_code,omitempty"`
	CardType          string `json:"card_type,omitempty"`
	CardNumber        string `json:"card_number,omitempty"`
}

type DeleteInscriptionResponse struct {
	DeletedAt time.Time `json:"deleted_at"`
}

type Inscription struct {
	ID                string    `json:"id"`
	Status            string    `json:"status"`
	CardType          string    `json:"card_type,omitempty"`
	CardNumber        string    `json:"card_number,omitempty"`
	AuthorizationCode string    `json:"authorization_code,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type ListInscriptionsResponse struct {
	Inscriptions []Inscription `json:"inscriptions"`
}

type TransactionResponse struct {
	ParentBuyOrder  string              `json:"parent_buy_order"`
	SessionID       string              `json:"session_id,omitempty"`
	CardNumber      string              `json:"card_number,omitempty"`
	Status          string              `json:"status"`
	TransactionDate time.Time           `json:"transaction_date"`
	AccountingDate  string              `json:"accounting_date,omitempty"`
	Details         []TransactionDetail `json:"details"`
}

type TransactionDetail struct {
	CommerceCode       string `json:"commerce_code"`
	BuyOrder           string `json:"buy_order"`
	Amount             int64  `json:"amount"`
	Balance            int64  `json:"balance"`
	Status             string `json:"status"`
	ResponseCode       int    `json:"response_code"`
	AuthorizationCode  string `json:"authorization_code,omitempty"`
	PaymentTypeCode    string `json:"payment_type_code,omitempty"`
	InstallmentsNumber int    `json:"installments_number"`
}

type CaptureResponse struct {
	ResponseCode      int       `json:"response_code"`
	AuthorizationCode string    `json:"authorization_code"`
	AuthorizationDate time.Time `json:"authorization_date"`
	CapturedAmount    int64     `json:"captured_amount"`
	Status            string    `json:"status"`
	Balance           int64     `json:"balance"`
}

type RefundResponse struct {
	ResponseCode      int    `json:"response_code"`
	ReversalType      string `json:"reversal_type"`
	ReversedAmount    int64  `json:"reversed_amount"`
	AuthorizationCode string `json:"authorization_code,omitempty"`
	Status            string `json:"status"`
	Balance           int64  `json:"balance"`
}

type StatusResponse struct {
	TransactionResponse
	// Reconciled reports that local state was overwritten by the gateway answer.
	Reconciled bool `json:"reconciled"`
}

type HistoryResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
	Total        int64                 `json:"total"`
	TotalPages   int                   `json:"total_pages"`
	AsOf         time.Time             `json:"as_of"`
}
