package service

import (
	"time"

	"github.com/danielsotopino/api-transbank/pkg/oneclick"
)

type StartInscriptionCommand struct {
	Username    string `json:"username" validate:"required,username"`
	Email       string `json:"email" validate:"required,email,max=320"`
	ResponseURL string `json:"response_url" validate:"required,callback_url,max=512"`
}

type FinishInscriptionCommand struct {
	Token string `json:"token" validate:"required,max=128"`
}

type DeleteInscriptionCommand struct {
	Username string `json:"username" validate:"required,username"`
	TbkUser  string `json:"tbk_user" validate:"required"`
}

type ListInscriptionsQuery struct {
	Username string `json:"username" validate:"required,username"`
}

type AuthorizeCommand struct {
	Username       string                   `json:"username" validate:"required,username"`
	TbkUser        string                   `json:"tbk_user" validate:"required"`
	ParentBuyOrder string                   `json:"parent_buy_order" validate:"required,buy_order"`
	Details        []AuthorizeDetailCommand `json:"details" validate:"required,min=1,dive"`
}

type AuthorizeDetailCommand struct {
	CommerceCode       string `json:"commerce_code" validate:"required,commerce_code"`
	BuyOrder           string `json:"buy_order" validate:"required,buy_order"`
	Amount             int64  `json:"amount" validate:"gt=0"`
	InstallmentsNumber int    `json:"installments_number"`
}

type CaptureCommand struct {
	CommerceCode      string `json:"commerce_code" validate:"required,commerce_code"`
	BuyOrder          string `json:"buy_order" validate:"required,buy_order"`
	AuthorizationCode string `json:"authorization_code" validate:"required,max=16"`
	CaptureAmount     int64  `json:"capture_amount" validate:"gt=0"`
}

type RefundCommand struct {
	CommerceCode string `json:"commerce_code" validate:"required,commerce_code"`
	BuyOrder     string `json:"buy_order" validate:"required,buy_order"`
	Amount       int64  `json:"amount" validate:"gt=0"`
}

type StatusQuery struct {
	BuyOrder     string `json:"child_buy_order" validate:"required,buy_order"`
	CommerceCode string `json:"child_commerce_code" validate:"required,commerce_code"`
}

type HistoryQuery struct {
	Username string `json:"username" validate:"required,username"`
	From     string `json:"from" validate:"omitempty,date"`
	To       string `json:"to" validate:"omitempty,date"`
	Status   string `json:"status" validate:"omitempty,oneof=AUTHORIZED REJECTED"`
	Page     int    `json:"page" validate:"gte=0"`
	Limit    int    `json:"limit" validate:"gte=0"`
	// AsOf continues a scan started earlier. Empty starts a new one.
	AsOf     string `json:"as_of" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// RecoverAuthorizationCommand carries a gateway authorization whose local
// write failed, so the recovery worker can persist it later.
type RecoverAuthorizationCommand struct {
	Username      string                       `json:"username"`
	InscriptionID string                       `json:"inscription_id"`
	Response      oneclick.TransactionResponse `json:"response"`
	FailedAt      time.Time                    `json:"failed_at"`
}
