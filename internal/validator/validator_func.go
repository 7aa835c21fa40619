package validator

import (
	"net/url"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DateLayout = "2006-01-02"
)

const (
	UsernameTag     = "username"
	BuyOrderTag     = "buy_order"
	CommerceCodeTag = "commerce_code"
	DateTag         = "date"
	CallbackURLTag  = "callback_url"
)

var (
	usernameRegex     = regexp.MustCompile(`^[A-Za-z0-9._@+-]{1,256}$`)
	buyOrderRegex     = regexp.MustCompile(`^[A-Za-z0-9._:|=&%,~/?+-]{1,26}$`)
	commerceCodeRegex = regexp.MustCompile(`^\d{12}$`)
)

var valid = map[string]func(fl validator.FieldLevel) bool{
	UsernameTag:     ValidateUsername,
	BuyOrderTag:     ValidateBuyOrder,
	CommerceCodeTag: ValidateCommerceCode,
	DateTag:         ValidateDate,
	CallbackURLTag:  ValidateCallbackURL,
}

func ValidateUsername(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}

func ValidateBuyOrder(fl validator.FieldLevel) bool {
	return buyOrderRegex.MatchString(fl.Field().String())
}

func ValidateCommerceCode(fl validator.FieldLevel) bool {
	return commerceCodeRegex.MatchString(fl.Field().String())
}

func ValidateDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

// ValidateCallbackURL accepts absolute http and https URLs only.
func ValidateCallbackURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
