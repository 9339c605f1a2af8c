package student

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/0xJayOnchain/academic-chain/core"
)

var (
	ethAddrTag  = "eth_addr"
	ethAddrText = "{0} must be a valid wallet address"
)

// InitValidators registers the messages of the student and course forms.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterCustomTranslation(validate, translator, ethAddrTag, ethAddrText, true)
}
