package flow

import (
	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v4"
)

// Direction of an exchange request.
type Direction int

// Exchange directions.
const (
	FiatToCrypto Direction = iota
	CryptoToFiat
)

// SourceKind returns the currency kind the user pays with.
func (d Direction) SourceKind() string {
	if d == FiatToCrypto {
		return "fiat"
	}
	return "crypto"
}

// TargetKind returns the currency kind the user receives.
func (d Direction) TargetKind() string {
	if d == FiatToCrypto {
		return "crypto"
	}
	return "fiat"
}

// Step is one state of a user's conversation. Each step type carries exactly
// the data collected so far, so a session can never hold stale fields.
type Step interface{ isStep() }

// Exchange flow steps.

// SelectSource waits for the source currency pick.
type SelectSource struct {
	Dir Direction
}

// SelectTarget waits for the target currency pick.
type SelectTarget struct {
	Dir    Direction
	Source string
}

// SelectMethod waits for the payment method pick.
type SelectMethod struct {
	Dir    Direction
	Source string
	Target string
}

// EnterAmount waits for the amount in the source currency.
type EnterAmount struct {
	Dir    Direction
	Source string
	Target string
	Method string
}

// EnterDetails waits for the payout destination: a wallet address when buying
// crypto, payment details when cashing out.
type EnterDetails struct {
	Dir    Direction
	Source string
	Target string
	Method string
	Amount decimal.Decimal
}

// EnterComment waits for an optional comment.
type EnterComment struct {
	Dir     Direction
	Source  string
	Target  string
	Method  string
	Amount  decimal.Decimal
	Details string
}

// ConfirmSubmit waits for the final submit press. Anything else is ignored.
type ConfirmSubmit struct {
	Dir     Direction
	Source  string
	Target  string
	Method  string
	Amount  decimal.Decimal
	Details string
	Comment string
}

// Admin currency management steps.

// CurrencyAction waits for the add/delete pick.
type CurrencyAction struct{}

// CurrencyKind waits for the crypto/fiat pick of a new currency.
type CurrencyKind struct{}

// CurrencyName waits for the new currency name.
type CurrencyName struct {
	Kind string
}

// CurrencyMin waits for the minimum amount.
type CurrencyMin struct {
	Kind string
	Name string
}

// CurrencyMax waits for the maximum amount.
type CurrencyMax struct {
	Kind string
	Name string
	Min  decimal.Decimal
}

// CurrencyDetails waits for the free-text details of a new currency.
type CurrencyDetails struct {
	Kind string
	Name string
	Min  decimal.Decimal
	Max  decimal.Decimal
}

// Admin payment method management steps.

// PaymentAction waits for the add/delete pick.
type PaymentAction struct{}

// PaymentKind waits for the crypto/fiat pick of a new payment method.
type PaymentKind struct{}

// PaymentName waits for the new payment method name.
type PaymentName struct {
	Kind string
}

// Admin channel management steps.

// ChannelAction waits for the add/delete pick.
type ChannelAction struct{}

// ChannelID waits for the channel id of a new required channel.
type ChannelID struct{}

// ChannelURL waits for the invite link of a new required channel.
type ChannelURL struct {
	ID string
}

// Admin banner management steps.

// BannerAction waits for the set/remove pick.
type BannerAction struct{}

// BannerText waits for the new banner text.
type BannerText struct{}

// Admin user management steps.

// UserAction waits for the ban/unban pick.
type UserAction struct{}

// UserID waits for the numeric user id to ban or unban.
type UserID struct {
	Ban bool
}

// Broadcast steps.

// BroadcastKind waits for the with/without media pick.
type BroadcastKind struct{}

// BroadcastMedia waits for the photo of a media broadcast.
type BroadcastMedia struct{}

// BroadcastText waits for the broadcast text. Photo is nil for text-only.
type BroadcastText struct {
	Photo *tele.Photo
}

// BroadcastConfirm waits for the start press.
type BroadcastConfirm struct {
	Photo *tele.Photo
	Text  string
}

func (SelectSource) isStep()     {}
func (SelectTarget) isStep()     {}
func (SelectMethod) isStep()     {}
func (EnterAmount) isStep()      {}
func (EnterDetails) isStep()     {}
func (EnterComment) isStep()     {}
func (ConfirmSubmit) isStep()    {}
func (CurrencyAction) isStep()   {}
func (CurrencyKind) isStep()     {}
func (CurrencyName) isStep()     {}
func (CurrencyMin) isStep()      {}
func (CurrencyMax) isStep()      {}
func (CurrencyDetails) isStep()  {}
func (PaymentAction) isStep()    {}
func (PaymentKind) isStep()      {}
func (PaymentName) isStep()      {}
func (ChannelAction) isStep()    {}
func (ChannelID) isStep()        {}
func (ChannelURL) isStep()       {}
func (BannerAction) isStep()     {}
func (BannerText) isStep()       {}
func (UserAction) isStep()       {}
func (UserID) isStep()           {}
func (BroadcastKind) isStep()    {}
func (BroadcastMedia) isStep()   {}
func (BroadcastText) isStep()    {}
func (BroadcastConfirm) isStep() {}
