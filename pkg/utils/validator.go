package utils

import (
	"errors"
	"regexp"
	"strings"
)

// Sentinel validation errors.
var (
	ErrInvalidSymbol     = errors.New("invalid symbol")
	ErrInvalidSpread     = errors.New("invalid spread")
	ErrInvalidVolume     = errors.New("invalid volume")
	ErrInvalidNOrders    = errors.New("invalid n_orders")
	ErrInvalidStopLoss   = errors.New("invalid stop loss")
	ErrInvalidLeverage   = errors.New("invalid leverage")
	ErrInvalidPercentage = errors.New("invalid percentage")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidAPIKey     = errors.New("invalid api key")
	ErrInvalidAPISecret  = errors.New("invalid api secret")
	ErrInvalidPassphrase = errors.New("invalid api passphrase")
	ErrInvalidExchange   = errors.New("invalid exchange")
	ErrSameExchange      = errors.New("dex_a and dex_b must differ")
	ErrEntrySpreadLow    = errors.New("entry spread must exceed exit spread")
)

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9_/-]+$`)

const (
	symbolMinLen = 2
	symbolMaxLen = 20
)

// ValidateSymbol checks that a trading symbol uses an acceptable charset
// and length.
func ValidateSymbol(symbol string) error {
	if len(symbol) < symbolMinLen || len(symbol) > symbolMaxLen {
		return ErrInvalidSymbol
	}
	if !symbolPattern.MatchString(symbol) {
		return ErrInvalidSymbol
	}
	return nil
}

// IsValidSymbol reports whether ValidateSymbol would pass.
func IsValidSymbol(symbol string) bool {
	return ValidateSymbol(symbol) == nil
}

var symbolSeparators = strings.NewReplacer("-", "", "_", "", "/", "")

// NormalizeSymbol uppercases a symbol and strips separator characters.
func NormalizeSymbol(symbol string) string {
	return symbolSeparators.Replace(strings.ToUpper(symbol))
}

// quoteCurrencies is ordered longest-first so suffix matching prefers the
// more specific quote asset.
var quoteCurrencies = []string{"USDT", "USDC", "BUSD", "ETH", "BTC"}

// ExtractBaseCurrency returns the base asset of a symbol, e.g. "BTC" from
// "BTCUSDT" or "BTC-USDT".
func ExtractBaseCurrency(symbol string) string {
	normalized := NormalizeSymbol(symbol)
	for _, q := range quoteCurrencies {
		if strings.HasSuffix(normalized, q) && len(normalized) > len(q) {
			return normalized[:len(normalized)-len(q)]
		}
	}
	return normalized
}

// ExtractQuoteCurrency returns the quote asset of a symbol, e.g. "USDT"
// from "BTCUSDT" or "BTC-USDT".
func ExtractQuoteCurrency(symbol string) string {
	normalized := NormalizeSymbol(symbol)
	for _, q := range quoteCurrencies {
		if strings.HasSuffix(normalized, q) && len(normalized) > len(q) {
			return q
		}
	}
	return ""
}

// ValidateSpread checks an entry/exit spread percentage lies in (0, 100].
func ValidateSpread(spread float64) error {
	if spread <= 0 || spread > 100 {
		return ErrInvalidSpread
	}
	return nil
}

const maxVolume = 1e9

// ValidateVolume checks a trade volume lies in (0, maxVolume].
func ValidateVolume(volume float64) error {
	if volume <= 0 || volume > maxVolume {
		return ErrInvalidVolume
	}
	return nil
}

// ValidateNOrders checks a partial-entry order count lies in [1, 100].
func ValidateNOrders(n int) error {
	if n < 1 || n > 100 {
		return ErrInvalidNOrders
	}
	return nil
}

// ValidateStopLoss checks a stop-loss percentage lies in (0, 100].
func ValidateStopLoss(sl float64) error {
	if sl <= 0 || sl > 100 {
		return ErrInvalidStopLoss
	}
	return nil
}

// ValidateLeverage checks a leverage multiplier lies in [1, 100].
func ValidateLeverage(leverage int) error {
	if leverage < 1 || leverage > 100 {
		return ErrInvalidLeverage
	}
	return nil
}

// ValidatePercentage checks a generic percentage lies in [0, 100].
func ValidatePercentage(pct float64) error {
	if pct < 0 || pct > 100 {
		return ErrInvalidPercentage
	}
	return nil
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail applies a practical (not RFC-exhaustive) email check.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// IsValidEmail reports whether ValidateEmail would pass.
func IsValidEmail(email string) bool {
	return ValidateEmail(email) == nil
}

var apiKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

const minAPIKeyLen = 16

// ValidateAPIKey checks an API key is long enough and uses a safe charset.
func ValidateAPIKey(apiKey string) error {
	if len(apiKey) < minAPIKeyLen || !apiKeyPattern.MatchString(apiKey) {
		return ErrInvalidAPIKey
	}
	return nil
}

// IsValidAPIKey reports whether ValidateAPIKey would pass.
func IsValidAPIKey(apiKey string) bool {
	return ValidateAPIKey(apiKey) == nil
}

const minAPISecretLen = 16

// ValidateAPISecret checks an API secret meets a minimum length; unlike
// ValidateAPIKey it allows any character since secrets are never embedded
// in URLs or channel names.
func ValidateAPISecret(secret string) error {
	if len(secret) < minAPISecretLen {
		return ErrInvalidAPISecret
	}
	return nil
}

const maxPassphraseLen = 64

// ValidateAPIPassphrase checks an optional passphrase does not exceed a
// sane length. An empty passphrase is valid (many venues don't need one).
func ValidateAPIPassphrase(passphrase string) error {
	if len(passphrase) > maxPassphraseLen {
		return ErrInvalidPassphrase
	}
	return nil
}

// SupportedExchanges lists the venues this module knows how to adapt.
var SupportedExchanges = []string{"vest", "paradex"}

// GetSupportedExchanges returns a copy of SupportedExchanges so callers
// cannot mutate the package-level slice.
func GetSupportedExchanges() []string {
	out := make([]string, len(SupportedExchanges))
	copy(out, SupportedExchanges)
	return out
}

// NormalizeExchange lowercases and trims an exchange name.
func NormalizeExchange(exchange string) string {
	return strings.ToLower(strings.TrimSpace(exchange))
}

// ValidateExchange checks exchange names against SupportedExchanges.
func ValidateExchange(exchange string) error {
	normalized := NormalizeExchange(exchange)
	if normalized == "" {
		return ErrInvalidExchange
	}
	for _, e := range SupportedExchanges {
		if e == normalized {
			return nil
		}
	}
	return ErrInvalidExchange
}

// IsValidExchange reports whether ValidateExchange would pass.
func IsValidExchange(exchange string) bool {
	return ValidateExchange(exchange) == nil
}

// PairConfigValidation holds the fields of a bot config that need
// cross-field validation beyond single-value checks.
type PairConfigValidation struct {
	Symbol      string
	EntrySpread float64
	ExitSpread  float64
	Volume      float64
	NOrders     int
	StopLoss    float64
	ExchangeA   string
	ExchangeB   string
}

// ValidatePairConfig runs every field-level check plus the cross-field
// invariants (distinct venues, entry spread wider than exit spread).
func ValidatePairConfig(cfg PairConfigValidation) error {
	if err := ValidateSymbol(cfg.Symbol); err != nil {
		return err
	}
	if err := ValidateSpread(cfg.EntrySpread); err != nil {
		return err
	}
	if err := ValidateSpread(cfg.ExitSpread); err != nil {
		return err
	}
	if err := ValidateVolume(cfg.Volume); err != nil {
		return err
	}
	if err := ValidateNOrders(cfg.NOrders); err != nil {
		return err
	}
	if err := ValidateStopLoss(cfg.StopLoss); err != nil {
		return err
	}
	if err := ValidateExchange(cfg.ExchangeA); err != nil {
		return err
	}
	if err := ValidateExchange(cfg.ExchangeB); err != nil {
		return err
	}
	if NormalizeExchange(cfg.ExchangeA) == NormalizeExchange(cfg.ExchangeB) {
		return ErrSameExchange
	}
	if cfg.EntrySpread <= cfg.ExitSpread {
		return ErrEntrySpreadLow
	}
	return nil
}

// ValidationError is one field-scoped validation failure.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors accumulates multiple field-scoped failures, e.g. when
// validating a whole config file where reporting everything wrong at once
// is friendlier than failing on the first error.
type ValidationErrors []ValidationError

// Add appends a validation failure.
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// AddError appends err's message as a failure for field, if err != nil.
func (e *ValidationErrors) AddError(field string, err error) {
	if err == nil {
		return
	}
	e.Add(field, err.Error())
}

// HasErrors reports whether any failures were recorded.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Error implements the error interface, joining all field failures.
func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}
