package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrConflict will throw if the current action already exists
	ErrConflict = errors.New("Your Item already exist")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput       = errors.New("Given Param is not valid")
	ErrInvalidNumberFormat = errors.New("invalid number format")
	ErrInvalidCurrency     = errors.New("invalid currency")

	// request error
	ErrInvalidAddress   = errors.New("Invalid address")
	ErrInvalidSignature = errors.New("Invalid signature")

	// authorization
	ErrNotOwner           = errors.New("caller is not the order seller")
	ErrNotAdmin           = errors.New("caller is not an admin")
	ErrAlreadyInitialized = errors.New("marketplace already initialized")
	ErrNotInitialized     = errors.New("marketplace not initialized")

	// order state
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNotAvailable = errors.New("order is not available")
	ErrOrderNotOpen      = errors.New("order is not open")
	ErrOrderExpired      = errors.New("order expired")

	// external preconditions
	ErrSellerAccessRevoked        = errors.New("seller revoked marketplace approval")
	ErrSellerInsufficientBalance  = errors.New("seller balance is lower than order amount")
	ErrBuyerAllowanceInsufficient = errors.New("buyer allowance is lower than order price")
	ErrInsufficientBalance        = errors.New("insufficient balance")

	// payment
	ErrInsufficientPayment = errors.New("payment is lower than order price")

	// input
	ErrInvalidOrderParams = errors.New("amount, duration and price must be positive")
	ErrInvalidFeePercent  = errors.New("fee percent must be between 0 and 100")

	// ErrSettlementIncomplete means a failed purchase could not be fully
	// undone, the order stays sold until it is reconciled
	ErrSettlementIncomplete = errors.New("purchase failed and could not be fully reverted")

	// ErrStateConflict is returned by conditional writes that lost a race
	ErrStateConflict = errors.New("state changed concurrently")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrNotOwner, "NotOwner"},
	{ErrNotAdmin, "NotAdmin"},
	{ErrAlreadyInitialized, "AlreadyInitialized"},
	{ErrNotInitialized, "NotInitialized"},
	{ErrOrderNotFound, "OrderNotFound"},
	{ErrOrderNotAvailable, "OrderNotAvailable"},
	{ErrOrderNotOpen, "OrderNotOpen"},
	{ErrOrderExpired, "OrderExpired"},
	{ErrSellerAccessRevoked, "SellerAccessRevoked"},
	{ErrSellerInsufficientBalance, "SellerInsufficientBalance"},
	{ErrBuyerAllowanceInsufficient, "BuyerAllowanceInsufficient"},
	{ErrInsufficientBalance, "InsufficientBalance"},
	{ErrInsufficientPayment, "InsufficientPayment"},
	{ErrInvalidOrderParams, "InvalidOrderParams"},
	{ErrInvalidFeePercent, "InvalidFeePercent"},
	{ErrInvalidAddress, "InvalidAddress"},
	{ErrInvalidSignature, "InvalidSignature"},
	{ErrInvalidCurrency, "InvalidCurrency"},
	{ErrInvalidNumberFormat, "InvalidNumberFormat"},
	{ErrBadParamInput, "BadParamInput"},
	{ErrStateConflict, "StateConflict"},
	{ErrSettlementIncomplete, "SettlementIncomplete"},
	{ErrConflict, "Conflict"},
	{ErrNotFound, "NotFound"},
}

// ErrorCode returns the machine readable code of a wrapped domain error,
// or "Internal" for anything else.
func ErrorCode(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return "Internal"
}
