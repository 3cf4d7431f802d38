package domain

// Event types published to the balance-events channel.
const (
	EventTypeBalanceDeposited   = "balance_deposited"
	EventTypeBalanceWithdrawn   = "balance_withdrawn"
	EventTypeBalanceTransferred = "balance_transferred"
)

// Event is an outbound notification about a committed balance mutation.
// Type discriminates the payload shape.
type Event struct {
	Type    string
	Payload any
}

// BalanceDepositedEvent payload. Amounts are serialized as strings to keep
// exact decimal representation on the wire.
type BalanceDepositedEvent struct {
	UserID        int64  `json:"user_id"`
	Amount        string `json:"amount"`
	NewBalance    string `json:"new_balance"`
	TransactionID int64  `json:"transaction_id"`
	Timestamp     string `json:"timestamp"`
}

// BalanceWithdrawnEvent payload.
type BalanceWithdrawnEvent struct {
	UserID        int64  `json:"user_id"`
	Amount        string `json:"amount"`
	NewBalance    string `json:"new_balance"`
	TransactionID int64  `json:"transaction_id"`
	Timestamp     string `json:"timestamp"`
}

// BalanceTransferredEvent payload. TransactionID is the id of the
// transfer_out record.
type BalanceTransferredEvent struct {
	FromUserID    int64  `json:"from_user_id"`
	ToUserID      int64  `json:"to_user_id"`
	Amount        string `json:"amount"`
	FromBalance   string `json:"from_balance"`
	ToBalance     string `json:"to_balance"`
	TransactionID int64  `json:"transaction_id"`
	Timestamp     string `json:"timestamp"`
}
