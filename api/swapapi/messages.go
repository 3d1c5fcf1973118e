package swapapi

// Amounts are in the symbol's smallest unit. Chains are lower-case names
// ("icp", "bitcoin", "ethereum"); an empty chain lets the server resolve it
// from the asset catalog.

type Empty struct{}

type CreateSwapRequest struct {
	OfferedSymbol string `json:"offered_symbol"`
	OfferedChain  string `json:"offered_chain,omitempty"`
	OfferedAmount uint64 `json:"offered_amount"`
	WantedSymbol  string `json:"wanted_symbol"`
	WantedChain   string `json:"wanted_chain,omitempty"`
	DurationNanos uint64 `json:"duration_nanos"`
}

type CreateSwapResponse struct {
	ID uint64 `json:"id"`
}

type ExecuteSwapRequest struct {
	ID1 uint64 `json:"id1"`
	ID2 uint64 `json:"id2"`
}

type CancelSwapRequest struct {
	ID uint64 `json:"id"`
}

type GetSwapRequest struct {
	ID uint64 `json:"id"`
}

type Swap struct {
	ID            uint64 `json:"id"`
	Owner         string `json:"owner"`
	OfferedSymbol string `json:"offered_symbol"`
	OfferedChain  string `json:"offered_chain"`
	OfferedAmount uint64 `json:"offered_amount"`
	WantedSymbol  string `json:"wanted_symbol"`
	WantedChain   string `json:"wanted_chain"`
	Deadline      uint64 `json:"deadline"`
	CreatedAt     uint64 `json:"created_at"`
	Status        string `json:"status"`
}

type SwapList struct {
	Swaps []Swap `json:"swaps"`
}

type BalanceOfRequest struct {
	Owner  string `json:"owner,omitempty"` // defaults to the caller
	Symbol string `json:"symbol"`
}

type BalanceOfResponse struct {
	Amount uint64 `json:"amount"`
}

type BalancesRequest struct {
	Owner string `json:"owner,omitempty"`
}

type BalancesResponse struct {
	Balances map[string]uint64 `json:"balances"`
}

type DepositRequest struct {
	Ref    string `json:"ref,omitempty"`
	Symbol string `json:"symbol"`
	Chain  string `json:"chain,omitempty"`
	Amount uint64 `json:"amount"`
}

type DepositResponse struct {
	Duplicate bool `json:"duplicate"`
}

type WithdrawRequest struct {
	Symbol  string `json:"symbol"`
	Amount  uint64 `json:"amount"`
	Chain   string `json:"chain,omitempty"`
	Address string `json:"address"`
}

type WithdrawResponse struct {
	Ticket string `json:"ticket"`
}

type DepositAddressRequest struct {
	Chain string `json:"chain"`
}

type DepositAddressResponse struct {
	Address string `json:"address"`
}

type WhoAmIResponse struct {
	Identity  string `json:"identity"`
	Anonymous bool   `json:"anonymous"`
}

type Asset struct {
	Symbol   string `json:"symbol"`
	Chain    string `json:"chain"`
	Decimals int32  `json:"decimals"`
	Name     string `json:"name,omitempty"`
}

type AssetList struct {
	Assets []Asset `json:"assets"`
}

type SupplyReport struct {
	Symbol    string `json:"symbol"`
	Spendable uint64 `json:"spendable"`
	Escrowed  uint64 `json:"escrowed"`
	Deposited uint64 `json:"deposited"`
	Withdrawn uint64 `json:"withdrawn"`
	Balanced  bool   `json:"balanced"`
}

type AuditResponse struct {
	Reports []SupplyReport `json:"reports"`
}
