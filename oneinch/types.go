package oneinch

// TokenInfo describes a token as returned by the aggregator.
type TokenInfo struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
	Address  string `json:"address"`
	LogoURI  string `json:"logoURI"`
}

// QuoteParams are the parameters for a quote request. Addresses are
// normalized and the amount is in base units.
type QuoteParams struct {
	Src    string
	Dst    string
	Amount string
}

// QuoteResponse is the aggregator's quote payload.
type QuoteResponse struct {
	SrcToken  TokenInfo `json:"srcToken"`
	DstToken  TokenInfo `json:"dstToken"`
	DstAmount string    `json:"dstAmount"`
	Gas       string    `json:"gas"`
}

// SwapParams are the parameters for an executable-swap request.
type SwapParams struct {
	Src      string
	Dst      string
	Amount   string
	From     string
	Slippage float64

	// Optional pass-through parameters.
	Protocols        string
	Fee              string
	GasPrice         string
	ComplexityLevel  string
	ConnectorTokens  string
	AllowPartialFill string
	DisableEstimate  string
	UsePatching      string
}

// SwapTx is the transaction payload to submit verbatim. None of these fields
// may be recomputed by callers.
type SwapTx struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	Gas      string `json:"gas"`
	GasPrice string `json:"gasPrice"`
}

// SwapResponse is the aggregator's swap payload.
type SwapResponse struct {
	SrcToken  TokenInfo `json:"srcToken"`
	DstToken  TokenInfo `json:"dstToken"`
	DstAmount string    `json:"dstAmount"`
	Tx        SwapTx    `json:"tx"`
}

// apiError is the proxy's normalized error envelope.
type apiError struct {
	Error      string `json:"error"`
	Details    string `json:"details"`
	StatusCode int    `json:"statusCode"`
}
