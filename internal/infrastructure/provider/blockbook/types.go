package blockbook

type errorResponse struct {
	Error string `json:"error"`
}

type addressResponse struct {
	Address            string   `json:"address"`
	Balance            string   `json:"balance"`
	UnconfirmedBalance string   `json:"unconfirmedBalance"`
	Txs                int      `json:"txs"`
	Txids              []string `json:"txids"`
}

type txInOut struct {
	Addresses []string `json:"addresses"`
	Value     string   `json:"value"`
}

func (v txInOut) firstAddress() string {
	if len(v.Addresses) <= 0 {
		return ""
	}
	return v.Addresses[0]
}

type txResponse struct {
	Txid          string    `json:"txid"`
	BlockHeight   int64     `json:"blockHeight"`
	Confirmations int64     `json:"confirmations"`
	BlockTime     int64     `json:"blockTime"`
	Value         string    `json:"value"`
	Fees          string    `json:"fees"`
	Vin           []txInOut `json:"vin"`
	Vout          []txInOut `json:"vout"`
}

// blockNumber returns -1 for mempool txs.
func (t txResponse) blockNumber() int64 {
	if t.Confirmations <= 0 || t.BlockHeight <= 0 {
		return -1
	}
	return t.BlockHeight
}

type blockResponse struct {
	Height int64 `json:"height"`
	Time   int64 `json:"time"`
}

type utxoResponse struct {
	Txid          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Value         string `json:"value"`
	Confirmations int64  `json:"confirmations"`
}
