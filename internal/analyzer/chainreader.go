package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"solaudit/internal/audit"
	"solaudit/internal/chains"
)

// RPCReader resolves contract state over Ethereum JSON-RPC, with an optional
// explorer API lookup for verified source code
type RPCReader struct {
	httpClient *http.Client
}

// NewRPCReader creates a chain reader with a default HTTP client
func NewRPCReader() *RPCReader {
	return &RPCReader{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Fetch resolves bytecode, balance, nonce and, when the chain has an explorer
// API configured, verified source code for the address. Source lookup is
// best-effort: explorer failures degrade to a bytecode-only result instead of
// failing the fetch.
func (r *RPCReader) Fetch(ctx context.Context, address string, chain chains.Chain) (*audit.ChainContract, error) {
	bytecode, err := r.callString(ctx, chain.RPCURL, "eth_getCode", address, "latest")
	if err != nil {
		return nil, fmt.Errorf("eth_getCode: %w", err)
	}

	contract := &audit.ChainContract{
		Bytecode: bytecode,
		ChainID:  chain.ChainID,
	}

	if balance, err := r.callString(ctx, chain.RPCURL, "eth_getBalance", address, "latest"); err == nil {
		contract.Balance = balance
	}
	if nonce, err := r.callString(ctx, chain.RPCURL, "eth_getTransactionCount", address, "latest"); err == nil {
		if n, err := strconv.ParseUint(strings.TrimPrefix(nonce, "0x"), 16, 64); err == nil {
			contract.TxCount = n
		}
	}

	if chain.ExplorerAPI != "" {
		if src, name, err := r.fetchVerifiedSource(ctx, chain.ExplorerAPI, address); err == nil {
			contract.SourceCode = src
			contract.ContractName = name
		}
	}

	return contract, nil
}

// callString performs a JSON-RPC call returning a hex string result
func (r *RPCReader) callString(ctx context.Context, rpcURL, method string, params ...interface{}) (string, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rpcURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("rpc node returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return "", err
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return "", err
	}
	if rpcResp.Error != nil {
		return "", fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	var result string
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return "", err
	}
	return result, nil
}

// fetchVerifiedSource queries an etherscan-style explorer API for the
// contract's verified source
func (r *RPCReader) fetchVerifiedSource(ctx context.Context, explorerAPI, address string) (string, string, error) {
	q := url.Values{}
	q.Set("module", "contract")
	q.Set("action", "getsourcecode")
	q.Set("address", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, explorerAPI+"?"+q.Encode(), nil)
	if err != nil {
		return "", "", err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("explorer returned status %d", resp.StatusCode)
	}

	var doc struct {
		Status string `json:"status"`
		Result []struct {
			SourceCode   string `json:"SourceCode"`
			ContractName string `json:"ContractName"`
		} `json:"result"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 32<<20)).Decode(&doc); err != nil {
		return "", "", err
	}

	if doc.Status != "1" || len(doc.Result) == 0 || doc.Result[0].SourceCode == "" {
		return "", "", fmt.Errorf("no verified source for %s", address)
	}
	return doc.Result[0].SourceCode, doc.Result[0].ContractName, nil
}
