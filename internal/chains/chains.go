// Package chains holds the registry of supported blockchain networks.
package chains

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"solaudit/internal/auditerr"
)

// Chain describes a supported network
type Chain struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	ChainID     int64  `yaml:"chainId" json:"chainId"`
	RPCURL      string `yaml:"rpcUrl" json:"rpcUrl"`
	ExplorerAPI string `yaml:"explorerApi" json:"explorerApi,omitempty"`
	Testnet     bool   `yaml:"testnet" json:"testnet,omitempty"`
}

// Registry is a read-only lookup of supported chains
type Registry struct {
	chains map[string]Chain
}

func defaultChains() []Chain {
	return []Chain{
		{ID: "ethereum", Name: "Ethereum Mainnet", ChainID: 1, RPCURL: "https://eth.llamarpc.com", ExplorerAPI: "https://api.etherscan.io/api"},
		{ID: "sepolia", Name: "Sepolia Testnet", ChainID: 11155111, RPCURL: "https://rpc.sepolia.org", ExplorerAPI: "https://api-sepolia.etherscan.io/api", Testnet: true},
		{ID: "polygon", Name: "Polygon PoS", ChainID: 137, RPCURL: "https://polygon-rpc.com", ExplorerAPI: "https://api.polygonscan.com/api"},
		{ID: "bsc", Name: "BNB Smart Chain", ChainID: 56, RPCURL: "https://bsc-dataseed.binance.org", ExplorerAPI: "https://api.bscscan.com/api"},
		{ID: "arbitrum", Name: "Arbitrum One", ChainID: 42161, RPCURL: "https://arb1.arbitrum.io/rpc", ExplorerAPI: "https://api.arbiscan.io/api"},
		{ID: "optimism", Name: "OP Mainnet", ChainID: 10, RPCURL: "https://mainnet.optimism.io", ExplorerAPI: "https://api-optimistic.etherscan.io/api"},
		{ID: "base", Name: "Base", ChainID: 8453, RPCURL: "https://mainnet.base.org", ExplorerAPI: "https://api.basescan.org/api"},
	}
}

// NewRegistry returns a registry with the built-in chain set
func NewRegistry() *Registry {
	r := &Registry{chains: make(map[string]Chain)}
	for _, c := range defaultChains() {
		r.chains[c.ID] = c
	}
	return r
}

// LoadFile merges chain definitions from a YAML file into the registry.
// Entries with an existing id replace the built-in definition.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read chains file: %w", err)
	}

	var doc struct {
		Chains []Chain `yaml:"chains"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse chains file: %w", err)
	}

	for _, c := range doc.Chains {
		if c.ID == "" || c.RPCURL == "" {
			return fmt.Errorf("chains file: entry %q must have id and rpcUrl", c.Name)
		}
		r.chains[c.ID] = c
	}
	return nil
}

// Get returns the chain for the given identifier
func (r *Registry) Get(id string) (Chain, error) {
	c, ok := r.chains[id]
	if !ok {
		return Chain{}, auditerr.New(auditerr.UnsupportedChain,
			fmt.Sprintf("unsupported chain: %s", id))
	}
	return c, nil
}

// List returns all supported chains sorted by id
func (r *Registry) List() []Chain {
	out := make([]Chain, 0, len(r.chains))
	for _, c := range r.chains {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
