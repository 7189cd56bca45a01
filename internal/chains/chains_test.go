package chains

import (
	"os"
	"path/filepath"
	"testing"

	"solaudit/internal/auditerr"
)

func TestGetKnownChain(t *testing.T) {
	r := NewRegistry()

	c, err := r.Get("ethereum")
	if err != nil {
		t.Fatalf("ethereum should be a built-in chain: %v", err)
	}
	if c.ChainID != 1 {
		t.Errorf("expected chainId 1, got %d", c.ChainID)
	}
}

func TestGetUnknownChain(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("dogecoin")
	if err == nil {
		t.Fatal("unknown chain should return an error")
	}
	if auditerr.CodeOf(err) != auditerr.UnsupportedChain {
		t.Errorf("expected UNSUPPORTED_CHAIN, got %s", auditerr.CodeOf(err))
	}
}

func TestListSorted(t *testing.T) {
	r := NewRegistry()

	list := r.List()
	if len(list) == 0 {
		t.Fatal("expected built-in chains")
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Errorf("list not sorted: %s before %s", list[i-1].ID, list[i].ID)
		}
	}
}

func TestLoadFileOverridesAndAdds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chains.yaml")
	content := `chains:
  - id: ethereum
    name: Ethereum (custom RPC)
    chainId: 1
    rpcUrl: http://localhost:8545
  - id: localnet
    name: Local Devnet
    chainId: 31337
    rpcUrl: http://localhost:8545
    testnet: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := r.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	eth, err := r.Get("ethereum")
	if err != nil {
		t.Fatal(err)
	}
	if eth.RPCURL != "http://localhost:8545" {
		t.Errorf("file entry should override built-in RPC URL, got %s", eth.RPCURL)
	}

	local, err := r.Get("localnet")
	if err != nil {
		t.Fatalf("added chain should resolve: %v", err)
	}
	if !local.Testnet {
		t.Error("expected localnet to be marked testnet")
	}
}

func TestLoadFileRejectsIncompleteEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chains.yaml")
	if err := os.WriteFile(path, []byte("chains:\n  - name: broken\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := r.LoadFile(path); err == nil {
		t.Error("entry without id and rpcUrl should be rejected")
	}
}
