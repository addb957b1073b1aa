// Package chain connects a session to the network the contract lives on.
package chain

import (
	"fmt"
	"strings"
)

// Network is a known EVM chain.
type Network struct {
	Name           string
	ChainID        int64
	NativeCurrency string
	Explorer       string
	Faucet         string
}

// Sepolia is where the asset contract is deployed.
var Sepolia = Network{
	Name:           "Sepolia",
	ChainID:        11155111,
	NativeCurrency: "SepoliaETH",
	Explorer:       "https://sepolia.etherscan.io",
	Faucet:         "https://sepoliafaucet.com",
}

// networks names chains a wallet or node may report instead of Sepolia.
var networks = []Network{
	{Name: "Ethereum", ChainID: 1, NativeCurrency: "ETH", Explorer: "https://etherscan.io"},
	Sepolia,
	{Name: "Holesky", ChainID: 17000, NativeCurrency: "ETH", Explorer: "https://holesky.etherscan.io"},
	{Name: "Base", ChainID: 8453, NativeCurrency: "ETH", Explorer: "https://basescan.org"},
	{Name: "Base Sepolia", ChainID: 84532, NativeCurrency: "ETH", Explorer: "https://sepolia.basescan.org"},
	{Name: "Arbitrum One", ChainID: 42161, NativeCurrency: "ETH", Explorer: "https://arbiscan.io"},
	{Name: "Optimism", ChainID: 10, NativeCurrency: "ETH", Explorer: "https://optimistic.etherscan.io"},
	{Name: "Polygon", ChainID: 137, NativeCurrency: "POL", Explorer: "https://polygonscan.com"},
	{Name: "BNB Smart Chain", ChainID: 56, NativeCurrency: "BNB", Explorer: "https://bscscan.com"},
	{Name: "Hardhat", ChainID: 31337, NativeCurrency: "ETH"},
}

// LookupNetwork returns the known network with id. Unknown ids get a
// placeholder with no explorer.
func LookupNetwork(id int64) (Network, bool) {
	for _, n := range networks {
		if n.ChainID == id {
			return n, true
		}
	}
	return Network{Name: fmt.Sprintf("chain %d", id), ChainID: id}, false
}

// TxURL links to a transaction on the network's explorer, or "" when the
// network has none.
func (n Network) TxURL(hash string) string {
	if n.Explorer == "" {
		return ""
	}
	return strings.TrimSuffix(n.Explorer, "/") + "/tx/" + hash
}

// AddressURL links to an account or contract on the explorer.
func (n Network) AddressURL(addr string) string {
	if n.Explorer == "" {
		return ""
	}
	return strings.TrimSuffix(n.Explorer, "/") + "/address/" + addr
}

func (n Network) String() string {
	return fmt.Sprintf("%s (%d)", n.Name, n.ChainID)
}
