package types

import "fmt"

// Network identifies a supported EVM network.
type Network string

const (
	NetworkPolygon     Network = "polygon"
	NetworkPolygonAmoy Network = "polygon-amoy" // testnet
	NetworkBaseSepolia Network = "base-sepolia" // testnet
	NetworkBase        Network = "base"
)

func (n Network) String() string {
	return string(n)
}

func (n Network) IsTestnet() bool {
	return n == NetworkPolygonAmoy || n == NetworkBaseSepolia
}

// ChainDescriptor is the static description of a target network: chain id,
// native currency, default RPC endpoint and block explorer. No runtime
// mutation; descriptors are package-level values.
type ChainDescriptor struct {
	Network          Network
	ChainID          uint64
	DisplayName      string
	CurrencySymbol   string
	CurrencyDecimals int
	RPCURL           string
	ExplorerURL      string
}

// ChainIDHex renders the chain id the way wallet RPCs expect it.
func (d ChainDescriptor) ChainIDHex() string {
	return fmt.Sprintf("0x%x", d.ChainID)
}

// TxURL returns the explorer page for a transaction hash.
func (d ChainDescriptor) TxURL(txHash string) string {
	return fmt.Sprintf("%s/tx/%s", d.ExplorerURL, txHash)
}

// Known networks. RPC endpoints and chain ids verified against public
// chain registries.
var (
	PolygonAmoy = ChainDescriptor{
		Network:          NetworkPolygonAmoy,
		ChainID:          80002,
		DisplayName:      "Polygon Amoy",
		CurrencySymbol:   "MATIC",
		CurrencyDecimals: 18,
		RPCURL:           "https://rpc-amoy.polygon.technology",
		ExplorerURL:      "https://amoy.polygonscan.com",
	}

	Polygon = ChainDescriptor{
		Network:          NetworkPolygon,
		ChainID:          137,
		DisplayName:      "Polygon",
		CurrencySymbol:   "MATIC",
		CurrencyDecimals: 18,
		RPCURL:           "https://polygon-rpc.com",
		ExplorerURL:      "https://polygonscan.com",
	}

	BaseSepolia = ChainDescriptor{
		Network:          NetworkBaseSepolia,
		ChainID:          84532,
		DisplayName:      "Base Sepolia",
		CurrencySymbol:   "ETH",
		CurrencyDecimals: 18,
		RPCURL:           "https://sepolia.base.org",
		ExplorerURL:      "https://sepolia.basescan.org",
	}

	Base = ChainDescriptor{
		Network:          NetworkBase,
		ChainID:          8453,
		DisplayName:      "Base",
		CurrencySymbol:   "ETH",
		CurrencyDecimals: 18,
		RPCURL:           "https://mainnet.base.org",
		ExplorerURL:      "https://basescan.org",
	}
)

var descriptors = map[Network]ChainDescriptor{
	NetworkPolygonAmoy: PolygonAmoy,
	NetworkPolygon:     Polygon,
	NetworkBaseSepolia: BaseSepolia,
	NetworkBase:        Base,
}

// DescriptorFor resolves the static descriptor for a network.
func DescriptorFor(n Network) (ChainDescriptor, bool) {
	d, ok := descriptors[n]
	return d, ok
}
