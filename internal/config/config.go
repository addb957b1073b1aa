// Package config loads and saves ~/.assetcli/config.json.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/assetcli/internal/feed"
)

const (
	// EnvDir overrides the config directory.
	EnvDir = "ASSETCLI_CONFIG_DIR"

	// SepoliaChainID is the only network the contract is deployed on.
	SepoliaChainID = 11155111
	// DefaultContract is the deployed asset tokenization contract.
	DefaultContract = "0x03F3C923eE87b89572849CACDb3e619292F618a7"

	defaultAlgorithm         = "fastest"
	defaultNotificationTTL   = 5
	defaultEventPollInterval = 4
	defaultConfirmTimeout    = 300
	defaultLogLevel          = "info"

	configFile  = "config.json"
	walletsFile = "wallets.json"
	logFile     = "assetcli.log"
	keysDir     = "keys"
)

// DefaultRPCs are public Sepolia endpoints.
var DefaultRPCs = []string{
	"https://ethereum-sepolia-rpc.publicnode.com",
	"https://rpc.sepolia.org",
	"https://sepolia.gateway.tenderly.co",
}

var (
	ErrRPCExists   = errors.New("rpc already configured")
	ErrRPCNotFound = errors.New("rpc not configured")
)

// Config holds all assetcli configuration.
type Config struct {
	RPCURLs           []string `json:"rpc_urls"`
	RPCAlgorithm      string   `json:"rpc_algorithm"` // "fastest" | "round-robin" | "failover"
	ChainID           int64    `json:"chain_id"`
	ContractAddress   string   `json:"contract_address"`
	DefaultWallet     string   `json:"default_wallet,omitempty"`
	NotificationMode  string   `json:"notification_mode"`   // "expire" | "replace"
	NotificationTTL   int      `json:"notification_ttl"`    // seconds
	EventPollInterval int      `json:"event_poll_interval"` // seconds
	ConfirmTimeout    int      `json:"confirm_timeout"`     // seconds
	LogLevel          string   `json:"log_level"`
	LogFile           string   `json:"log_file,omitempty"`

	configDir string
}

// ResolveDir picks the config directory: flag, then $ASSETCLI_CONFIG_DIR,
// then ~/.assetcli.
func ResolveDir(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv(EnvDir); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home dir: %w", err)
	}
	return filepath.Join(home, ".assetcli"), nil
}

// Load reads config from dir, creating the directory if needed. Missing
// fields keep their defaults.
func Load(dir string) (*Config, error) {
	dir, err := ResolveDir(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)
	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.configDir = dir
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filepath.Join(dir, configFile), err)
	}
	return cfg, nil
}

// Validate checks values a session depends on.
func (c *Config) Validate() error {
	if c.ChainID <= 0 {
		return fmt.Errorf("chain_id must be positive, got %d", c.ChainID)
	}
	if !common.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("contract_address %q is not an address", c.ContractAddress)
	}
	if _, err := feed.ParseMode(c.NotificationMode); err != nil {
		return err
	}
	for name, v := range map[string]int{
		"notification_ttl":    c.NotificationTTL,
		"event_poll_interval": c.EventPollInterval,
		"confirm_timeout":     c.ConfirmTimeout,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	return nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	return saveJSON(filepath.Join(c.configDir, configFile), c)
}

// AddRPC appends an endpoint.
func (c *Config) AddRPC(url string) error {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") &&
		!strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
		return fmt.Errorf("rpc url %q must start with http(s):// or ws(s)://", url)
	}
	if slices.Contains(c.RPCURLs, url) {
		return fmt.Errorf("%w: %s", ErrRPCExists, url)
	}
	c.RPCURLs = append(c.RPCURLs, url)
	return nil
}

// RemoveRPC removes an endpoint.
func (c *Config) RemoveRPC(url string) error {
	idx := slices.Index(c.RPCURLs, url)
	if idx == -1 {
		return fmt.Errorf("%w: %s", ErrRPCNotFound, url)
	}
	c.RPCURLs = slices.Delete(c.RPCURLs, idx, idx+1)
	return nil
}

// SetContract changes the contract address.
func (c *Config) SetContract(addr string) error {
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("%q is not an address", addr)
	}
	c.ContractAddress = common.HexToAddress(addr).Hex()
	return nil
}

// SetNotificationMode changes how notifications are retained.
func (c *Config) SetNotificationMode(mode string) error {
	m, err := feed.ParseMode(mode)
	if err != nil {
		return err
	}
	c.NotificationMode = string(m)
	return nil
}

// Contract returns the configured contract address.
func (c *Config) Contract() common.Address { return common.HexToAddress(c.ContractAddress) }

// Mode returns the parsed notification mode.
func (c *Config) Mode() feed.Mode {
	m, err := feed.ParseMode(c.NotificationMode)
	if err != nil {
		return feed.ModeExpire
	}
	return m
}

func (c *Config) NotificationTTLDuration() time.Duration {
	return time.Duration(c.NotificationTTL) * time.Second
}

func (c *Config) EventPollDuration() time.Duration {
	return time.Duration(c.EventPollInterval) * time.Second
}

func (c *Config) ConfirmTimeoutDuration() time.Duration {
	return time.Duration(c.ConfirmTimeout) * time.Second
}

// Dir returns the config directory.
func (c *Config) Dir() string { return c.configDir }

// WalletsPath is where wallet metadata is kept.
func (c *Config) WalletsPath() string { return filepath.Join(c.configDir, walletsFile) }

// KeysDir is where the file keychain fallback keeps keys.
func (c *Config) KeysDir() string { return filepath.Join(c.configDir, keysDir) }

// LogPath is the log file, defaulting to assetcli.log in the config dir.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.configDir, logFile)
}

func defaults(dir string) *Config {
	return &Config{
		RPCURLs:           slices.Clone(DefaultRPCs),
		RPCAlgorithm:      defaultAlgorithm,
		ChainID:           SepoliaChainID,
		ContractAddress:   DefaultContract,
		NotificationMode:  string(feed.ModeExpire),
		NotificationTTL:   defaultNotificationTTL,
		EventPollInterval: defaultEventPollInterval,
		ConfirmTimeout:    defaultConfirmTimeout,
		LogLevel:          defaultLogLevel,
		configDir:         dir,
	}
}

func saveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
