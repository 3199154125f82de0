package config

import (
	"strings"
	"time"
)

// BuildVersion is set at build time with -ldflags "-X .../internal/config.BuildVersion=..."
var BuildVersion = "0.0.0-dev"

const (
	CustodyModeMemory   = "memory"
	CustodyModeEthereum = "ethereum"
)

// Validation tags described here: https://pkg.go.dev/github.com/go-playground/validator/v10
type Config struct {
	Campaign struct {
		MaxMilestones   int           `env:"CAMPAIGN_MAX_MILESTONES"    flag:"campaign-max-milestones"    validate:"omitempty,number,gte=1" desc:"maximum number of milestones per campaign"`
		MaxVoteDuration time.Duration `env:"CAMPAIGN_MAX_VOTE_DURATION" flag:"campaign-max-vote-duration" validate:"omitempty,duration"     desc:"upper bound for a milestone voting window"`
	}
	Custody struct {
		Mode             string        `env:"CUSTODY_MODE"               flag:"custody-mode"               validate:"omitempty,oneof=memory ethereum"        desc:"memory keeps balances in process, ethereum sends native value transactions"`
		EthNodeAddress   string        `env:"ETH_NODE_ADDRESS"           flag:"eth-node-address"           validate:"required_if=Mode ethereum,omitempty,url"`
		EthLegacyTx      bool          `env:"ETH_NODE_LEGACY_TX"         flag:"eth-node-legacy-tx"                                                          desc:"use it to disable EIP-1559 transactions"`
		Mnemonic         string        `env:"CUSTODY_MNEMONIC"           flag:"custody-mnemonic"`
		AccountIndex     int           `env:"CUSTODY_ACCOUNT_INDEX"      flag:"custody-account-index"      validate:"omitempty,gte=0"                         desc:"hd wallet account index used with the mnemonic"`
		WalletPrivateKey string        `env:"WALLET_PRIVATE_KEY"         flag:"wallet-private-key"`
		TransferTimeout  time.Duration `env:"CUSTODY_TRANSFER_TIMEOUT"   flag:"custody-transfer-timeout"   validate:"omitempty,duration"                      desc:"how long to wait for a transfer transaction to be mined"`
	}
	Environment string `env:"ENVIRONMENT" flag:"environment"`
	Journal     struct {
		Path     string `env:"JOURNAL_PATH"     flag:"journal-path"     validate:""                   desc:"sqlite file for the notification journal, in-memory ring if empty"`
		Capacity int    `env:"JOURNAL_CAPACITY" flag:"journal-capacity" validate:"omitempty,gte=1"    desc:"number of notifications kept by the in-memory journal"`
	}
	Log struct {
		Color         bool   `env:"LOG_COLOR"          flag:"log-color"`
		FolderPath    string `env:"LOG_FOLDER_PATH"    flag:"log-folder-path"    validate:"omitempty,dirpath"    desc:"enables file logging and sets the folder path"`
		IsProd        bool   `env:"LOG_IS_PROD"        flag:"log-is-prod"        validate:""                     desc:"affects the format of the log output"`
		JSON          bool   `env:"LOG_JSON"           flag:"log-json"`
		LevelApp      string `env:"LOG_LEVEL_APP"      flag:"log-level-app"      validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
		LevelCampaign string `env:"LOG_LEVEL_CAMPAIGN" flag:"log-level-campaign" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
		LevelHTTP     string `env:"LOG_LEVEL_HTTP"     flag:"log-level-http"     validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	}
	Web struct {
		Address   string `env:"WEB_ADDRESS"    flag:"web-address"    validate:"required,hostname_port" desc:"http server address host:port"`
		PublicUrl string `env:"WEB_PUBLIC_URL" flag:"web-public-url" validate:"omitempty,url"          desc:"public url of the service, falls back to web-address if empty"`
	}
}

func (cfg *Config) SetDefaults() {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Campaign

	if cfg.Campaign.MaxMilestones == 0 {
		cfg.Campaign.MaxMilestones = 32
	}
	if cfg.Campaign.MaxVoteDuration == 0 {
		cfg.Campaign.MaxVoteDuration = 30 * 24 * time.Hour
	}

	// Custody

	if cfg.Custody.Mode == "" {
		cfg.Custody.Mode = CustodyModeMemory
	}
	if cfg.Custody.TransferTimeout == 0 {
		cfg.Custody.TransferTimeout = 5 * time.Minute
	}
	// normalizes private key
	cfg.Custody.WalletPrivateKey = strings.TrimPrefix(cfg.Custody.WalletPrivateKey, "0x")

	// Journal

	if cfg.Journal.Capacity == 0 {
		cfg.Journal.Capacity = 4096
	}

	// Log

	if cfg.Log.LevelApp == "" {
		cfg.Log.LevelApp = "debug"
	}
	if cfg.Log.LevelCampaign == "" {
		cfg.Log.LevelCampaign = "debug"
	}
	if cfg.Log.LevelHTTP == "" {
		cfg.Log.LevelHTTP = "info"
	}

	// Web

	if cfg.Web.Address == "" {
		cfg.Web.Address = "0.0.0.0:8080"
	}
	if cfg.Web.PublicUrl == "" {
		cfg.Web.PublicUrl = "http://localhost:8080"
	}
}

// GetSanitized returns a copy of the config with sensitive data removed
// explicitly adding each field here to avoid accidentally leaking sensitive data
func (cfg *Config) GetSanitized() interface{} {
	publicCfg := Config{}

	publicCfg.Campaign.MaxMilestones = cfg.Campaign.MaxMilestones
	publicCfg.Campaign.MaxVoteDuration = cfg.Campaign.MaxVoteDuration

	publicCfg.Custody.Mode = cfg.Custody.Mode
	publicCfg.Custody.EthLegacyTx = cfg.Custody.EthLegacyTx
	publicCfg.Custody.AccountIndex = cfg.Custody.AccountIndex
	publicCfg.Custody.TransferTimeout = cfg.Custody.TransferTimeout

	publicCfg.Environment = cfg.Environment

	publicCfg.Journal.Path = cfg.Journal.Path
	publicCfg.Journal.Capacity = cfg.Journal.Capacity

	publicCfg.Log.Color = cfg.Log.Color
	publicCfg.Log.FolderPath = cfg.Log.FolderPath
	publicCfg.Log.IsProd = cfg.Log.IsProd
	publicCfg.Log.JSON = cfg.Log.JSON
	publicCfg.Log.LevelApp = cfg.Log.LevelApp
	publicCfg.Log.LevelCampaign = cfg.Log.LevelCampaign
	publicCfg.Log.LevelHTTP = cfg.Log.LevelHTTP

	publicCfg.Web.Address = cfg.Web.Address
	publicCfg.Web.PublicUrl = cfg.Web.PublicUrl

	return publicCfg
}
