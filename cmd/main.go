package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gitlab.com/TitanInd/milestone-escrow/internal/campaign"
	"gitlab.com/TitanInd/milestone-escrow/internal/campaignmanager"
	"gitlab.com/TitanInd/milestone-escrow/internal/config"
	"gitlab.com/TitanInd/milestone-escrow/internal/custody"
	"gitlab.com/TitanInd/milestone-escrow/internal/handlers/httphandlers"
	"gitlab.com/TitanInd/milestone-escrow/internal/interfaces"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
	"gitlab.com/TitanInd/milestone-escrow/internal/repositories/journal"
	"golang.org/x/sync/errgroup"
)

func main() {
	err := start()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func start() error {
	var cfg config.Config
	err := config.LoadConfig(&cfg, &os.Args)
	if err != nil {
		return err
	}

	log, err := newLogger(&cfg, cfg.Log.LevelApp, "app.log")
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	campaignLog, err := newLogger(&cfg, cfg.Log.LevelCampaign, "campaign.log")
	if err != nil {
		return err
	}

	httpLog, err := newLogger(&cfg, cfg.Log.LevelHTTP, "http.log")
	if err != nil {
		return err
	}

	log.Infof("milestone escrow %s, environment %s", config.BuildVersion, cfg.Environment)
	log.Debugf("config: %+v", cfg.GetSanitized())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-shutdownChan
		log.Warnf("Received signal: %s", s)
		cancel()

		s = <-shutdownChan
		log.Warnf("Received signal: %s. Forcing exit...", s)
		os.Exit(1)
	}()

	transferer, deposits, err := newCustody(ctx, &cfg, log.Named("CUSTODY"))
	if err != nil {
		return err
	}

	jrnl, err := newJournal(&cfg)
	if err != nil {
		return err
	}

	publicUrl, err := url.Parse(cfg.Web.PublicUrl)
	if err != nil {
		return fmt.Errorf("invalid public url: %w", err)
	}

	clock := lib.NewSystemClock()
	factory := campaignmanager.NewCampaignFactory(campaign.Config{
		MaxVoteDuration: cfg.Campaign.MaxVoteDuration,
	}, transferer, clock, campaignLog)
	cm := campaignmanager.NewCampaignManager(cfg.Campaign.MaxMilestones, factory, jrnl, log.Named("MANAGER"))

	handl := httphandlers.NewHTTPHandler(cm, deposits, &cfg, clock, publicUrl, httpLog)
	server := httphandlers.NewServer(cfg.Web.Address, handl, httpLog)

	runnables := []interfaces.Runnable{cm, server}

	g, gCtx := errgroup.WithContext(ctx)
	for _, r := range runnables {
		r := r
		g.Go(func() error {
			return r.Run(gCtx)
		})
	}

	err = g.Wait()
	log.Infof("App exited due to %s", err)
	return err
}

func newLogger(cfg *config.Config, level string, fileName string) (*lib.Logger, error) {
	opts := lib.LogOptions{
		Level:  level,
		Color:  cfg.Log.Color,
		IsProd: cfg.Log.IsProd,
		JSON:   cfg.Log.JSON,
	}
	if cfg.Log.FolderPath != "" {
		opts.FilePath = filepath.Join(cfg.Log.FolderPath, fileName)
	}
	return lib.NewLogger(opts)
}

// newCustody picks the custody backend. On chain every pledge must be backed by a verified
// deposit into the custody wallet, the in-memory vault takes pledged amounts as given
func newCustody(ctx context.Context, cfg *config.Config, log interfaces.ILogger) (campaign.Transferer, httphandlers.DepositClaimer, error) {
	if cfg.Custody.Mode != config.CustodyModeEthereum {
		log.Infof("custody mode: in-memory vault")
		return custody.NewVault(log), nil, nil
	}

	client, err := custody.DialContext(ctx, cfg.Custody.EthNodeAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot connect to ethereum node: %w", err)
	}

	var wallet *custody.Wallet
	if cfg.Custody.Mnemonic != "" {
		wallet, err = custody.NewWalletFromMnemonic(cfg.Custody.Mnemonic, cfg.Custody.AccountIndex)
	} else {
		wallet, err = custody.NewWalletFromPrivateKey(cfg.Custody.WalletPrivateKey)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("cannot load custody wallet: %w", err)
	}

	transferer := custody.NewEthereumTransferer(client, wallet, log)
	transferer.SetLegacyTx(cfg.Custody.EthLegacyTx)
	transferer.SetTimeout(cfg.Custody.TransferTimeout)

	deposits := custody.NewDepositVerifier(client, wallet.Address(), log.Named("DEPOSITS"))

	log.Infof("custody mode: ethereum, wallet %s", transferer.Address().Hex())
	return transferer, deposits, nil
}

func newJournal(cfg *config.Config) (journal.Journal, error) {
	if cfg.Journal.Path == "" {
		return journal.NewMemory(cfg.Journal.Capacity), nil
	}
	j, err := journal.OpenSQLite(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("cannot open journal: %w", err)
	}
	return j, nil
}
