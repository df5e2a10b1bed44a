package wallet

import (
	"context"
	"log/slog"

	"github.com/pandodao/tag-wallet/core"
)

type service struct {
	wallets core.WalletStore
	gateway core.SettlementGateway
	logger  *slog.Logger
}

func New(wallets core.WalletStore, gateway core.SettlementGateway, logger *slog.Logger) core.WalletService {
	return &service{
		wallets: wallets,
		gateway: gateway,
		logger:  logger.With("service", "wallet"),
	}
}

// Balance returns the local wallet. With refresh the settled figures are first
// pulled from the rail; local holds are kept and available is recomputed.
func (s *service) Balance(ctx context.Context, userID string, refresh bool) (*core.Wallet, error) {
	wallet, err := s.wallets.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !refresh || wallet.ProviderWalletID == "" {
		return wallet, nil
	}

	balance, err := s.gateway.GetWalletBalance(ctx, wallet.ProviderWalletID)
	if err != nil {
		s.logger.Error("gateway.GetWalletBalance", "wallet", wallet.ID, "err", err)
		return nil, err
	}

	return s.wallets.Sync(ctx, wallet.ID, balance.Balance, balance.LedgerBalance)
}
