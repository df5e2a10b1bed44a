package bank

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pandodao/generic"
	"github.com/pandodao/tag-wallet/core"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const banksKey = "tagwallet:banks"

type Config struct {
	CacheTTL     time.Duration `valid:"-"`
	ResolveCache int           `valid:"-"`
}

func New(
	gateway core.SettlementGateway,
	rdb *redis.Client,
	logger *slog.Logger,
	cfg Config,
) core.BankService {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 3000 * time.Second
	}

	if cfg.ResolveCache <= 0 {
		cfg.ResolveCache = 1024
	}

	return &service{
		gateway:  gateway,
		rdb:      rdb,
		logger:   logger.With("service", "bank"),
		cfg:      cfg,
		accounts: generic.Must(lru.New[string, core.BankAccount](cfg.ResolveCache)),
	}
}

type service struct {
	gateway  core.SettlementGateway
	rdb      *redis.Client
	logger   *slog.Logger
	cfg      Config
	accounts *lru.Cache[string, core.BankAccount]
	sf       singleflight.Group
}

// ListBanks reads through the shared redis cache. A broken cache degrades to
// calling the rail directly.
func (s *service) ListBanks(ctx context.Context) ([]*core.Bank, error) {
	raw, err := s.rdb.Get(ctx, banksKey).Bytes()
	if err == nil {
		var banks []*core.Bank
		if err := json.Unmarshal(raw, &banks); err == nil {
			return banks, nil
		}

		s.logger.Warn("drop malformed bank cache", "key", banksKey)
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Error("redis.Get", "key", banksKey, "err", err)
	}

	v, err, _ := s.sf.Do(banksKey, func() (interface{}, error) {
		banks, err := s.gateway.ListBanks(ctx)
		if err != nil {
			s.logger.Error("gateway.ListBanks", "err", err)
			return nil, err
		}

		if data, err := json.Marshal(banks); err == nil {
			if err := s.rdb.Set(ctx, banksKey, string(data), s.cfg.CacheTTL).Err(); err != nil {
				s.logger.Error("redis.Set", "key", banksKey, "err", err)
			}
		}

		return banks, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]*core.Bank), nil
}

func (s *service) ResolveAccount(ctx context.Context, sortCode, accountNumber string) (*core.BankAccount, error) {
	key := sortCode + ":" + accountNumber
	if account, ok := s.accounts.Get(key); ok {
		return &account, nil
	}

	account, err := s.gateway.ResolveBankAccount(ctx, sortCode, accountNumber)
	if err != nil {
		s.logger.Error("gateway.ResolveBankAccount", "sort_code", sortCode, "err", err)
		return nil, err
	}

	s.accounts.Add(key, *account)
	return account, nil
}
