package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/pandodao/generic"
	"github.com/pandodao/tag-wallet/core"
	"github.com/twitchtv/twirp"
	"golang.org/x/sync/singleflight"
)

type Config struct {
	Jobs core.JobOptions `valid:"-"`
}

func New(
	wallets core.WalletStore,
	walletz core.WalletService,
	transactions core.TransactionStore,
	transferz core.TransferService,
	banks core.BankService,
	jobs core.JobStore,
	logger *slog.Logger,
	cfg Config,
) *Server {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &Server{
		wallets:      wallets,
		walletz:      walletz,
		transactions: transactions,
		transferz:    transferz,
		banks:        banks,
		jobs:         jobs,
		logger:       logger.With("server", "api"),
		cfg:          cfg,
		sf:           &singleflight.Group{},
	}
}

type Server struct {
	wallets      core.WalletStore
	walletz      core.WalletService
	transactions core.TransactionStore
	transferz    core.TransferService
	banks        core.BankService
	jobs         core.JobStore
	logger       *slog.Logger
	cfg          Config
	sf           *singleflight.Group
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(instrument)

	r.Route("/users/{user_id}", func(r chi.Router) {
		r.Get("/wallet", s.findWallet)
		r.Get("/balance", s.balance)
		r.Get("/transactions", s.listTransactions)
		r.Post("/transfers/bank", s.bankTransfer)
		r.Post("/transfers/tag", s.tagTransfer)
		r.Post("/accounts", s.createAccount)
	})

	r.Route("/banks", func(r chi.Router) {
		r.Get("/", s.listBanks)
		r.Get("/resolve", s.resolveAccount)
	})

	r.Get("/jobs", s.listJobs)

	return r
}

func (s *Server) findWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.wallets.FindUser(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, wallet)
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	wallet, err := s.walletz.Balance(r.Context(), chi.URLParam(r, "user_id"), refresh)
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, wallet)
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := core.TransactionFilter{
		UserID:       chi.URLParam(r, "user_id"),
		PaymentTypes: generic.MapSlice(query["payment_type"], func(v string) core.PaymentType { return core.PaymentType(v) }),
	}

	for _, t := range filter.PaymentTypes {
		if !t.Valid() {
			renderError(w, twirp.InvalidArgument.Errorf("unknown payment type %q", t))
			return
		}
	}

	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		renderError(w, err)
		return
	}
	filter.Limit = limit

	txs, err := s.transactions.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("transactions.List", "err", err)
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (s *Server) bankTransfer(w http.ResponseWriter, r *http.Request) {
	var req core.BankTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, twirp.InvalidArgument.Error("invalid json body"))
		return
	}
	req.UserID = chi.URLParam(r, "user_id")

	result, err := s.transfer(req.UserID, "bank", req.Reference, func() (*core.TransferResult, error) {
		return s.transferz.BankTransfer(r.Context(), &req)
	})
	s.renderTransfer(w, result, err)
}

func (s *Server) tagTransfer(w http.ResponseWriter, r *http.Request) {
	var req core.TagTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, twirp.InvalidArgument.Error("invalid json body"))
		return
	}
	req.UserID = chi.URLParam(r, "user_id")

	result, err := s.transfer(req.UserID, "tag", req.Reference, func() (*core.TransferResult, error) {
		return s.transferz.TagTransfer(r.Context(), &req)
	})
	s.renderTransfer(w, result, err)
}

// transfer runs one submission per user, kind and reference at a time. A
// submission arriving while the same one is in flight gets a conflict.
func (s *Server) transfer(userID, kind, reference string, fn func() (*core.TransferResult, error)) (*core.TransferResult, error) {
	if reference == "" {
		return fn()
	}

	var leader bool
	key := userID + ":" + kind + ":" + reference
	v, err, _ := s.sf.Do(key, func() (any, error) {
		leader = true
		return fn()
	})

	if !leader {
		return nil, fmt.Errorf("transfer %s already in progress: %w", reference, core.ErrConflict)
	}

	result, _ := v.(*core.TransferResult)
	return result, err
}

func (s *Server) renderTransfer(w http.ResponseWriter, result *core.TransferResult, err error) {
	if err == nil {
		renderJSON(w, http.StatusOK, result)
		return
	}

	te := twirpError(err)
	if result != nil && result.Transaction != nil {
		te = te.WithMeta("reference", result.Transaction.Reference).WithMeta("state", string(result.State))
	}

	renderError(w, te)
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req core.CreateAccount
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, twirp.InvalidArgument.Error("invalid json body"))
		return
	}
	req.UserID = chi.URLParam(r, "user_id")

	if _, err := govalidator.ValidateStruct(req); err != nil {
		renderError(w, twirp.InvalidArgument.Error(err.Error()))
		return
	}

	job, err := core.Enqueue(r.Context(), s.jobs, core.QueueCreateAccount, &req, s.cfg.Jobs)
	if err != nil {
		s.logger.Error("core.Enqueue", "queue", core.QueueCreateAccount, "err", err)
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusAccepted, job)
}

func (s *Server) listBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := s.banks.ListBanks(r.Context())
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{"banks": banks})
}

func (s *Server) resolveAccount(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sortCode, accountNumber := query.Get("sort_code"), query.Get("account_number")
	if sortCode == "" || !govalidator.IsNumeric(accountNumber) {
		renderError(w, twirp.InvalidArgument.Error("sort_code and a numeric account_number are required"))
		return
	}

	account, err := s.banks.ResolveAccount(r.Context(), sortCode, accountNumber)
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, account)
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		renderError(w, err)
		return
	}

	jobs, err := s.jobs.List(r.Context(), query.Get("queue"), core.JobStatus(query.Get("status")), limit)
	if err != nil {
		s.logger.Error("jobs.List", "err", err)
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func parseLimit(s string) (int, error) {
	if s == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(s)
	if err != nil || limit < 0 {
		return 0, twirp.InvalidArgument.Errorf("invalid limit %q", s)
	}

	return limit, nil
}
