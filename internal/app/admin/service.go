package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"contest-arena/internal/auth"
	"contest-arena/internal/events"
	"contest-arena/internal/ledger"
	"contest-arena/internal/notify"
	"contest-arena/internal/store"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	store       store.Repository
	ledger      *ledger.Ledger
	mailer      notify.Mailer
	publisher   events.Publisher
	frontendURL string
	now         func() time.Time
}

func NewService(st store.Repository, mailer notify.Mailer, pub events.Publisher, frontendURL string) *Service {
	if mailer == nil {
		mailer = notify.LogMailer{}
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		store:       st,
		ledger:      ledger.New(st),
		mailer:      mailer,
		publisher:   pub,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func hashPassword(pw string) (string, error) {
	if len(pw) < minPasswordLength {
		return "", ErrInvalidRequest
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Service) CreateAccount(ctx context.Context, actor auth.Principal, in CreateAccountInput) (*CreateAccountResponse, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Mobile = strings.TrimSpace(in.Mobile)
	if in.Username == "" || in.Mobile == "" || in.InitialBalance < 0 || in.InitialBalance > MaxAmount {
		return nil, ErrInvalidRequest
	}
	pwHash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	token, err := store.NewToken("ca_")
	if err != nil {
		return nil, err
	}
	a, err := s.store.CreateFundedAccount(ctx, store.Account{
		Username:     in.Username,
		Mobile:       in.Mobile,
		PasswordHash: pwHash,
		APIKeyHash:   store.HashAPIKey(token),
	}, ledger.AdminOpeningCredit(actor.ID, in.InitialBalance))
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, ErrAccountExists
		}
		return nil, err
	}
	log.Info().Str("account_id", a.ID).Str("username", a.Username).Str("admin_id", actor.ID).Msg("account created")
	return &CreateAccountResponse{Account: accountView(*a), Token: token}, nil
}

func (s *Service) CreateAdmin(ctx context.Context, in CreateAdminInput) (*CreateAdminResponse, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Mobile = strings.TrimSpace(in.Mobile)
	if in.Username == "" || in.Mobile == "" || !strings.Contains(in.Email, "@") {
		return nil, ErrInvalidRequest
	}
	pwHash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	token, err := store.NewToken("ad_")
	if err != nil {
		return nil, err
	}
	a, err := s.store.CreateAdmin(ctx, store.Admin{
		Username:     in.Username,
		Email:        in.Email,
		Mobile:       in.Mobile,
		PasswordHash: pwHash,
		APIKeyHash:   store.HashAPIKey(token),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, ErrAdminExists
		}
		return nil, err
	}
	return &CreateAdminResponse{ID: a.ID, Username: a.Username, Token: token}, nil
}

func (s *Service) ListAccounts(ctx context.Context, search string, limit, offset int) (*AccountsResponse, error) {
	items, err := s.store.ListAccounts(ctx, search, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]AccountView, 0, len(items))
	for _, a := range items {
		out = append(out, accountView(a))
	}
	return &AccountsResponse{Items: out, Limit: limit, Offset: offset}, nil
}

// GetAccount returns the account with its balance replayed from the ledger.
func (s *Service) GetAccount(ctx context.Context, username string) (*AccountDetail, error) {
	a, err := s.accountByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	folded, err := s.ledger.Replay(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if folded != a.Balance {
		log.Error().Str("account_id", a.ID).Int64("balance", a.Balance).Int64("folded", folded).Msg("ledger does not match balance")
	}
	return &AccountDetail{AccountView: accountView(*a), FoldedBalance: folded, Reconciled: folded == a.Balance}, nil
}

func (s *Service) accountByUsername(ctx context.Context, username string) (*store.Account, error) {
	a, err := s.store.GetAccountByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

// ManageBalance credits or debits a website account. Debits never take the
// balance below zero.
func (s *Service) ManageBalance(ctx context.Context, actor auth.Principal, in BalanceInput) (*BalanceResponse, error) {
	if in.Amount <= 0 || in.Amount > MaxAmount || (in.Action != ActionAdd && in.Action != ActionSubtract) {
		return nil, ErrInvalidRequest
	}
	a, err := s.accountByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	var (
		bal       int64
		direction = store.DirectionCredit
		reason    = ledger.ReasonAdminCredit
	)
	if in.Action == ActionAdd {
		bal, err = s.ledger.AdminCredit(ctx, a.ID, actor.ID, in.Amount)
	} else {
		direction, reason = store.DirectionDebit, ledger.ReasonAdminDebit
		bal, err = s.ledger.AdminDebit(ctx, a.ID, actor.ID, in.Amount)
	}
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInsufficientBalance):
			return nil, ErrInsufficientFunds
		case errors.Is(err, store.ErrBalanceLimit):
			return nil, ErrBalanceLimit
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), events.Event{
		Type:       events.TypeBalanceAdjusted,
		Key:        a.ID,
		OccurredAt: s.now().UTC(),
		Payload: events.BalanceAdjusted{
			AccountID: a.ID, Direction: direction, Amount: in.Amount, Balance: bal, Reason: reason, ActorID: actor.ID,
		},
	}); err != nil {
		log.Warn().Err(err).Str("account_id", a.ID).Msg("publish balance.adjusted failed")
	}
	return &BalanceResponse{AccountID: a.ID, Username: a.Username, Balance: bal}, nil
}

func (s *Service) Transactions(ctx context.Context, q TransactionsQuery) (*TransactionsResponse, error) {
	f := store.LedgerFilter{Reason: q.Reason, From: q.From, To: q.To}
	if q.Username != "" {
		a, err := s.accountByUsername(ctx, q.Username)
		if err != nil {
			return nil, err
		}
		f.AccountID = a.ID
	}
	entries, err := s.store.ListLedgerEntries(ctx, f, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	return &TransactionsResponse{Items: TransactionViews(entries), Limit: q.Limit, Offset: q.Offset}, nil
}

// TransactionViews converts ledger entries for display.
func TransactionViews(entries []store.LedgerEntry) []TransactionView {
	out := make([]TransactionView, 0, len(entries))
	for _, e := range entries {
		out = append(out, TransactionView{
			ID: e.ID, AccountID: e.AccountID, Direction: e.Direction, Amount: e.Amount, BalanceAfter: e.BalanceAfter,
			Reason: e.Reason, RefType: e.RefType, RefID: e.RefID, CreatedAt: e.CreatedAt,
		})
	}
	return out
}

func accountView(a store.Account) AccountView {
	return AccountView{ID: a.ID, Username: a.Username, Mobile: a.Mobile, Balance: a.Balance, CreatedAt: a.CreatedAt}
}

func (s *Service) ForgotPassword(ctx context.Context, emailOrMobile string) error {
	v := strings.TrimSpace(emailOrMobile)
	if v == "" {
		return ErrInvalidRequest
	}
	if strings.Contains(v, "@") {
		v = strings.ToLower(v)
	}
	a, err := s.store.GetAdminByEmailOrMobile(ctx, v)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	token, err := store.NewToken("")
	if err != nil {
		return err
	}
	if err := s.store.SetAdminResetToken(ctx, a.ID, store.HashAPIKey(token), s.now().Add(resetTokenTTL)); err != nil {
		return err
	}
	link := s.frontendURL + "/admin/reset-password/" + token
	if err := s.mailer.SendPasswordReset(ctx, a.Email, link); err != nil {
		log.Warn().Err(err).Str("admin_id", a.ID).Msg("queue password reset mail failed")
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidResetToken
	}
	pwHash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.ResetAdminPassword(ctx, store.HashAPIKey(token), pwHash, s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	return nil
}

// PurgeExpiredResetTokens clears reset tokens past their expiry.
func (s *Service) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	return s.store.PurgeExpiredResetTokens(ctx, s.now())
}
