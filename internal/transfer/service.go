package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/fluxpay/transfer-service/internal/history"
	"github.com/fluxpay/transfer-service/internal/ledger"
	"github.com/fluxpay/transfer-service/internal/notification"
	"github.com/fluxpay/transfer-service/internal/rates"
	"github.com/fluxpay/transfer-service/internal/wallet"
)

// compensationTimeout bounds best-effort cleanup writes issued after the
// request context may already have expired.
const compensationTimeout = 10 * time.Second

// Service drives the funds transfer saga against the remote ledger and rate
// services: check, escrow, convert, settle, release, with compensation once
// funds have left the source wallet.
//
// Saga state lives only in the call stack of the request running it. A crash
// mid-saga leaves the ledger in the state of the last successful remote write;
// the escrow wallet and the pending history record are the auditable artifacts
// of such an interruption.
type Service struct {
	ledger   ledger.Client
	rates    rates.Converter
	history  history.Repository
	fees     FeeCalculator
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService builds a transfer service around the injected collaborators.
func NewService(ledgerClient ledger.Client, converter rates.Converter, hist history.Repository, fees FeeCalculator, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		ledger:   ledgerClient,
		rates:    converter,
		history:  hist,
		fees:     fees,
		notifier: notifier,
		logger:   logger,
	}
}

// Input captures the data needed to move funds between two wallets.
type Input struct {
	FromWalletID string
	ToWalletID   string
	Amount       decimal.Decimal
}

// Result describes a completed transfer. FromWallet is the pre-transfer
// snapshot, ToWallet the post-settlement record. ConvertedAmount and Fee are
// set only when a currency conversion occurred.
type Result struct {
	TransferID      string
	FromWallet      wallet.Wallet
	ToWallet        wallet.Wallet
	Amount          decimal.Decimal
	ConvertedAmount *decimal.Decimal
	Fee             *decimal.Decimal
}

// Transfer runs one saga instance. Exactly one of (Result, error) is
// meaningful; every error path has already applied whatever compensation the
// protocol requires.
func (s *Service) Transfer(ctx context.Context, in Input) (Result, error) {
	if in.FromWalletID == "" || in.ToWalletID == "" {
		return Result{}, fmt.Errorf("%w: wallet ids are required", ErrInvalidInput)
	}
	if in.Amount.Cmp(decimal.Zero) <= 0 {
		return Result{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	// Checking: both fetches run concurrently and fail fast. Nothing has
	// moved yet, so any failure here is terminal without compensation.
	var from, to wallet.Wallet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		from, err = s.ledger.GetWallet(gctx, in.FromWalletID)
		return err
	})
	g.Go(func() error {
		var err error
		to, err = s.ledger.GetWallet(gctx, in.ToWalletID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if from.Amount.LessThan(in.Amount) {
		return Result{}, fmt.Errorf("%w: wallet %q holds %s, requested %s",
			ErrInsufficientFunds, from.ID, from.Amount.String(), in.Amount.String())
	}

	s.logger.Debug("transfer checked",
		"from", from.ID, "to", to.ID, "amount", in.Amount.String())

	// Escrowing: hold the amount in a temporary wallet, then debit the
	// source. An escrow-create failure aborts with nothing to undo; a debit
	// failure leaves an orphaned escrow that must be deleted.
	created, err := s.ledger.CreateWallets(ctx, []ledger.CreateSpec{{
		Amount:    in.Amount,
		Currency:  from.Currency,
		CompanyID: wallet.EscrowCompanyID,
	}})
	if err != nil {
		return Result{}, fmt.Errorf("create escrow wallet: %w", err)
	}
	if len(created) == 0 {
		return Result{}, fmt.Errorf("create escrow wallet: %w: empty response", ledger.ErrUnavailable)
	}
	escrow := created[0]

	rec := history.Record{
		ID:           uuid.NewString(),
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Amount:       in.Amount,
		EscrowID:     escrow.ID,
		Status:       history.StatusPending,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.history.Create(ctx, rec); err != nil {
		s.logger.Error("record transfer intent", "transfer_id", rec.ID, "error", err)
	}

	if _, err := s.ledger.UpdateWallet(ctx, from.ID, ledger.AmountPatch(from.Amount.Sub(in.Amount))); err != nil {
		s.deleteEscrow(ctx, escrow.ID)
		s.track(ctx, &rec, history.StatusFailed, "source debit failed")
		return Result{}, fmt.Errorf("debit source wallet: %w", err)
	}

	s.logger.Debug("transfer escrowed", "transfer_id", rec.ID, "escrow", escrow.ID)

	// Converting: only across currencies. From here on both provider
	// rejections and transport faults compensate, because the funds are out
	// of the source with nowhere safe to go.
	amountOut := in.Amount
	if from.Currency != to.Currency {
		conv, err := s.rates.Convert(ctx, in.Amount, from.Currency, to.Currency)
		if err != nil {
			s.compensate(ctx, from, escrow.ID)
			s.track(ctx, &rec, history.StatusCompensated, err.Error())
			var perr *rates.ProviderError
			if errors.As(err, &perr) || errors.Is(err, rates.ErrInvalidAmount) {
				return Result{}, fmt.Errorf("%w: %v", ErrConversionRejected, err)
			}
			return Result{}, fmt.Errorf("convert %s to %s: %w", from.Currency, to.Currency, err)
		}
		converted := conv.Converted.Round(2)
		fee := s.fees.Fee(converted)
		rec.ConvertedAmount = &converted
		rec.Fee = &fee
		amountOut = converted
	}

	// Settling: the escrow debit, destination credit and fee credit are
	// independent writes issued concurrently with fail-fast semantics. A
	// destination credit that already landed before a sibling write failed is
	// not rolled back; the compensated history record keeps that window
	// auditable.
	if !escrow.IsEscrow() {
		s.compensate(ctx, from, escrow.ID)
		s.track(ctx, &rec, history.StatusCompensated, ErrEscrowOwnership.Error())
		return Result{}, ErrEscrowOwnership
	}

	var settledTo wallet.Wallet
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.ledger.UpdateWallet(gctx, escrow.ID, ledger.AmountPatch(escrow.Amount.Sub(in.Amount)))
		return err
	})
	g.Go(func() error {
		var err error
		settledTo, err = s.ledger.UpdateWallet(gctx, to.ID, ledger.AmountPatch(to.Amount.Add(amountOut)))
		return err
	})
	if rec.Fee != nil {
		fee := *rec.Fee
		g.Go(func() error {
			master, err := s.ledger.GetMasterWallet(gctx, to.Currency)
			if err != nil {
				return fmt.Errorf("fetch master wallet: %w", err)
			}
			if _, err := s.ledger.UpdateWallet(gctx, master.ID, ledger.AmountPatch(master.Amount.Add(fee))); err != nil {
				return fmt.Errorf("credit master wallet: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.compensate(ctx, from, escrow.ID)
		s.track(ctx, &rec, history.StatusCompensated, err.Error())
		return Result{}, fmt.Errorf("settle transfer: %w", err)
	}

	// Releasing: the transfer is materially complete once settled. A failed
	// escrow delete is a cleanup defect, logged and never escalated.
	if _, err := s.ledger.DeleteWallet(ctx, escrow.ID); err != nil {
		s.logger.Error("release escrow wallet", "transfer_id", rec.ID, "escrow", escrow.ID, "error", err)
	}

	s.track(ctx, &rec, history.StatusCommitted, "")

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferSettled,
			Destination: to.CompanyID,
			Body:        fmt.Sprintf("Wallet %s received %s %s", to.ID, amountOut.String(), to.Currency),
		})
	}

	return Result{
		TransferID:      rec.ID,
		FromWallet:      from,
		ToWallet:        settledTo,
		Amount:          in.Amount,
		ConvertedAmount: rec.ConvertedAmount,
		Fee:             rec.Fee,
	}, nil
}

// compensate restores the source wallet to its pre-transfer balance and
// deletes the escrow wallet. Both writes are absolute, so running the pair
// twice for the same escrow cannot double-credit the source. Best-effort and
// single-attempt: failures are logged, never escalated past the original
// error.
func (s *Service) compensate(ctx context.Context, from wallet.Wallet, escrowID string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(cctx)
	g.Go(func() error {
		_, err := s.ledger.UpdateWallet(gctx, from.ID, ledger.AmountPatch(from.Amount))
		return err
	})
	g.Go(func() error {
		_, err := s.ledger.DeleteWallet(gctx, escrowID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("compensation failed", "from", from.ID, "escrow", escrowID, "error", err)
	}
}

// deleteEscrow removes an orphaned escrow wallet created before the source
// debit failed. No funds moved, so no balance restore is needed.
func (s *Service) deleteEscrow(ctx context.Context, escrowID string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if _, err := s.ledger.DeleteWallet(cctx, escrowID); err != nil {
		s.logger.Error("delete orphaned escrow wallet", "escrow", escrowID, "error", err)
	}
}

// track moves the history record to a terminal status, logging on failure.
func (s *Service) track(ctx context.Context, rec *history.Record, status, reason string) {
	rec.Status = status
	rec.Reason = reason

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := s.history.Update(cctx, *rec); err != nil {
		s.logger.Error("update transfer record", "transfer_id", rec.ID, "status", status, "error", err)
	}
}
