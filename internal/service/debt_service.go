package service

import (
	"context"
	"time"

	"backend/internal/costing"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/shopspring/decimal"
)

// DTOs

type PayDebtRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate *time.Time      `json:"payment_date"`
	Note        string          `json:"note"`
	UserID      string          `json:"user_id"`
}

type DebtPaymentResponse struct {
	Debt    *model.Debt        `json:"debt"`
	Payment *model.DebtPayment `json:"payment"`
}

type DebtService interface {
	Pay(ctx context.Context, userID, debtID string, req PayDebtRequest) (*DebtPaymentResponse, error)
	GetByID(ctx context.Context, id string) (*model.Debt, error)
	List(ctx context.Context, page, limit int, status string) ([]model.Debt, int64, error)
}

type debtService struct {
	debts     repository.DebtRepository
	sales     repository.SaleRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewDebtService(
	debts repository.DebtRepository,
	sales repository.SaleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) DebtService {
	return &debtService{
		debts:     debts,
		sales:     sales,
		auditRepo: auditRepo,
		txManager: txManager,
	}
}

// Pay appends a payment and decrements the remaining balance. The debt row is
// locked so two concurrent payments cannot both read the same remainder.
func (s *debtService) Pay(ctx context.Context, userID, debtID string, req PayDebtRequest) (*DebtPaymentResponse, error) {
	id, err := parseUUID("id", debtID)
	if err != nil {
		return nil, err
	}
	uid, err := parseOptionalUUID("user_id", firstNonEmpty(req.UserID, userID))
	if err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.New(apperror.KindBusinessRule, "payment amount must be greater than zero")
	}

	paymentDate := time.Now()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}

	var resp *DebtPaymentResponse

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		debt, findErr := s.debts.FindByIDForUpdate(txCtx, id)
		if findErr != nil {
			return notFoundOr(findErr, "debt not found")
		}

		switch debt.Status {
		case model.DebtStatusCancelled:
			return apperror.Conflict("debt has been cancelled")
		case model.DebtStatusPaid:
			return apperror.Conflict("debt is already settled")
		}

		amount := costing.RoundMoney(req.Amount)
		if amount.GreaterThan(debt.RemainingAmount) {
			return apperror.Newf(apperror.KindBusinessRule,
				"payment %s exceeds remaining balance %s", amount, debt.RemainingAmount)
		}

		payment := &model.DebtPayment{
			DebtID:      debt.ID,
			Amount:      amount,
			PaymentDate: paymentDate,
			Note:        req.Note,
			UserID:      uid,
		}
		if createErr := s.debts.CreatePayment(txCtx, payment); createErr != nil {
			return apperror.Wrap(createErr, apperror.KindInternal, "failed to record payment")
		}

		debt.RemainingAmount = costing.RoundMoney(debt.RemainingAmount.Sub(amount))
		if debt.RemainingAmount.LessThanOrEqual(decimal.Zero) {
			debt.Status = model.DebtStatusPaid
		} else {
			debt.Status = model.DebtStatusPartial
		}
		if updateErr := s.debts.Update(txCtx, debt); updateErr != nil {
			return apperror.Wrap(updateErr, apperror.KindInternal, "failed to update debt")
		}

		// Full settlement completes the sale in the same transaction.
		if debt.Status == model.DebtStatusPaid {
			if statusErr := s.sales.UpdateStatus(txCtx, debt.SaleID, model.SaleStatusCompleted); statusErr != nil {
				return apperror.Wrap(statusErr, apperror.KindInternal, "failed to complete sale")
			}
		} else {
			if statusErr := s.sales.UpdateStatus(txCtx, debt.SaleID, model.SaleStatusPartial); statusErr != nil {
				return apperror.Wrap(statusErr, apperror.KindInternal, "failed to update sale status")
			}
		}

		if auditErr := writeAudit(txCtx, s.auditRepo, uid, model.ActionPayDebt, debt.ID.String(), debt.SaleID.String(), map[string]interface{}{
			"amount":    amount.String(),
			"remaining": debt.RemainingAmount.String(),
			"status":    debt.Status,
		}); auditErr != nil {
			return apperror.Wrap(auditErr, apperror.KindInternal, "failed to write audit log")
		}

		resp = &DebtPaymentResponse{Debt: debt, Payment: payment}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *debtService) GetByID(ctx context.Context, id string) (*model.Debt, error) {
	debtID, err := parseUUID("id", id)
	if err != nil {
		return nil, err
	}
	debt, err := s.debts.FindByID(ctx, debtID)
	if err != nil {
		return nil, notFoundOr(err, "debt not found")
	}
	return debt, nil
}

func (s *debtService) List(ctx context.Context, page, limit int, status string) ([]model.Debt, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	debts, total, err := s.debts.List(ctx, page, limit, status)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.KindInternal, "failed to list debts")
	}
	return debts, total, nil
}
