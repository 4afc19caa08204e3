package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/repository"
	"github.com/rently/rently-api/pkg/logger"
)

// Orchestrator decides, per agreement, whether a billing attempt is due,
// created or retried, and routes the attempt to one of the three payment
// channels. It also implements BillingTrigger for the post-commit fast path.
type Orchestrator struct {
	tx         BillingTxRunner
	agreements repository.AgreementRepository
	finances   repository.FinanceRepository
	tenants    repository.TenantRepository
	renters    repository.RenterRepository
	properties repository.PropertyRepository

	manual  Channel
	opp     Channel
	invoice Channel

	log *logger.Logger
	now func() time.Time
}

// NewOrchestrator wires the orchestrator. now is injectable for tests; pass
// nil for the wall clock.
func NewOrchestrator(
	tx BillingTxRunner,
	agreements repository.AgreementRepository,
	finances repository.FinanceRepository,
	tenants repository.TenantRepository,
	renters repository.RenterRepository,
	properties repository.PropertyRepository,
	manual, opp, invoice Channel,
	log *logger.Logger,
	now func() time.Time,
) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		tx:         tx,
		agreements: agreements,
		finances:   finances,
		tenants:    tenants,
		renters:    renters,
		properties: properties,
		manual:     manual,
		opp:        opp,
		invoice:    invoice,
		log:        log,
		now:        now,
	}
}

// ProcessAllAgreements runs the daily billing batch for consumer tenants.
func (o *Orchestrator) ProcessAllAgreements(ctx context.Context) error {
	return o.processBatch(ctx, entity.TenantKindConsumer)
}

// ProcessAllBusinessAgreements runs the daily billing batch for business
// tenants, keyed off the same per-agreement function.
func (o *Orchestrator) ProcessAllBusinessAgreements(ctx context.Context) error {
	return o.processBatch(ctx, entity.TenantKindBusiness)
}

// processBatch iterates active agreements of one tenant kind sequentially. A
// failing agreement is logged and never aborts the batch.
func (o *Orchestrator) processBatch(ctx context.Context, tenantKind string) error {
	agreements, err := o.agreements.ListActiveByTenantKind(ctx, tenantKind)
	if err != nil {
		return fmt.Errorf("list active agreements (%s): %w", tenantKind, err)
	}

	o.log.Info().Str("tenant_kind", tenantKind).Int("agreements", len(agreements)).Msg("billing batch started")

	for _, ag := range agreements {
		if err := o.processOne(ctx, ag); err != nil {
			o.log.Error().Err(err).
				Str("agreement_id", ag.ID).
				Str("tenant_id", ag.TenantID).
				Msg("billing attempt failed, continuing batch")
		}
	}

	o.log.Info().Str("tenant_kind", tenantKind).Msg("billing batch finished")
	return nil
}

// processOne loads the agreement's graph and delegates to
// ProcessPaymentForAgreement.
func (o *Orchestrator) processOne(ctx context.Context, ag *entity.Agreement) error {
	tenant, err := o.tenants.GetByID(ctx, ag.TenantID)
	if err != nil || tenant == nil {
		return fmt.Errorf("load tenant %s: %w", ag.TenantID, err)
	}
	renter, err := o.renters.GetByID(ctx, ag.PrimaryRenterID)
	if err != nil || renter == nil {
		return fmt.Errorf("load renter %s: %w", ag.PrimaryRenterID, err)
	}
	property, err := o.properties.GetByID(ctx, ag.PropertyID)
	if err != nil || property == nil {
		return fmt.Errorf("load property %s: %w", ag.PropertyID, err)
	}
	return o.ProcessPaymentForAgreement(ctx, tenant, renter, property, ag)
}

// ProcessPaymentForAgreement runs one billing attempt for one agreement:
//
//  1. deposit-once lookup,
//  2. tax-inclusive amount,
//  3. per-month idempotency check and create-or-reuse inside one transaction,
//  4. channel readiness gate (surfaces configuration problems every day),
//  5. payment-day gate,
//  6. dispatch and status write-back.
//
// The readiness gate runs before the day gate on purpose: readiness failures
// surface daily while nothing is re-sent on wrong days.
func (o *Orchestrator) ProcessPaymentForAgreement(
	ctx context.Context,
	tenant *entity.Tenant,
	renter *entity.Renter,
	property *entity.Property,
	ag *entity.Agreement,
) error {
	now := o.now()

	prior, err := o.finances.LatestForAgreement(ctx, ag.ID, ag.PropertyID)
	if err != nil {
		return fmt.Errorf("lookup prior finance: %w", err)
	}
	includeDeposit := prior == nil
	amount := ag.BillableAmount(includeDeposit)

	var fin *entity.Finance
	blocked := false
	err = o.tx.RunFinance(ctx, func(financeRepo repository.FinanceRepository) error {
		existing, err := financeRepo.ForMonth(ctx, ag.ID, now)
		if err != nil {
			return err
		}
		if existing != nil {
			if !existing.Status.Retryable() {
				blocked = true
				return nil
			}
			fin = existing
			return nil
		}

		fin = &entity.Finance{
			ID:          uuid.New().String(),
			TenantID:    ag.TenantID,
			PropertyID:  ag.PropertyID,
			RenterID:    ag.PrimaryRenterID,
			AgreementID: ag.ID,
			Amount:      amount,
			Status:      initialStatus(ag),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		fin.SnapshotItems(ag.BillableItems(includeDeposit))
		return financeRepo.Create(ctx, fin)
	})
	if err != nil {
		return fmt.Errorf("create-or-reuse finance: %w", err)
	}
	if blocked {
		o.log.Debug().Str("agreement_id", ag.ID).Msg("finance record for this month is not retryable, skipping")
		return nil
	}

	d := &Dispatch{Tenant: tenant, Renter: renter, Property: property, Agreement: ag, Finance: fin}
	channel := o.channelFor(tenant, ag)

	if blockStatus, ok := channel.Ready(ctx, d); !ok {
		fin.Status = blockStatus
		fin.UpdatedAt = now
		if err := o.finances.Update(ctx, fin); err != nil {
			return fmt.Errorf("persist blocked status: %w", err)
		}
		o.log.Warn().
			Str("agreement_id", ag.ID).
			Str("channel", channel.Name()).
			Str("status", string(blockStatus)).
			Msg("channel not ready, attempt deferred to a later day")
		return nil
	}

	// Readiness passed; dispatch only on the agreement's billing day.
	if ag.PaymentDayOfMonth != now.Day() {
		return nil
	}

	res, err := channel.Dispatch(ctx, d)
	if err != nil {
		fin.Status = entity.StatusFailedToSent
		fin.UpdatedAt = now
		if uerr := o.finances.Update(ctx, fin); uerr != nil {
			return fmt.Errorf("persist failed dispatch: %v (dispatch error: %w)", uerr, err)
		}
		o.log.Error().Err(err).
			Str("agreement_id", ag.ID).
			Str("channel", channel.Name()).
			Msg("dispatch failed, will retry on the next scheduled run")
		return nil
	}

	fin.Status = res.Status
	fin.PaymentMethod = res.PaymentMethod
	fin.TransactionID = res.TransactionID
	fin.PaymentURL = res.PaymentURL
	fin.ExactInvoiceID = res.ExactInvoiceID
	fin.ExactInvoiceNumber = res.ExactInvoiceNumber
	fin.UpdatedAt = now
	if err := o.finances.Update(ctx, fin); err != nil {
		return fmt.Errorf("persist dispatch result: %w", err)
	}

	o.log.Info().
		Str("agreement_id", ag.ID).
		Str("finance_id", fin.ID).
		Str("channel", channel.Name()).
		Str("status", string(fin.Status)).
		Msg("billing attempt dispatched")
	return nil
}

// initialStatus is the creation status of a fresh finance record: automatic
// agreements are planned for dispatch, manual ones await their payment-request
// email.
func initialStatus(ag *entity.Agreement) entity.FinanceStatus {
	if ag.PaymentMethod == entity.PaymentMethodAutomatic {
		return entity.StatusPlannedForSent
	}
	return entity.StatusManual
}

// channelFor selects the dispatch strategy: automatic + consumer goes through
// the payment provider, automatic + business through the accounting invoice,
// everything else through the manual email.
func (o *Orchestrator) channelFor(tenant *entity.Tenant, ag *entity.Agreement) Channel {
	if ag.PaymentMethod == entity.PaymentMethodAutomatic {
		if tenant.IsBusiness() {
			return o.invoice
		}
		return o.opp
	}
	return o.manual
}

// AgreementCreated is the post-commit fast path: re-fetch the agreement with
// its items and bill it immediately, so an agreement created on its own
// billing day does not wait for the next sweep. A zero-item agreement is a
// no-op.
func (o *Orchestrator) AgreementCreated(ctx context.Context, agreementID string) {
	ag, err := o.agreements.GetByID(ctx, agreementID)
	if err != nil || ag == nil {
		o.log.Error().Err(err).Str("agreement_id", agreementID).Msg("fast path: agreement not loadable")
		return
	}
	if len(ag.Items) == 0 {
		o.log.Warn().Str("agreement_id", agreementID).Msg("fast path: agreement has no line items, skipping")
		return
	}
	if err := o.processOne(ctx, ag); err != nil {
		o.log.Error().Err(err).Str("agreement_id", agreementID).Msg("fast path billing failed")
	}
}

var _ BillingTrigger = (*Orchestrator)(nil)
