package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/mortgage"
	"github.com/rently/rently-api/internal/domain/repository"
	"github.com/rently/rently-api/pkg/logger"
)

// MortgagePostingJob posts the current month's mortgage interest as a Cost
// ledger row per running mortgage line. The third-party reference
// mortgage_id:<id>-period:<month>-<year> makes the posting idempotent: running
// the job twice in one month creates exactly one row per line.
type MortgagePostingJob struct {
	lines   repository.MortgageLineRepository
	ledgers repository.LedgerRepository
	log     *logger.Logger
	now     func() time.Time
}

// NewMortgagePostingJob builds the job. now is injectable for tests.
func NewMortgagePostingJob(lines repository.MortgageLineRepository, ledgers repository.LedgerRepository, log *logger.Logger, now func() time.Time) *MortgagePostingJob {
	if now == nil {
		now = time.Now
	}
	return &MortgagePostingJob{lines: lines, ledgers: ledgers, log: log, now: now}
}

// Run posts interest for every mortgage line whose window contains now.
// Per-line failures are logged and do not abort the job.
func (j *MortgagePostingJob) Run(ctx context.Context) error {
	now := j.now()
	lines, err := j.lines.ListRunning(ctx, now)
	if err != nil {
		return fmt.Errorf("list running mortgage lines: %w", err)
	}

	j.log.Info().Int("lines", len(lines)).Msg("mortgage interest posting started")

	for _, line := range lines {
		if err := j.postLine(ctx, line, now); err != nil {
			j.log.Error().Err(err).Str("mortgage_line_id", line.ID).Msg("mortgage posting failed, continuing")
		}
	}

	j.log.Info().Msg("mortgage interest posting finished")
	return nil
}

func (j *MortgagePostingJob) postLine(ctx context.Context, line *entity.MortgageLine, now time.Time) error {
	ref := entity.MortgageReference(line.ID, now)

	existing, err := j.ledgers.GetByThirdPartyReference(ctx, ref)
	if err != nil {
		return fmt.Errorf("idempotency lookup %s: %w", ref, err)
	}
	if existing != nil {
		return nil // already posted this period
	}

	sched := mortgage.ScheduleFor(line.Type, line.Amount, line.InterestRate, line.StartDate, line.EndDate, now)

	ledger := &entity.Ledger{
		ID:                  uuid.New().String(),
		TenantID:            line.TenantID,
		PropertyID:          line.PropertyID,
		Kind:                entity.LedgerKindCost,
		Duration:            entity.LedgerDurationPeriodicKnown,
		Description:         fmt.Sprintf("Mortgage interest part %d - %s", line.Part, now.Format("January 2006")),
		Amount:              sched.InterestPayment,
		ThirdPartyReference: ref,
		MortgageType:        line.Type,
		Date:                now,
		CreatedAt:           now,
	}
	if err := j.ledgers.Create(ctx, ledger); err != nil {
		return fmt.Errorf("create ledger posting: %w", err)
	}

	j.log.Info().
		Str("mortgage_line_id", line.ID).
		Str("reference", ref).
		Str("interest", sched.InterestPayment.String()).
		Msg("mortgage interest posted")
	return nil
}
