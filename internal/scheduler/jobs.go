package scheduler

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/allocation"
	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/proposals"
	"github.com/courtsidehq/courtside/internal/wallet"
)

// RegisterCoreJobs wires the recurring jobs: the court-overlap audit, the
// wallet reconciliation sweep and the nightly proposal horizon roll. The
// first two are self-healing backstops; in normal operation they find
// nothing to repair.
func RegisterCoreJobs(cfg *config.Config, guard *allocation.Guard, generator *proposals.Generator, database *db.DB) error {
	if _, err := AddJob("overlap_audit", cfg.Jobs.OverlapAuditCron, func() {
		if _, err := guard.AuditOverlaps(context.Background()); err != nil {
			log.Error().Err(err).Msg("Overlap audit job failed")
		}
	}); err != nil {
		return err
	}

	if _, err := AddJob("wallet_reconciliation", cfg.Jobs.ReconciliationCron, func() {
		if _, err := wallet.ReconcileAll(context.Background(), database); err != nil {
			log.Error().Err(err).Msg("Wallet reconciliation job failed")
		}
	}); err != nil {
		return err
	}

	if _, err := AddJob("proposal_generation", cfg.Jobs.GenerationCron, func() {
		if _, err := generator.RollForward(context.Background()); err != nil {
			log.Error().Err(err).Msg("Proposal generation job failed")
		}
	}); err != nil {
		return err
	}

	return nil
}
