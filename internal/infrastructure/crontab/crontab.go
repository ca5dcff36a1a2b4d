package crontab

import (
	"context"
	"time"

	"github.com/mileusna/crontab"

	"answerdesk/chat-api/internal/config"
	"answerdesk/chat-api/internal/domain/usage"
	"answerdesk/chat-api/internal/infrastructure/database/repository/ratelimitrepo"
	"answerdesk/chat-api/internal/infrastructure/logger"
	"answerdesk/chat-api/internal/utils/platformerrors"
)

const CronJobTimeout = 10 * time.Minute

// Crontab runs the service's background jobs: config reload every minute,
// rate window purge hourly, and the usage rollup shortly after each UTC
// midnight.
type Crontab struct {
	ctab         *crontab.Crontab
	cfgStore     *config.Store
	usageService *usage.Service
	counters     *ratelimitrepo.CounterGormRepository
}

func NewCrontab(
	cfgStore *config.Store,
	usageService *usage.Service,
	counters *ratelimitrepo.CounterGormRepository,
) *Crontab {
	return &Crontab{
		ctab:         crontab.New(),
		cfgStore:     cfgStore,
		usageService: usageService,
		counters:     counters,
	}
}

func (c *Crontab) Run(ctx context.Context) error {
	log := logger.GetLogger()

	if err := c.ctab.AddJob("* * * * *", func() {
		if _, err := c.cfgStore.Reload(); err != nil {
			log.Error().Err(err).Msg("config reload failed, keeping previous configuration")
		}
	}); err != nil {
		return platformerrors.AsError(platformerrors.LayerInfrastructure, err, "failed to add config reload job")
	}

	if err := c.ctab.AddJob("0 * * * *", func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
		defer cancel()
		purged, err := c.counters.PurgeExpired(jobCtx)
		if err != nil {
			log.Error().Err(err).Msg("rate window purge failed")
			return
		}
		log.Info().Int64("purged", purged).Msg("rate windows purged")
	}); err != nil {
		return platformerrors.AsError(platformerrors.LayerInfrastructure, err, "failed to add rate window purge job")
	}

	// 00:10 UTC: aggregate yesterday once its last usage rows are in.
	if err := c.ctab.AddJob("10 0 * * *", func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
		defer cancel()
		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		if err := c.usageService.RollupDay(jobCtx, yesterday); err != nil {
			log.Error().Err(err).Msg("usage rollup failed")
			return
		}
		log.Info().Str("day", yesterday.Format("2006-01-02")).Msg("usage rollup completed")
	}); err != nil {
		return platformerrors.AsError(platformerrors.LayerInfrastructure, err, "failed to add usage rollup job")
	}

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}
