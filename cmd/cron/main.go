package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brightcopy/plan-service/internal/biz"
	"brightcopy/plan-service/internal/conf"
	"brightcopy/plan-service/internal/constants"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	_ "go.uber.org/automaxprocs"
)

var (
	// Name is the name of the compiled software.
	Name string = "plan-cron"
	// Version is the version of the compiled software.
	Version string
	// flagconf is the config flag.
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

// cronApp holds everything the scheduled jobs need.
type cronApp struct {
	Sweeper *biz.SweeperUsecase
	RS      *redsync.Redsync
	Conf    *conf.Bootstrap
	Logger  log.Logger
}

func newCronApp(sweeper *biz.SweeperUsecase, rs *redsync.Redsync, bc *conf.Bootstrap, logger log.Logger) *cronApp {
	return &cronApp{Sweeper: sweeper, RS: rs, Conf: bc, Logger: logger}
}

func newLogger(bc *conf.Bootstrap) log.Logger {
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)
	level := log.LevelInfo
	if bc.Log != nil && bc.Log.Level != "" {
		level = log.ParseLevel(bc.Log.Level)
	}
	return log.NewFilter(logger, log.FilterLevel(level))
}

// runSweep downgrades expired paid plans. The redsync mutex keeps concurrent
// cron instances from sweeping the same rows twice; losing the lock is not an
// error, another instance is already on it.
func (a *cronApp) runSweep() {
	helper := log.NewHelper(a.Logger)
	runID := uuid.NewString()

	mutex := a.RS.NewMutex(constants.SweepLockKey,
		redsync.WithExpiry(constants.SweepLockExpiration),
		redsync.WithTries(constants.SweepLockRetries),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := mutex.LockContext(ctx); err != nil {
		helper.Infof("sweep %s: lock held elsewhere, skipping: %v", runID, err)
		return
	}
	defer func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			helper.Warnf("sweep %s: unlock failed: %v", runID, err)
		}
	}()

	helper.Infof("sweep %s: starting", runID)
	result, err := a.Sweeper.Sweep(ctx)
	if err != nil {
		helper.Errorf("sweep %s: failed: %v", runID, err)
		return
	}
	helper.Infof("sweep %s: done, downgraded=%d failed=%d", runID, result.Downgraded, result.Failed)
}

// runExpiryReminders logs upcoming paid-plan expiries for each configured
// warning window. Delivery is log-only for now; a mail hook can attach here.
func (a *cronApp) runExpiryReminders() {
	helper := log.NewHelper(a.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, days := range a.Conf.WarnDays() {
		notices, err := a.Sweeper.ExpiringWithin(ctx, days)
		if err != nil {
			helper.Errorf("expiry reminders (%dd): %v", days, err)
			continue
		}
		for _, n := range notices {
			helper.Infof("expiry reminder: uid=%s tier=%s expires_at=%s days_left=%d",
				n.UID, n.Tier, n.ExpiresAt.Format(time.RFC3339), n.DaysLeft)
		}
		helper.Infof("expiry reminders (%dd): %d users notified", days, len(notices))
	}
}

func main() {
	flag.Parse()

	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}

	if err := bc.Validate(); err != nil {
		panic(fmt.Sprintf("config validation failed: %v", err))
	}

	logger := newLogger(&bc)
	helper := log.NewHelper(logger)

	app, cleanup, err := wireApp(&bc, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	scheduler := cron.New(cron.WithSeconds())

	// 02:00 daily: downgrade expired paid plans.
	if _, err := scheduler.AddFunc("0 0 2 * * *", app.runSweep); err != nil {
		panic(err)
	}
	// 10:00 daily: remind users whose paid plan is about to lapse.
	if _, err := scheduler.AddFunc("0 0 10 * * *", app.runExpiryReminders); err != nil {
		panic(err)
	}

	scheduler.Start()
	helper.Infof("%s started, %d jobs scheduled", Name, len(scheduler.Entries()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	helper.Info("shutting down")
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		helper.Warn("jobs still running after 5s, exiting anyway")
	}
}
