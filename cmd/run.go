package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"crewpay/config"
	"crewpay/database"
	"crewpay/events"
	"crewpay/infrastructure"
	"crewpay/infrastructure/observability"
	"crewpay/repository"
	"crewpay/service"

	log "github.com/sirupsen/logrus"
)

const usage = `usage: crewpay <command> [args...]

  migrate up|down [steps]|status
  rules list
  rules quote <position_key> [revenue=N] [duration=N] [manual_total=N] [param=N ...]
  rules seed
  roster show <event_id>
  roster sync <event_id> <role>=<staff_id|-> ...
  payroll create <YYYY-MM-DD|today>
  payroll process <batch_id>
  payroll show <batch_id>
  payroll list [limit]`

// app holds the wired services for one command invocation
type app struct {
	cfg      *config.Config
	db       *database.DB
	bus      *events.Bus
	defaults *config.DefaultPayRates
	cache    *repository.CachedPayRateRuleRepository
	nats     *infrastructure.NATSClient
	metrics  *observability.MetricsProvider
	catalog  *service.RateCatalog
	roster   service.RosterService
	payroll  service.PayrollService
	out      io.Writer
}

// Run initializes the application and executes a single command
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s", usage)
	}

	cfg := config.Get()
	cfg.ConfigureLogging()

	a, err := newApp(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()

	return a.dispatch(ctx, args)
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*app, error) {
	log.WithField("environment", cfg.Environment).Debug("Starting crewpay")

	defaults, err := config.LoadDefaultPayRates(cfg.PayRatesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load default pay rates: %w", err)
	}

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	bus := events.NewBus()
	events.RegisterPayrollAuditLog(bus, log.StandardLogger())

	a := &app{
		cfg:      cfg,
		db:       db,
		bus:      bus,
		defaults: defaults,
		out:      out,
		metrics:  observability.NewMetricsProvider(cfg),
	}

	if err := a.metrics.Initialize(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	a.metrics.RegisterPayrollMetrics(bus)

	if cfg.NATSServers != "" {
		client := infrastructure.NewNATSClient(cfg.NATSServers)
		if err := client.Connect(ctx); err != nil {
			a.close()
			return nil, err
		}
		a.nats = client
		if err := client.EnsurePayrollStream(); err != nil {
			a.close()
			return nil, err
		}
		infrastructure.NewPayrollEventForwarder(client).Register(bus)
	}

	var rules service.PayRateRuleRepository = repository.NewPayRateRuleRepository(db)
	if cfg.RedisAddr != "" {
		client := repository.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		a.cache = repository.NewCachedPayRateRuleRepository(rules, client, cfg.PayRatesCacheTTL)
		rules = a.cache
		log.WithField("addr", cfg.RedisAddr).Debug("Pay rate cache enabled")
	}

	a.catalog = service.NewRateCatalog(rules, defaults)
	a.roster = service.NewRosterService(
		repository.NewAssignmentRepository(db),
		repository.NewStaffRepository(db),
		repository.NewEventRepository(db),
		a.catalog,
	)
	a.payroll = service.NewPayrollService(repository.NewUnitOfWorkFactory(db, bus))

	return a, nil
}

// close waits for event handlers to drain, then releases connections
func (a *app) close() {
	a.bus.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.metrics.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Error shutting down metrics")
	}
	if a.nats != nil {
		if err := a.nats.Close(); err != nil {
			log.WithError(err).Warn("Error closing NATS connection")
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			log.WithError(err).Warn("Error closing redis client")
		}
	}
	a.db.Close()
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	group, rest := args[0], args[1:]
	if len(rest) == 0 {
		return fmt.Errorf("%s", usage)
	}
	command, params := rest[0], rest[1:]

	switch group + " " + command {
	case "rules list":
		return a.listRules(ctx)
	case "rules quote":
		return a.quote(ctx, params)
	case "rules seed":
		return a.seedRules(ctx)
	case "roster show":
		return a.showRoster(ctx, params)
	case "roster sync":
		return a.syncRoster(ctx, params)
	case "payroll create":
		return a.createBatch(ctx, params)
	case "payroll process":
		return a.processBatch(ctx, params)
	case "payroll show":
		return a.showBatch(ctx, params)
	case "payroll list":
		return a.listBatches(ctx, params)
	default:
		return fmt.Errorf("unknown command: %s %s\n\n%s", group, command, usage)
	}
}
