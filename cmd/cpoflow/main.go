// Command cpoflow accrues care plan oversight minutes for one patient and
// billing month: it measures existing documentation, then generates, dedupes,
// and validates new entries until the billable threshold is met. Dry run by
// default; --commit posts accepted entries to the record system
package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"cpoflow/internal/adapters/azoai"
	"cpoflow/internal/adapters/ehr"
	"cpoflow/internal/modkit"
	"cpoflow/internal/modkit/module"
	"cpoflow/internal/platform/config"
	perr "cpoflow/internal/platform/errors"
	"cpoflow/internal/platform/logger"

	accdom "cpoflow/internal/services/accrual/domain"
	accmod "cpoflow/internal/services/accrual/module"
	auditmod "cpoflow/internal/services/audit/module"
)

var cli struct {
	Version   kong.VersionFlag
	PatientID string   `arg:"" name:"patient-id" help:"Patient identifier (UUID)."`
	Month     []string `arg:"" name:"month" help:"Billing month, e.g. \"June 2025\"."`
	Commit    bool     `help:"POST accepted entries to the record system (default is dry run)."`
	EnvFile   string   `help:"Dotenv file to load before reading config." type:"path" default:".env"`
}

func main() { os.Exit(run()) }

func run() int {
	kong.Parse(&cli,
		kong.Name("cpoflow"),
		kong.Description("Care plan oversight minute accrual for home health patients"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	// dotenv is optional; real env always wins
	if err := godotenv.Load(cli.EnvFile); err != nil && !os.IsNotExist(err) {
		logger.Get().Warn().Err(err).Str("path", cli.EnvFile).Msg("dotenv load failed")
	}

	root := config.New()
	l := logger.Get()

	if err := root.Check(
		"EHR_BASE_URL", "EHR_API_KEY",
		"AOAI_API_KEY", "AOAI_ENDPOINT", "AOAI_DEPLOYMENT", "AOAI_API_VERSION",
	); err != nil {
		l.Error().Err(err).Msg("missing required configuration")
		return perr.ExitCode(err)
	}
	if _, err := uuid.Parse(cli.PatientID); err != nil {
		l.Error().Str("patient_id", cli.PatientID).Msg("patient id is not a UUID")
		return perr.ExitFatal
	}

	runID := uuid.NewString()
	ctx := logger.WithRun(context.Background(), runID, cli.PatientID)
	log := logger.C(ctx)

	ehrCfg := root.Prefix("EHR_")
	records := ehr.NewClient(ehr.Options{
		BaseURL: ehrCfg.MustString("BASE_URL"),
		APIKey:  ehrCfg.MustString("API_KEY"),
		Timeout: ehrCfg.MayDuration("TIMEOUT", 30*time.Second),
	})

	aoaiCfg := root.Prefix("AOAI_")
	backend := azoai.NewClient(azoai.Options{
		Endpoint:   aoaiCfg.MustString("ENDPOINT"),
		APIKey:     aoaiCfg.MustString("API_KEY"),
		Deployment: aoaiCfg.MustString("DEPLOYMENT"),
		APIVersion: aoaiCfg.MustString("API_VERSION"),
		Timeout:    aoaiCfg.MayDuration("TIMEOUT", 60*time.Second),
	})

	deps := modkit.Deps{Cfg: root, Log: *l}

	// Build dependency modules first
	am := auditmod.New(deps)
	recorder := module.MustPortsOf[auditmod.Ports](am).Recorder
	defer func() {
		if err := recorder.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close audit recorder")
		}
	}()

	// Build the accrual module with ports injected
	cm := accmod.New(
		deps,
		accmod.Options{Commit: cli.Commit},
		modkit.WithPorts(accdom.Ports{
			Records: records,
			Backend: backend,
			Audit:   recorder,
		}),
	)

	// Register ports
	module.Register(am.Name(), am.Ports())
	module.Register(cm.Name(), cm.Ports())

	monthLabel := strings.Join(cli.Month, " ")
	log.Info().
		Str("month", monthLabel).
		Bool("commit", cli.Commit).
		Msg("starting accrual run")

	ports := cm.Ports().(accmod.Ports)
	res, err := ports.Runner.Run(ctx, accdom.RunInput{
		RunID:      runID,
		PatientID:  cli.PatientID,
		MonthLabel: monthLabel,
	})
	if err != nil {
		log.Error().Err(err).Msg("accrual run failed")
		return perr.ExitCode(err)
	}

	switch res.Outcome {
	case accdom.OutcomeDone:
		log.Info().
			Int("existing_minutes", res.ExistingMinutes).
			Int("accepted_minutes", res.AcceptedMinutes).
			Int("total_minutes", res.TotalMinutes()).
			Int("accepted_entries", len(res.Accepted)).
			Msg("threshold reached")
		return perr.ExitOK
	case accdom.OutcomeNoCertification:
		log.Warn().Msg("no certification order on file, nothing billable")
		return perr.ExitNoCertification
	default:
		log.Warn().
			Int("total_minutes", res.TotalMinutes()).
			Msg("stopped short of the threshold")
		return perr.ExitExhausted
	}
}
