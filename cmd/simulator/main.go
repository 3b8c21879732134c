package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/fleetsim/core"
	"github.com/signalsfoundry/fleetsim/internal/config"
	"github.com/signalsfoundry/fleetsim/internal/logging"
	"github.com/signalsfoundry/fleetsim/internal/observability"
	"github.com/signalsfoundry/fleetsim/internal/persistence"
	"github.com/signalsfoundry/fleetsim/internal/replay"
	"github.com/signalsfoundry/fleetsim/internal/sim/action"
	"github.com/signalsfoundry/fleetsim/internal/sim/input"
	"github.com/signalsfoundry/fleetsim/internal/sim/random"
	"github.com/signalsfoundry/fleetsim/internal/sim/session"
	"github.com/signalsfoundry/fleetsim/kb"
	"github.com/signalsfoundry/fleetsim/model"
	"github.com/signalsfoundry/fleetsim/timectrl"
)

type runOptions struct {
	ConfigPath string
	Scenario   string
	ReplayID   string
	Duration   time.Duration
	Frame      time.Duration
	RealTime   bool
	Fast       bool
	Seed       uint
}

type runSummary struct {
	SessionID string
	Scenario  string
	ReplayID  string
	Outcome   session.Outcome
	Units     int64
	Decisions int64
	Digest    uint64
}

func main() {
	var opts runOptions
	flag.StringVar(&opts.ConfigPath, "config", "", "optional YAML config file")
	flag.StringVar(&opts.Scenario, "scenario", "", "scenario file (overrides config)")
	flag.StringVar(&opts.ReplayID, "replay", "", "ID of a stored replay to play back")
	flag.DurationVar(&opts.Duration, "duration", 5*time.Minute, "simulated time limit (0 runs to game over)")
	flag.DurationVar(&opts.Frame, "frame", 16*time.Millisecond, "frame interval")
	flag.BoolVar(&opts.RealTime, "realtime", false, "pace frames with the wall clock instead of back to back")
	flag.BoolVar(&opts.Fast, "fast", false, "fast motion: every frame covers a fixed burst of units")
	flag.UintVar(&opts.Seed, "seed", 0, "random seed (overrides config; 0 keeps the configured seed)")
	results := flag.Int("results", 0, "print the N most recent results and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	if *results > 0 {
		err = listResults(ctx, opts.ConfigPath, *results, os.Stdout)
	} else {
		var sum *runSummary
		if sum, err = run(ctx, opts, os.Stdout); err == nil {
			printSummary(os.Stdout, sum)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulator: %v\n", err)
		os.Exit(1)
	}
}

// run plays one session to game over, the time limit or cancellation and
// stores its replay and result when storage is configured.
func run(ctx context.Context, opts runOptions, stdout io.Writer) (*runSummary, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Scenario != "" {
		cfg.Scenario = opts.Scenario
	}
	if opts.Seed != 0 {
		cfg.Session.Seed = uint32(opts.Seed)
	}

	logCfg := cfg.LoggerSettings()
	logCfg.Output = stdout
	log := logging.New(logCfg)

	shutdown, err := observability.InitTracing(ctx, cfg.TracingSettings(), log,
		observability.WithSpanWriter(os.Stderr),
		observability.WithResourceAttributes(attribute.String("fleetsim.scenario", cfg.Scenario)),
	)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	reg := prometheus.NewRegistry()
	sessionMetrics, err := observability.NewSessionCollector(reg)
	if err != nil {
		return nil, err
	}
	loopMetrics, err := observability.NewLoopCollector(reg)
	if err != nil {
		return nil, err
	}
	if cfg.Metrics.Enabled {
		stopMetrics := serveMetrics(ctx, cfg.Metrics.Addr, sessionMetrics, log)
		defer stopMetrics()
	}

	var store *persistence.DB
	if cfg.Storage.Path != "" {
		if store, err = persistence.Open(cfg.Storage.Path); err != nil {
			return nil, err
		}
		defer store.Close()
	}

	sc, err := core.LoadScenarioFile(cfg.Scenario)
	if err != nil {
		return nil, err
	}
	cat := kb.NewCatalog(sc)
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", cfg.Scenario, err)
	}

	sessOpts := []session.Option{
		session.WithConfig(cfg.SessionSettings()),
		session.WithMotion(core.Kinematics{}),
		session.WithPilot(core.NewPilot()),
		session.WithHelm(core.Helm{}),
		session.WithNotifier(logNotifier{ctx: ctx, log: log}),
		session.WithLogger(log),
		session.WithMetricsRecorder(sessionMetrics),
	}

	var (
		src      input.Source
		recorder *input.Recorder
	)
	if opts.ReplayID != "" {
		if store == nil {
			return nil, errors.New("replay playback needs storage.path")
		}
		data, err := store.LoadReplay(ctx, opts.ReplayID)
		if err != nil {
			return nil, err
		}
		if data.ScenarioID != sc.ID {
			return nil, fmt.Errorf("replay %s was recorded on scenario %d, not %d", opts.ReplayID, data.ScenarioID, sc.ID)
		}
		sessOpts = append(sessOpts, session.WithReplay(data))
	} else {
		seed := cfg.Session.Seed
		if seed == 0 {
			seed = random.NewFromTime(time.Now()).Seed()
		}
		recorder = input.NewRecorder(input.NewLive(patrolKeys()), replay.NewBuilder(sc.ID, seed))
		src = recorder
		sessOpts = append(sessOpts, session.WithSeed(seed))
	}

	sess, err := session.New(cat, src, sessOpts...)
	if err != nil {
		return nil, err
	}
	if opts.Fast {
		sess.SetFastMotion(true)
	}

	mode := timectrl.Accelerated
	if opts.RealTime {
		mode = timectrl.RealTime
	}
	fc := timectrl.NewFrameClock(time.Now(), opts.Frame, mode)
	fc.AddListener(func(now time.Time) bool {
		start := time.Now()
		st := stepFrame(sess, now)
		loopMetrics.ObserveFrame(time.Since(start), st.Units)
		if opts.Fast && !sess.Replaying() {
			loopMetrics.IncFastMotion()
		}
		return st.State != session.StateGameOver
	})

	log.Info(ctx, "session starting",
		logging.String("scenario", sc.Name),
		logging.String("session_id", sess.ID()),
		logging.Any("seed", sess.Seed()),
		logging.Bool("replay", sess.Replaying()),
		logging.String("mode", mode.String()),
	)
	<-fc.Start(ctx, opts.Duration)

	sum := &runSummary{
		SessionID: sess.ID(),
		Scenario:  sc.Name,
		Outcome:   sess.Outcome(),
		Units:     sess.World().Time,
		Decisions: sess.Decisions(),
		Digest:    sess.Digest(),
	}
	if store == nil {
		return sum, nil
	}

	if recorder != nil {
		if sum.ReplayID, err = store.SaveReplay(ctx, recorder.Recording()); err != nil {
			return sum, err
		}
	} else {
		sum.ReplayID = opts.ReplayID
	}
	err = store.SaveResult(ctx, persistence.Result{
		SessionID:  sum.SessionID,
		ReplayID:   sum.ReplayID,
		ScenarioID: sc.ID,
		Outcome:    sum.Outcome.String(),
		Units:      sum.Units,
		Decisions:  sum.Decisions,
		Digest:     sum.Digest,
	})
	return sum, err
}

// stepFrame advances sess to now. A helm pause holds for the one frame it
// was requested on; the session resumes and drops the next frame's time.
func stepFrame(sess *session.Session, now time.Time) session.Status {
	st := sess.Step(now)
	if st.State == session.StatePaused {
		sess.Resume()
	}
	return st
}

func printSummary(w io.Writer, s *runSummary) {
	fmt.Fprintf(w, "scenario=%s outcome=%s units=%d decisions=%d digest=%016x",
		s.Scenario, s.Outcome, s.Units, s.Decisions, s.Digest)
	if s.ReplayID != "" {
		fmt.Fprintf(w, " replay=%s", s.ReplayID)
	}
	fmt.Fprintln(w)
}

func listResults(ctx context.Context, configPath string, n int, w io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Storage.Path == "" {
		return errors.New("listing results needs storage.path")
	}
	store, err := persistence.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.RecentResults(ctx, n)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(w, "%s scenario=%d outcome=%s units=%d decisions=%d digest=%016x replay=%s\n",
			r.CreatedAt.Format(time.RFC3339), r.ScenarioID, r.Outcome, r.Units, r.Decisions, r.Digest, r.ReplayID)
	}
	return nil
}

func serveMetrics(ctx context.Context, addr string, c *observability.SessionCollector, log logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "metrics server failed", logging.Err(err))
		}
	}()
	log.Info(ctx, "metrics listening", logging.String("addr", addr))
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

// patrolKeys flies the player's ship without a keyboard: it keeps
// thrusting, swings right now and then, cycles targets and fires. The
// pattern depends only on the cycle count, so recordings stay reproducible.
func patrolKeys() input.KeyReader {
	cycle := 0
	return input.KeyReaderFunc(func() input.KeyBits {
		cycle++
		keys := input.KeyThrust
		if cycle%20 < 4 {
			keys |= input.KeyRight
		}
		if cycle%8 == 1 {
			keys |= input.KeySelectTarget
		}
		if cycle%5 == 0 {
			keys |= input.KeyPulse
		}
		return keys
	})
}

// logNotifier turns presentation events into log lines.
type logNotifier struct {
	action.NopNotifier
	ctx context.Context
	log logging.Logger
}

func (n logNotifier) DisplayMessage(id, pages int) {
	n.log.Info(n.ctx, "message", logging.Int("id", id), logging.Int("pages", pages))
}

func (n logNotifier) DeclareWinner(admiral, nextLevel int, text string) {
	n.log.Info(n.ctx, "winner declared",
		logging.Int("admiral", admiral),
		logging.Int("next_level", nextLevel),
		logging.String("text", text),
	)
}

func (n logNotifier) PlaySound(id, volume int32, at model.Point, _ bool) {
	n.log.Debug(n.ctx, "sound", logging.Int("id", int(id)), logging.Int("volume", int(volume)), logging.Any("at", at))
}
