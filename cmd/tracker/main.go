// Package main provides the tracker binary: it consumes combat-log text from
// a capture source, runs it through the combat state machine, prints events,
// and persists hit statistics for later querying.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/retrommo-tools/retrotracker/internal/capture"
	"github.com/retrommo-tools/retrotracker/internal/config"
	"github.com/retrommo-tools/retrotracker/internal/game/player"
	"github.com/retrommo-tools/retrotracker/internal/game/roster"
	"github.com/retrommo-tools/retrotracker/internal/observability"
	"github.com/retrommo-tools/retrotracker/internal/server"
	"github.com/retrommo-tools/retrotracker/internal/storage/postgres"
	"github.com/retrommo-tools/retrotracker/internal/tracker"
)

// playerIDs maps party usernames to stored player ids for the tracker.
type playerIDs map[string]int64

func (p playerIDs) PlayerID(username string) (int64, bool) {
	id, ok := p[username]
	return id, ok
}

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	partyPath := flag.String("party", "configs/party.yaml", "path to party declaration file")
	inputPath := flag.String("input", "-", "capture text source: a file path, or - for stdin")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Connect to PostgreSQL
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	playerRepo := postgres.NewPlayerRepository(pool.DB())
	monsterRepo := postgres.NewMonsterRepository(pool.DB())
	hitRepo := postgres.NewHitRepository(pool.DB())
	encounterRepo := postgres.NewEncounterRepository(pool.DB())

	// Load the party and make sure every member has a stored build.
	members, err := player.LoadParty(*partyPath)
	if err != nil {
		logger.Fatal("loading party", zap.Error(err))
	}

	party := roster.New()
	ids := make(playerIDs, len(members))
	for username, p := range members {
		rec, err := ensurePlayer(ctx, playerRepo, username, p)
		if err != nil {
			logger.Fatal("storing party member", zap.String("username", username), zap.Error(err))
		}
		if err := party.Add(username, rec.Player); err != nil {
			logger.Fatal("building roster", zap.Error(err))
		}
		ids[username] = rec.ID
	}
	logger.Info("party loaded", zap.Strings("members", party.Usernames()))

	// Open an encounter for this session.
	enc, err := encounterRepo.Create(ctx)
	if err != nil {
		logger.Fatal("opening encounter", zap.Error(err))
	}
	for username, id := range ids {
		if err := encounterRepo.AddPlayer(ctx, enc.ID, username, id); err != nil {
			logger.Fatal("attaching party to encounter", zap.Error(err))
		}
	}
	logger.Info("encounter opened",
		zap.Int64("encounter_id", enc.ID),
		zap.Stringer("session", enc.Session),
	)

	// Seed the noun corrector with party usernames and known species.
	recorder := postgres.NewStatsRecorder(hitRepo, monsterRepo, encounterRepo, enc.ID)
	corrector := tracker.NewNounCorrector(cfg.Tracking.MaxEditDistance, logger)
	normalizer := tracker.NewDamageNormalizer(cfg.Tracking.DamageThreshold, logger)
	tr := tracker.New(recorder, party, ids, corrector, normalizer, logger)
	tr.RegisterNouns(party.Usernames()...)
	species, err := monsterRepo.Names(ctx)
	if err != nil {
		logger.Fatal("loading known monsters", zap.Error(err))
	}
	tr.RegisterNouns(species...)

	// Capture pipeline
	input, closeInput, err := openInput(*inputPath)
	if err != nil {
		logger.Fatal("opening capture input", zap.Error(err))
	}
	defer closeInput()

	stream := capture.NewStream(cfg.Capture.MinLineLength)
	poller := capture.NewPoller(capture.NewReaderSource(input), stream, cfg.Capture.PollInterval, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lc := server.NewLifecycle(logger)
	lc.Add("capture", &server.FuncService{
		StartFn: func() error {
			err := poller.Run(runCtx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
		StopFn: cancel,
	})
	lc.Add("tracker", &server.FuncService{
		StartFn: func() error {
			return consume(runCtx, tr, poller.Lines(), encounterRepo, enc.ID, logger)
		},
		StopFn: cancel,
	})
	lc.Add("db-health", &server.FuncService{
		StartFn: func() error {
			return healthLoop(runCtx, pool, logger)
		},
		StopFn: cancel,
	})

	if err := lc.Run(ctx); err != nil {
		logger.Error("session ended with error", zap.Error(err))
	}

	// Close out the encounter and report session rates.
	if err := encounterRepo.Finish(ctx, enc.ID); err != nil {
		logger.Error("finishing encounter", zap.Error(err))
	}
	hours := time.Since(start).Hours()
	if hours > 0 {
		fmt.Printf("exp/hr - %d\n", int(float64(tr.Experience())/hours))
		fmt.Printf("gld/hr - %d\n", int(float64(tr.Gold())/hours))
	}
}

// ensurePlayer loads the stored build for a username, creating it on first
// use. A stored build wins over the party file so historical hit samples
// keep referring to the stats they were rolled under.
func ensurePlayer(ctx context.Context, repo *postgres.PlayerRepository, username string, p *player.Player) (postgres.PlayerRecord, error) {
	rec, err := repo.GetByUsername(ctx, username)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, postgres.ErrPlayerNotFound) {
		return postgres.PlayerRecord{}, err
	}
	return repo.Create(ctx, username, p)
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// consume drains the capture channel through the state machine. Per-line
// failures are logged and the session continues; only channel closure or
// cancellation ends the loop.
func consume(
	ctx context.Context,
	tr *tracker.Tracker,
	lines <-chan string,
	encounters *postgres.EncounterRepository,
	encounterID int64,
	logger *zap.Logger,
) error {
	for line := range lines {
		ev, err := tr.ProcessLine(ctx, line)
		if err != nil {
			logger.Error("processing line", zap.String("line", line), zap.Error(err))
			continue
		}
		if ev == nil {
			continue
		}
		fmt.Println(ev)

		switch ev.(type) {
		case tracker.GoldFound:
			if err := encounters.UpdateGold(ctx, encounterID, tr.Gold()); err != nil {
				logger.Error("updating encounter gold", zap.Error(err))
			}
		case tracker.ExperienceGained:
			if err := encounters.UpdateExp(ctx, encounterID, tr.Experience()); err != nil {
				logger.Error("updating encounter experience", zap.Error(err))
			}
		}
	}
	return nil
}

// healthLoop pings the database every 30 seconds so a dead connection is
// noticed during a session instead of on the next hit insert.
func healthLoop(ctx context.Context, pool *postgres.Pool, logger *zap.Logger) error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := pool.Health(ctx, 5*time.Second); err != nil {
				logger.Warn("database health check failed", zap.Error(err))
			}
		}
	}
}
