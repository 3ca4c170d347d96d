package main

import (
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edugrade/codegrader/internal/config"
	"github.com/edugrade/codegrader/internal/database"
	"github.com/edugrade/codegrader/internal/sink"
	"github.com/edugrade/codegrader/pkg/ai"
	dockerexec "github.com/edugrade/codegrader/pkg/docker"
)

// dependencies bundles the engine's external collaborators assembled from
// configuration. Missing collaborators stay nil; the pipeline degrades the
// affected criteria instead of failing.
type dependencies struct {
	judgment ai.Client
	executor dockerexec.Executor
	sink     sink.Sink

	dockerExecutor *dockerexec.DockerExecutor
	natsConn       *nats.Conn
	redisClient    *redis.Client
}

func buildDependencies(cfg config.Config, logger zerolog.Logger, modelOverride string) (*dependencies, error) {
	deps := &dependencies{}

	if cfg.OpenAIAPIKey != "" {
		models := cfg.JudgmentModels
		if len(models) == 0 {
			models = ai.DefaultModelChain
		}
		if modelOverride != "" {
			models = append([]string{modelOverride}, models...)
		}

		client, err := ai.NewOpenAIClient(ai.OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Models:     models,
			Timeout:    cfg.JudgmentTimeout,
			MaxRetries: cfg.JudgmentMaxRetries,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		deps.judgment = client

		if cfg.RedisURL != "" {
			redisClient, err := database.ConnectRedis(cfg.RedisURL)
			if err != nil {
				logger.Warn().Err(err).Msg("judgment cache unavailable, continuing without it")
			} else {
				deps.redisClient = redisClient
				deps.judgment = ai.NewCachedClient(client, redisClient, cfg.JudgmentCacheTTL, logger)
			}
		}
	} else {
		logger.Warn().Msg("no judgment api key configured, ai_review criteria will degrade")
	}

	executor, err := dockerexec.NewDockerExecutor(dockerexec.Config{
		Host:          cfg.DockerHost,
		Timeout:       cfg.ExecutionTimeout,
		MemoryLimitMB: int64(cfg.SandboxMemoryMB),
		CPUShares:     int64(cfg.SandboxCPUShares),
		Logger:        logger,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("sandbox unavailable, output_match criteria will degrade")
	} else {
		deps.dockerExecutor = executor
		deps.executor = executor
	}

	deps.sink = buildSink(cfg, logger, deps)

	return deps, nil
}

// buildSink assembles the configured report sinks. With nothing configured
// the report summary still lands in the structured log.
func buildSink(cfg config.Config, logger zerolog.Logger, deps *dependencies) sink.Sink {
	var sinks []sink.Sink

	switch {
	case cfg.DatabaseURL != "":
		db, err := database.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			logger.Error().Err(err).Msg("report store unavailable")
			break
		}
		store, err := sink.NewStoreSink(db, logger)
		if err != nil {
			logger.Error().Err(err).Msg("report store migration failed")
			break
		}
		sinks = append(sinks, store)
	case cfg.SQLitePath != "":
		db, err := database.ConnectSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Error().Err(err).Msg("report store unavailable")
			break
		}
		store, err := sink.NewStoreSink(db, logger)
		if err != nil {
			logger.Error().Err(err).Msg("report store migration failed")
			break
		}
		sinks = append(sinks, store)
	}

	if cfg.NATSURL != "" {
		conn, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Error().Err(err).Msg("grade event publisher unavailable")
		} else {
			deps.natsConn = conn
			sinks = append(sinks, sink.NewNATSSink(conn, cfg.NATSSubject, logger))
		}
	}

	if cfg.TrackerAPIKey != "" {
		sinks = append(sinks, sink.NewTrackerSink(sink.TrackerConfig{
			BaseURL:            cfg.TrackerBaseURL,
			APIKey:             cfg.TrackerAPIKey,
			GradesDatabaseID:   cfg.TrackerGradesDB,
			StudentsDatabaseID: cfg.TrackerStudentsDB,
			GradeTopicID:       cfg.TrackerGradeTopicID,
			NotesTemplate:      cfg.TrackerNotesTemplate,
		}, logger))
	}

	switch len(sinks) {
	case 0:
		return sink.NewLogSink(logger)
	case 1:
		return sinks[0]
	default:
		return sink.NewMultiSink(logger, sinks...)
	}
}

func (d *dependencies) close(logger zerolog.Logger) {
	if d.dockerExecutor != nil {
		if err := d.dockerExecutor.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close sandbox executor")
		}
	}
	if d.natsConn != nil {
		d.natsConn.Close()
	}
	if d.redisClient != nil {
		if err := d.redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close redis client")
		}
	}
}
