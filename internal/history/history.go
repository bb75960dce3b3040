package history

import (
	"context"
	"time"

	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/logger"
	"codeberg.org/mutker/vupdated/internal/sensor"
	"codeberg.org/mutker/vupdated/internal/vu"
)

type service struct {
	repo Repository
	cfg  Config
}

// No-op implementation
type noopRecorder struct{}

// NewService returns a Recorder backed by SQLite, or a no-op Recorder when
// history is disabled.
func NewService(cfg Config) (Recorder, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		logger.Debug().Msg("Value history disabled, using no-op recorder")
		return &noopRecorder{}, nil
	}

	repo, err := NewRepository(cfg, logger.With("history"))
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to create history repository")
		return nil, err
	}

	logger.Debug().
		Str("db_path", cfg.DBPath).
		Int("batch_size", cfg.BatchSize).
		Dur("flush_interval", cfg.FlushInterval).
		Msg("History service initialized successfully")

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

func (s *service) Record(ctx context.Context, sample Sample) error {
	errFactory := errors.New()

	if sample.Dial == "" || sample.Value < 0 || sample.Value > 100 {
		return errFactory.WithData(ErrInvalidSample, sample)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(errors.ErrTimeout, ctx.Err())
	default:
	}

	return s.repo.Record(sample)
}

func (s *service) Latest(ctx context.Context) (map[string]Sample, error) {
	return s.repo.Latest(ctx)
}

func (s *service) Close() error {
	return s.repo.Close()
}

func (*noopRecorder) Record(context.Context, Sample) error {
	return nil
}

func (*noopRecorder) Latest(context.Context) (map[string]Sample, error) {
	return map[string]Sample{}, nil
}

func (*noopRecorder) Close() error {
	return nil
}

// Observer records every value a dial manager pushes.
type Observer struct {
	rec Recorder
	log logger.Logger
}

func NewObserver(rec Recorder) *Observer {
	return &Observer{rec: rec, log: logger.With("history")}
}

func (o *Observer) ValuePushed(name string, metric sensor.Metric, value vu.Percent, at time.Time) {
	err := o.rec.Record(context.Background(), Sample{
		Timestamp: at,
		Dial:      name,
		Metric:    metric.String(),
		Value:     value.Value(),
	})
	if err != nil {
		o.log.Warn().Err(err).Str("dial", name).Msg("Failed to record dial value")
	}
}

func (*Observer) SensorFailed(string, sensor.Metric, error) {}
func (*Observer) Retried(string, string, error)             {}
func (*Observer) Paused(string, bool)                       {}
