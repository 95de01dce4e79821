package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/knxgraph-core/internal/commissioning/etsimport"
	"github.com/nerrad567/knxgraph-core/internal/commissioning/history"
	"github.com/nerrad567/knxgraph-core/internal/commissioning/topograph"
	"github.com/nerrad567/knxgraph-core/internal/knx"
)

// StyleFromProject selects the group address style declared in the project.
const StyleFromProject = "project"

// Request is one import.
type Request struct {
	Filename string
	Data     []byte
	Password string

	// Language overrides Config.DefaultLanguage when set.
	Language string

	// Style is "three_level", "two_level", "free" or StyleFromProject.
	// Empty uses Config.DefaultStyle.
	Style string
}

// Result is a successful import.
type Result struct {
	RunID    string
	Project  *etsimport.Project
	Graphs   topograph.ProjectGraphs
	Duration time.Duration
}

// Publisher announces finished imports.
type Publisher interface {
	PublishImport(ctx context.Context, ev Event) error
}

// Recorder stores import metrics.
type Recorder interface {
	RecordImport(ctx context.Context, ev Event) error
}

// Config wires a Service. Nil sinks are skipped.
type Config struct {
	Limits          Limits
	DefaultLanguage string
	DefaultStyle    string

	Repository history.Repository
	Publisher  Publisher
	Recorder   Recorder
	Logger     *slog.Logger
}

// Service runs imports. It holds no per-import state and is safe for
// concurrent use when its sinks are.
type Service struct {
	cfg    Config
	logger *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a Service.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg.Limits = cfg.Limits.withDefaults()
	return &Service{
		cfg:    cfg,
		logger: logger.With("component", "pipeline"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Import validates and parses req, derives the graphs and reports the
// outcome to the configured sinks. Failed imports are reported too.
func (s *Service) Import(ctx context.Context, req Request) (*Result, error) {
	started := s.now()
	runID := s.newID()
	log := s.logger.With("run_id", runID, "filename", req.Filename)

	ev := Event{
		RunID:        runID,
		Filename:     req.Filename,
		ArchiveBytes: int64(len(req.Data)),
		Language:     s.language(req),
	}

	project, err := s.parse(ctx, req)
	ev.DurationMS = s.now().Sub(started).Milliseconds()
	ev.Timestamp = s.now().UTC()

	if err != nil {
		ev.Status = history.StatusFailed
		ev.ErrorCode = ErrorCode(err)
		ev.ErrorMessage = err.Error()
		log.Warn("import failed", "code", ev.ErrorCode, "error", err)
		s.report(ctx, log, ev, req.Data, started)
		return nil, err
	}

	graphs := topograph.BuildProjectGraphs(project)

	ev.Status = history.StatusSucceeded
	ev.ProjectName = project.ProjectName
	ev.GroupAddressStyle = project.GroupAddressStyle
	ev.Statistics = project.Statistics
	log.Info("import succeeded",
		"project", project.ProjectName,
		"devices", project.Statistics.Devices,
		"group_addresses", project.Statistics.GroupAddresses,
		"warnings", project.Statistics.Warnings,
		"duration_ms", ev.DurationMS,
	)
	s.report(ctx, log, ev, req.Data, started)

	return &Result{
		RunID:    runID,
		Project:  project,
		Graphs:   graphs,
		Duration: time.Duration(ev.DurationMS) * time.Millisecond,
	}, nil
}

func (s *Service) parse(ctx context.Context, req Request) (*etsimport.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateUpload(req.Filename, req.Data, s.cfg.Limits); err != nil {
		return nil, err
	}

	opts := etsimport.Options{
		Password: req.Password,
		Language: s.language(req),
		Logger:   s.logger,
	}
	style := req.Style
	if style == "" {
		style = s.cfg.DefaultStyle
	}
	if strings.EqualFold(style, StyleFromProject) {
		opts.StyleFromProject = true
	} else {
		opts.GroupAddressStyle = knx.ParseGroupAddressStyle(style)
	}

	project, err := etsimport.Parse(req.Data, opts)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", req.Filename, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *Service) language(req Request) string {
	if req.Language != "" {
		return req.Language
	}
	return s.cfg.DefaultLanguage
}

// report hands ev to every configured sink. Sink failures are logged only.
func (s *Service) report(ctx context.Context, log *slog.Logger, ev Event, data []byte, started time.Time) {
	if s.cfg.Repository != nil {
		sum := sha256.Sum256(data)
		run := &history.Run{
			ID:                ev.RunID,
			Filename:          ev.Filename,
			ArchiveSHA256:     hex.EncodeToString(sum[:]),
			ArchiveBytes:      ev.ArchiveBytes,
			Status:            ev.Status,
			ErrorCode:         ev.ErrorCode,
			ErrorMessage:      ev.ErrorMessage,
			ProjectName:       ev.ProjectName,
			GroupAddressStyle: ev.GroupAddressStyle,
			Language:          ev.Language,
			Statistics:        ev.Statistics,
			Duration:          time.Duration(ev.DurationMS) * time.Millisecond,
			StartedAt:         started.UTC(),
			FinishedAt:        ev.Timestamp,
		}
		if err := s.cfg.Repository.Create(ctx, run); err != nil {
			log.Warn("recording import run failed", "error", err)
		}
	}
	if s.cfg.Publisher != nil {
		if err := s.cfg.Publisher.PublishImport(ctx, ev); err != nil {
			log.Warn("publishing import event failed", "error", err)
		}
	}
	if s.cfg.Recorder != nil {
		if err := s.cfg.Recorder.RecordImport(ctx, ev); err != nil {
			log.Warn("writing import metrics failed", "error", err)
		}
	}
}
