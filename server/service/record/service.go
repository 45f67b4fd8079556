// Package record implements the record use cases: notebook import, quick and
// manual entry, editing, listing with scopes and filters, synthetic samples
// and aggregated reports.
package record

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/poplog/plugin/filter"
	"github.com/hrygo/poplog/plugin/notebook"
	"github.com/hrygo/poplog/plugin/sample"
	"github.com/hrygo/poplog/server/stats"
	"github.com/hrygo/poplog/server/timezone"
	"github.com/hrygo/poplog/store"
)

// Record-specific errors that can be checked with errors.Is.
var (
	// ErrNoTimeFound is returned when a manual line carries no time token.
	ErrNoTimeFound = errors.New("no time found in line")
	// ErrInvalidRequest wraps every request validation failure.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmptyEdit is returned when an edit changes nothing.
	ErrEmptyEdit = errors.New("edit must change time or category")
)

// UID prefixes per origin.
const (
	quickPrefix  = "q-"
	manualPrefix = "m-"
	importPrefix = "imp-"
)

// Store is the interface for store operations needed by the record service.
type Store interface {
	CreateRecord(ctx context.Context, create *store.Record) (*store.Record, error)
	CreateRecords(ctx context.Context, creates []*store.Record) ([]*store.Record, error)
	ListRecords(ctx context.Context, find *store.FindRecord) ([]*store.Record, error)
	GetRecord(ctx context.Context, uid string) (*store.Record, error)
	UpdateRecord(ctx context.Context, update *store.UpdateRecord) error
	DeleteRecord(ctx context.Context, delete *store.DeleteRecord) error
}

type service struct {
	store      Store
	parser     *notebook.Parser
	aggregator *stats.Aggregator
	now        func() time.Time

	// sample.Generator is not safe for concurrent use.
	sampleMu  sync.Mutex
	generator *sample.Generator
}

// NewService creates a record service whose wall clock is timezone.
func NewService(st Store, timezone *time.Location) Service {
	return newService(st, timezone, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), time.Now)
}

func newService(st Store, timezone *time.Location, rnd sample.RandSource, now func() time.Time) *service {
	if timezone == nil {
		timezone = time.Local
	}
	return &service{
		store:      st,
		parser:     notebook.NewParser(timezone),
		aggregator: stats.NewAggregator(timezone),
		now:        now,
		generator:  sample.NewGenerator(rnd, timezone).WithClock(now),
	}
}

func (s *service) location() *time.Location {
	return s.parser.Location()
}

// clock returns t in the service timezone, or the current time when t is zero.
func (s *service) clock(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	return t.In(s.location())
}

func (s *service) Import(ctx context.Context, req *ImportRequest) (*ImportResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	now := s.clock(req.Now)
	lines := notebook.SplitLines(req.Text)
	instants := s.parser.ParseNotebook(req.Text, notebook.DateOf(now))
	result := &ImportResult{
		BatchID: uuid.NewString(),
		Lines:   len(lines),
		Skipped: len(lines) - len(instants),
	}
	creates := make([]*store.Record, 0, len(instants))
	for _, at := range instants {
		creates = append(creates, &store.Record{
			UID:    importPrefix + shortuuid.New(),
			Ts:     at.Unix(),
			Origin: store.OriginImport,
		})
	}
	records, err := s.store.CreateRecords(ctx, creates)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to import batch %s", result.BatchID)
	}
	result.Records = records

	slog.Info("notebook imported",
		slog.String("batch_id", result.BatchID),
		slog.Int("lines", result.Lines),
		slog.Int("records", len(result.Records)),
		slog.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *service) AddQuick(ctx context.Context, req *QuickRequest) (*store.Record, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	at := s.clock(req.Now).Truncate(time.Minute)
	return s.store.CreateRecord(ctx, &store.Record{
		UID:      quickPrefix + shortuuid.New(),
		Ts:       at.Unix(),
		Category: store.Category(req.Category),
		Origin:   store.OriginQuick,
	})
}

func (s *service) AddManual(ctx context.Context, req *ManualRequest) (*store.Record, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	instants := s.parser.ParseNotebook(req.Line, notebook.DateOf(s.clock(req.Now)))
	if len(instants) == 0 {
		return nil, errors.Wrapf(ErrNoTimeFound, "line %q", req.Line)
	}
	return s.store.CreateRecord(ctx, &store.Record{
		UID:      manualPrefix + shortuuid.New(),
		Ts:       instants[0].Unix(),
		Category: store.Category(req.Category),
		Origin:   store.OriginManual,
	})
}

func (s *service) Edit(ctx context.Context, uid string, req *EditRequest) (*store.Record, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Time == "" && req.Category == nil {
		return nil, ErrEmptyEdit
	}

	record, err := s.store.GetRecord(ctx, uid)
	if err != nil {
		return nil, err
	}

	update := &store.UpdateRecord{UID: uid}
	if req.Time != "" {
		hm, err := time.Parse("15:04", req.Time)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidRequest, err.Error())
		}
		ts := notebook.DateOf(record.Time(s.location())).
			At(notebook.TimeOfDay{Hour: hm.Hour(), Minute: hm.Minute()}, s.location()).
			Unix()
		update.Ts = &ts
	}
	if req.Category != nil {
		category := store.Category(*req.Category)
		update.Category = &category
	}
	if err := s.store.UpdateRecord(ctx, update); err != nil {
		return nil, err
	}
	return s.store.GetRecord(ctx, uid)
}

func (s *service) Delete(ctx context.Context, uid string) error {
	return s.store.DeleteRecord(ctx, &store.DeleteRecord{UID: uid})
}

func (s *service) Clear(ctx context.Context) error {
	if err := s.store.DeleteRecord(ctx, &store.DeleteRecord{All: true}); err != nil {
		return err
	}
	slog.Warn("all records cleared")
	return nil
}

func (s *service) List(ctx context.Context, req *ListRequest) ([]*store.Record, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	scope, err := stats.NewScope(req.Scope, s.clock(req.Now))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidRequest, err.Error())
	}

	start, end, err := timezone.DayBounds(req.From, req.To, s.location())
	if err != nil {
		return nil, errors.Wrap(ErrInvalidRequest, err.Error())
	}
	find := &store.FindRecord{}
	if start != nil {
		ts := start.Unix()
		find.StartTs = &ts
	}
	if end != nil {
		ts := end.Unix()
		find.EndTs = &ts
	}
	if req.Origin != "" {
		origin := store.Origin(req.Origin)
		find.Origin = &origin
	}
	records, err := s.store.ListRecords(ctx, find)
	if err != nil {
		return nil, err
	}
	return s.apply(s.aggregator.Filter(records, scope), req.Filter)
}

func (s *service) Sample(kind string) (*sample.Sample, error) {
	k, err := sample.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	s.sampleMu.Lock()
	defer s.sampleMu.Unlock()
	return s.generator.Generate(k)
}

func (s *service) Report(ctx context.Context, req *ReportRequest) (*stats.Report, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	asOf := s.clock(req.AsOf)
	scope, err := stats.NewScope(req.Scope, asOf)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidRequest, err.Error())
	}

	var records []*store.Record
	if req.Sample != "" {
		generated, err := s.Sample(req.Sample)
		if err != nil {
			return nil, err
		}
		records = generated.Records
	} else {
		records, err = s.store.ListRecords(ctx, &store.FindRecord{})
		if err != nil {
			return nil, err
		}
	}

	records, err = s.apply(records, req.Filter)
	if err != nil {
		return nil, err
	}
	return s.aggregator.BuildReport(records, scope, asOf), nil
}

// apply runs the optional filter expression over records.
func (s *service) apply(records []*store.Record, expr string) ([]*store.Record, error) {
	if expr == "" {
		return records, nil
	}
	f, err := filter.Compile(expr)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidRequest, err.Error())
	}
	return f.Apply(records, s.location())
}
