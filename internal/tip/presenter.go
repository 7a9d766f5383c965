package tip

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MaratheHarshad/SIH-PROJECT/internal/metrics"
	"github.com/MaratheHarshad/SIH-PROJECT/internal/models"
	"github.com/sirupsen/logrus"
)

// FailureNotice is shown to the user when a feedback write is not confirmed.
const FailureNotice = "Failed To Add A Feedback"

// ErrClosed is returned by submissions started after Close.
var ErrClosed = errors.New("presenter is closed")

// FeedbackWriter is the ledger write path used for feedback submissions
type FeedbackWriter interface {
	SubmitFeedback(ctx context.Context, crimeIDHex, feedback string) error
}

// FeedbackListener is notified after each confirmed append
type FeedbackListener func(models.FeedbackEvent)

// Option configures a Presenter
type Option func(*Presenter)

func WithLogger(logger *logrus.Logger) Option {
	return func(p *Presenter) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMediaGateway overrides the IPFS gateway host suffix.
func WithMediaGateway(gateway string) Option {
	return func(p *Presenter) {
		if gateway != "" {
			p.gateway = gateway
		}
	}
}

func WithFeedbackListener(listener FeedbackListener) Option {
	return func(p *Presenter) {
		p.listener = listener
	}
}

// Presenter owns the display state of one tip record
type Presenter struct {
	record   models.TipRecord
	writer   FeedbackWriter
	logger   *logrus.Logger
	gateway  string
	listener FeedbackListener

	// Derived once in NewPresenter
	vehicle      *VehicleInfo
	suspect      *SuspectInfo
	victim       *VictimInfo
	mediaVisible bool
	date         string
	decodeErrors []string
	warnings     []string

	mu        sync.Mutex
	feedbacks []string
	draft     string
	notice    string
	pending   int
	closed    bool
}

// NewPresenter decodes the optional sections of record and seeds the
// feedback list. The record is copied and never re-read.
func NewPresenter(record models.TipRecord, writer FeedbackWriter, opts ...Option) *Presenter {
	p := &Presenter{
		record:  record.Clone(),
		writer:  writer,
		logger:  logrus.New(),
		gateway: DefaultMediaGateway,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.feedbacks = make([]string, 0, len(p.record.Feedbacks))
	p.feedbacks = append(p.feedbacks, p.record.Feedbacks...)

	if p.record.IsVehiclePresent {
		info := &VehicleInfo{}
		if p.decode(p.record.VehicleInfoAnswers, info) {
			p.vehicle = info
		}
	}
	if p.record.IsSuspectKnown {
		info := &SuspectInfo{}
		if p.decode(p.record.SuspectInfoAnswers, info) {
			p.suspect = info
		}
	}
	if p.record.IsVictimKnown {
		info := &VictimInfo{}
		if p.decode(p.record.VictimInfoAnswers, info) {
			p.victim = info
		}
	}
	p.mediaVisible = len(p.record.FileNames) > 0

	date, err := DisplayDate(p.record.TimeStamp)
	if err != nil {
		p.decodeErrors = append(p.decodeErrors, err.Error())
		p.logger.WithError(err).WithField("timestamp", p.record.TimeStamp.Hex).Warn("Failed to decode tip timestamp")
	}
	p.date = date

	return p
}

func (p *Presenter) decode(answers []string, dst Section) bool {
	warnings, err := decodeSection(answers, dst)
	if err != nil {
		metrics.SectionDecodeTotal.WithLabelValues(dst.Kind(), "error").Inc()
		p.decodeErrors = append(p.decodeErrors, fmt.Sprintf("%s: %v", dst.Kind(), err))
		p.logger.WithError(err).WithFields(logrus.Fields{
			"crime_id": p.record.CrimeID.Hex,
			"section":  dst.Kind(),
		}).Warn("Hiding tip section with undecodable payload")
		return false
	}
	if len(warnings) > 0 {
		metrics.SectionDecodeTotal.WithLabelValues(dst.Kind(), "partial").Inc()
		p.warnings = append(p.warnings, warnings...)
	} else {
		metrics.SectionDecodeTotal.WithLabelValues(dst.Kind(), "ok").Inc()
	}
	return true
}

// SetDraft binds the feedback input value.
func (p *Presenter) SetDraft(text string) {
	p.mu.Lock()
	p.draft = text
	p.mu.Unlock()
}

// Draft returns the current feedback input value.
func (p *Presenter) Draft() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draft
}

// SubmitDraft submits the current draft value.
func (p *Presenter) SubmitDraft(ctx context.Context) error {
	return p.SubmitFeedback(ctx, p.Draft())
}

// SubmitFeedback writes text through the ledger and appends it locally only
// once the write is confirmed. On failure the feedback list and the draft are
// left untouched and FailureNotice is set. Empty text is not rejected.
//
// Calls may overlap; each append lands in its own completion order.
func (p *Presenter) SubmitFeedback(ctx context.Context, text string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.pending++
	p.mu.Unlock()

	crimeID := p.record.CrimeID.Hex
	err := p.writer.SubmitFeedback(ctx, crimeID, text)

	p.mu.Lock()
	p.pending--
	if p.closed {
		p.mu.Unlock()
		p.logger.WithField("crime_id", crimeID).Debug("Presenter closed before feedback write completed; ignoring result")
		if err != nil {
			return fmt.Errorf("submit feedback: %w", err)
		}
		return nil
	}

	if err != nil {
		p.notice = FailureNotice
		p.mu.Unlock()
		metrics.FeedbackSubmitTotal.WithLabelValues("failed").Inc()
		p.logger.WithError(err).WithField("crime_id", crimeID).Warn("Feedback write failed")
		return fmt.Errorf("submit feedback: %w", err)
	}

	p.feedbacks = append(p.feedbacks, text)
	event := models.FeedbackEvent{
		CrimeID: crimeID,
		Index:   len(p.feedbacks) - 1,
		Text:    text,
	}
	p.draft = ""
	p.notice = ""
	listener := p.listener
	p.mu.Unlock()

	metrics.FeedbackSubmitTotal.WithLabelValues("ok").Inc()
	p.logger.WithFields(logrus.Fields{
		"crime_id": crimeID,
		"index":    event.Index,
	}).Info("Feedback appended")

	if listener != nil {
		listener(event)
	}
	return nil
}

// Feedbacks returns a copy of the current feedback list.
func (p *Presenter) Feedbacks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.feedbacks))
	copy(out, p.feedbacks)
	return out
}

// Notice returns the last failure notice, or "" after a successful write.
func (p *Presenter) Notice() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notice
}

// Sections returns the visible optional sections in display order.
func (p *Presenter) Sections() []Section {
	sections := make([]Section, 0, 3)
	if p.suspect != nil {
		sections = append(sections, p.suspect)
	}
	if p.victim != nil {
		sections = append(sections, p.victim)
	}
	if p.vehicle != nil {
		sections = append(sections, p.vehicle)
	}
	return sections
}

// Close unmounts the presenter. Writes still in flight complete on the
// ledger but their results are no longer applied.
func (p *Presenter) Close() error {
	p.mu.Lock()
	p.closed = true
	p.listener = nil
	p.mu.Unlock()
	return nil
}
