package analyses

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/sirupsen/logrus"

	domain "github.com/bryanwahyu/pcap-insight/internal/domain/analyses"
	"github.com/bryanwahyu/pcap-insight/internal/logger"
	"github.com/bryanwahyu/pcap-insight/internal/metrics"
)

const reportMessage = "PDF report generation is not available yet"

// Service implements use-cases untuk Analysis.
// Service holds no state of its own and is safe for concurrent use.
type Service struct {
	Repo      domain.Repository
	Generator domain.Generator
	// Captures is optional; nil disables archiving of uploaded files.
	Captures domain.CaptureStore
}

// Command untuk analyze satu capture
type AnalyzeCommand struct {
	Filename string
	Filesize int64
	// Capture is the uploaded content, read only for archiving.
	Capture io.Reader
}

// Analyze runs the classifier on the capture and stores the result.
// Cancellation of ctx does not abort the work: a client that disconnects
// mid-analysis still gets its record stored.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (*domain.Analysis, error) {
	ctx = context.WithoutCancel(ctx)

	res, err := s.Generator.Generate(ctx, cmd.Filename, cmd.Filesize)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", cmd.Filename, err)
	}

	draft := domain.Draft{Filename: cmd.Filename, Filesize: cmd.Filesize, Result: res}
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	a, err := s.Repo.Create(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("store analysis: %w", err)
	}
	metrics.ObserveAnalysis(a)

	log := logger.WithFields(logrus.Fields{
		"analysis_id": a.ID,
		"filename":    a.Filename,
		"filesize":    a.Filesize,
		"prediction":  a.Prediction,
		"iocs":        len(a.IOCs),
	})
	if s.Captures != nil && cmd.Capture != nil {
		url, err := s.Captures.Put(ctx, CaptureKey(a), cmd.Capture, cmd.Filesize)
		if err != nil {
			// record is already stored, archiving is best effort
			log.WithError(err).Warn("capture archive failed")
		} else {
			log = log.WithField("capture_url", url)
		}
	}
	log.Info("analysis stored")
	return a, nil
}

// CaptureKey is the object key an uploaded capture is archived under.
func CaptureKey(a *domain.Analysis) string {
	return fmt.Sprintf("captures/%s/%s", a.ID, path.Base(a.Filename))
}

// List ambil semua analysis, terbaru dulu
func (s *Service) List(ctx context.Context) ([]*domain.Analysis, error) {
	list, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range list {
		a.Normalize()
	}
	return list, nil
}

// Get ambil 1 analysis by id
func (s *Service) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	a, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Normalize()
	return a, nil
}

// View returns the public view of one analysis. A non-zero query filters
// and orders its IOCs; the zero query keeps them as stored.
func (s *Service) View(ctx context.Context, id domain.AnalysisID, q domain.IOCQuery) (View, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	v := NewView(a)
	if !q.IsZero() {
		v.IOCs = q.Apply(v.IOCs)
	}
	return v, nil
}

// Delete hapus analysis; deleting an unknown id is not an error.
func (s *Service) Delete(ctx context.Context, id domain.AnalysisID) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"analysis_id": id}).Info("analysis deleted")
	return nil
}

// Report checks the analysis exists and returns the report placeholder.
func (s *Service) Report(ctx context.Context, id domain.AnalysisID) (ReportStub, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return ReportStub{}, err
	}
	return ReportStub{
		Message:  reportMessage,
		Filename: fmt.Sprintf("pcap-report-%s.pdf", a.ID),
	}, nil
}
