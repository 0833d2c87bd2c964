package export

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/core/fiscal"
	"github.com/frahmantamala/club-ledger/internal/expense"
	"github.com/frahmantamala/club-ledger/internal/reporting"
)

// ReportSource supplies the figures behind every export.
type ReportSource interface {
	Dashboard(ctx context.Context, label string) (*reporting.Dashboard, error)
	Records(ctx context.Context, label string) (fiscal.Year, []*expense.Expense, error)
}

type Renderer interface {
	Render(ctx context.Context, payload ReportPayload) ([]byte, error)
}

// File is a finished export ready to be sent as an attachment.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Service struct {
	reports       ReportSource
	renderer      Renderer
	bills         BillStore
	clubName      string
	renderTimeout time.Duration
	clock         fiscal.Clock
	logger        *slog.Logger
}

func NewService(reports ReportSource, renderer Renderer, bills BillStore, clubName string, renderTimeout time.Duration, clock fiscal.Clock, logger *slog.Logger) *Service {
	return &Service{
		reports:       reports,
		renderer:      renderer,
		bills:         bills,
		clubName:      clubName,
		renderTimeout: renderTimeout,
		clock:         clock,
		logger:        logger,
	}
}

func (s *Service) PDF(ctx context.Context, label string) (*File, error) {
	if s.renderer == nil {
		return nil, errors.NewPreconditionFailedError("pdf export is not configured", errors.ErrCodeRenderFailed)
	}
	dash, err := s.reports.Dashboard(ctx, label)
	if err != nil {
		return nil, err
	}

	renderCtx, cancel := errors.WithTimeout(ctx, s.renderTimeout)
	defer cancel()

	data, err := s.renderer.Render(renderCtx, ReportPayload{
		ClubName:    s.clubName,
		GeneratedAt: s.clock(),
		Dashboard:   dash,
	})
	if err != nil {
		s.logger.Error("failed to render pdf report", "fiscal_year", dash.FiscalYear, "error", err)
		if _, ok := errors.IsAppError(err); ok {
			return nil, err
		}
		return nil, errors.NewExternalError("failed to render pdf report", errors.ErrCodeRenderFailed, err)
	}

	s.logger.Info("pdf report rendered", "fiscal_year", dash.FiscalYear, "bytes", len(data))
	return &File{
		Name:        "report-" + dash.FiscalYear + ".pdf",
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

func (s *Service) Spreadsheet(ctx context.Context, label string) (*File, error) {
	year, records, err := s.reports.Records(ctx, label)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WriteLedgerCSV(&buf, records); err != nil {
		return nil, errors.NewInternalError("failed to write spreadsheet", err)
	}
	return &File{
		Name:        "ledger-" + year.Label() + ".csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}

func (s *Service) Bills(ctx context.Context, label string) (*File, error) {
	year, records, err := s.reports.Records(ctx, label)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WriteBillsArchive(&buf, records, s.bills); err != nil {
		s.logger.Error("failed to build bills archive", "fiscal_year", year.Label(), "error", err)
		return nil, errors.NewInternalError("failed to build bills archive", err)
	}
	return &File{
		Name:        "bills-" + year.Label() + ".zip",
		ContentType: "application/zip",
		Data:        buf.Bytes(),
	}, nil
}
