package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/report"
	"github.com/andresuchdata/salesflow-analytics/internal/scheduler"
)

const (
	AnomalyCheckJobID = "anomaly-check"
	DailyReportJobID  = "daily-report"
)

// ScheduledReportJobID names the job registered for a report type and format.
func ScheduledReportJobID(t report.Type, f report.Format) string {
	return fmt.Sprintf("scheduled-%s-%s", t, f)
}

// AnomalyCheckJob runs a GLOBAL daily anomaly detection with the system token.
// A missing history is logged, not treated as a failure.
func AnomalyCheckJob(ml *MLService, token string, hour, minute int) scheduler.Job {
	return scheduler.Job{
		ID:     AnomalyCheckJobID,
		Hour:   hour,
		Minute: minute,
		Run: func(ctx context.Context) error {
			res, err := ml.Anomalies(ctx, token, domain.AnomalyRequest{
				MLRequest: domain.MLRequest{Scope: domain.ScopeGlobal, Period: domain.PeriodDaily},
			})
			if err != nil {
				if IsNoHistory(err) {
					log.Info().Err(err).Msg("ml: scheduled anomaly check found no history")
					return nil
				}
				return err
			}
			log.Info().Int("anomalies", res.Count).Msg("ml: scheduled anomaly check completed")
			return nil
		},
	}
}

// ReportJob renders a daily-period report and archives it.
func ReportJob(id string, reports *ReportService, token string, t report.Type, f report.Format, hour, minute int) scheduler.Job {
	return scheduler.Job{
		ID:     id,
		Hour:   hour,
		Minute: minute,
		Run: func(ctx context.Context) error {
			_, err := reports.GenerateAndArchive(ctx, token, ReportRequest{Type: t, Format: f, Period: domain.PeriodDaily})
			return err
		},
	}
}
