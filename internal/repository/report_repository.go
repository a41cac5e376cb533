package repository

import (
	"context"

	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/pkg/apiclient"
)

// ReportRepository reads and deletes lesson reports. Every call is authenticated.
type ReportRepository struct {
	remote
}

// NewReportRepository constructs a report repository.
func NewReportRepository(client *apiclient.Client) *ReportRepository {
	return &ReportRepository{remote{client: client}}
}

// List returns every report.
func (r *ReportRepository) List(ctx context.Context) ([]models.Report, error) {
	client, err := r.secure(ctx)
	if err != nil {
		return nil, err
	}
	var reports []models.Report
	if err := client.Get(ctx, "/reports", nil, &reports); err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

// Delete removes one report.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	client, err := r.secure(ctx)
	if err != nil {
		return err
	}
	return client.Delete(ctx, "/reports/"+escape(id), nil)
}
