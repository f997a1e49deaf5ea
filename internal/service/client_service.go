package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/telvia/crm-api/internal/models"
	appErrors "github.com/telvia/crm-api/pkg/errors"
	"github.com/telvia/crm-api/pkg/export"
)

type clientRepository interface {
	List(ctx context.Context, filter models.ClientFilter) ([]models.Client, int, error)
	FindByID(ctx context.Context, id string) (*models.Client, error)
	Create(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, id string) error
}

type clientCallRepository interface {
	ListByClient(ctx context.Context, clientID string) ([]models.Call, error)
}

type clientTaskRepository interface {
	ListByClient(ctx context.Context, clientID string) ([]models.Task, error)
}

// ClientRequest represents payload for creating or updating a client.
type ClientRequest struct {
	FirstName         string     `json:"firstName" validate:"required"`
	LastName          string     `json:"lastName" validate:"required"`
	Email             *string    `json:"email" validate:"omitempty,email"`
	Phone             *string    `json:"phone"`
	Address           *string    `json:"address"`
	CityID            *string    `json:"cityId"`
	CurrentProvider   *string    `json:"currentProvider"`
	ContractEndDate   *time.Time `json:"contractEndDate"`
	Notes             *string    `json:"notes"`
	StatusID          *string    `json:"statusId"`
	CategoryID        *string    `json:"categoryId"`
	Potential         *string    `json:"potential"`
	AssignedManagerID *string    `json:"assignedManagerId"`
}

// ClientService handles client lifecycle and export workflows.
type ClientService struct {
	repo      clientRepository
	calls     clientCallRepository
	tasks     clientTaskRepository
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClientService creates an instance of ClientService.
func NewClientService(repo clientRepository, calls clientCallRepository, tasks clientTaskRepository, validate *validator.Validate, logger *zap.Logger) *ClientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClientService{
		repo:      repo,
		calls:     calls,
		tasks:     tasks,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// List returns clients matching the filter with a total count.
func (s *ClientService) List(ctx context.Context, filter models.ClientFilter) ([]models.Client, int, error) {
	clients, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clients")
	}
	return clients, total, nil
}

// Get returns a client with its call and task history.
func (s *ClientService) Get(ctx context.Context, id string) (*models.ClientDetail, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}

	calls, err := s.calls.ListByClient(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client calls")
	}
	tasks, err := s.tasks.ListByClient(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client tasks")
	}

	return &models.ClientDetail{Client: *client, Calls: calls, Tasks: tasks}, nil
}

// Create adds a new client.
func (s *ClientService) Create(ctx context.Context, req ClientRequest) (*models.Client, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid client payload")
	}

	client := clientFromRequest(req)
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create client")
	}
	return client, nil
}

// Update modifies an existing client.
func (s *ClientService) Update(ctx context.Context, id string, req ClientRequest) (*models.Client, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid client payload")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}

	client := clientFromRequest(req)
	client.ID = existing.ID
	client.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update client")
	}
	return client, nil
}

// Delete removes a client.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete client")
	}
	return nil
}

// ExportCSV renders the filtered client list as CSV.
func (s *ClientService) ExportCSV(ctx context.Context, filter models.ClientFilter) ([]byte, error) {
	filter.Page = 1
	filter.PageSize = 100

	var all []models.Client
	for {
		clients, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clients for export")
		}
		all = append(all, clients...)
		if len(clients) == 0 || len(all) >= total {
			break
		}
		filter.Page++
	}

	payload, err := s.csv.Render(clientDataset(all))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, nil
}

// ExportPDF renders a one-page summary of a client with recent activity.
func (s *ClientService) ExportPDF(ctx context.Context, id string) ([]byte, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rows := []map[string]string{
		{"Field": "Name", "Value": detail.LastName + " " + detail.FirstName},
		{"Field": "Phone", "Value": strOrDash(detail.Phone)},
		{"Field": "Email", "Value": strOrDash(detail.Email)},
		{"Field": "City", "Value": strOrDash(detail.CityName)},
		{"Field": "Status", "Value": strOrDash(detail.StatusName)},
		{"Field": "Category", "Value": strOrDash(detail.CategoryName)},
		{"Field": "Potential", "Value": strOrDash(detail.Potential)},
		{"Field": "Provider", "Value": strOrDash(detail.CurrentProvider)},
		{"Field": "Contract ends", "Value": dateOrDash(detail.ContractEndDate)},
		{"Field": "Calls", "Value": fmt.Sprintf("%d", len(detail.Calls))},
		{"Field": "Open tasks", "Value": fmt.Sprintf("%d", countOpenTasks(detail.Tasks))},
	}

	payload, err := s.pdf.Render(export.Dataset{Headers: []string{"Field", "Value"}, Rows: rows}, "Client summary")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, nil
}

func clientFromRequest(req ClientRequest) *models.Client {
	return &models.Client{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		Phone:             req.Phone,
		Address:           req.Address,
		CityID:            req.CityID,
		CurrentProvider:   req.CurrentProvider,
		ContractEndDate:   req.ContractEndDate,
		Notes:             req.Notes,
		StatusID:          req.StatusID,
		CategoryID:        req.CategoryID,
		Potential:         req.Potential,
		AssignedManagerID: req.AssignedManagerID,
	}
}

func clientDataset(clients []models.Client) export.Dataset {
	headers := []string{"Last name", "First name", "Phone", "Email", "City", "Status", "Category", "Potential", "Contract end"}
	rows := make([]map[string]string, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, map[string]string{
			"Last name":    c.LastName,
			"First name":   c.FirstName,
			"Phone":        strOrDash(c.Phone),
			"Email":        strOrDash(c.Email),
			"City":         strOrDash(c.CityName),
			"Status":       strOrDash(c.StatusName),
			"Category":     strOrDash(c.CategoryName),
			"Potential":    strOrDash(c.Potential),
			"Contract end": dateOrDash(c.ContractEndDate),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func countOpenTasks(tasks []models.Task) int {
	n := 0
	for _, t := range tasks {
		if t.Status == models.TaskStatusOpen || t.Status == models.TaskStatusInProgress {
			n++
		}
	}
	return n
}

func strOrDash(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
