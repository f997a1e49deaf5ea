package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/telvia/crm-api/internal/models"
	"github.com/telvia/crm-api/internal/repository"
	"github.com/telvia/crm-api/pkg/config"
	"github.com/telvia/crm-api/pkg/database"
)

// Seeds the base client statuses and a bootstrap admin account.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := repository.NewUserRepository(db)
	references := repository.NewReferenceRepository(db)

	if err := seedStatuses(ctx, references); err != nil {
		log.Fatalf("failed to seed statuses: %v", err)
	}
	if err := seedAdmin(ctx, users); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	log.Println("seed completed")
}

func seedStatuses(ctx context.Context, repo *repository.ReferenceRepository) error {
	base := []models.ClientStatus{
		{Name: "Новый", Description: strPtr("Новый клиент")},
		{Name: "В работе", Description: strPtr("Клиент в обработке")},
		{Name: "Активный", Description: strPtr("Действующий клиент")},
		{Name: "Ожидает решения", Description: strPtr("Ожидание подтверждения")},
		{Name: "Закрыт", Description: strPtr("Сделка закрыта/потеряна")},
	}

	existing, err := repo.ListStatuses(ctx)
	if err != nil {
		return err
	}
	present := make(map[string]struct{}, len(existing))
	for _, status := range existing {
		present[status.Name] = struct{}{}
	}

	for _, status := range base {
		if _, ok := present[status.Name]; ok {
			continue
		}
		s := status
		if err := repo.CreateStatus(ctx, &s); err != nil {
			return err
		}
	}
	return nil
}

func seedAdmin(ctx context.Context, repo *repository.UserRepository) error {
	if _, err := repo.FindByUsername(ctx, "admin"); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return repo.Create(ctx, &models.User{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Active:       true,
		FirstLogin:   false,
	})
}

func strPtr(s string) *string { return &s }
