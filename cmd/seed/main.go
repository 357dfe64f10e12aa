// seed creates a demo user with a month of tasks and a review in the
// configured store. Re-runs log in as the existing demo user.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/goosetrack/goosetrack-api/config"
	"github.com/goosetrack/goosetrack-api/internal/domain"
	"github.com/goosetrack/goosetrack-api/internal/email"
	"github.com/goosetrack/goosetrack-api/internal/infrastructure/store"
	applog "github.com/goosetrack/goosetrack-api/internal/log"
	"github.com/goosetrack/goosetrack-api/internal/oauth"
	"github.com/goosetrack/goosetrack-api/internal/password"
	"github.com/goosetrack/goosetrack-api/internal/token"
	"github.com/goosetrack/goosetrack-api/internal/usecase"
)

const (
	seedEmail    = "goose@test.local"
	seedUsername = "Goose"
	seedPassword = "goose-secret"
)

type taskSpec struct {
	title    string
	start    string
	end      string
	priority domain.Priority
	category domain.Category
}

var dailyTasks = []taskSpec{
	{"Standup", "09:00", "09:15", domain.PriorityMedium, domain.CategoryDone},
	{"Code review", "11:00", "12:00", domain.PriorityHigh, domain.CategoryInProgress},
	{"Plan tomorrow", "17:30", "17:45", domain.PriorityLow, domain.CategoryTodo},
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := applog.New(os.Stdout, cfg.Env, cfg.SlogLevel())

	db, err := store.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer func() { _ = db.Close(ctx) }()

	tokens, err := token.NewIssuer(token.Config{
		AccessSecret:  []byte(cfg.AccessSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}
	hasher := password.NewHasher(password.DefaultCost)
	auth := usecase.NewAuthUsecase(db.Users, tokens, hasher,
		email.NewSender("local", "", "", logger), oauth.NewGoogle(oauth.Config{}), cfg.FrontendURL, logger)

	session, err := auth.Register(ctx, usecase.RegisterInput{Email: seedEmail, Username: seedUsername, Password: seedPassword})
	if errors.Is(err, domain.ErrEmailTaken) {
		session, err = auth.Login(ctx, seedEmail, seedPassword)
	}
	if err != nil {
		log.Fatalf("seed user: %v", err)
	}

	user, err := db.Users.FindByEmail(ctx, seedEmail)
	if err != nil {
		log.Fatalf("load seed user: %v", err)
	}

	tasks := usecase.NewTaskUsecase(db.Tasks)
	month := time.Now().Format("2006-01")
	existing, err := tasks.ListByMonth(ctx, user, month)
	if err != nil {
		log.Fatalf("list tasks: %v", err)
	}

	created := 0
	if len(existing) == 0 {
		first := time.Now().AddDate(0, 0, 1-time.Now().Day())
		for d := first; d.Format("2006-01") == month; d = d.AddDate(0, 0, 1) {
			if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}
			for _, spec := range dailyTasks {
				_, err := tasks.Create(ctx, user, usecase.TaskInput{
					Title:    spec.title,
					Start:    spec.start,
					End:      spec.end,
					Priority: spec.priority,
					Date:     d.Format(domain.DateLayout),
					Category: spec.category,
				})
				if err != nil {
					log.Fatalf("create task: %v", err)
				}
				created++
			}
		}
	}

	reviews := usecase.NewReviewUsecase(db.Reviews)
	if _, err := reviews.Create(ctx, user, 5, "Keeps my whole week in one place."); err != nil && !errors.Is(err, domain.ErrReviewExists) {
		log.Fatalf("create review: %v", err)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Store:         %s\n", db.Driver)
	fmt.Printf("  User:          %s / %s\n", seedEmail, seedPassword)
	fmt.Printf("  User ID:       %s\n", user.ID)
	fmt.Printf("  Tasks created: %d  (%d already in %s)\n", created, len(existing), month)
	fmt.Println()
	fmt.Println("Try it:")
	fmt.Println()
	fmt.Printf("    export TOKEN=%s\n", session.Token)
	fmt.Printf("    curl -s 'http://localhost:%s/api/tasks?date=%s' -H \"Authorization: Bearer $TOKEN\"\n", cfg.Port, month)
	fmt.Printf("    curl -s http://localhost:%s/api/reviews\n", cfg.Port)
}
