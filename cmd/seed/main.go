package main

// Seed users and sample documents for local development:
//   go run ./cmd/seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"annotation-backend/internal/access"
	"annotation-backend/internal/bootstrap"
	"annotation-backend/internal/documents"
	"annotation-backend/internal/shared/auth"
	"annotation-backend/internal/shared/config"
	"annotation-backend/internal/users"
)

const tokenTTL = 7 * 24 * time.Hour

var seedUsers = []users.User{
	{Username: "admin", FullName: "管理员", Email: "admin@example.com", Role: access.RoleAdmin, IsActive: true},
	{Username: "expert1", FullName: "张教授", Email: "zhang@example.com", Role: access.RoleExpert, IsActive: true},
	{Username: "expert2", FullName: "李研究员", Email: "li@example.com", Role: access.RoleExpert, IsActive: true},
}

var seedDocuments = []documents.Input{
	{
		Title:            "人工智能发展简述",
		SourceContent:    "人工智能是计算机科学的一个分支，研究如何使机器模拟人类智能。",
		GeneratedContent: "人工智能（AI）是让计算机具备类似人类思考能力的技术领域。",
	},
	{
		Title:            "气候变化摘要",
		SourceContent:    "全球气温在过去一个世纪中显著上升，主要原因是温室气体排放。",
		GeneratedContent: "由于温室气体排放，近百年来地球平均温度明显升高。",
	},
	{
		Title:            "Photosynthesis overview",
		SourceContent:    "Photosynthesis converts light energy into chemical energy stored in glucose.",
		GeneratedContent: "Plants use sunlight to turn water and carbon dioxide into sugar and oxygen.",
	},
}

func main() {
	cfg := config.Load()
	cfg.Process = "cli"
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	if app.DB == nil {
		log.Printf("warning: no database configured; seeded data lives only for this process")
	}

	seeded, err := seed(context.Background(), app)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}

	fmt.Printf("seeded %d users, %d new documents\n", len(seeded.users), seeded.documents)
	for _, u := range seeded.users {
		token, err := auth.SignJWT(u.ID, u.Role, u.Username, tokenTTL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "token for %s: %v\n", u.Username, err)
			continue
		}
		fmt.Printf("%-8s %-7s %s\n  %s\n", u.Username, u.Role, u.ID, token)
	}
}

type seedResult struct {
	users     []users.User
	documents int
}

// seed is idempotent: existing users keep their ids and existing titles are skipped.
func seed(ctx context.Context, app *bootstrap.App) (seedResult, error) {
	var out seedResult
	for _, u := range seedUsers {
		if existing, err := app.UsersService.GetByUsername(ctx, u.Username); err == nil {
			u.ID = existing.ID
		} else if !errors.Is(err, users.ErrNotFound) {
			return out, err
		}
		saved, err := app.UsersService.Register(ctx, u)
		if err != nil {
			return out, fmt.Errorf("register %s: %w", u.Username, err)
		}
		out.users = append(out.users, saved)
	}

	admin := access.Actor{UserID: out.users[0].ID, Role: access.RoleAdmin, Username: out.users[0].Username}
	for i, in := range seedDocuments {
		if _, err := app.DocumentsService.FindByTitle(ctx, in.Title); err == nil {
			continue
		} else if !errors.Is(err, documents.ErrNotFound) {
			return out, err
		}
		// Alternate the first two documents between the experts; leave the rest open for claiming.
		if i < 2 {
			assignee := out.users[1+i].ID
			in.AssignedTo = &assignee
		}
		if _, err := app.DocumentsService.Create(ctx, admin, in); err != nil {
			return out, fmt.Errorf("create %q: %w", in.Title, err)
		}
		out.documents++
	}
	return out, nil
}
