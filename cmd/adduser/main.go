package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"companyportal/login-service/internal/app"
	"companyportal/login-service/internal/auth"
	"companyportal/login-service/internal/config"
	"companyportal/login-service/internal/observability"
	"companyportal/login-service/internal/prompt"
)

func main() {
	username := flag.String("username", "", "login name of the new user")
	password := flag.String("password", "", "password of the new user; prompted for when empty")
	flag.Parse()

	if *username == "" {
		log.Fatal("-username is required")
	}
	if *password == "" {
		pw, err := prompt.Password(os.Stderr, "Password for "+*username)
		if err != nil {
			log.Fatalf("read password: %v", err)
		}
		*password = pw
	}
	if *password == "" {
		log.Fatal("password must not be empty")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, stores, err := app.OpenDatabase(ctx, cfg.Database, logger)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	u, err := stores.Users.Create(ctx, *username, *password)
	if errors.Is(err, auth.ErrUserExists) {
		log.Fatalf("user %q already exists", *username)
	}
	if err != nil {
		log.Fatalf("create user: %v", err)
	}
	logger.Info("user created", "id", u.ID, "username", u.Username)
}
