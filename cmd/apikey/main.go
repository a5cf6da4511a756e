package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"whisperd/internal/adapter/repo"
	"whisperd/internal/domain"
	"whisperd/internal/infra"
)

func main() {
	var usernameFlag string
	flag.StringVar(&usernameFlag, "username", "", "Username to create an API key for")
	flag.Parse()

	username := strings.TrimSpace(usernameFlag)
	if username == "" {
		fmt.Fprintln(os.Stderr, "username is required via -username")
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "apikey").Str("username", username).Logger()
	users := repo.NewUserStore(infra.NewSQLRunner(pool, logger))
	if err := users.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare users table: %v\n", err)
		os.Exit(1)
	}

	key, err := newAPIKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate key: %v\n", err)
		os.Exit(1)
	}

	user := &domain.User{Username: username, APIKey: key}
	if err := users.Create(ctx, user); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("user %s created (id %s)\napi key: %s\n", username, user.ID, key)
}

func newAPIKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
