package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/sanu276140-eng/examsk24/internal/authz"
	"github.com/sanu276140-eng/examsk24/internal/config"
	"github.com/sanu276140-eng/examsk24/internal/database"
	"github.com/sanu276140-eng/examsk24/internal/identity"
	"github.com/sanu276140-eng/examsk24/internal/logger"
	"github.com/sanu276140-eng/examsk24/internal/store"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Services ───────────────────────────────────────────
	st := store.NewPostgres(pool, rdb, log)
	identityService := identity.NewService(st, cfg)
	checker := authz.NewChecker(st, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Admin ===")

	// Display name
	fmt.Print("Enter Display Name (optional): ")
	displayName, _ := reader.ReadString('\n')
	displayName = strings.TrimSpace(displayName)

	// Email
	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println()
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Create Identity + Grant Admin ─────────────────────────────────
	ident, err := identityService.CreateIdentity(ctx, email, password, displayName)
	if err != nil {
		if err == identity.ErrEmailTaken {
			fmt.Println("Error: An identity with this email already exists")
			return
		}
		log.Fatal().Err(err).Msg("Failed to create identity")
	}

	if err := checker.Grant(ctx, ident.ID); err != nil {
		log.Fatal().Err(err).Str("identity_id", ident.ID).Msg("Failed to write admin record")
	}

	fmt.Printf("Admin created: %s (%s)\n", ident.Email, ident.ID)
}
