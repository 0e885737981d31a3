// Command admintoken prints a bearer token for the admin endpoints.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/vestire/server/internal/shared/auth"
	"github.com/vestire/server/internal/shared/config"
)

func main() {
	subject := flag.String("subject", "operator", "token subject")
	expiry := flag.Duration("expiry", 0, "token lifetime, defaults to auth.token_expiry")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("auth.jwt_secret is not configured")
	}
	if *expiry > 0 {
		cfg.Auth.TokenExpiry = *expiry
	}

	manager := auth.NewJWTManager(&auth.JWTConfig{
		Secret:      cfg.Auth.JWTSecret,
		Issuer:      cfg.Auth.Issuer,
		TokenExpiry: cfg.Auth.TokenExpiry,
	})
	token, expiresAt, err := manager.GenerateToken(*subject, auth.RoleAdmin)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
}
