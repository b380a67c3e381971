// Package main mints an admin JWT from the configured secret, for ops
// access to the dashboard API without going through the login endpoint.
// It can also print a bcrypt hash for ADMIN_PASSWORD_HASH.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/eventflow/checkin-backend/config"
	"github.com/eventflow/checkin-backend/internal/auth"
	"github.com/eventflow/checkin-backend/pkg/utils"
)

func main() {
	hashPassword := flag.String("hash", "", "print a bcrypt hash for the given password and exit")
	email := flag.String("email", "", "email claim (defaults to ADMIN_EMAIL)")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := utils.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, "hash:", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	claimEmail := *email
	if claimEmail == "" {
		claimEmail = cfg.Admin.Email
	}

	token, err := auth.NewJWTService(cfg.Admin.JWTSecret, cfg.Admin.ExpireHours).Generate(claimEmail, auth.RoleAdmin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
