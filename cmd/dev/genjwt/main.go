// Command genjwt prints a bearer token signed with the configured key, for
// calling protected routes during development.
package main

import (
	"flag"
	"fmt"
	"os"

	"iptrack/internal/auth"
	"iptrack/internal/domain"
	"iptrack/pkg/config"
)

func main() {
	userID := flag.Int64("user", 1, "user id to embed")
	email := flag.String("email", "admin.user@example.com", "email to embed")
	role := flag.String("role", string(domain.RoleAdmin), "role to embed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	issuer := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Expiration)
	token, expiresAt, err := issuer.Issue(&domain.User{ID: *userID, Email: *email, Role: domain.Role(*role)})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Println(token)
}
