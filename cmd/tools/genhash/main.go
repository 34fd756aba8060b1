// Command genhash hashes a password at the configured bcrypt cost, or
// checks a password against an existing hash with -verify.
package main

import (
	"flag"
	"fmt"
	"os"

	"iptrack/pkg/config"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	password := flag.String("password", "", "plaintext password")
	verify := flag.String("verify", "", "existing hash to check the password against")
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "usage: genhash -password <pw> [-verify <hash>]")
		os.Exit(2)
	}

	if *verify != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(*verify), []byte(*password)); err != nil {
			fmt.Printf("Verification FAILED: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Verification SUCCESS")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(*password), cfg.Auth.BcryptCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(hash))
}
