package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/petalmarket/companypage-api/platform/go/identity"
)

// Mints a locally signed bearer token for the dev auth provider, so the API
// can be exercised with curl without a Firebase project.
func main() {
	secret := flag.String("secret", "", "shared HMAC secret (must match DEV_AUTH_SECRET)")
	email := flag.String("email", "", "email claim; the subject id is derived from it")

	flag.Parse()

	if strings.TrimSpace(*secret) == "" || strings.TrimSpace(*email) == "" {
		fmt.Fprintln(os.Stderr, "error: -secret and -email are required")
		os.Exit(1)
	}

	verifier := identity.NewDevVerifier(*secret)
	session, err := verifier.SignInWithPassword(context.Background(), strings.TrimSpace(*email), "devtoken")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(session.AccessToken)
}
