package main

import (
	"fmt"
	"os"

	"github.com/sendgate/sendgate/pkg/crypto"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/keygen/main.go <ops_password>")
		os.Exit(1)
	}

	hash, err := crypto.HashPassword(os.Args[1])
	if err != nil {
		fmt.Printf("Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Generated bcrypt hash for the operations API")
	fmt.Println()
	fmt.Println("OPS_PASSWORD_HASH (keep this secret!)")
	fmt.Println(hash)
	fmt.Println()
}
