package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sendgate/sendgate/pkg/crypto"
)

func main() {
	verify := flag.String("verify", "", "check this signature against the payload instead of printing one")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: go run cmd/hmac/main.go [-verify <signature>] <secret> [payload-file]")
		fmt.Println("Reads the payload from stdin when no file is given.")
		os.Exit(1)
	}

	secret := flag.Arg(0)

	var payload []byte
	var err error
	if flag.NArg() > 1 {
		payload, err = os.ReadFile(flag.Arg(1))
	} else {
		payload, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Printf("Failed to read payload: %v\n", err)
		os.Exit(1)
	}

	if *verify != "" {
		if !crypto.VerifyHMAC(secret, payload, *verify) {
			fmt.Println("Signature mismatch")
			os.Exit(1)
		}
		fmt.Println("Signature valid")
		return
	}

	signature := crypto.ComputeHMAC256(payload, secret)

	fmt.Println()
	fmt.Printf("Payload bytes: %d\n", len(payload))
	fmt.Printf("X-Webhook-Signature: %s\n", signature)
}
