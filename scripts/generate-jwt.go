//go:build ignore

// generate-jwt.go - Mint a caller bearer token for the factory API
//
// The API authenticates bearer tokens against a JWKS endpoint (see
// auth.jwks_url in config.yaml), with the caller address in the "sub"
// claim. This script generates an RSA keypair (or loads one from -key),
// prints the JWKS document to publish and a signed RS256 token.
//
// Usage:
//   go run scripts/generate-jwt.go -caller 0xYourAddress
//   go run scripts/generate-jwt.go -caller 0xYourAddress \
//     -key signing-key.pem -issuer account-factory -ttl 24h
//
// Serve the JWKS for local testing:
//   go run scripts/generate-jwt.go -caller 0x... -jwks-out jwks.json
//   python3 -m http.server 9000   # auth.jwks_url: http://localhost:9000/jwks.json

package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"flag"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
)

var (
	caller   = flag.String("caller", "", "Caller address to place in the token subject (required)")
	keyPath  = flag.String("key", "", "PEM-encoded RSA private key; generated when omitted")
	keyOut   = flag.String("key-out", "", "Write the (generated) private key to this PEM file")
	jwksOut  = flag.String("jwks-out", "", "Write the JWKS document to this file")
	issuer   = flag.String("issuer", "account-factory", "Token issuer; must match auth.issuer in config.yaml")
	kid      = flag.String("kid", "factory-signing-key", "Key ID placed in the token header and JWKS entry")
	tokenTTL = flag.Duration("ttl", time.Hour, "Token lifetime")
)

func main() {
	flag.Parse()

	if !common.IsHexAddress(*caller) {
		fmt.Fprintln(os.Stderr, "Error: -caller must be a valid address")
		flag.Usage()
		os.Exit(1)
	}
	subject := common.HexToAddress(*caller).Hex()

	key, err := loadOrGenerateKey(*keyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing signing key: %v\n", err)
		os.Exit(1)
	}

	if *keyOut != "" {
		if err := writeKeyPEM(*keyOut, key); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing key: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Private key written to %s\n", *keyOut)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss": *issuer,
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(*tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = *kid
	signed, err := token.SignedString(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	jwks := jwksDocument(key, *kid)
	if *jwksOut != "" {
		if err := os.WriteFile(*jwksOut, jwks, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JWKS: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("JWKS written to %s\n", *jwksOut)
	}

	fmt.Println("=== Factory API Bearer Token ===")
	fmt.Println()
	fmt.Printf("Caller:  %s\n", subject)
	fmt.Printf("Issuer:  %s\n", *issuer)
	fmt.Printf("Expires: %s\n", now.Add(*tokenTTL).Format(time.RFC3339))
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(signed)
	fmt.Println()
	fmt.Println("JWKS (publish at auth.jwks_url):")
	fmt.Println(string(jwks))
	fmt.Println()
	fmt.Println("Example request:")
	fmt.Printf("  curl -H 'Authorization: Bearer %s' http://localhost:8080/api/v1/sequence\n", signed)
}

func loadOrGenerateKey(path string) (*rsa.PrivateKey, error) {
	if path == "" {
		return rsa.GenerateKey(rand.Reader, 2048)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", path)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%s does not hold an RSA key", path)
	}
	return key, nil
}

func writeKeyPEM(path string, key *rsa.PrivateKey) error {
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	return os.WriteFile(path, pem.EncodeToMemory(block), 0o600)
}

func jwksDocument(key *rsa.PrivateKey, kid string) []byte {
	pub := key.Public().(*rsa.PublicKey)
	doc := map[string]any{
		"keys": []map[string]string{{
			"kid": kid,
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
	out, _ := json.MarshalIndent(doc, "", "  ")
	return out
}
