package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"bankportal.org/internal/gateway"
	"bankportal.org/internal/ids"
	"bankportal.org/internal/session"
	"bankportal.org/internal/tokenstore"
)

func main() {
	baseURL := os.Getenv("PORTAL_API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080/api"
	}
	email, password := os.Getenv("PORTAL_SMOKE_EMAIL"), os.Getenv("PORTAL_SMOKE_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("PORTAL_SMOKE_EMAIL and PORTAL_SMOKE_PASSWORD are required")
	}

	client, err := gateway.New(baseURL, gateway.WithTimeout(5*time.Second))
	if err != nil {
		log.Fatalf("backend client: %v", err)
	}
	store := session.NewStore("smoke:"+ids.New(), tokenstore.NewMemory(), client)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	ctx = gateway.WithCredentials(ctx, store)

	id, err := store.Login(ctx, session.Credentials{Email: email, Password: password})
	if err != nil {
		log.Fatalf("login: %v", err)
	}

	accounts, err := client.Accounts(ctx)
	if err != nil {
		log.Fatalf("accounts: %v", err)
	}
	statements := 0
	if len(accounts) > 0 {
		txs, err := client.MiniStatement(ctx, accounts[0].AccountNumber)
		if err != nil {
			log.Fatalf("mini statement %s: %v", accounts[0].AccountNumber, err)
		}
		statements = len(txs)
	}

	if addr := os.Getenv("PORTAL_SMOKE_GRPC_ADDR"); addr != "" {
		conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			log.Fatalf("dial portal grpc at %s: %v", addr, err)
		}
		defer conn.Close()
		resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
		if err != nil {
			log.Fatalf("portal health: %v", err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			log.Fatalf("portal not serving: %v", resp.GetStatus())
		}
	}

	if err := store.Logout(ctx); err != nil {
		log.Fatalf("logout: %v", err)
	}
	fmt.Printf("✅ portal smoke test passed: role=%s accounts=%d mini_statement=%d\n", id.Role, len(accounts), statements)
}
