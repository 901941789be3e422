package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"

	"bitcoin-standard-go/internal/common"
	"bitcoin-standard-go/internal/config"

	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func main() {
	name := flag.String("name", "", "display name for the new user")
	email := flag.String("email", "", "email address (unique)")
	flag.Parse()

	logger, cleanup := common.InitializeLogger()
	defer cleanup()

	if err := validateName(*name); err != nil {
		logger.Fatal("Invalid name", zap.Error(err))
	}
	if err := validateEmail(*email); err != nil {
		logger.Fatal("Invalid email", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	user, err := services.DbService.CreateUser(ctx, *name, *email, cfg.Settlement.SeedSats)
	if err != nil {
		logger.Error("Failed to create user", zap.Error(err))
		os.Exit(1)
	}

	common.PrintHeader("User created", common.DefaultWidth)
	fmt.Printf("ID:    %s\n", user.Id)
	fmt.Printf("Name:  %s\n", user.Name)
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("Seed:  %s BTC\n", common.FormatSats(cfg.Settlement.SeedSats))
	common.PrintFooter("Done", common.DefaultWidth)
}
