// Package main provides admin management utilities for agora.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/models"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin promote <user_id>     - Promote user to admin")
		fmt.Println("  go run ./cmd/admin demote <user_id>      - Demote user from admin")
		fmt.Println("  go run ./cmd/admin list-admins           - List all admins")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <user_id>\n", command)
			os.Exit(1)
		}
		id, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			log.Fatalf("Invalid user id %q", os.Args[2])
		}
		if err := setAdmin(db, uint(id), command == "promote"); err != nil {
			log.Fatal(err)
		}

	case "list-admins":
		listAdmins(db)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func setAdmin(db *gorm.DB, userID uint, admin bool) error {
	if userID == models.SystemActorID && !admin {
		return errors.New("the system actor must stay an administrator")
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user with ID %d not found", userID)
		}
		return fmt.Errorf("database error: %w", err)
	}

	if user.IsAdmin == admin {
		fmt.Printf("User %s (ID: %d) already has admin=%v\n", user.Username, user.ID, admin)
		return nil
	}

	if err := db.Model(&user).Update("is_admin", admin).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	verb := "demoted"
	if admin {
		verb = "promoted"
	}
	fmt.Printf("✅ Successfully %s %s (ID: %d)\n", verb, user.Username, user.ID)
	return nil
}

func listAdmins(db *gorm.DB) {
	var admins []models.User
	if err := db.Where("is_admin = ?", true).Order("id").Find(&admins).Error; err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Printf("Found %d admin(s):\n", len(admins))
	for _, a := range admins {
		fmt.Printf("  - %s (ID: %d, Email: %s)\n", a.Username, a.ID, a.Email)
	}
}
