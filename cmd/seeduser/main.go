package main

// Seeds an initial admin user and a default register so a fresh install can
// log in and open a session.
//
//	go run ./cmd/seeduser <username> <password>

import (
	"fmt"
	"os"

	"github.com/napestudio/stock-control-sub000/internal/config"
	"github.com/napestudio/stock-control-sub000/internal/infra"
	"github.com/napestudio/stock-control-sub000/internal/model"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: seeduser <username> <password>")
		os.Exit(1)
	}
	username, password := os.Args[1], os.Args[2]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "seeduser: load config:", err)
		os.Exit(1)
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "seeduser: connect:", err)
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		fmt.Fprintln(os.Stderr, "seeduser: hash:", err)
		os.Exit(1)
	}

	user := &model.User{
		Username:     username,
		Name:         "Administrator",
		PasswordHash: string(hash),
		Role:         "admin",
		Active:       true,
	}
	if err := db.Where("username = ?", username).FirstOrCreate(user).Error; err != nil {
		fmt.Fprintln(os.Stderr, "seeduser: create user:", err)
		os.Exit(1)
	}

	register := &model.CashRegister{Name: "Main register", Active: true}
	if err := db.Where("name = ?", register.Name).FirstOrCreate(register).Error; err != nil {
		fmt.Fprintln(os.Stderr, "seeduser: create register:", err)
		os.Exit(1)
	}

	fmt.Printf("seeded user %q and register %q\n", user.Username, register.Name)
}
