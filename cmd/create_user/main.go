// Command create_user registers an account directly against the database,
// for bootstrapping an instance before the API is exposed.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"filebox/config"
	"filebox/database"
	"filebox/logger"
	"filebox/models"
	"filebox/repositories"
	"filebox/services"

	"golang.org/x/term"
)

// readPassword is swapped out in tests.
var readPassword = term.ReadPassword

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	username := flag.String("username", "", "account username")
	email := flag.String("email", "", "account email")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(os.Stderr, cfg.Log.Format, cfg.Log.Level)

	in := bufio.NewReader(os.Stdin)
	if *username == "" {
		if *username, err = prompt(in, os.Stdout, "Username"); err != nil {
			fmt.Fprintf(os.Stderr, "read username: %v\n", err)
			os.Exit(1)
		}
	}
	if *email == "" {
		if *email, err = prompt(in, os.Stdout, "Email"); err != nil {
			fmt.Fprintf(os.Stderr, "read email: %v\n", err)
			os.Exit(1)
		}
	}
	password, err := getPassword(os.Stdout, int(os.Stdin.Fd()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "read password: %v\n", err)
		os.Exit(1)
	}

	user, err := createUser(context.Background(), cfg, services.RegisterInput{
		Username: *username,
		Email:    *email,
		Password: password,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created user %d (%s)\n", user.ID, user.Username)
}

func createUser(ctx context.Context, cfg *config.Config, in services.RegisterInput) (models.User, error) {
	db, err := database.Open(&cfg.Database)
	if err != nil {
		return models.User{}, err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.Migrate(db); err != nil {
		return models.User{}, err
	}

	repos := repositories.NewGormRepositories(db, nil).BuildContainer()
	svc := services.NewContainer(repos, nil, cfg, nil)
	user, err := svc.Auth.Register(ctx, in)
	if err != nil {
		var appErr *services.AppError
		if errors.As(err, &appErr) {
			return models.User{}, errors.New(appErr.Message)
		}
		return models.User{}, err
	}
	return user, nil
}

func prompt(r *bufio.Reader, w io.Writer, label string) (string, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return "", err
	}
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// getPassword asks twice and requires both entries to match.
func getPassword(w io.Writer, fd int) (string, error) {
	fmt.Fprint(w, "Password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	fmt.Fprint(w, "Repeat password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) == 0 {
		return "", errors.New("password must not be empty")
	}
	return string(first), nil
}
