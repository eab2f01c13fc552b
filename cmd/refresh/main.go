package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"kadig/internal/app"
	"kadig/internal/config"
	"kadig/internal/service"
)

// refresh runs one price update and prints the summary as JSON.
func main() {
	user := flag.String("user", "", "restrict the refresh to one user id")
	force := flag.Bool("force", false, "bypass cached quotes")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := app.NewLogger(cfg)
	logger.SetOutput(os.Stderr)

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	summary, err := a.Refresher.Run(ctx, service.Request{UserID: *user, ForceUpdate: *force})
	if err != nil {
		a.Close()
		logger.Fatalf("refresh failed: %v", err)
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}
