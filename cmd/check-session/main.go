// Command check-session diagnoses CRM session sources: which cookie
// sources produce cookies, and whether any of them yields a live session.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/talentops/crmlink/pkg/creds"
	"github.com/talentops/crmlink/pkg/session"
)

func main() {
	baseURL := flag.String("base-url", os.Getenv(creds.EnvBaseURL), "CRM base URL")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *baseURL == "" {
		cfg, err := creds.LoadConfig(creds.DefaultPath())
		if err == nil {
			*baseURL = cfg.BaseURL
		}
	}
	if *baseURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -base-url <crm-url>\n", os.Args[0])
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ctx := context.Background()
	host := hostOf(*baseURL)

	sources := []struct {
		name string
		src  session.Source
	}{
		{"environment", session.EnvSource{}},
		{"browser", session.NewBrowserSource(logger)},
	}

	for _, s := range sources {
		cookies, err := s.src.Cookies(ctx, host)
		switch {
		case err != nil:
			fmt.Printf("%-12s error: %v\n", s.name, err)
		case len(cookies) == 0:
			fmt.Printf("%-12s no cookies\n", s.name)
		default:
			fmt.Printf("%-12s %d cookie(s)\n", s.name, len(cookies))
		}
	}

	sess, err := session.New(ctx, *baseURL,
		session.WithLogger(logger),
		session.WithBrowserCookies())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if sess.Active(ctx) {
		fmt.Println("session: live")
		return
	}
	fmt.Println("session: not authenticated (credentials required)")
	os.Exit(1)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
