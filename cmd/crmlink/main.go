// Command crmlink resolves professional-network profiles against the CRM
// and creates stub records for new candidates.
//
// Usage:
//
//	crmlink -lookup https://linkedin.com/in/jane-doe-12345
//	crmlink -create -first Jane -last Doe -url https://linkedin.com/in/jane-doe-12345
//	crmlink -check
//	crmlink -login
//	crmlink -set-password
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/talentops/crmlink"
	"github.com/talentops/crmlink/pkg/creds"
	"github.com/talentops/crmlink/pkg/httpfetch"
)

func main() {
	lookupURL := flag.String("lookup", "", "profile URL to resolve against the CRM")
	create := flag.Bool("create", false, "create a stub record (requires -first, -last, -url)")
	first := flag.String("first", "", "candidate first name")
	last := flag.String("last", "", "candidate last name")
	profileURL := flag.String("url", "", "candidate profile URL")
	sourced := flag.String("sourced", "", "sourced date (M/D/YYYY, optional)")
	check := flag.Bool("check", false, "report whether a live CRM session exists")
	login := flag.Bool("login", false, "log in with the configured credentials")
	setPassword := flag.Bool("set-password", false, "store the CRM password in the OS keychain")
	baseURL := flag.String("base-url", "", "CRM base URL (overrides env and config file)")
	debug := flag.Bool("debug", false, "enable debug logging")
	noBrowser := flag.Bool("no-browser", false, "disable importing the CRM session from browser stores")
	noCache := flag.Bool("no-cache", false, "disable HTTP caching of detail pages")
	cacheTTL := flag.Duration("cache-ttl", time.Hour, "cache time-to-live for detail pages")
	flag.Parse()

	// Local .env is a convenience for development setups.
	_ = godotenv.Load() //nolint:errcheck // missing .env is fine

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if *setPassword {
		if err := storePassword(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var httpCache *httpfetch.Cache
	if !*noCache {
		var err error
		httpCache, err = httpfetch.New(*cacheTTL)
		if err != nil {
			logger.Warn("failed to initialize cache, continuing without cache", "error", err)
		} else {
			defer func() {
				if err := httpCache.Close(); err != nil {
					logger.Warn("failed to close cache", "error", err)
				}
			}()
		}
	}

	opts := []crmlink.Option{crmlink.WithLogger(logger)}
	if *baseURL != "" {
		opts = append(opts, crmlink.WithBaseURL(*baseURL))
	}
	if !*noBrowser {
		opts = append(opts, crmlink.WithBrowserCookies())
	}
	if httpCache != nil {
		opts = append(opts, crmlink.WithHTTPCache(httpCache))
	}

	ctx := context.Background()

	switch {
	case *lookupURL != "":
		result, err := crmlink.Lookup(ctx, *lookupURL, *first, *last, opts...)
		exitOnError(err)
		exitOnError(outputJSON(result))
	case *create:
		if *first == "" || *last == "" || *profileURL == "" {
			fmt.Fprintln(os.Stderr, "Error: -create requires -first, -last, and -url")
			os.Exit(1) //nolint:gocritic // exitAfterDefer is acceptable in main
		}
		result, err := crmlink.Create(ctx, *first, *last, *profileURL, *sourced, opts...)
		exitOnError(err)
		exitOnError(outputJSON(result))
	case *check:
		ok, err := crmlink.CheckAuthenticated(ctx, opts...)
		exitOnError(err)
		fmt.Println(map[bool]string{true: "authenticated", false: "not authenticated"}[ok])
		if !ok {
			os.Exit(1)
		}
	case *login:
		store := creds.FileStore{}
		cr, err := store.Credentials(ctx)
		exitOnError(err)
		exitOnError(crmlink.Login(ctx, cr.Email, cr.Password, opts...))
		fmt.Println("logged in as", cr.Email)
	default:
		fmt.Fprintln(os.Stderr, "Usage: crmlink [options] (-lookup <url> | -create | -check | -login | -set-password)")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
		os.Exit(1)
	}
}

// storePassword prompts for an email and password and saves them: email to
// the config file, password to the OS keychain. This is the external
// configuration surface; the resolver itself only ever reads.
func storePassword() error {
	reader := bufio.NewReader(os.Stdin)

	path := creds.DefaultPath()
	cfg, err := creds.LoadConfig(path)
	if err != nil {
		return err
	}

	fmt.Printf("CRM email [%s]: ", cfg.Email)
	email, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	if email = strings.TrimSpace(email); email != "" {
		cfg.Email = email
	}
	if cfg.Email == "" {
		return fmt.Errorf("no email given")
	}

	fmt.Print("CRM password: ")
	password, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	password = strings.TrimRight(password, "\r\n")

	if err := creds.SetPassword(cfg.Email, password); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	if err := creds.SaveConfig(path, cfg); err != nil {
		return err
	}
	fmt.Println("stored password for", cfg.Email)
	return nil
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
