// galerictl is a small operator CLI against the gallery backend. It drives
// the same session store the gateway's tests exercise, persisting the
// credential between invocations the way a browser keeps its cookie.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"galeri-gateway/internal/backend"
	"galeri-gateway/internal/config"
	"galeri-gateway/internal/observability"
	"galeri-gateway/internal/session"
)

const usage = `usage: galerictl <command> [flags]

commands:
  login       -email -password      authenticate and store the session token
  register    -name -email -password [-class]
  whoami                            show the current identity
  logout                            end the session (local state always clears)
  change-password -current -new     change the account password
  requirements                      show the public password policy
`

// cliNavigator satisfies session.Navigator for a terminal client: redirects
// are printed, not followed.
type cliNavigator struct {
	location string
}

func (n *cliNavigator) Navigate(path string) {
	n.location = path
	fmt.Fprintf(os.Stderr, "-> %s\n", path)
}

func (n *cliNavigator) Location() string { return n.location }

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	observability.InitLogger(getenvDefault("LOG_LEVEL", "warn"), "text")

	client := backend.NewClient(cfg.BackendURL, cfg.APIBaseURL, cfg.SessionCookie)
	if token := loadToken(); token != "" {
		client.SetCredential(token)
	}

	nav := &cliNavigator{location: "/"}
	store := session.NewStore(client, nav)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "login":
		err = runLogin(ctx, store, client, os.Args[2:])
	case "register":
		err = runRegister(ctx, store, client, os.Args[2:])
	case "whoami":
		err = runWhoami(ctx, store)
	case "logout":
		store.Logout(ctx)
		clearToken()
		fmt.Println("logged out")
	case "change-password":
		err = runChangePassword(ctx, client, os.Args[2:])
	case "requirements":
		err = runRequirements(ctx, client)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runLogin(ctx context.Context, store *session.Store, client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	if err := store.Login(ctx, *email, *password); err != nil {
		return err
	}

	saveToken(client.Credential())
	return printUser(store)
}

func runRegister(ctx context.Context, store *session.Store, client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	class := fs.String("class", "", "class name (students)")
	fs.Parse(args)

	err := store.Register(ctx, backend.RegisterParams{
		Name:                 *name,
		Email:                *email,
		Password:             *password,
		PasswordConfirmation: *password,
		ClassName:            *class,
	})
	if err != nil {
		return err
	}

	saveToken(client.Credential())
	return printUser(store)
}

func runWhoami(ctx context.Context, store *session.Store) error {
	store.Initialize(ctx)

	state := store.Snapshot()
	if state.User == nil {
		return fmt.Errorf("not logged in")
	}
	return printUser(store)
}

func runChangePassword(ctx context.Context, client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("change-password", flag.ExitOnError)
	current := fs.String("current", "", "current password")
	newPassword := fs.String("new", "", "new password")
	fs.Parse(args)

	if err := client.CSRFHandshake(ctx); err != nil {
		return err
	}
	if err := client.ChangePassword(ctx, *current, *newPassword, *newPassword); err != nil {
		return err
	}
	fmt.Println("password changed")
	return nil
}

func runRequirements(ctx context.Context, client *backend.Client) error {
	reqs, err := client.PasswordRequirements(ctx)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(reqs)
}

func printUser(store *session.Store) error {
	state := store.Snapshot()
	if state.User == nil {
		return fmt.Errorf("no session")
	}

	out := map[string]any{
		"id":         state.User.ID,
		"name":       state.User.Name,
		"email":      state.User.Email,
		"role":       state.User.Role,
		"is_admin":   state.User.IsAdmin(),
		"is_teacher": state.User.IsTeacher(),
		"is_student": state.User.IsStudent(),
	}
	return json.NewEncoder(os.Stdout).Encode(out)
}

func tokenPath() string {
	if p := os.Getenv("GALERICTL_TOKEN_FILE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".galerictl-token"
	}
	return filepath.Join(home, ".galerictl-token")
}

func loadToken() string {
	data, err := os.ReadFile(tokenPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveToken(token string) {
	if token == "" {
		return
	}
	if err := os.WriteFile(tokenPath(), []byte(token), 0o600); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not persist session token:", err)
	}
}

func clearToken() {
	os.Remove(tokenPath())
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
