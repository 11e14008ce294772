package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/dinkup/internal/factory"
	"github.com/mcoot/dinkup/internal/services/auth"
)

// cliRunner manages CLI binary execution for one user
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func buildCLI(t *testing.T) string {
	t.Helper()

	projectRoot := findProjectRoot(t)
	binaryPath := filepath.Join(t.TempDir(), "dinkup-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/dinkup")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return binaryPath
}

func newCLIRunner(t *testing.T, binaryPath, serverURL string) *cliRunner {
	t.Helper()
	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "DINKUP_TOKEN=")
	output, err := cmd.Output()
	if exitErr, ok := err.(*exec.ExitError); ok {
		return string(output) + string(exitErr.Stderr), err
	}
	return string(output), err
}

// runJSON runs a command that must succeed and decodes its output
func runJSON[T any](t *testing.T, r *cliRunner, args ...string) T {
	t.Helper()
	output, err := r.run(args...)
	require.NoError(t, err, "output: %s", output)

	var v T
	require.NoError(t, json.Unmarshal([]byte(output), &v), "output: %s", output)
	return v
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// startTestServer runs a real HTTP server backed by a SQLite file
func startTestServer(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	authCfg := auth.DefaultConfig()
	authCfg.Secret = "e2e-secret"

	app, err := factory.New(context.Background(), factory.Config{
		StorageType:    factory.StorageTypeSQLite,
		DatabaseDSN:    filepath.Join(t.TempDir(), "dinkup.db"),
		AuthConfig:     authCfg,
		PayLinkBaseURL: "https://pay.example.com/",
		Logger:         logger,
	})
	require.NoError(t, err)

	server := &http.Server{Handler: app.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.Serve(listener); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
		_ = app.Close()
	})

	serverURL := "http://" + listener.Addr().String()
	waitForServer(t, serverURL+"/api/v1/health")
	return serverURL
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type authResponse struct {
	Token  string `json:"token"`
	Player struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"player"`
}

type poolResponse struct {
	ID         string `json:"id"`
	InviteCode string `json:"invite_code"`
	Members    []struct {
		PlayerID string `json:"player_id"`
	} `json:"members"`
}

type participantResponse struct {
	ID               string `json:"id"`
	PlayerID         string `json:"player_id"`
	Status           string `json:"status"`
	WaitlistPosition int    `json:"waitlist_position"`
}

type sessionResponse struct {
	ID           string                `json:"id"`
	Status       string                `json:"status"`
	RosterLocked bool                  `json:"roster_locked"`
	Participants []participantResponse `json:"participants"`
}

type costResponse struct {
	GuestCount int    `json:"guest_count"`
	PerGuest   string `json:"per_guest"`
	Locked     bool   `json:"locked"`
}

type paymentResponse struct {
	ID       string `json:"id"`
	PlayerID string `json:"player_id"`
	Amount   string `json:"amount"`
	Status   string `json:"status"`
	Link     string `json:"link"`
}

type dashboardResponse struct {
	Payments    []paymentResponse `json:"payments"`
	Collected   string            `json:"collected"`
	Outstanding string            `json:"outstanding"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	serverURL := startTestServer(t)
	cli := newCLIRunner(t, buildCLI(t), serverURL)

	resp := runJSON[map[string]string](t, cli, "health")
	assert.Equal(t, "ok", resp["status"])
}

func TestCLI_AccountCommands(t *testing.T) {
	serverURL := startTestServer(t)
	cli := newCLIRunner(t, buildCLI(t), serverURL)

	registered := runJSON[authResponse](t, cli, "account", "register",
		"--name", "Ann", "--email", "ann@example.com", "--password", "password123")
	assert.Equal(t, "Ann", registered.Player.Name)
	assert.NotEmpty(t, registered.Token)

	// Token is saved to the token file
	me := runJSON[map[string]any](t, cli, "account", "me")
	assert.Equal(t, registered.Player.ID, me["id"])

	// Logging in again with a wrong password fails
	output, err := cli.run("account", "login", "--email", "ann@example.com", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, output, "INVALID_CREDENTIALS")
}

func TestCLI_FullSessionFlow(t *testing.T) {
	serverURL := startTestServer(t)
	binary := buildCLI(t)

	owner := newCLIRunner(t, binary, serverURL)
	ben := newCLIRunner(t, binary, serverURL)
	cat := newCLIRunner(t, binary, serverURL)

	runJSON[authResponse](t, owner, "account", "register", "--name", "Olive", "--email", "olive@example.com", "--password", "password123")
	runJSON[map[string]any](t, owner, "account", "update", "--payment-handle", "@olive-pays")
	benAuth := runJSON[authResponse](t, ben, "account", "register", "--name", "Ben", "--email", "ben@example.com", "--password", "password123")
	catAuth := runJSON[authResponse](t, cat, "account", "register", "--name", "Cat", "--email", "cat@example.com", "--password", "password123")

	// Pool with invite code
	pool := runJSON[poolResponse](t, owner, "pool", "create", "--name", "Tuesday Dinks")
	runJSON[poolResponse](t, ben, "pool", "join", pool.InviteCode)
	joined := runJSON[poolResponse](t, cat, "pool", "join", pool.InviteCode)
	assert.Len(t, joined.Members, 3)

	// Two seats: the owner holds one
	startsAt := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	deadline := time.Now().Add(12 * time.Hour).UTC().Format(time.RFC3339)
	session := runJSON[sessionResponse](t, owner, "session", "create", pool.ID,
		"--starts-at", startsAt, "--min", "2", "--max", "2", "--courts", "1",
		"--cost-per-court", "40.00", "--guest-pool", "24.00", "--deadline", deadline)
	assert.Equal(t, "proposed", session.Status)

	benSeat := runJSON[participantResponse](t, ben, "session", "join", session.ID)
	assert.Equal(t, "committed", benSeat.Status)

	catSeat := runJSON[participantResponse](t, cat, "session", "join", session.ID)
	assert.Equal(t, "maybe", catSeat.Status)
	assert.Equal(t, 1, catSeat.WaitlistPosition)

	waitlist := runJSON[[]participantResponse](t, owner, "session", "waitlist", session.ID)
	require.Len(t, waitlist, 1)
	assert.Equal(t, catAuth.Player.ID, waitlist[0].PlayerID)

	// Ben leaving promotes Cat
	output, err := ben.run("session", "leave", session.ID)
	require.NoError(t, err, "output: %s", output)

	current := runJSON[sessionResponse](t, owner, "session", "get", session.ID)
	for _, p := range current.Participants {
		if p.PlayerID == catAuth.Player.ID {
			assert.Equal(t, "committed", p.Status)
		}
		assert.NotEqual(t, benAuth.Player.ID, p.PlayerID)
	}

	cost := runJSON[costResponse](t, owner, "session", "cost", session.ID)
	assert.Equal(t, 1, cost.GuestCount)
	assert.Equal(t, "24.00", cost.PerGuest)
	assert.False(t, cost.Locked)

	runJSON[sessionResponse](t, owner, "session", "confirm", session.ID, "--court", "3", "--location", "Riverside")
	locked := runJSON[sessionResponse](t, owner, "session", "lock", session.ID)
	assert.True(t, locked.RosterLocked)

	// Guests can't see the payment dashboard
	_, err = cat.run("payment", "dashboard", session.ID)
	require.Error(t, err)

	outstanding := runJSON[[]paymentResponse](t, owner, "payment", "outstanding", session.ID)
	require.Len(t, outstanding, 1)
	assert.Equal(t, catAuth.Player.ID, outstanding[0].PlayerID)
	assert.Equal(t, "24.00", outstanding[0].Amount)
	assert.Contains(t, outstanding[0].Link, "olive-pays")

	reminded := runJSON[map[string]int](t, owner, "payment", "remind", "--window", "24h")
	assert.Equal(t, 1, reminded["sent"])

	paid := runJSON[paymentResponse](t, owner, "payment", "mark-paid", outstanding[0].ID)
	assert.Equal(t, "paid", paid.Status)

	dashboard := runJSON[dashboardResponse](t, owner, "payment", "dashboard", session.ID)
	assert.Equal(t, "24.00", dashboard.Collected)
	assert.Equal(t, "0.00", dashboard.Outstanding)

	completed := runJSON[sessionResponse](t, owner, "session", "complete", session.ID)
	assert.Equal(t, "completed", completed.Status)
}
