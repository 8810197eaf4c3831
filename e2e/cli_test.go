package e2e_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/humanbench/internal/api"
	"github.com/mcoot/humanbench/internal/factory"
	"github.com/mcoot/humanbench/internal/services/auth"
	"github.com/mcoot/humanbench/internal/testutil"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "benchctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/benchctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

// withTokenFile returns a runner for another user against the same server
func (r *cliRunner) withTokenFile(path string) *cliRunner {
	return &cliRunner{binaryPath: r.binaryPath, serverURL: r.serverURL, tokenFile: path}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "BENCHCTL_TOKEN=")
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runJSON(t *testing.T, dst any, args ...string) {
	t.Helper()
	out, err := r.run(args...)
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), dst), out)
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

// startTestServer runs the real API server on a free local port
func startTestServer(t *testing.T) string {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	logger := testutil.NopLogger()
	authCfg := auth.DefaultConfig()
	authCfg.Secret = "e2e-secret"

	app, err := factory.New(factory.Config{AuthConfig: authCfg, Logger: logger})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Metrics:        app.Metrics,
		Clock:          app.Clock,
		Store:          app.Storage,
		AuthService:    app.AuthService,
		ScoringService: app.ScoringService,
		RankingService: app.RankingService,
		RoomsService:   app.RoomsService,
	})

	serverCfg := api.DefaultServerConfig()
	serverCfg.Host = "127.0.0.1"
	serverCfg.Port = port
	server := api.NewServer(router, serverCfg, logger)

	go func() {
		if err := server.Start(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})

	serverURL := "http://127.0.0.1:" + strconv.Itoa(port)
	waitForServer(t, serverURL+"/api/health")
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
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Guest    bool   `json:"guest"`
	} `json:"user"`
}

type roomResponse struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Members []struct {
		UserID  string `json:"userId"`
		IsAdmin bool   `json:"isAdmin"`
	} `json:"members"`
}

type joinResponse struct {
	Message string       `json:"message"`
	Room    roomResponse `json:"room"`
}

type entryResponse struct {
	Rank     int     `json:"rank"`
	Value    float64 `json:"value"`
	Username string  `json:"username"`
	Guest    bool    `json:"guest"`
}

func TestCLIEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	serverURL := startTestServer(t)
	host := newCLIRunner(t, serverURL)
	player := host.withTokenFile(filepath.Join(t.TempDir(), "player-token"))

	var health struct {
		Status string `json:"status"`
	}
	host.runJSON(t, &health, "health")
	assert.Equal(t, "ok", health.Status)

	// Host registers, player stays a guest
	var hostAuth authResponse
	host.runJSON(t, &hostAuth, "auth", "register", "--email", "host@example.com", "--pass", "password1", "--username", "host")
	assert.False(t, hostAuth.User.Guest)

	var playerAuth authResponse
	player.runJSON(t, &playerAuth, "auth", "guest")
	assert.True(t, playerAuth.User.Guest)

	// Host creates a room and the player joins it
	var room roomResponse
	host.runJSON(t, &room, "room", "create", "--name", "Finals")
	require.Len(t, room.Code, 6)
	assert.Equal(t, "Finals", room.Name)

	var joined joinResponse
	player.runJSON(t, &joined, "room", "join", room.Code)
	assert.Equal(t, "Joined room successfully", joined.Message)
	assert.Len(t, joined.Room.Members, 2)

	player.runJSON(t, &joined, "room", "join", room.Code)
	assert.Equal(t, "Already joined", joined.Message)

	// Both submit number memory scores to the room, host also globally
	var score map[string]any
	host.runJSON(t, &score, "score", "submit", "NUMBER_MEMORY", "9", "--room", room.ID)
	player.runJSON(t, &score, "score", "submit", "NUMBER_MEMORY", "11", "--room", room.ID)
	host.runJSON(t, &score, "score", "submit", "NUMBER_MEMORY", "14")

	var roomBoard []entryResponse
	host.runJSON(t, &roomBoard, "leaderboard", "room", room.Code, "NUMBER_MEMORY")
	require.Len(t, roomBoard, 2)
	assert.Equal(t, 11.0, roomBoard[0].Value)
	assert.Equal(t, playerAuth.User.Username, roomBoard[0].Username)
	assert.True(t, roomBoard[0].Guest)

	var globalBoard []entryResponse
	host.runJSON(t, &globalBoard, "leaderboard", "global", "NUMBER_MEMORY")
	require.Len(t, globalBoard, 3)
	assert.Equal(t, 14.0, globalBoard[0].Value)
	assert.Equal(t, "host", globalBoard[0].Username)

	// Unknown room codes fail
	out, err := player.run("room", "get", "ZZZZZZ")
	require.Error(t, err)
	assert.Contains(t, out, "ROOM_NOT_FOUND")
}
