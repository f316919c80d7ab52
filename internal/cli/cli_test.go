package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/scopa-go/internal/model"
	filestorage "github.com/mcoot/scopa-go/internal/storage/file"
	"github.com/mcoot/scopa-go/internal/testutil/scopaserver"
)

type CLISuite struct {
	suite.Suite
	fake      *scopaserver.Server
	serverURL string
	dir       string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	s.dir = s.T().TempDir()
	// Keep the user's own ~/.scopa out of the tests
	s.T().Setenv("HOME", s.dir)
	fake, ts := scopaserver.Start(s.T())
	s.fake = fake
	s.serverURL = ts.URL
}

// run executes the CLI as the player whose state lives in statePath
func (s *CLISuite) run(statePath, stdin string, args ...string) (string, error) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{
		"--server", s.serverURL,
		"--storage", "file",
		"--storage-path", statePath,
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (s *CLISuite) statePath(player string) string {
	return filepath.Join(s.dir, player+".json")
}

func (s *CLISuite) identity(player string) IdentityResult {
	out, err := s.run(s.statePath(player), "", "identity", "-o", "json")
	s.Require().NoError(err)
	var result IdentityResult
	s.Require().NoError(json.Unmarshal([]byte(out), &result))
	return result
}

func (s *CLISuite) TestIdentityIsStableAcrossRuns() {
	first := s.identity("alice")
	second := s.identity("alice")

	s.Len(first.PlayerID, 32)
	s.Equal(first.PlayerID, second.PlayerID)
	s.NotEqual(first.PlayerID, s.identity("bob").PlayerID)
}

func (s *CLISuite) TestIdentitySetsName() {
	out, err := s.run(s.statePath("alice"), "", "identity", "--name", "Alice")
	s.Require().NoError(err)
	s.Contains(out, "Username: Alice")

	s.Equal("Alice", s.identity("alice").Username)
}

func (s *CLISuite) TestCreateThenStateShowsWaiting() {
	out, err := s.run(s.statePath("alice"), "", "create", "-o", "json")
	s.Require().NoError(err)

	var created GameResult
	s.Require().NoError(json.Unmarshal([]byte(out), &created))
	s.Equal(1, created.GameID)
	s.Equal("scopa join 1", created.Invite)

	out, err = s.run(s.statePath("alice"), "", "state", "1")
	s.Require().NoError(err)
	s.Contains(out, "Game: 1")
	s.Contains(out, "Waiting for the second player... (1/2)")
}

func (s *CLISuite) TestCreateWritesInviteQR() {
	qrPath := filepath.Join(s.dir, "invite.png")
	out, err := s.run(s.statePath("alice"), "", "create", "--qr", qrPath)
	s.Require().NoError(err)
	s.Contains(out, "QR code: "+qrPath)

	info, err := os.Stat(qrPath)
	s.Require().NoError(err)
	s.Positive(info.Size())
}

func (s *CLISuite) TestJoinAndMove() {
	_, err := s.run(s.statePath("alice"), "", "create")
	s.Require().NoError(err)

	out, err := s.run(s.statePath("bob"), "", "join", "1")
	s.Require().NoError(err)
	s.Contains(out, "Game ID: 1")

	out, err = s.run(s.statePath("alice"), "", "state", "1", "-o", "json")
	s.Require().NoError(err)
	var state StateResult
	s.Require().NoError(json.Unmarshal([]byte(out), &state))
	s.Equal(model.PhaseActive, state.State.Phase)
	s.True(state.State.YourTurn)
	s.Len(state.State.Hand, 3)

	out, err = s.run(s.statePath("alice"), "", "move", "1", "0")
	s.Require().NoError(err)
	s.Contains(out, "Played card 0 in game 1")

	game, ok := s.fake.Snapshot(1)
	s.Require().True(ok)
	s.Len(game.Table, 5)
	s.Len(game.Hands[0], 2)
}

func (s *CLISuite) TestMoveShowsServerReason() {
	_, err := s.run(s.statePath("alice"), "", "move", "99", "0")
	s.Require().Error(err)
	s.Contains(err.Error(), "Partita non trovata o non partecipante")
}

func (s *CLISuite) TestRejectsInvalidArguments() {
	_, err := s.run(s.statePath("alice"), "", "state", "abc")
	s.ErrorContains(err, "invalid game id")

	_, err = s.run(s.statePath("alice"), "", "move", "1", "-2")
	s.Error(err)
}

func (s *CLISuite) TestResultsConsumesScore() {
	score := model.ScoreSnapshot{Player1: 3, Player2: 1, Sweeps: [2]int{1, 0}}
	store := filestorage.New(s.statePath("alice"))
	s.Require().NoError(store.SaveFinalScore(context.Background(), score))

	out, err := s.run(s.statePath("alice"), "", "results", "-o", "json")
	s.Require().NoError(err)
	var got model.ScoreSnapshot
	s.Require().NoError(json.Unmarshal([]byte(out), &got))
	s.Equal(score, got)

	_, err = s.run(s.statePath("alice"), "", "results")
	s.ErrorIs(err, model.ErrScoreNotFound)
}

func (s *CLISuite) TestResultsWritesHTMLPage() {
	store := filestorage.New(s.statePath("alice"))
	s.Require().NoError(store.SaveFinalScore(context.Background(), model.ScoreSnapshot{Player1: 1, Player2: 4}))

	page := filepath.Join(s.dir, "results.html")
	out, err := s.run(s.statePath("alice"), "", "results", "--html", page)
	s.Require().NoError(err)
	s.Contains(out, "Results written to "+page)

	f, err := os.Open(page)
	s.Require().NoError(err)
	defer func() { _ = f.Close() }()
	doc, err := goquery.NewDocumentFromReader(f)
	s.Require().NoError(err)
	s.Equal("Player 2 wins!", strings.TrimSpace(doc.Find("#winner").Text()))
}

func (s *CLISuite) TestResultsKeepsScoreWhenPageFails() {
	store := filestorage.New(s.statePath("alice"))
	s.Require().NoError(store.SaveFinalScore(context.Background(), model.ScoreSnapshot{Player1: 1}))

	_, err := s.run(s.statePath("alice"), "", "results", "--html", filepath.Join(s.dir, "missing", "results.html"))
	s.Require().Error(err)

	_, err = s.run(s.statePath("alice"), "", "results")
	s.NoError(err)
}

func (s *CLISuite) TestHealth() {
	out, err := s.run(s.statePath("alice"), "", "health")
	s.Require().NoError(err)
	s.Contains(out, "Status: ok")
	s.Contains(out, "Next game ID: 1")
}

func (s *CLISuite) TestHealthServerDown() {
	s.fake.Fail(scopaserver.EndpointHealth, scopaserver.Fault{Status: 503, Detail: "maintenance"})
	_, err := s.run(s.statePath("alice"), "", "health")
	s.ErrorContains(err, "maintenance")
}

func (s *CLISuite) TestPlayJoinsFinishedGameAndSavesScore() {
	s.T().Setenv("SCOPA_HANDOFF_DELAY", "10ms")
	alice := s.identity("alice")
	id := s.fake.Seed(&scopaserver.Game{
		Players:     []string{alice.PlayerID, "bob"},
		Initialized: true,
		Scopa:       [2]int{0, 2},
	})

	out, err := s.run(s.statePath("alice"), "", "play", strconv.Itoa(id))
	s.Require().NoError(err)
	s.Contains(out, "Game over! Preparing the score...")
	s.Contains(out, "Player 2 wins!")

	out, err = s.run(s.statePath("alice"), "", "results", "-o", "json")
	s.Require().NoError(err)
	var score model.ScoreSnapshot
	s.Require().NoError(json.Unmarshal([]byte(out), &score))
	s.Equal([2]int{0, 2}, score.Sweeps)
}

func (s *CLISuite) TestPlayQuitsOnInput() {
	out, err := s.run(s.statePath("alice"), "q\n", "play")
	s.Require().NoError(err)
	s.Contains(out, "Game ID: 1")
	s.Equal(1, s.fake.Calls(scopaserver.EndpointCreate))

	// Nothing was recorded for a match that never finished
	_, err = s.run(s.statePath("alice"), "", "results")
	s.ErrorIs(err, model.ErrScoreNotFound)
}

func (s *CLISuite) TestPlayJSONEvents() {
	out, err := s.run(s.statePath("alice"), "quit\n", "play", "-o", "json")
	s.Require().NoError(err)

	first, _, _ := strings.Cut(out, "\n")
	var event map[string]any
	s.Require().NoError(json.Unmarshal([]byte(first), &event))
	s.Equal("game_id", event["event"])
	s.EqualValues(1, event["game_id"])
}

func (s *CLISuite) TestConfigLayers() {
	configFile := filepath.Join(s.dir, "scopa.yaml")
	s.Require().NoError(os.WriteFile(configFile, []byte(
		"server: http://from-file\npoll_interval: 3s\ntransport: push\nprofile: work\n",
	), 0o600))
	s.T().Setenv("SCOPA_PROFILE", "home")

	// The --server flag from run() beats the file
	out, err := s.run(s.statePath("alice"), "", "config", "--config", configFile)
	s.Require().NoError(err)

	var got map[string]any
	s.Require().NoError(yaml.Unmarshal([]byte(out), &got))
	s.Equal(s.serverURL, got["server"])
	s.Equal("3s", got["poll_interval"])
	s.Equal("push", got["transport"])
	s.Equal("home", got["profile"])
	s.Equal("2s", got["handoff_delay"])
}

func (s *CLISuite) TestConfigReadsDefaultFile() {
	s.Require().NoError(os.MkdirAll(filepath.Join(s.dir, ".scopa"), 0o700))
	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, ".scopa", "config.yaml"), []byte("log_level: debug\n"), 0o600))

	out, err := s.run(s.statePath("alice"), "", "config")
	s.Require().NoError(err)
	s.Contains(out, "log_level: debug")
}

func (s *CLISuite) TestConfigErrors() {
	_, err := s.run(s.statePath("alice"), "", "config", "--config", filepath.Join(s.dir, "missing.yaml"))
	s.ErrorContains(err, "error reading config file")

	_, err = s.run(s.statePath("alice"), "", "--storage", "sqlite", "config")
	s.ErrorContains(err, "storage must be file, memory or redis")

	_, err = s.run(s.statePath("alice"), "", "-o", "xml", "config")
	s.ErrorContains(err, "output must be text or json")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug": "DEBUG",
		"info":  "INFO",
		"warn":  "WARN",
		"error": "ERROR",
		"loud":  "INFO",
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in).String(), in)
	}
}
