package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-hackathon-store/config"
	"github.com/goliatone/go-hackathon-store/pagination"
	"github.com/goliatone/go-hackathon-store/pkg/di"
	"github.com/goliatone/go-hackathon-store/pkg/testsupport"
)

// harness runs commands against one in-memory container with a ticking clock.
type harness struct {
	t         *testing.T
	container *di.Container
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := testsupport.NewClock(testsupport.Epoch)
	container, err := di.NewContainer(context.Background(), config.Default(),
		di.WithClock(clock.Tick(time.Second)),
		di.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	return &harness{t: t, container: container}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	opts := &RootOptions{
		Open: func(context.Context, *RootOptions) (*di.Container, error) {
			return h.container, nil
		},
	}
	cmd := newRootCommand(opts)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "hackathonctl %s\n%s", strings.Join(args, " "), out)
	return out
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func seedSpring(h *harness) {
	h.mustRun("hackathon", "create", "Spring",
		"--display-name", "Spring Hack",
		"--max-enrollment", "50",
		"--starts", "2024-03-01T00:00:00Z",
		"--ends", "2024-03-31T00:00:00Z",
	)
	h.mustRun("enroll", "spring", "alice")
	h.mustRun("enroll", "spring", "bob")
	h.mustRun("enroll", "spring", "carol", "--ext", "team=red")
	h.mustRun("enrollments", "approve", "spring", "alice")
	h.mustRun("enrollments", "approve", "spring", "bob")
	h.mustRun("enrollments", "reject", "spring", "bob")
}

func TestHackathonGet_Golden(t *testing.T) {
	h := newHarness(t)
	seedSpring(h)

	out := h.mustRun("hackathon", "get", "SPRING")
	newGoldie(t).Assert(t, "hackathon_get", []byte(out))
}

func TestEnrollmentsList_Golden(t *testing.T) {
	h := newHarness(t)
	seedSpring(h)

	out := h.mustRun("enrollments", "list", "spring")
	newGoldie(t).Assert(t, "enrollments_list", []byte(out))
}

func TestEnrollmentsList_StatusAndPaging(t *testing.T) {
	h := newHarness(t)
	seedSpring(h)

	out := h.mustRun("enrollments", "list", "spring", "--status", "approved")
	assert.Equal(t, "alice\tapproved\t2024-03-01T09:00:02Z\n", out)

	out = h.mustRun("--format", "json", "enrollments", "list", "spring", "--page-size", "2")
	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Items []map[string]any `json:"items"`
			Next  string           `json:"next"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Items, 2)
	require.NotEmpty(t, resp.Data.Next)

	out = h.mustRun("enrollments", "list", "spring", "--page-size", "2", "--token", resp.Data.Next)
	assert.Equal(t, "carol\tpendingApproval\t2024-03-01T09:00:04Z\n", out)

	_, err := h.run("enrollments", "list", "spring", "--status", "maybe")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestCounterSweep_Golden(t *testing.T) {
	h := newHarness(t)
	seedSpring(h)

	out := h.mustRun("--format", "json", "counter", "sweep", "spring")
	newGoldie(t).Assert(t, "counter_sweep", []byte(out))

	out = h.mustRun("counter", "sweep", "spring")
	assert.Equal(t, "spring: 1 (ok)\n", out)
}

func TestWorksList_Golden(t *testing.T) {
	h := newHarness(t)
	h.mustRun("works", "create", "team-1", "--hackathon", "spring", "--title", "Landing page", "--url", "https://example.com")
	h.mustRun("works", "create", "team-1", "--hackathon", "spring", "--title", "Demo video", "--type", "video")

	out := h.mustRun("works", "list", "team-1")
	newGoldie(t).Assert(t, "works_list", []byte(out))

	_, err := h.run("works", "create", "team-1", "--hackathon", "spring", "--title", "x", "--type", "hologram")
	require.Error(t, err)
}

func TestTokenDecode_Golden(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("token", "decode", "!!not-a-token!!")
	newGoldie(t).Assert(t, "token_decode_malformed", []byte(out))
}

func TestTokenRoundTrip(t *testing.T) {
	h := newHarness(t)

	token := strings.TrimSpace(h.mustRun("token", "encode", "--offset", "20", "--page-size", "10"))
	assert.Equal(t, pagination.OffsetCursor(20, 10), pagination.Decode(token))

	out := h.mustRun("--format", "json", "token", "decode", token)
	var resp struct {
		Data TokenOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 20, resp.Data.Offset)
	assert.Equal(t, 10, resp.Data.PageSize)

	_, err := h.run("token", "encode", "--offset", "1", "--row", "x")
	assert.Error(t, err)
}

func TestCommandErrors(t *testing.T) {
	h := newHarness(t)
	seedSpring(h)

	tests := []struct {
		name string
		args []string
		code string
		exit int
	}{
		{"missing hackathon", []string{"hackathon", "get", "winter"}, ErrCodeNotFound, ExitFailure},
		{"duplicate hackathon", []string{"hackathon", "create", "spring"}, ErrCodeConflict, ExitFailure},
		{"bad window", []string{"hackathon", "create", "x", "--starts", "yesterday"}, ErrCodeValidation, ExitFailure},
		{"duplicate enrollment", []string{"enroll", "spring", "alice"}, ErrCodeConflict, ExitFailure},
		{"enroll unknown hackathon", []string{"enroll", "winter", "alice"}, ErrCodeNotFound, ExitFailure},
		{"bad extension", []string{"enroll", "spring", "dave", "--ext", "novalue"}, ErrCodeValidation, ExitFailure},
		{"approve unknown user", []string{"enrollments", "approve", "spring", "zed"}, ErrCodeNotFound, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--format", "json"}, tt.args...)
			out, err := h.run(args...)
			require.Error(t, err)
			assert.Equal(t, tt.exit, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("--format", "xml", "token", "decode", "x")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
