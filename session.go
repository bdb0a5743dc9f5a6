package bw_session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hamba/cmd/v3/observe"
	"github.com/hamba/logger/v2"
	lctx "github.com/hamba/logger/v2/ctx"
	"github.com/hamba/statter/v2"
	"gitlab.com/sickit/bw-session/pkg/bwexec"
	"gitlab.com/sickit/bw-session/pkg/item"
	"gitlab.com/sickit/bw-session/pkg/pinentry"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds every CLI invocation so an unattended pinentry or a
// hung `bw` process cannot block forever.
const DefaultTimeout = 40 * time.Second

// Filters are rendered as `--<name> <value>` flags on list calls. Empty
// values are skipped, keys are rendered in sorted order.
type Filters map[string]string

type Option func(*Session)

// WithPassword sets the master password up front so login never prompts.
// This is the supported mode for headless environments.
func WithPassword(password string) Option {
	return func(s *Session) {
		s.password = password
	}
}

// WithExecutable sets the path of the Bitwarden CLI binary instead of
// resolving `bw` on PATH.
func WithExecutable(path string) Option {
	return func(s *Session) {
		s.executable = path
	}
}

// WithTimeout overrides DefaultTimeout for CLI invocations.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		s.timeout = timeout
	}
}

// WithRunner replaces the CLI runner, mainly for tests.
func WithRunner(r bwexec.Runner) Option {
	return func(s *Session) {
		s.runner = r
	}
}

// WithPrompter replaces the pinentry prompter, mainly for tests.
func WithPrompter(p pinentry.Prompter) Option {
	return func(s *Session) {
		s.prompter = p
	}
}

// Session represents a single Bitwarden CLI session. The session token is
// owned exclusively by the instance: it is held in memory while logged in
// and never persisted or shared. A Session may be reused for multiple
// login/logout cycles. It is not safe for concurrent use.
type Session struct {
	username   string
	password   string
	key        string
	executable string
	timeout    time.Duration

	runner   bwexec.Runner
	prompter pinentry.Prompter

	log    *logger.Logger
	stats  *statter.Statter
	tracer trace.Tracer
}

// New creates an unauthenticated Session for the given username.
func New(username string, obsvr *observe.Observer, opts ...Option) (*Session, error) {
	s := &Session{
		username: username,
		timeout:  DefaultTimeout,

		log:    obsvr.Log,
		stats:  obsvr.Stats,
		tracer: obsvr.Tracer("session"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.prompter == nil {
		s.prompter = pinentry.New()
	}
	if s.runner == nil {
		runner, err := bwexec.NewCLI(s.executable, s.timeout)
		if err != nil {
			return nil, err
		}
		s.runner = runner
	}

	return s, nil
}

// LoggedIn reports whether the session currently holds a token.
func (s *Session) LoggedIn() bool {
	return s.key != ""
}

// Login logs into Bitwarden and stores the session token. The password is
// resolved in order: the argument, the construction-time password, an
// interactive pinentry prompt. The password is piped to the CLI on stdin so
// it never shows up in process listings.
func (s *Session) Login(ctx context.Context, password string) (string, error) {
	if password == "" {
		password = s.password
	}
	if password == "" {
		s.log.Debug("no password supplied, prompting", lctx.Str("username", s.username))
		pw, err := s.prompter.Password("Enter your Bitwarden password", ">")
		if err != nil {
			return "", fmt.Errorf("failed to prompt for password: %w", err)
		}
		password = pw
	}

	res, err := s.runner.Run(ctx, bwexec.Input{
		Args:  []string{"login", s.username, "--raw"},
		Stdin: password + "\n",
	})
	if err != nil {
		return "", fmt.Errorf("failed to run login: %w", err)
	}

	switch {
	case strings.Contains(res.Stderr, "API key client_secret"):
		return "", fmt.Errorf("%w: https://bitwarden.com/help/article/cli-auth-challenges/", ErrAPIKeyRequired)
	case strings.Contains(res.Stderr, "Username or password is incorrect"):
		return "", fmt.Errorf("%w: user %q", ErrPasswordIncorrect, s.username)
	}

	key := strings.TrimSpace(res.Stdout)
	if res.ExitCode != 0 || key == "" {
		return "", fmt.Errorf("%w: %s", ErrAuthentication, strings.TrimSpace(res.Stderr))
	}

	s.key = key
	s.log.Debug("logged in", lctx.Str("username", s.username), lctx.Str("key", maskKey(key)))

	return key, nil
}

// Logout logs out of the session. The token is cleared even when the CLI
// reports a failure; the failure is still returned so callers can decide.
// Logging out of an already logged-out session is a no-op.
func (s *Session) Logout(ctx context.Context) error {
	if s.key == "" {
		return nil
	}

	res, err := s.runner.Run(ctx, bwexec.Input{
		Args:    []string{"logout"},
		Session: s.key,
	})
	s.key = ""
	if err != nil {
		return fmt.Errorf("failed to run logout: %w", err)
	}
	if strings.Contains(res.Stderr, "not logged in") {
		return nil
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("failed to log out: %w", &bwexec.ExecError{
			Args:     []string{"logout"},
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
		})
	}

	return nil
}

// Run is the scoped form of a session: it logs in, runs fn, and logs out on
// every exit path, including a panic inside fn. A logout failure during the
// scope exit is best-effort and only logged; the fault from fn is what the
// caller sees.
func (s *Session) Run(ctx context.Context, fn func(ctx context.Context, s *Session) error) error {
	if _, err := s.Login(ctx, ""); err != nil {
		return err
	}
	defer func() {
		if err := s.Logout(ctx); err != nil {
			s.log.Warn("best-effort logout failed", lctx.Err(err))
		}
	}()

	return fn(ctx, s)
}

// Get invokes `bw get <object> <ident>` and returns the raw trimmed output.
// Object is one of the CLI's get targets (item, username, password, uri,
// totp, notes, exposed, attachment, folder, collection, organization,
// template, fingerprint).
func (s *Session) Get(ctx context.Context, object, ident string) (string, error) {
	out, err := s.output(ctx, "get", object, ident)
	if err != nil {
		return "", lookupErr("get "+object, err)
	}

	return strings.TrimSpace(out), nil
}

// GetItem fetches a single vault item by name or id and parses it into a
// Record. Equivalent to `bw get item <ident>`.
func (s *Session) GetItem(ctx context.Context, ident string) (item.Record, error) {
	out, err := s.output(ctx, "get", "item", ident)
	if err != nil {
		return nil, lookupErr("get item", err)
	}

	rec, err := item.Decode(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse item %q: %w", ident, err)
	}

	return rec, nil
}

// GetTemplate fetches an object template for editing or creation, e.g.
// "item", "item.login" or "folder".
func (s *Session) GetTemplate(ctx context.Context, name string) (item.Record, error) {
	out, err := s.output(ctx, "get", "template", name)
	if err != nil {
		return nil, lookupErr("get template", err)
	}

	rec, err := item.Decode(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", name, err)
	}

	return rec, nil
}

// List invokes `bw list <object>` with the filters rendered as flags and
// returns the parsed records in CLI order. The result may be empty.
func (s *Session) List(ctx context.Context, object string, filters Filters) ([]item.Record, error) {
	args := []string{"list", object}

	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if filters[name] == "" {
			continue
		}
		args = append(args, "--"+name, filters[name])
	}

	out, err := s.output(ctx, args...)
	if err != nil {
		return nil, lookupErr("list "+object, err)
	}

	recs, err := item.DecodeList(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s list: %w", object, err)
	}

	return recs, nil
}

// Sync pulls the latest vault state from the server. The wrapper performs
// no retries; callers wanting resilience wrap Sync in their own backoff.
func (s *Session) Sync(ctx context.Context) error {
	if _, err := s.output(ctx, "sync"); err != nil {
		return fmt.Errorf("failed to sync vault: %w", err)
	}

	return nil
}

// Status returns the CLI's status record (server URL, last sync, lock
// state).
func (s *Session) Status(ctx context.Context) (item.Record, error) {
	out, err := s.output(ctx, "status")
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	rec, err := item.Decode(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}

	return rec, nil
}

// output guards the logged-in invariant and runs an authenticated CLI call.
// The invariant check happens before any subprocess is spawned.
func (s *Session) output(ctx context.Context, args ...string) (string, error) {
	if s.key == "" {
		return "", fmt.Errorf("cannot execute %q: %w", args[0], ErrNotLoggedIn)
	}

	s.log.Debug("invoking bitwarden CLI", lctx.Str("args", strings.Join(args, " ")))

	return bwexec.Output(ctx, s.runner, bwexec.Input{
		Args:    args,
		Session: s.key,
	})
}

// lookupErr maps a CLI "no match" or "ambiguous match" exit to ErrNotFound.
func lookupErr(op string, err error) error {
	var execErr *bwexec.ExecError
	if errors.As(err, &execErr) {
		stderr := execErr.Stderr
		if strings.Contains(stderr, "Not found") || strings.Contains(stderr, "More than one result") {
			return fmt.Errorf("%s: %w: %s", op, ErrNotFound, strings.TrimSpace(stderr))
		}
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}

func maskKey(key string) string {
	if len(key) < 2 {
		return "..."
	}

	return key[0:1] + "..." + key[len(key)-1:]
}
