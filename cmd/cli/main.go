// Command smctl is a CLI client for the SuperMock admin API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/supermock-admin/internal/crypto"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "supermock")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "supermock")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: exp})
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (run smctl token -t <jwt>)")
	}
	return tf.AccessToken, nil
}

// tokenExpiry reads exp from a session JWT without verifying it; the server does that.
func tokenExpiry(tok string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser(jwt.WithoutClaimsValidation()).ParseUnverified(tok, &claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}

// ---- http client ----

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

type client struct {
	base  string
	token string
	http  *http.Client
}

func newClient(base, token string) *client {
	return &client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 60 * time.Second},
	}
}

// do sends in as JSON (when non-nil) and decodes the response into out (when non-nil).
func (c *client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &apiError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// ---- utils ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func parseID(name, v string) (uuid.UUID, error) {
	id, err := uuid.FromString(strings.TrimSpace(v))
	if err != nil {
		return uuid.Nil, fmt.Errorf("-%s: not a uuid: %q", name, v)
	}
	return id, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func usage() {
	fmt.Fprintf(os.Stderr, `smctl %s (%s)

Usage:
  smctl [-addr URL] <command> [flags]

Commands:
  version
  token       -t <jwt>
  config
  add-member  -center <uuid> -name <full name> -email <email> -password <pw> [-role examiner|admin]
  add-student -center <uuid> -name <name> -email <email> [-password <8 digits>] [-enrollment regular|mock_only|visitor]
              [-phone ..] [-guardian ..] [-guardian-phone ..] [-dob YYYY-MM-DD] [-address ..]
  join        -passcode <passcode>
  reviews     -center <uuid>
  preview     -attempt <uuid>
  grading     -module <uuid>
  decide      -module <uuid> -answer <uuid> -correct=true|false -marks <n> [-ref <question ref>]
  decisions   -module <uuid> [-clear]
  save        -module <uuid> [-feedback <text>]
  pin
`, version, buildDate)
	os.Exit(2)
}

func fail(err error) {
	var ae *apiError
	if errors.As(err, &ae) {
		fmt.Fprintf(os.Stderr, "api error: status=%d msg=%s\n", ae.Status, ae.Message)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func authed(addr string) *client {
	tok, err := loadToken()
	if err != nil {
		fail(err)
	}
	return newClient(addr, tok)
}

func main() {
	addr := flag.String("addr", envOr("SMCTL_ADDR", "http://localhost:8080"), "admin API base URL")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "version":
		fmt.Printf("smctl %s (%s)\n", version, buildDate)

	case "token":
		fs := flag.NewFlagSet("token", flag.ExitOnError)
		t := fs.String("t", "", "session access token")
		_ = fs.Parse(args)
		if *t == "" {
			usage()
		}
		exp, err := tokenExpiry(*t)
		if err != nil {
			fail(err)
		}
		if err := saveToken(*t, exp); err != nil {
			fail(err)
		}
		fmt.Printf("token saved, expires %s\n", exp.UTC().Format(time.RFC3339))

	case "config":
		var out map[string]string
		if err := newClient(*addr, "").do(ctx, http.MethodGet, "/config", nil, &out); err != nil {
			fail(err)
		}
		printJSON(out)

	case "pin":
		pin, err := crypto.NewPIN()
		if err != nil {
			fail(err)
		}
		fmt.Println(pin)

	case "add-member":
		out, err := cmdAddMember(ctx, authed(*addr), args)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "add-student":
		out, err := cmdAddStudent(ctx, authed(*addr), args)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "join":
		fs := flag.NewFlagSet("join", flag.ExitOnError)
		pass := fs.String("passcode", "", "center passcode")
		_ = fs.Parse(args)
		var out map[string]any
		if err := authed(*addr).do(ctx, http.MethodPost, "/centers/join", map[string]string{"passcode": *pass}, &out); err != nil {
			fail(err)
		}
		printJSON(out)

	case "reviews":
		fs := flag.NewFlagSet("reviews", flag.ExitOnError)
		center := fs.String("center", "", "center id")
		_ = fs.Parse(args)
		getByID(ctx, authed(*addr), "center", *center, "/centers/%s/reviews")

	case "preview":
		fs := flag.NewFlagSet("preview", flag.ExitOnError)
		attempt := fs.String("attempt", "", "attempt id")
		_ = fs.Parse(args)
		getByID(ctx, authed(*addr), "attempt", *attempt, "/attempts/%s/preview")

	case "grading":
		fs := flag.NewFlagSet("grading", flag.ExitOnError)
		module := fs.String("module", "", "attempt module id")
		_ = fs.Parse(args)
		getByID(ctx, authed(*addr), "module", *module, "/grading/%s")

	case "decide":
		out, err := cmdDecide(ctx, authed(*addr), args)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "decisions":
		fs := flag.NewFlagSet("decisions", flag.ExitOnError)
		module := fs.String("module", "", "attempt module id")
		wipe := fs.Bool("clear", false, "discard the draft")
		_ = fs.Parse(args)
		if !*wipe {
			getByID(ctx, authed(*addr), "module", *module, "/grading/%s/decisions")
			return
		}
		id, err := parseID("module", *module)
		if err != nil {
			fail(err)
		}
		if err := authed(*addr).do(ctx, http.MethodDelete, "/grading/"+id.String()+"/decisions", nil, nil); err != nil {
			fail(err)
		}
		fmt.Println("draft cleared")

	case "save":
		out, err := cmdSave(ctx, authed(*addr), args)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	default:
		usage()
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getByID(ctx context.Context, c *client, name, raw, pattern string) {
	id, err := parseID(name, raw)
	if err != nil {
		fail(err)
	}
	var out any
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf(pattern, url.PathEscape(id.String())), nil, &out); err != nil {
		fail(err)
	}
	printJSON(out)
}

// ---- commands ----

func cmdAddMember(ctx context.Context, c *client, args []string) (map[string]any, error) {
	fs := flag.NewFlagSet("add-member", flag.ContinueOnError)
	center := fs.String("center", "", "center id")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "initial password")
	role := fs.String("role", "examiner", "examiner or admin")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	id, err := parseID("center", *center)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"full_name": *name,
		"email":     *email,
		"password":  *password,
		"center_id": id,
		"role":      *role,
	}
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, "/create/members", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func cmdAddStudent(ctx context.Context, c *client, args []string) (map[string]any, error) {
	fs := flag.NewFlagSet("add-student", flag.ContinueOnError)
	center := fs.String("center", "", "center id")
	name := fs.String("name", "", "student name")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "8-digit PIN, generated when empty")
	enrollment := fs.String("enrollment", "regular", "regular, mock_only or visitor")
	phone := fs.String("phone", "", "phone")
	guardian := fs.String("guardian", "", "guardian name")
	guardianPhone := fs.String("guardian-phone", "", "guardian phone")
	dob := fs.String("dob", "", "date of birth, YYYY-MM-DD")
	address := fs.String("address", "", "address")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	id, err := parseID("center", *center)
	if err != nil {
		return nil, err
	}
	pin := *password
	if pin == "" {
		if pin, err = crypto.NewPIN(); err != nil {
			return nil, err
		}
	}
	body := map[string]any{
		"name":            *name,
		"email":           *email,
		"password":        pin,
		"center_id":       id,
		"enrollment_type": *enrollment,
		"phone":           optional(*phone),
		"guardian":        optional(*guardian),
		"guardian_phone":  optional(*guardianPhone),
		"date_of_birth":   optional(*dob),
		"address":         optional(*address),
	}
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, "/create/student", body, &out); err != nil {
		return nil, err
	}
	if *password == "" {
		out["pin"] = pin
	}
	return out, nil
}

func cmdDecide(ctx context.Context, c *client, args []string) (map[string]any, error) {
	fs := flag.NewFlagSet("decide", flag.ContinueOnError)
	module := fs.String("module", "", "attempt module id")
	answer := fs.String("answer", "", "answer id")
	correct := fs.Bool("correct", false, "whether the answer is correct")
	marks := fs.Float64("marks", 0, "marks awarded")
	ref := fs.String("ref", "", "question reference")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	mid, err := parseID("module", *module)
	if err != nil {
		return nil, err
	}
	aid, err := parseID("answer", *answer)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"questionRef":  *ref,
		"isCorrect":    *correct,
		"marksAwarded": *marks,
	}
	var out map[string]any
	if err := c.do(ctx, http.MethodPut, "/grading/"+mid.String()+"/decisions/"+aid.String(), body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func cmdSave(ctx context.Context, c *client, args []string) (map[string]any, error) {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	module := fs.String("module", "", "attempt module id")
	feedback := fs.String("feedback", "", "overall feedback")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	id, err := parseID("module", *module)
	if err != nil {
		return nil, err
	}
	var body any
	if *feedback != "" {
		body = map[string]any{"feedback": *feedback}
	}
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, "/grading/"+id.String()+"/save", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}
