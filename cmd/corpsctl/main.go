// Command corpsctl is an admin CLI for the Cadet Corps service.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/and161185/cadetcorps/internal/api"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "corpsctl")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "corpsctl")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tf tokenFile) error {
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
	return enc.Encode(tf)
}

func loadToken() (tokenFile, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return tokenFile{}, err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return tokenFile{}, err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return tokenFile{}, errors.New("no valid token (login required)")
	}
	return tf, nil
}

// tokenExpiry prefers the server-reported expiry and falls back to the unverified exp claim.
func tokenExpiry(resp *api.LoginResponse) time.Time {
	if !resp.ExpiresAt.IsZero() {
		return resp.ExpiresAt
	}
	var claims jwt.RegisteredClaims
	_, _, _ = jwt.NewParser().ParseUnverified(resp.AccessToken, &claims)
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(15 * time.Minute)
}

// ---- grpc dial ----

type bearerCreds struct {
	token  string
	secure bool
}

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}
func (b bearerCreds) RequireTransportSecurity() bool { return b.secure }

type connOpts struct {
	addr      string
	caPath    string
	skipCheck bool
	plaintext bool
}

func loadTLS(o connOpts) (credentials.TransportCredentials, error) {
	switch {
	case o.plaintext:
		return insecure.NewCredentials(), nil
	case o.skipCheck:
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil
	case o.caPath == "":
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(o.caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

func dial(ctx context.Context, o connOpts, bearer string) (*grpc.ClientConn, *api.CorpsClient, error) {
	creds, err := loadTLS(o)
	if err != nil {
		return nil, nil, err
	}
	opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if bearer != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(bearerCreds{token: bearer, secure: !o.plaintext}))
	}
	//nolint:staticcheck // DialContext is supported through 1.x; migrate when grpc.NewClient is stable
	cc, err := grpc.DialContext(ctx, o.addr, opts...)
	if err != nil {
		return nil, nil, err
	}
	return cc, api.NewCorpsClient(cc), nil
}

// ---- utils ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Fprintf(os.Stderr, `corpsctl
Usage:
  corpsctl -addr HOST:PORT [-cacert file | -insecure | -plaintext] <cmd> [args]

Commands:
  version
  login          -e <email> -p <password>                    (saves token)
  passwd         -old <password> -new <password>
  provision      -e <email> -name <full name> -phone <phone> [-role cadet|admin]
                 [-reg <register no> -year <y> -dept <dept>] [-wing] [-squad] [-p <password>]
  members        [-role cadet|admin] [-status active|alumni]
  status         -id <uuid> -set active|alumni
  leaderboard
  session-create -date YYYY-MM-DD -label <label> -points <n> [-kind normal|extra|camp|duty|custom]
                 (-attendees id,id,... | -file <path> ('-'=stdin, one id per line))
  session-rm     -id <uuid>
  sessions       [-limit n]
  summary        [-user <uuid>]
  history        [-user <uuid>]
  announce       -title <title> -desc <text> [-link <url>]
  docs           [-user <uuid>] [-status pending|approved|rejected]
  review-doc     -id <uuid> -status approved|rejected [-reason <text>]
  watch          [-c sessions,users,...]                     (streams until Ctrl-C)
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands and configures TLS/auth for RPC calls.
func main() {
	// global flags
	var o connOpts
	flag.StringVar(&o.addr, "addr", "localhost:8443", "server addr")
	flag.StringVar(&o.caPath, "cacert", "", "CA cert (PEM)")
	flag.BoolVar(&o.skipCheck, "insecure", false, "skip cert verify (dev)")
	flag.BoolVar(&o.plaintext, "plaintext", false, "connect without TLS (dev)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	switch cmd {
	case "version":
		fmt.Printf("corpsctl %s (%s)\n", version, buildDate)
	case "login":
		cmdLogin(args, o)
	case "passwd":
		cmdPasswd(args, o)
	case "provision":
		cmdProvision(args, o)
	case "members":
		cmdMembers(args, o)
	case "status":
		cmdStatus(args, o)
	case "leaderboard":
		cmdLeaderboard(args, o)
	case "session-create":
		cmdSessionCreate(args, o)
	case "session-rm":
		cmdSessionDelete(args, o)
	case "sessions":
		cmdSessions(args, o)
	case "summary":
		cmdSummary(args, o)
	case "history":
		cmdHistory(args, o)
	case "announce":
		cmdAnnounce(args, o)
	case "docs":
		cmdDocs(args, o)
	case "review-doc":
		cmdReviewDoc(args, o)
	case "watch":
		cmdWatch(args, o)
	default:
		usage()
	}
}

// ---- helpers ----

func fail(err error) {
	if s, ok := status.FromError(err); ok {
		fmt.Fprintf(os.Stderr, "rpc error: code=%s msg=%s\n", s.Code(), s.Message())
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
