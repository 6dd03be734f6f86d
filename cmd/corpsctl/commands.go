package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	u "github.com/gofrs/uuid/v5"

	"github.com/and161185/cadetcorps/internal/api"
	"github.com/and161185/cadetcorps/internal/model"
)

const rpcTimeout = 30 * time.Second

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), rpcTimeout)
}

// session opens an authenticated connection using the saved token.
func session(ctx context.Context, o connOpts) (*api.CorpsClient, func(), error) {
	tf, err := loadToken()
	if err != nil {
		return nil, nil, err
	}
	cc, cli, err := dial(ctx, o, tf.AccessToken)
	if err != nil {
		return nil, nil, err
	}
	return cli, func() { _ = cc.Close() }, nil
}

// run executes call on an authenticated client and prints the result as JSON.
func run[T any](o connOpts, call func(context.Context, *api.CorpsClient) (T, error)) {
	ctx, cancel := withTimeout()
	defer cancel()
	cli, closeFn, err := session(ctx, o)
	if err != nil {
		fail(err)
	}
	defer closeFn()
	out, err := call(ctx, cli)
	if err != nil {
		fail(err)
	}
	printJSON(out)
}

func need(ok bool, msg string) {
	if !ok {
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
}

// ------- validators -------

func validDate(s string) error {
	if _, err := time.Parse(model.DateLayout, s); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %q", s)
	}
	return nil
}

func validUUID(s string) error {
	if _, err := u.FromString(s); err != nil {
		return fmt.Errorf("invalid uuid %q", s)
	}
	return nil
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// readIDs reads one id per line; blank lines and #-comments are skipped.
func readIDs(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// attendees merges -attendees and -file and validates every id.
func attendees(list, file string) ([]string, error) {
	ids := splitList(list)
	if file != "" {
		var r io.Reader = os.Stdin
		if file != "-" {
			f, err := os.Open(file)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			r = f
		}
		more, err := readIDs(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, more...)
	}
	if len(ids) == 0 {
		return nil, errors.New("no attendees given")
	}
	for _, id := range ids {
		if err := validUUID(id); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// ------- commands -------

func cmdLogin(args []string, o connOpts) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("e", "", "email")
	pass := fs.String("p", "", "password")
	_ = fs.Parse(args)
	need(*email != "" && *pass != "", "need -e and -p")

	ctx, cancel := withTimeout()
	defer cancel()
	cc, cli, err := dial(ctx, o, "")
	if err != nil {
		fail(err)
	}
	defer cc.Close()

	resp, err := cli.Login(ctx, &api.LoginRequest{Email: *email, Password: *pass})
	if err != nil {
		fail(err)
	}
	tf := tokenFile{
		AccessToken: resp.AccessToken,
		ExpiresAt:   tokenExpiry(resp),
		UserID:      resp.Member.ID,
		Role:        resp.Member.Role,
	}
	if err := saveToken(tf); err != nil {
		fail(err)
	}
	if resp.Member.MustChangePassword {
		fmt.Fprintln(os.Stderr, "password change required: corpsctl passwd -old ... -new ...")
	}
	fmt.Printf("ok (%s, %s)\n", resp.Member.FullName, resp.Member.Role)
}

func cmdPasswd(args []string, o connOpts) {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	oldPw := fs.String("old", "", "current password")
	newPw := fs.String("new", "", "new password")
	_ = fs.Parse(args)
	need(*oldPw != "" && *newPw != "", "need -old and -new")

	run(o, func(ctx context.Context, c *api.CorpsClient) (*api.Empty, error) {
		return c.ChangePassword(ctx, &api.ChangePasswordRequest{OldPassword: *oldPw, NewPassword: *newPw})
	})
}

func cmdProvision(args []string, o connOpts) {
	fs := flag.NewFlagSet("provision", flag.ExitOnError)
	req := &api.ProvisionRequest{}
	fs.StringVar(&req.Email, "e", "", "email")
	fs.StringVar(&req.FullName, "name", "", "full name")
	fs.StringVar(&req.Phone, "phone", "", "phone")
	fs.StringVar(&req.Role, "role", string(model.RoleCadet), "cadet|admin")
	fs.StringVar(&req.RegisterNumber, "reg", "", "register number (cadets)")
	fs.StringVar(&req.Year, "year", "", "year of study (cadets)")
	fs.StringVar(&req.Department, "dept", "", "department (cadets)")
	fs.StringVar(&req.Wing, "wing", "", "wing")
	fs.StringVar(&req.Squad, "squad", "", "squad")
	fs.StringVar(&req.Password, "p", "", "initial password (cadets default to the unit password)")
	_ = fs.Parse(args)
	need(req.Email != "" && req.FullName != "" && req.Phone != "", "need -e -name -phone")

	run(o, func(ctx context.Context, c *api.CorpsClient) (*api.Member, error) {
		return c.Provision(ctx, req)
	})
}

func cmdMembers(args []string, o connOpts) {
	fs := flag.NewFlagSet("members", flag.ExitOnError)
	role := fs.String("role", "", "cadet|admin")
	st := fs.String("status", "", "active|alumni")
	_ = fs.Parse(args)

	run(o, func(ctx context.Context, c *api.CorpsClient) (*api.ListMembersResponse, error) {
		return c.ListMembers(ctx, &api.ListMembersRequest{Role: *role, Status: *st})
	})
}

func cmdStatus(args []string, o connOpts) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	id := fs.String("id", "", "member id (uuid)")
	set := fs.String("set", "", "active|alumni")
	_ = fs.Parse(args)
	need(*id != "" && *set != "", "need -id and -set")
	if err := validUUID(*id); err != nil {
		fail(err)
	}

	run(o, func(ctx context.Context, c *api.CorpsClient) (*api.Empty, error) {
		return c.SetMemberStatus(ctx, &api.SetMemberStatusRequest{ID: *id, Status: *set})
	})
}

func cmdLeaderboard(_ []string, o connOpts) {
	run(o, func(ctx context.Context, c *api.CorpsClient) (*api.ListMembersResponse, error) {
		return c.Leaderboard(ctx)
	})
}

func cmdSessionCreate(args []string, o connOpts) {
	fs := flag.NewFlagSet("session-create", flag.ExitOnError)
	date := fs.String("date", time.Now().Format(model.DateLayout), "session date (YYYY-MM-DD)")
	label := fs.String("label", "", "session label")
	kind := fs.String("kind", "", "normal|extra|camp|duty|custom")
	points := fs.Int64("points", 0, "points per attendee")
	list := fs.String("attendees", "", "comma-separated cadet ids")
	file := fs.String("file", "", "file with one cadet id per line ('-'=stdin)")
	_ = fs.Parse(args)
	need(*label != "" && *points > 0, "need -label and -points > 0")
	if err := validDate(*date); err != nil {
		fail(err)
	}
	ids, err := attendees(*list, *file)
	if err != nil {
		fail(err)
	}

	run(o, func(ctx context.Context, c *api.CorpsClient) (*api.Session, error) {
		return c.CreateSession(ctx, &api.CreateSessionRequest{
			Date: *date, Label: *label, Kind: *kind, PointValue: *points, Attendees: ids,
		})
	})
}

func cmdSessionDelete(args []string, o connOpts) {
	fs := flag.NewFlagSet("session-rm", flag.ExitOnError)
	id := fs.String("id", "", "session id (uuid)")
	_ = fs.Parse(args)
	need(*id != "", "need -id")
	if err := validUUID(*id); err != nil {
		fail(err)
	}

	run(o, func(ctx context.Context, c *api.CorpsClient) (*api.Session, error) {
		return c.DeleteSession(ctx, &api.IDRequest{ID: *id})
	})
}

func cmdSessions(args []string, o connOpts) {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	limit := fs.Int("limit", 0, "max sessions (server default when 0)")
	_ = fs.Parse(args)

	run(o, func(ctx context.Context, c *api.CorpsClient) (*api.ListSessionsResponse, error) {
		return c.ListSessions(ctx, &api.ListSessionsRequest{Limit: *limit})
	})
}

func cmdSummary(args []string, o connOpts) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	user := fs.String("user", "", "cadet id (default: self)")
	_ = fs.Parse(args)

	run(o, func(ctx context.Context, c *api.CorpsClient) (*api.Summary, error) {
		return c.AttendanceSummary(ctx, &api.SummaryRequest{UserID: *user})
	})
}

func cmdHistory(args []string, o connOpts) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	user := fs.String("user", "", "cadet id (default: self)")
	_ = fs.Parse(args)

	run(o, func(ctx context.Context, c *api.CorpsClient) (*api.ListSessionsResponse, error) {
		return c.AttendanceHistory(ctx, &api.SummaryRequest{UserID: *user})
	})
}

func cmdAnnounce(args []string, o connOpts) {
	fs := flag.NewFlagSet("announce", flag.ExitOnError)
	title := fs.String("title", "", "title")
	desc := fs.String("desc", "", "description")
	link := fs.String("link", "", "optional link")
	_ = fs.Parse(args)
	need(*title != "" && *desc != "", "need -title and -desc")

	run(o, func(ctx context.Context, c *api.CorpsClient) (*api.Announcement, error) {
		return c.PostAnnouncement(ctx, &api.PostAnnouncementRequest{Title: *title, Description: *desc, Link: *link})
	})
}

func cmdDocs(args []string, o connOpts) {
	fs := flag.NewFlagSet("docs", flag.ExitOnError)
	user := fs.String("user", "", "cadet id")
	st := fs.String("status", "", "pending|approved|rejected")
	_ = fs.Parse(args)

	run(o, func(ctx context.Context, c *api.CorpsClient) (*api.ListDocumentsResponse, error) {
		return c.ListDocuments(ctx, &api.ListDocumentsRequest{UserID: *user, Status: *st})
	})
}

func cmdReviewDoc(args []string, o connOpts) {
	fs := flag.NewFlagSet("review-doc", flag.ExitOnError)
	id := fs.String("id", "", "document id (uuid)")
	st := fs.String("status", "", "approved|rejected")
	reason := fs.String("reason", "", "rejection reason")
	_ = fs.Parse(args)
	need(*id != "" && *st != "", "need -id and -status")

	run(o, func(ctx context.Context, c *api.CorpsClient) (*api.Document, error) {
		return c.ReviewDocument(ctx, &api.ReviewRequest{ID: *id, Status: *st, Reason: *reason})
	})
}

func cmdWatch(args []string, o connOpts) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cols := fs.String("c", "", "comma-separated collections (default: all)")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cli, closeFn, err := session(ctx, o)
	if err != nil {
		fail(err)
	}
	defer closeFn()

	stream, err := cli.WatchChanges(ctx, &api.WatchRequest{Collections: splitList(*cols)})
	if err != nil {
		fail(err)
	}
	for {
		ch, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return
			}
			fail(err)
		}
		fmt.Println(formatChange(ch))
	}
}

func formatChange(c *api.Change) string {
	id := c.ID
	if id == "" {
		id = "*"
	}
	return fmt.Sprintf("%s %-13s %-7s %s", c.At.UTC().Format(time.RFC3339), c.Collection, c.Op, id)
}
