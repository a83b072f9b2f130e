// Package term is the interactive terminal surface: it renders state,
// captures commands and forwards them to the reconciler, session
// manager and gateway. Remote calls run off the read loop so the
// prompt stays responsive; isGenerating/isPosting gate duplicate
// submission of the same logical action without blocking unrelated
// commands.
package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/ayuushisaha/ai-twitter-bot/internal/core/domain"
	"github.com/ayuushisaha/ai-twitter-bot/internal/core/ports"
	"github.com/ayuushisaha/ai-twitter-bot/internal/feed"
	"github.com/ayuushisaha/ai-twitter-bot/internal/gateway"
	"github.com/ayuushisaha/ai-twitter-bot/internal/reconciler"
	"github.com/ayuushisaha/ai-twitter-bot/internal/session"
)

type UI struct {
	rec      *reconciler.Reconciler
	sessions *session.Manager
	gw       *gateway.Client
	feeds    *feed.Aggregator
	store    ports.Store
	approver ports.Approver

	in  *bufio.Reader
	out io.Writer

	mu           sync.Mutex
	isGenerating bool
	isPosting    bool
	// pendingTopic survives a session expiry so the user does not have
	// to retype it after logging back in.
	pendingTopic string
}

func New(rec *reconciler.Reconciler, sessions *session.Manager, gw *gateway.Client, feeds *feed.Aggregator, store ports.Store, approver ports.Approver) *UI {
	return &UI{
		rec:      rec,
		sessions: sessions,
		gw:       gw,
		feeds:    feeds,
		store:    store,
		approver: approver,
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
}

func (u *UI) Run(ctx context.Context) error {
	fmt.Fprintln(u.out, "Type 'help' for commands.")
	for {
		fmt.Fprint(u.out, "> ")
		line, err := u.in.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		cmd, rest := splitCommand(line)
		switch cmd {
		case "":
		case "help":
			u.printHelp()
		case "generate", "g":
			u.startGenerate(ctx, rest)
		case "retry":
			u.startGenerate(ctx, u.takePendingTopic())
		case "drafts", "d":
			u.printDrafts()
		case "edit":
			u.edit(rest)
		case "delete":
			u.delete(rest)
		case "post", "p":
			u.startPublish(ctx, rest)
		case "mine":
			u.printTweets(feed.Filter(u.feeds.Mine(), rest))
		case "public":
			u.printTweets(feed.Filter(u.feeds.Public(), rest))
		case "refresh":
			u.refresh(ctx)
		case "login":
			u.auth(ctx, "login", rest)
		case "signup":
			u.auth(ctx, "signup", rest)
		case "logout":
			u.logout()
		case "whoami":
			u.whoami()
		case "theme":
			u.theme(rest)
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintf(u.out, "unknown command %q, type 'help'\n", cmd)
		}
	}
}

func (u *UI) printHelp() {
	fmt.Fprint(u.out, `commands:
  generate <topic>      draft a tweet about a topic
  retry                 regenerate with the topic kept from a failed attempt
  drafts                list drafts and posted items
  edit <id> <text>      replace the text of an unposted draft
  delete <id>           remove a draft
  post <id>             publish a draft
  refresh               refetch tweet lists
  mine [term]           show my tweets, optionally filtered
  public [term]         show public tweets, optionally filtered
  login <user> <pass>   authenticate
  signup <user> <pass>  create an account
  logout                clear the session and per-user content
  whoami                show session state
  theme <name>          persist a theme preference
  quit                  exit
`)
}

func (u *UI) startGenerate(ctx context.Context, topic string) {
	if strings.TrimSpace(topic) == "" {
		fmt.Fprintln(u.out, "usage: generate <topic>")
		return
	}

	u.mu.Lock()
	if u.isGenerating {
		u.mu.Unlock()
		fmt.Fprintln(u.out, "a generation is already in flight")
		return
	}
	u.isGenerating = true
	u.mu.Unlock()

	go func() {
		defer func() {
			u.mu.Lock()
			u.isGenerating = false
			u.mu.Unlock()
		}()
		u.generate(ctx, topic)
	}()
}

func (u *UI) generate(ctx context.Context, topic string) {
	for {
		draft, err := u.rec.Generate(ctx, topic)
		if err != nil {
			if errors.Is(err, reconciler.ErrSessionExpired) {
				u.mu.Lock()
				u.pendingTopic = topic
				u.mu.Unlock()
				fmt.Fprintln(u.out, "session expired: log in again, then run 'retry' to reuse your topic")
				return
			}
			fmt.Fprintf(u.out, "%v\n", err)
			return
		}
		fmt.Fprintf(u.out, "draft %d: %s\n", draft.ID, draft.Text)

		if u.approver == nil {
			return
		}
		action, err := u.approver.Confirm(ctx, "New draft", draft.Text)
		if err != nil {
			fmt.Fprintf(u.out, "approval unavailable: %v (draft kept)\n", err)
			return
		}
		switch action {
		case ports.ActionPost:
			u.publish(ctx, draft.ID)
			return
		case ports.ActionRegenerate:
			u.rec.Delete(draft.ID)
			continue
		default:
			u.rec.Delete(draft.ID)
			fmt.Fprintf(u.out, "draft %d discarded\n", draft.ID)
			return
		}
	}
}

func (u *UI) takePendingTopic() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	topic := u.pendingTopic
	u.pendingTopic = ""
	return topic
}

func (u *UI) startPublish(ctx context.Context, rest string) {
	id, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
	if err != nil {
		fmt.Fprintln(u.out, "usage: post <id>")
		return
	}

	u.mu.Lock()
	if u.isPosting {
		u.mu.Unlock()
		fmt.Fprintln(u.out, "a post is already in flight")
		return
	}
	u.isPosting = true
	u.mu.Unlock()

	go func() {
		defer func() {
			u.mu.Lock()
			u.isPosting = false
			u.mu.Unlock()
		}()
		u.publish(ctx, id)
	}()
}

func (u *UI) publish(ctx context.Context, id int64) {
	draft, tweetID, err := u.rec.Publish(ctx, id)
	switch {
	case errors.Is(err, reconciler.ErrNotFound):
		fmt.Fprintf(u.out, "no draft with id %d\n", id)
	case errors.Is(err, reconciler.ErrTooLong):
		fmt.Fprintf(u.out, "draft %d is over %d characters, edit it first\n", id, domain.MaxTweetLen)
	case errors.Is(err, reconciler.ErrSessionExpired):
		fmt.Fprintln(u.out, "session expired: log in again (the draft is kept)")
	case err != nil:
		fmt.Fprintf(u.out, "post failed: %v\n", err)
	default:
		fmt.Fprintf(u.out, "posted draft %d as tweet %d: %s\n", draft.ID, tweetID, draft.Text)
	}
}

func (u *UI) edit(rest string) {
	idStr, text := splitCommand(rest)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || strings.TrimSpace(text) == "" {
		fmt.Fprintln(u.out, "usage: edit <id> <new text>")
		return
	}
	if err := u.rec.Edit(id, text); err != nil {
		fmt.Fprintf(u.out, "edit failed: %v\n", err)
		return
	}
	if d, ok := u.rec.Get(id); ok && !d.Posted {
		fmt.Fprintf(u.out, "draft %d updated\n", id)
	} else {
		// Unknown ids and posted drafts are ignored on purpose.
		fmt.Fprintf(u.out, "draft %d is not editable\n", id)
	}
}

func (u *UI) delete(rest string) {
	id, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
	if err != nil {
		fmt.Fprintln(u.out, "usage: delete <id>")
		return
	}
	if err := u.rec.Delete(id); err != nil {
		fmt.Fprintf(u.out, "delete failed: %v\n", err)
		return
	}
	fmt.Fprintf(u.out, "draft %d removed\n", id)
}

func (u *UI) refresh(ctx context.Context) {
	if u.sessions.Mode() == domain.ModeAuthenticated {
		mine, err := u.gw.FetchMine(ctx)
		if err != nil {
			if errors.Is(err, gateway.ErrUnauthorized) {
				u.sessions.ForceAnonymous()
				fmt.Fprintln(u.out, "session expired: log in again")
			} else {
				fmt.Fprintf(u.out, "fetching my tweets: %v\n", err)
			}
		} else {
			u.feeds.ReplaceMine(mine)
		}
	}

	public, err := u.gw.FetchPublic(ctx)
	if err != nil {
		fmt.Fprintf(u.out, "fetching public tweets: %v\n", err)
		return
	}
	u.feeds.ReplacePublic(public)
	fmt.Fprintln(u.out, "feeds refreshed")
}

func (u *UI) auth(ctx context.Context, kind, rest string) {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		fmt.Fprintf(u.out, "usage: %s <username> <password>\n", kind)
		return
	}

	var err error
	if kind == "login" {
		err = u.sessions.Login(ctx, fields[0], fields[1])
	} else {
		err = u.sessions.Signup(ctx, fields[0], fields[1])
	}
	if errors.Is(err, session.ErrAuthRejected) {
		fmt.Fprintln(u.out, "credentials rejected, try again")
		return
	}
	if err != nil {
		fmt.Fprintf(u.out, "%s failed: %v\n", kind, err)
		return
	}
	fmt.Fprintf(u.out, "logged in as %s\n", u.sessions.Username())
}

func (u *UI) logout() {
	if err := u.sessions.Logout(); err != nil {
		fmt.Fprintf(u.out, "logout failed: %v\n", err)
		return
	}
	fmt.Fprintln(u.out, "logged out")
}

func (u *UI) whoami() {
	if u.sessions.Mode() == domain.ModeAuthenticated {
		fmt.Fprintf(u.out, "authenticated as %s\n", u.sessions.Username())
		return
	}
	fmt.Fprintln(u.out, "anonymous")
}

func (u *UI) theme(rest string) {
	name := strings.TrimSpace(rest)
	if name == "" {
		current, err := u.store.LoadTheme()
		if err != nil {
			fmt.Fprintf(u.out, "reading theme: %v\n", err)
			return
		}
		if current == "" {
			current = "default"
		}
		fmt.Fprintf(u.out, "theme: %s\n", current)
		return
	}
	if err := u.store.SaveTheme(name); err != nil {
		fmt.Fprintf(u.out, "saving theme: %v\n", err)
		return
	}
	fmt.Fprintf(u.out, "theme set to %s\n", name)
}

func (u *UI) printDrafts() {
	drafts := u.rec.Drafts()
	if len(drafts) == 0 {
		fmt.Fprintln(u.out, "no drafts")
		return
	}
	for _, d := range drafts {
		status := "draft"
		if d.Posted {
			status = "posted"
		}
		fmt.Fprintf(u.out, "[%s] %d: %s\n", status, d.ID, d.Text)
	}
}

func (u *UI) printTweets(tweets []domain.RemoteTweet) {
	if len(tweets) == 0 {
		fmt.Fprintln(u.out, "no tweets")
		return
	}
	for _, t := range tweets {
		fmt.Fprintf(u.out, "@%s: %s (♥ %d, ↻ %d, 💬 %d)\n", t.Author, t.Text, t.Likes, t.Retweets, t.Comments)
	}
}

func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	cmd, rest, _ := strings.Cut(line, " ")
	return strings.ToLower(cmd), strings.TrimSpace(rest)
}
