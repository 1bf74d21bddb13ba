package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/crowdjudge/crowdjudge/admin"
	"github.com/crowdjudge/crowdjudge/api"
	"github.com/crowdjudge/crowdjudge/app"
	"github.com/crowdjudge/crowdjudge/authstate"
	"github.com/crowdjudge/crowdjudge/carousel"
	"github.com/crowdjudge/crowdjudge/cliparse"
	"github.com/crowdjudge/crowdjudge/display"
	"github.com/crowdjudge/crowdjudge/fullscreen"
	"github.com/crowdjudge/crowdjudge/models"
	"github.com/crowdjudge/crowdjudge/realtime"
	"github.com/crowdjudge/crowdjudge/session"
	"github.com/crowdjudge/crowdjudge/store"
)

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Structured text on a terminal, JSON when piped
	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, nil)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	}
	slog.SetDefault(slog.New(handler))

	// Local client state
	st, err := store.Open(cfg.StatePath)
	if err != nil {
		slog.Error("opening state store failed", "path", cfg.StatePath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	client := api.NewClient(cfg.ServerURL)

	// Live update channel; without it everything degrades to reload-only
	var joiner display.Joiner
	ch, err := realtime.Dial(cfg.PushURL)
	if err != nil {
		slog.Warn("push channel unavailable, running reload-only", "url", cfg.PushURL, "error", err)
		ch = nil
	} else {
		defer ch.Close()
		joiner = ch
	}

	disp := display.NewController(joiner)
	if ch != nil {
		ch.Listen(realtime.HandlerFunc(func(groupID int, stats models.Stats) {
			disp.ApplyDelta(groupID, stats)
		}))
	}

	shell := app.New(client, disp, st)
	auth := authstate.NewLifecycle(st, authstate.APIRemote{Client: client}, shell)
	shell.BindAuth(auth)
	client.SetTokenSource(auth)
	client.SetUnauthorizedHandler(auth.HandleUnauthorized)
	if err := auth.Restore(); err != nil {
		slog.Warn("restoring admin token", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		cancel()
	}()

	// Admin workspace refreshes behind the auth gate
	console := admin.NewConsole(client)
	shell.OnEnter(app.PageAdmin, func() {
		if err := console.LoadAll(ctx); err != nil {
			shell.Notify(fmt.Sprintf("加载管理数据失败: %v", err))
		}
	})

	if err := shell.Reload(ctx); err != nil {
		slog.Warn("initial load failed", "error", err)
		if !shell.RestoreFromCache() {
			slog.Error("no cached data to fall back to")
			os.Exit(1)
		}
	}

	if cfg.GroupID != 0 {
		// Arrived via a group QR code: run the voting flow
		runMobile(ctx, cfg, client, disp, ch, shell)
		return
	}
	runStage(ctx, cfg, disp, shell)
}

// runMobile walks one voter through verification and a single vote.
func runMobile(ctx context.Context, cfg cliparse.Config, client *api.Client, disp *display.Controller, ch *realtime.Channel, shell *app.App) {
	shell.Navigate(app.PageMobile)

	group, err := disp.Select(cfg.GroupID)
	if err != nil {
		slog.Error("group not found", "group_id", cfg.GroupID, "error", err)
		os.Exit(1)
	}
	fmt.Printf("—— %s ——\n", group.Name)
	if group.Locked() {
		fmt.Println("该小组评价已结束")
		return
	}

	var broadcast session.Broadcaster
	if ch != nil {
		broadcast = ch
	}
	sess := session.New(client, disp, broadcast, cfg.GroupID)

	in := bufio.NewReader(os.Stdin)
	for sess.State() == session.AwaitingIdentity {
		name := prompt(in, "姓名: ")
		phone := prompt(in, "手机号: ")
		err := sess.VerifyIdentity(ctx, name, phone)
		if err == nil {
			break
		}
		fmt.Println(err)
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) && httpErr.Status < 500 {
			// Business rejection (already voted, locked): retrying won't help
			return
		}
	}

	voter, _ := sess.Voter()
	fmt.Printf("%s（权重 %d），请投票: 1 = 赞 / -1 = 踩\n", voter.Name, voter.Weight)
	for sess.State() == session.AwaitingVote {
		var voteType int
		switch strings.TrimSpace(prompt(in, "> ")) {
		case "1":
			voteType = models.VoteLike
		case "-1":
			voteType = models.VoteDislike
		default:
			continue
		}
		msg, err := sess.Cast(ctx, voteType)
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println(msg)
	}

	current, _ := disp.Current()
	fmt.Printf("当前: 赞 %d / 踩 %d / 得分 %d\n",
		current.VoteStats.Likes, current.VoteStats.Dislikes, current.VoteStats.Score())
}

// runStage drives the big-screen surfaces until interrupted.
func runStage(ctx context.Context, cfg cliparse.Config, disp *display.Controller, shell *app.App) {
	rotator := carousel.NewRotator(cfg.CarouselInterval, func(index int, url string) {
		if index < 0 {
			slog.Info("carousel placeholder")
			return
		}
		slog.Info("carousel photo", "index", index, "url", url)
	})
	defer rotator.Stop()

	shell.OnEnter(app.PageDisplay, func() {
		if g, ok := disp.Current(); ok {
			rotator.Render(g.Photos)
		}
	})
	shell.OnLeave(app.PageDisplay, rotator.Stop)

	disp.OnStatsChanged(func(groupID int, stats models.Stats) {
		slog.Info("stats changed", "group_id", groupID,
			"likes", stats.Likes, "dislikes", stats.Dislikes, "score", stats.Score())
	})

	// No native fullscreen API here; the controller still owns page forcing
	// and the stage scale factor.
	stage := fullscreen.NewController(nil, shell, cfg.BaseWidth, cfg.BaseHeight)
	shell.Navigate(app.PageDisplay)
	stage.Enter(cfg.BaseWidth, cfg.BaseHeight)
	defer stage.Exit()

	if g, ok := disp.Current(); ok {
		slog.Info("showing group", "group_id", g.ID, "name", g.Name, "scale", stage.Scale())
	}

	shell.RunReloadLoop(ctx, 30*time.Second)
	slog.Info("stage closed")
}

func prompt(in *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

