package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"board-tracker/internal/board"
	"board-tracker/internal/client"
	"board-tracker/internal/config"
	"board-tracker/internal/protocol"
)

type dragScript struct {
	id   int
	to   board.Point
	step int
}

// parseDrag reads "id:x,y".
func parseDrag(raw string) (dragScript, error) {
	idPart, pointPart, ok := strings.Cut(raw, ":")
	if !ok {
		return dragScript{}, fmt.Errorf("drag %q: want id:x,y", raw)
	}
	id, err := strconv.Atoi(idPart)
	if err != nil {
		return dragScript{}, fmt.Errorf("drag id: %w", err)
	}
	xPart, yPart, ok := strings.Cut(pointPart, ",")
	if !ok {
		return dragScript{}, fmt.Errorf("drag %q: want id:x,y", raw)
	}
	x, err := strconv.ParseFloat(xPart, 64)
	if err != nil {
		return dragScript{}, fmt.Errorf("drag x: %w", err)
	}
	y, err := strconv.ParseFloat(yPart, 64)
	if err != nil {
		return dragScript{}, fmt.Errorf("drag y: %w", err)
	}
	return dragScript{id: id, to: board.Point{X: x, Y: y}, step: 10}, nil
}

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("failed to load .env", "error", err)
	}
	cfg := config.Load()

	baseURL := flag.String("url", cfg.PublicURL, "server base URL")
	username := flag.String("user", "", "log in as this user before starting")
	password := flag.String("password", "", "password for -user")
	drag := flag.String("drag", "", "scripted drag, id:x,y")
	autosave := flag.Bool("autosave", false, "persist positions while dragging")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger, cfg, *baseURL, *username, *password, *drag, *autosave); err != nil {
		logger.Error("agent stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, cfg config.Config, baseURL, username, password, drag string, autosave bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := client.NewHTTPStore(baseURL, nil)
	dialer, err := client.NewWSDialer(baseURL)
	if err != nil {
		return err
	}
	if username != "" {
		user, err := store.Login(ctx, username, password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		logger.Info("logged in", "name", user.Name, "role", user.Role)
	}

	view := client.NewView()
	agent := client.NewAgent(client.AgentOptions{
		Store:            store,
		Dialer:           dialer,
		View:             view,
		Logger:           logger,
		ResyncInterval:   cfg.ResyncInterval,
		ForceResyncDelay: cfg.ForceResyncDelay,
		ReconnectDelay:   cfg.ReconnectDelay,
		ReconnectJitter:  cfg.ReconnectJitter,
		OnStatus: func(s client.Status) {
			logger.Info("status", "status", s)
		},
		OnPositions: func(entities []board.Entity) {
			placed := 0
			for _, e := range entities {
				if e.HasPosition() {
					placed++
				}
			}
			logger.Debug("board updated", "entities", len(entities), "placed", placed)
		},
		OnLogin: func(m protocol.UserLoggedIn) {
			logger.Info("login observed", "username", m.Username, "user_id", m.UserID)
		},
	})
	defer agent.Close()

	controller := client.NewController(client.ControllerOptions{
		View:           view,
		Store:          store,
		Resyncer:       agent,
		Logger:         logger,
		DragTimeout:    cfg.DragTimeout,
		Autosave:       autosave,
		DebounceWindow: cfg.DebounceWindow,
		MinMovement:    cfg.MinMovement,
	})
	defer controller.Close()

	agent.Start()

	if drag != "" {
		script, err := parseDrag(drag)
		if err != nil {
			return err
		}
		if err := playDrag(ctx, controller, view, script); err != nil {
			return err
		}
	}

	<-ctx.Done()
	return nil
}

// playDrag moves the entity to its target in even steps, as a pointer would.
func playDrag(ctx context.Context, controller *client.Controller, view *client.View, script dragScript) error {
	start, ok := view.Rendered(script.id)
	if !ok {
		return fmt.Errorf("drag: %w: %d", client.ErrUnknownEntity, script.id)
	}
	if err := controller.PressDown(script.id, start); err != nil {
		return fmt.Errorf("drag: %w", err)
	}
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()
	for i := 1; i <= script.step; i++ {
		select {
		case <-ctx.Done():
			controller.Cancel()
			return nil
		case <-ticker.C:
		}
		frac := float64(i) / float64(script.step)
		controller.Move(board.Point{
			X: start.X + (script.to.X-start.X)*frac,
			Y: start.Y + (script.to.Y-start.Y)*frac,
		})
	}
	_, err := controller.Release()
	return err
}
