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
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/betslip-sync/internal/history"
	"github.com/radieske/betslip-sync/internal/platform/dto"
)

const usage = `usage: betslipctl [-addr URL] <command> [flags]

commands:
  show                                   tickets, bet types and odds boost
  add -match ID -outcome ID -odd N       add a ticket
  remove ID                              remove a ticket
  clear                                  remove all tickets
  login -user ID [-name N] [-currency C] start a session
  logout                                 end the session
  place -stake N [-policy P] [-bonus]    place the bet
  history                                recent placements of the session user
`

// client fala com a API REST do betslip-service
type client struct {
	base string
	http *http.Client
	out  io.Writer
}

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string { return fmt.Sprintf("http %d: %s", e.Status, e.Message) }

func (c *client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&e)
		return &apiError{Status: res.StatusCode, Message: e.Error}
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *client) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("missing command")
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "show":
		var v betslipView
		if err := c.do(ctx, http.MethodGet, "/v1/betslip", nil, &v); err != nil {
			return err
		}
		renderBetslip(c.out, v)

	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		matchID := fs.String("match", "", "match id")
		outcomeID := fs.String("outcome", "", "outcome id")
		odd := fs.String("odd", "", "odd shown to the user")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		d, err := decimal.NewFromString(*odd)
		if err != nil || *matchID == "" || *outcomeID == "" {
			return errors.New("add needs -match, -outcome and a numeric -odd")
		}
		ticket := map[string]any{"id": *outcomeID, "outcomeId": *outcomeID, "matchId": *matchID, "odd": d, "isAvailable": true}
		if err := c.do(ctx, http.MethodPost, "/v1/betslip/tickets", ticket, nil); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "added %s\n", *outcomeID)

	case "remove":
		if len(rest) != 1 {
			return errors.New("remove needs a ticket id")
		}
		if err := c.do(ctx, http.MethodDelete, "/v1/betslip/tickets/"+rest[0], nil, nil); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "removed %s\n", rest[0])

	case "clear":
		if err := c.do(ctx, http.MethodDelete, "/v1/betslip", nil, nil); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "betslip cleared")

	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		user := fs.String("user", "", "user id")
		name := fs.String("name", "", "username")
		currency := fs.String("currency", "BRL", "wallet currency")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *user == "" {
			return errors.New("login needs -user")
		}
		body := map[string]any{"userId": *user, "username": *name, "walletId": "wallet-" + *user, "currency": *currency}
		if err := c.do(ctx, http.MethodPost, "/v1/session", body, nil); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "logged in as %s\n", *user)

	case "logout":
		if err := c.do(ctx, http.MethodDelete, "/v1/session", nil, nil); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "logged out")

	case "place":
		fs := flag.NewFlagSet("place", flag.ContinueOnError)
		stake := fs.String("stake", "", "stake amount")
		policy := fs.String("policy", "", "odds validation policy")
		bonus := fs.Bool("bonus", false, "use bonus balance")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		d, err := decimal.NewFromString(*stake)
		if err != nil {
			return errors.New("place needs a numeric -stake")
		}
		var resp dto.PlaceBetsResponse
		body := map[string]any{"stake": d, "useBonusBalance": *bonus, "oddsValidationPolicy": *policy}
		if err := c.do(ctx, http.MethodPost, "/v1/betslip/place", body, &resp); err != nil {
			return err
		}
		renderPlacement(c.out, resp)

	case "history":
		var items []history.Placement
		if err := c.do(ctx, http.MethodGet, "/v1/betslip/history", nil, &items); err != nil {
			return err
		}
		renderHistory(c.out, items)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func main() {
	addr := flag.String("addr", envOr("BETSLIP_URL", "http://localhost:8084"), "betslip-service base URL")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := &client{base: *addr, http: &http.Client{Timeout: 10 * time.Second}, out: os.Stdout}
	if err := c.run(ctx, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		flag.Usage()
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
