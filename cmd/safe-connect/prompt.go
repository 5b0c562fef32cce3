package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Layr-Labs/safe-connect-go/pkg/dispatcher"
	"github.com/Layr-Labs/safe-connect-go/pkg/gateway"
	"github.com/Layr-Labs/safe-connect-go/pkg/types"
)

const promptHelp = `commands:
  a            approve the pending request
  r            reject the pending request
  s            show the session and pending request
  p <uri>      pair with a dApp
  d            disconnect the session
  q            quit`

// prompt is the terminal operator UI.
type prompt struct {
	in       io.Reader
	out      io.Writer
	gateway  *gateway.Gateway
	operator *dispatcher.Operator
}

func newPrompt(in io.Reader, out io.Writer, gw *gateway.Gateway, op *dispatcher.Operator) *prompt {
	return &prompt{in: in, out: out, gateway: gw, operator: op}
}

// Run reads commands until ctx is done or the operator quits.
func (p *prompt) Run(ctx context.Context) error {
	p.gateway.OnSessionChange(func(s *types.Session) {
		if s == nil {
			fmt.Fprintln(p.out, "session closed")
			return
		}
		fmt.Fprintf(p.out, "connected to %s (%s)\n", s.Peer.Name, s.Peer.Url)
	})
	p.gateway.OnRequest(func(req *types.PendingRequest) {
		fmt.Fprintf(p.out, "request %d: %s\n", req.ID, req.Method)
	})

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(p.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	fmt.Fprintln(p.out, promptHelp)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := p.handle(ctx, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func (p *prompt) handle(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	var err error

	switch cmd {
	case "":
		return false
	case "a":
		err = p.operator.Approve(ctx)
	case "r":
		err = p.operator.Reject(ctx)
	case "s":
		p.status()
	case "p":
		err = p.gateway.Pair(ctx, strings.TrimSpace(arg))
	case "d":
		err = p.gateway.Disconnect(ctx)
	case "q":
		return true
	default:
		fmt.Fprintln(p.out, promptHelp)
	}

	if errors.Is(err, dispatcher.ErrNoPendingRequest) {
		fmt.Fprintln(p.out, "no pending request")
	} else if err != nil {
		fmt.Fprintf(p.out, "error: %v\n", err)
	}
	return false
}

func (p *prompt) status() {
	summary := p.operator.SessionSummary()
	if summary == nil {
		fmt.Fprintf(p.out, "no session, state %s\n", p.gateway.State())
		return
	}
	fmt.Fprintf(p.out, "connected to %s %s\n", summary.PeerName, summary.PeerURL)
	if summary.PeerIcon != "" {
		fmt.Fprintf(p.out, "icon: %s\n", summary.PeerIcon)
	}
	fmt.Fprintf(p.out, "expiry: %s\n", summary.Expiry.Format(time.RFC3339))

	req, err := p.operator.PendingRequest()
	switch {
	case err != nil:
		fmt.Fprintf(p.out, "pending request is malformed: %v\n", err)
	case req == nil:
		fmt.Fprintln(p.out, "no pending request")
	default:
		fmt.Fprintf(p.out, "pending: %s\n", describe(req))
	}
}

func describe(r dispatcher.Request) string {
	id := r.Pending().ID
	switch r := r.(type) {
	case *dispatcher.SignMessageRequest:
		return fmt.Sprintf("%d sign message %q", id, r.Message)
	case *dispatcher.SignTypedDataRequest:
		return fmt.Sprintf("%d sign typed data %s", id, string(r.TypedData))
	case *dispatcher.SendTransactionRequest:
		return fmt.Sprintf("%d send transaction to %s value %s data 0x%x", id, r.To.Hex(), r.Value, r.Data)
	case *dispatcher.AccountQueryRequest:
		return fmt.Sprintf("%d %s", id, r.Method)
	case *dispatcher.UnsupportedRequest:
		return fmt.Sprintf("%d unsupported %s", id, r.Method)
	default:
		return fmt.Sprintf("%d", id)
	}
}
