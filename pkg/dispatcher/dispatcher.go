// Package dispatcher turns the gateway's surfaced request into a Safe action
// (message signature, typed data signature or transaction) and answers it.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Layr-Labs/safe-connect-go/pkg/config"
	"github.com/Layr-Labs/safe-connect-go/pkg/executor"
	"github.com/Layr-Labs/safe-connect-go/pkg/gateway"
	"github.com/Layr-Labs/safe-connect-go/pkg/messageSigner"
	"github.com/Layr-Labs/safe-connect-go/pkg/ownerSigner"
	"github.com/Layr-Labs/safe-connect-go/pkg/safe"
	"github.com/Layr-Labs/safe-connect-go/pkg/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

var (
	ErrNoPendingRequest   = errors.New("no pending request")
	ErrUnsupportedRequest = errors.New("unsupported request")
)

type Dispatcher struct {
	gateway  *gateway.Gateway
	signer   ownerSigner.IOwnerSigner
	safe     safe.ISafe
	executor *executor.Executor
	safeDesc config.SafeDescriptor
	logger   *zap.Logger
}

func NewDispatcher(
	gw *gateway.Gateway,
	signer ownerSigner.IOwnerSigner,
	s safe.ISafe,
	safeDesc config.SafeDescriptor,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		gateway:  gw,
		signer:   signer,
		safe:     s,
		executor: executor.NewExecutor(logger),
		safeDesc: safeDesc,
		logger:   logger,
	}
}

// Register answers account queries and unsupported methods as they arrive so
// they never wait in the queue.
func (d *Dispatcher) Register(ctx context.Context) {
	d.gateway.OnRequest(func(req *types.PendingRequest) {
		if _, err := d.HandleIncoming(ctx, req); err != nil {
			d.logger.Sugar().Warnw("Failed to answer request",
				zap.Uint64("id", req.ID),
				zap.String("method", req.Method),
				zap.Error(err),
			)
		}
	})
}

// HandleIncoming answers req if it needs no operator decision and reports
// whether it did.
func (d *Dispatcher) HandleIncoming(ctx context.Context, req *types.PendingRequest) (bool, error) {
	decoded, err := DecodeRequest(req)
	if err != nil {
		return false, nil
	}

	switch r := decoded.(type) {
	case *AccountQueryRequest:
		result := d.answerQuery(r)
		d.logger.Sugar().Debugw("Answering account query",
			zap.Uint64("id", req.ID),
			zap.String("method", r.Method),
		)
		return true, d.gateway.Approve(ctx, req.ID, result)
	case *UnsupportedRequest:
		reason := types.UnsupportedMethodError(r.Method)
		d.logger.Sugar().Infow("Rejecting unsupported method",
			zap.Uint64("id", req.ID),
			zap.String("method", r.Method),
		)
		return true, d.gateway.Reject(ctx, req.ID, &reason)
	default:
		return false, nil
	}
}

func (d *Dispatcher) answerQuery(r *AccountQueryRequest) any {
	switch r.Method {
	case "eth_chainId":
		return hexutil.EncodeUint64(uint64(d.safeDesc.ChainID))
	case "eth_accounts":
		return []string{d.safeDesc.Address.Hex()}
	default:
		return strconv.FormatUint(uint64(d.safeDesc.ChainID), 10)
	}
}

// PendingRequest decodes the request surfaced by the gateway, or returns nil.
func (d *Dispatcher) PendingRequest() (Request, error) {
	req := d.gateway.PendingRequest()
	if req == nil {
		return nil, nil
	}
	return DecodeRequest(req)
}

// ApproveRequest performs the surfaced request on behalf of the Safe and
// answers it with the result. On error the request stays pending.
func (d *Dispatcher) ApproveRequest(ctx context.Context) error {
	req := d.gateway.PendingRequest()
	if req == nil {
		return ErrNoPendingRequest
	}
	decoded, err := DecodeRequest(req)
	if err != nil {
		return err
	}

	result, err := d.resolve(ctx, decoded)
	if err != nil {
		d.logger.Sugar().Errorw("Failed to resolve request",
			zap.Uint64("id", req.ID),
			zap.String("method", req.Method),
			zap.Error(err),
		)
		return err
	}
	return d.gateway.Approve(ctx, req.ID, result)
}

// RejectRequest answers the surfaced request with "User rejected request".
func (d *Dispatcher) RejectRequest(ctx context.Context) error {
	req := d.gateway.PendingRequest()
	if req == nil {
		return ErrNoPendingRequest
	}
	return d.gateway.Reject(ctx, req.ID, nil)
}

func (d *Dispatcher) resolve(ctx context.Context, r Request) (any, error) {
	switch r := r.(type) {
	case *SignTypedDataRequest:
		version, err := d.safeVersion(ctx)
		if err != nil {
			return nil, err
		}
		return messageSigner.SignTypedMessage(ctx, d.signer, d.safeDesc.Address, version, d.safeDesc.ChainID, r.TypedData)
	case *SignMessageRequest:
		version, err := d.safeVersion(ctx)
		if err != nil {
			return nil, err
		}
		return messageSigner.SignMessage(ctx, d.signer, d.safeDesc.Address, version, d.safeDesc.ChainID, r.Message)
	case *SendTransactionRequest:
		hash, err := d.executor.ExecuteTransaction(ctx, d.safe, d.signer.Address(), executor.TransactionParams{
			To:    r.To,
			Value: r.Value,
			Data:  r.Data,
		})
		if err != nil {
			return nil, err
		}
		return hash.Hex(), nil
	case *AccountQueryRequest:
		return d.answerQuery(r), nil
	case *UnsupportedRequest:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRequest, r.Method)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedRequest, r)
	}
}

// safeVersion prefers the configured version and falls back to the contract's VERSION().
func (d *Dispatcher) safeVersion(ctx context.Context) (config.SafeVersion, error) {
	if d.safeDesc.ContractVersion != "" {
		return d.safeDesc.ContractVersion, nil
	}
	return d.safe.GetContractVersion(ctx)
}

// SessionSummary describes the connected dApp for display.
type SessionSummary struct {
	Topic    string
	PeerName string
	PeerURL  string
	PeerIcon string
	Expiry   time.Time
}

// Operator is what a UI needs to show the session and decide requests.
type Operator struct {
	dispatcher *Dispatcher
}

func NewOperator(d *Dispatcher) *Operator {
	return &Operator{dispatcher: d}
}

// SessionSummary returns nil when no session is active.
func (o *Operator) SessionSummary() *SessionSummary {
	s := o.dispatcher.gateway.Session()
	if s == nil {
		return nil
	}
	summary := &SessionSummary{
		Topic:    s.Topic,
		PeerName: s.Peer.Name,
		PeerURL:  s.Peer.Url,
		Expiry:   time.Unix(s.Expiry, 0).UTC(),
	}
	if len(s.Peer.Icons) > 0 {
		summary.PeerIcon = s.Peer.Icons[0]
	}
	return summary
}

func (o *Operator) PendingRequest() (Request, error) {
	return o.dispatcher.PendingRequest()
}

func (o *Operator) Approve(ctx context.Context) error {
	return o.dispatcher.ApproveRequest(ctx)
}

func (o *Operator) Reject(ctx context.Context) error {
	return o.dispatcher.RejectRequest(ctx)
}
