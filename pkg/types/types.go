package types

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidAccount         = errors.New("invalid CAIP-10 account")
	ErrNamespacesNotSatisfied = errors.New("approved namespaces do not satisfy required namespaces")
)

// Account is a CAIP-10 account identifier, e.g. eip155:10:0x46ab...b4d1
type Account struct {
	Namespace string
	Reference string
	Address   common.Address
}

// NewEIP155Account builds an eip155 account for the given chain.
func NewEIP155Account(chainID uint64, address common.Address) Account {
	return Account{
		Namespace: "eip155",
		Reference: strconv.FormatUint(chainID, 10),
		Address:   address,
	}
}

// ParseAccount parses "namespace:reference:address"
func ParseAccount(s string) (Account, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Account{}, fmt.Errorf("%w: %q", ErrInvalidAccount, s)
	}
	if parts[0] == "" || parts[1] == "" {
		return Account{}, fmt.Errorf("%w: %q", ErrInvalidAccount, s)
	}
	if !common.IsHexAddress(parts[2]) {
		return Account{}, fmt.Errorf("%w: bad address in %q", ErrInvalidAccount, s)
	}
	return Account{
		Namespace: parts[0],
		Reference: parts[1],
		Address:   common.HexToAddress(parts[2]),
	}, nil
}

// ChainID returns the CAIP-2 chain identifier of the account.
func (a Account) ChainID() string {
	return a.Namespace + ":" + a.Reference
}

// String formats the account with a checksummed address.
func (a Account) String() string {
	return fmt.Sprintf("%s:%s:%s", a.Namespace, a.Reference, a.Address.Hex())
}

// Metadata describes a peer (dApp or wallet).
type Metadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Url         string   `json:"url"`
	Icons       []string `json:"icons"`
}

// Namespace is the set of chains, accounts, methods and events granted (or
// requested) for one namespace key.
type Namespace struct {
	Chains   []string `json:"chains,omitempty"`
	Accounts []string `json:"accounts"`
	Methods  []string `json:"methods"`
	Events   []string `json:"events"`
}

// Namespaces is keyed by namespace ("eip155") or by chain ("eip155:10").
type Namespaces map[string]Namespace

// ProposalNamespace is what a dApp asks for in a proposal.
type ProposalNamespace struct {
	Chains  []string `json:"chains,omitempty"`
	Methods []string `json:"methods"`
	Events  []string `json:"events"`
}

type ProposalNamespaces map[string]ProposalNamespace

// Proposal is an incoming session proposal from a dApp.
type Proposal struct {
	ID                 uint64             `json:"id"`
	PairingTopic       string             `json:"pairingTopic"`
	Proposer           Metadata           `json:"proposer"`
	RequiredNamespaces ProposalNamespaces `json:"requiredNamespaces"`
	OptionalNamespaces ProposalNamespaces `json:"optionalNamespaces"`
	Expiry             int64              `json:"expiry"`
}

// RequiredEvents returns the events the proposal requires for the namespace
// key, in first-seen order. Optional events are never granted.
func (p *Proposal) RequiredEvents(namespace string) []string {
	var events []string
	for key, ns := range p.RequiredNamespaces {
		if namespaceKey(key) != namespace {
			continue
		}
		for _, e := range ns.Events {
			if !slices.Contains(events, e) {
				events = append(events, e)
			}
		}
	}
	if events == nil {
		events = []string{}
	}
	return events
}

// Session is an established pairing with a dApp.
type Session struct {
	Topic        string     `json:"topic"`
	PairingTopic string     `json:"pairingTopic"`
	Namespaces   Namespaces `json:"namespaces"`
	Peer         Metadata   `json:"peer"`
	Expiry       int64      `json:"expiry"`
	Acknowledged bool       `json:"acknowledged"`
}

// EIP155Accounts returns the accounts approved under the eip155 namespace.
func (s *Session) EIP155Accounts() []string {
	if s == nil {
		return nil
	}
	if ns, ok := s.Namespaces["eip155"]; ok {
		return ns.Accounts
	}
	return nil
}

// IsRestrictedTo reports whether the session's eip155 namespace holds exactly
// the one given account.
func (s *Session) IsRestrictedTo(account string) bool {
	accounts := s.EIP155Accounts()
	return len(accounts) == 1 && accounts[0] == account
}

// namespaceKey maps "eip155:10" to "eip155" and leaves "eip155" unchanged.
func namespaceKey(key string) string {
	if idx := strings.Index(key, ":"); idx >= 0 {
		return key[:idx]
	}
	return key
}

// ValidateNamespacesSatisfy checks that every required namespace is covered by
// the approved namespaces: each required chain must have an approved account,
// and each required method and event must be approved.
func ValidateNamespacesSatisfy(required ProposalNamespaces, approved Namespaces) error {
	for key, req := range required {
		ns := namespaceKey(key)
		appr, ok := approved[ns]
		if !ok {
			return fmt.Errorf("%w: missing namespace %s", ErrNamespacesNotSatisfied, ns)
		}

		chains := req.Chains
		if len(chains) == 0 && key != ns {
			chains = []string{key}
		}
		for _, chain := range chains {
			if !hasAccountOnChain(appr.Accounts, chain) {
				return fmt.Errorf("%w: no account approved for chain %s", ErrNamespacesNotSatisfied, chain)
			}
		}
		for _, m := range req.Methods {
			if !slices.Contains(appr.Methods, m) {
				return fmt.Errorf("%w: method %s not approved", ErrNamespacesNotSatisfied, m)
			}
		}
		for _, e := range req.Events {
			if !slices.Contains(appr.Events, e) {
				return fmt.Errorf("%w: event %s not approved", ErrNamespacesNotSatisfied, e)
			}
		}
	}
	return nil
}

func hasAccountOnChain(accounts []string, chain string) bool {
	for _, a := range accounts {
		acc, err := ParseAccount(a)
		if err != nil {
			continue
		}
		if acc.ChainID() == chain {
			return true
		}
	}
	return false
}
