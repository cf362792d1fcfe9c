package acmemgr

import (
	"log/slog"
	"time"

	"github.com/clipsync/clipsync-trust-backend/interfaces"
	"golang.org/x/crypto/acme"
)

// Mode tags how certificates are provisioned for the local endpoint.
type Mode int

const (
	// ModeDisabled means no automatic provisioning; the operator
	// supplies certificates out of band or the endpoint serves a
	// self-signed placeholder.
	ModeDisabled Mode = iota

	// ModeACME means certificates are obtained and renewed through an
	// ACME provider.
	ModeACME
)

func (m Mode) String() string {
	switch m {
	case ModeACME:
		return "acme"
	default:
		return "disabled"
	}
}

// ManagerConfig collects everything needed to start provisioning.
type ManagerConfig struct {
	Domain      string
	Email       string
	Staging     bool
	RenewBefore time.Duration
	Store       interfaces.CertificateStore
	OnRenew     RenewFunc
	Log         *slog.Logger
}

// Provisioning is the tagged result of configuration: either disabled
// or a fully wired ACME manager. Callers switch on Mode instead of
// type-asserting.
type Provisioning struct {
	Mode    Mode
	Manager *Manager
}

// Disabled returns the no-op provisioning variant.
func Disabled() Provisioning {
	return Provisioning{Mode: ModeDisabled}
}

// Manager bundles the ACME subsystem: account handling, order
// coordination, the shared challenge set, and the renewal scheduler.
type Manager struct {
	Accounts   *AccountManager
	Orders     *OrderCoordinator
	Challenges *ChallengeSet
	Renewals   *RenewalScheduler
}

// NewManager wires the ACME provisioning variant from config.
func NewManager(cfg ManagerConfig) Provisioning {
	directoryURL := acme.LetsEncryptURL
	if cfg.Staging {
		directoryURL = LetsEncryptStagingURL
	}

	challenges := NewChallengeSet()
	accounts := NewAccountManager(cfg.Store, directoryURL, cfg.Email, cfg.Log)
	orders := NewOrderCoordinator(accounts, cfg.Store, challenges, cfg.RenewBefore, cfg.Log)
	renewals := NewRenewalScheduler(orders, cfg.Domain, cfg.OnRenew, cfg.Log)

	return Provisioning{
		Mode: ModeACME,
		Manager: &Manager{
			Accounts:   accounts,
			Orders:     orders,
			Challenges: challenges,
			Renewals:   renewals,
		},
	}
}
