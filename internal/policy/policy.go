package policy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/punchamoorthee/rewardledger/internal/domain"
)

// ErrPolicyNotFound indicates that no policy exists for the requested role.
var ErrPolicyNotFound = errors.New("policy: role not configured")

// DefaultRewardAmount is credited to both sides of a completed referral.
const DefaultRewardAmount int64 = 120

// RolePolicy captures the withdrawal rules for one role.
type RolePolicy struct {
	Role             domain.Role
	DailyWithdrawals int
	MinWithdrawal    int64
}

// Set is the immutable collection of role policies plus the referral reward.
type Set struct {
	RewardAmount int64
	roles        map[domain.Role]RolePolicy
}

type roleFile struct {
	Role             string `yaml:"role" toml:"role"`
	DailyWithdrawals *int   `yaml:"daily_withdrawals" toml:"daily_withdrawals"`
	MinWithdrawal    *int64 `yaml:"min_withdrawal" toml:"min_withdrawal"`
}

type policyFile struct {
	RewardAmount *int64     `yaml:"reward_amount" toml:"reward_amount"`
	Roles        []roleFile `yaml:"roles" toml:"roles"`
}

// Defaults returns the built-in policy: customers withdraw once a day with a minimum of
// 120, vendors three times a day with no minimum.
func Defaults() *Set {
	s, _ := NewSet(DefaultRewardAmount, []RolePolicy{
		{Role: domain.RoleCustomer, DailyWithdrawals: 1, MinWithdrawal: 120},
		{Role: domain.RoleVendor, DailyWithdrawals: 3, MinWithdrawal: 0},
	})
	return s
}

// NewSet validates and indexes the supplied role policies.
func NewSet(reward int64, roles []RolePolicy) (*Set, error) {
	if reward <= 0 {
		return nil, fmt.Errorf("reward_amount must be positive")
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("at least one role policy must be configured")
	}
	registry := make(map[domain.Role]RolePolicy, len(roles))
	for _, p := range roles {
		if !p.Role.Valid() {
			return nil, fmt.Errorf("unknown role %q", p.Role)
		}
		if _, exists := registry[p.Role]; exists {
			return nil, fmt.Errorf("duplicate policy for role %s", p.Role)
		}
		if p.DailyWithdrawals < 0 {
			return nil, fmt.Errorf("role %s daily_withdrawals must be non-negative", p.Role)
		}
		if p.MinWithdrawal < 0 {
			return nil, fmt.Errorf("role %s min_withdrawal must be non-negative", p.Role)
		}
		registry[p.Role] = p
	}
	return &Set{RewardAmount: reward, roles: registry}, nil
}

// Load reads a policy set from the file at path. Files ending in .toml are decoded as
// TOML, everything else as YAML. Every role entry must state both daily_withdrawals and
// min_withdrawal explicitly.
func Load(path string) (*Set, error) {
	var (
		raw policyFile
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = decodeTOML(path, &raw)
	} else {
		err = decodeYAML(path, &raw)
	}
	if err != nil {
		return nil, err
	}

	reward := DefaultRewardAmount
	if raw.RewardAmount != nil {
		reward = *raw.RewardAmount
	}
	roles := make([]RolePolicy, 0, len(raw.Roles))
	for _, entry := range raw.Roles {
		role := domain.Role(strings.ToLower(strings.TrimSpace(entry.Role)))
		if entry.DailyWithdrawals == nil {
			return nil, fmt.Errorf("role %s: daily_withdrawals required", role)
		}
		if entry.MinWithdrawal == nil {
			return nil, fmt.Errorf("role %s: min_withdrawal required", role)
		}
		roles = append(roles, RolePolicy{
			Role:             role,
			DailyWithdrawals: *entry.DailyWithdrawals,
			MinWithdrawal:    *entry.MinWithdrawal,
		})
	}
	return NewSet(reward, roles)
}

func decodeYAML(path string, raw *policyFile) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open policies: %w", err)
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decode policies: %w", err)
	}
	return nil
}

func decodeTOML(path string, raw *policyFile) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open policies: %w", err)
	}
	meta, err := toml.DecodeFile(path, raw)
	if err != nil {
		return fmt.Errorf("decode policies: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("decode policies: unknown key %s", undecoded[0])
	}
	return nil
}

// For returns the policy for role.
func (s *Set) For(role domain.Role) (RolePolicy, error) {
	p, ok := s.roles[role]
	if !ok {
		return RolePolicy{}, ErrPolicyNotFound
	}
	return p, nil
}
