package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/rewardledger/internal/domain"
)

func writePolicy(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	s := Defaults()
	require.Equal(t, int64(120), s.RewardAmount)

	customer, err := s.For(domain.RoleCustomer)
	require.NoError(t, err)
	require.Equal(t, 1, customer.DailyWithdrawals)
	require.Equal(t, int64(120), customer.MinWithdrawal)

	vendor, err := s.For(domain.RoleVendor)
	require.NoError(t, err)
	require.Equal(t, 3, vendor.DailyWithdrawals)
	require.Zero(t, vendor.MinWithdrawal)

	_, err = s.For(domain.Role("admin"))
	require.ErrorIs(t, err, ErrPolicyNotFound)
}

func TestLoadPolicyFile(t *testing.T) {
	path := writePolicy(t, `
reward_amount: 200
roles:
  - role: Customer
    daily_withdrawals: 2
    min_withdrawal: 50
  - role: vendor
    daily_withdrawals: 5
    min_withdrawal: 0
`)
	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(200), s.RewardAmount)

	customer, err := s.For(domain.RoleCustomer)
	require.NoError(t, err)
	require.Equal(t, 2, customer.DailyWithdrawals)
	require.Equal(t, int64(50), customer.MinWithdrawal)
}

func TestLoadRequiresExplicitFields(t *testing.T) {
	path := writePolicy(t, `
roles:
  - role: customer
    daily_withdrawals: 1
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "min_withdrawal required")
}

func TestLoadRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"unknown role": `
roles:
  - role: admin
    daily_withdrawals: 1
    min_withdrawal: 0
`,
		"duplicate role": `
roles:
  - role: vendor
    daily_withdrawals: 1
    min_withdrawal: 0
  - role: vendor
    daily_withdrawals: 2
    min_withdrawal: 0
`,
		"negative reward": `
reward_amount: -1
roles:
  - role: vendor
    daily_withdrawals: 1
    min_withdrawal: 0
`,
		"no roles": `reward_amount: 120`,
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writePolicy(t, contents))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorContains(t, err, "open policies")
}

func TestLoadTOMLPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
reward_amount = 90

[[roles]]
role = "vendor"
daily_withdrawals = 4
min_withdrawal = 10
`), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(90), s.RewardAmount)

	vendor, err := s.For(domain.RoleVendor)
	require.NoError(t, err)
	require.Equal(t, 4, vendor.DailyWithdrawals)
	require.Equal(t, int64(10), vendor.MinWithdrawal)

	_, err = s.For(domain.RoleCustomer)
	require.ErrorIs(t, err, ErrPolicyNotFound)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writePolicy(t, `
roles:
  - role: vendor
    daily_withdrawals: 1
    min_withdrawal: 0
    max_withdrawal: 5
`))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "policies.toml")
	require.NoError(t, os.WriteFile(path, []byte("rewards = 5\n[[roles]]\nrole = \"vendor\"\ndaily_withdrawals = 1\nmin_withdrawal = 0\n"), 0o600))
	_, err = Load(path)
	require.ErrorContains(t, err, "unknown key rewards")
}
