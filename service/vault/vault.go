package vault

import (
	"math/big"
	"strings"
	"sync"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/log"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/token"
)

func key(parts ...string) string {
	return strings.Join(parts, "|")
}

func assetKey(contract domain.Address, id domain.TokenId, owner domain.Address) string {
	return key(contract.ToLowerStr(), id.String(), owner.ToLowerStr())
}

func approvalKey(contract, owner, operator domain.Address) string {
	return key(contract.ToLowerStr(), owner.ToLowerStr(), operator.ToLowerStr())
}

func balanceKey(tokenAddr, owner domain.Address) string {
	return key(tokenAddr.ToLowerStr(), owner.ToLowerStr())
}

func allowanceKey(tokenAddr, owner, spender domain.Address) string {
	return key(tokenAddr.ToLowerStr(), owner.ToLowerStr(), spender.ToLowerStr())
}

// Vault is an in-process ledger of multi-tokens, payment tokens and native
// currency. The operator is the account the marketplace acts as: it moves
// approved assets, spends allowances and holds custody.
type Vault struct {
	mu       sync.RWMutex
	operator domain.Address

	assets     map[string]*big.Int
	approvals  map[string]bool
	balances   map[string]*big.Int
	allowances map[string]*big.Int
	native     map[string]*big.Int
}

func New(operator domain.Address) *Vault {
	return &Vault{
		operator:   operator.ToLower(),
		assets:     make(map[string]*big.Int),
		approvals:  make(map[string]bool),
		balances:   make(map[string]*big.Int),
		allowances: make(map[string]*big.Int),
		native:     make(map[string]*big.Int),
	}
}

func (v *Vault) Operator() domain.Address {
	return v.operator
}

func (v *Vault) Assets() token.AssetContract {
	return &assets{v}
}

func (v *Vault) Currencies() token.CurrencyContract {
	return &currencies{v}
}

func (v *Vault) Native() token.NativeBank {
	return &native{v}
}

// MintAsset credits amount of id to owner
func (v *Vault) MintAsset(contract, owner domain.Address, id domain.TokenId, amount *big.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	credit(v.assets, assetKey(contract, id, owner), amount)
}

func (v *Vault) SetApprovalForAll(contract, owner, operator domain.Address, approved bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.approvals[approvalKey(contract, owner, operator)] = approved
}

func (v *Vault) MintCurrency(tokenAddr, owner domain.Address, amount *big.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	credit(v.balances, balanceKey(tokenAddr, owner), amount)
}

// Approve sets spender's allowance on owner's tokens, overwriting the previous one
func (v *Vault) Approve(tokenAddr, owner, spender domain.Address, amount *big.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.allowances[allowanceKey(tokenAddr, owner, spender)] = new(big.Int).Set(amount)
}

func (v *Vault) Deposit(owner domain.Address, amount *big.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	credit(v.native, owner.ToLowerStr(), amount)
}

func credit(m map[string]*big.Int, k string, amount *big.Int) {
	if cur, ok := m[k]; ok {
		cur.Add(cur, amount)
		return
	}
	m[k] = new(big.Int).Set(amount)
}

// debit fails without mutation when the balance is short
func debit(m map[string]*big.Int, k string, amount *big.Int) error {
	cur, ok := m[k]
	if !ok {
		cur = new(big.Int)
	}
	if cur.Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}
	cur.Sub(cur, amount)
	m[k] = cur
	return nil
}

func read(m map[string]*big.Int, k string) *big.Int {
	if cur, ok := m[k]; ok {
		return new(big.Int).Set(cur)
	}
	return new(big.Int)
}

type assets struct {
	v *Vault
}

func (a *assets) BalanceOf(c ctx.Ctx, contract, owner domain.Address, id domain.TokenId) (*big.Int, error) {
	a.v.mu.RLock()
	defer a.v.mu.RUnlock()
	return read(a.v.assets, assetKey(contract, id, owner)), nil
}

func (a *assets) IsApprovedForAll(c ctx.Ctx, contract, owner, operator domain.Address) (bool, error) {
	a.v.mu.RLock()
	defer a.v.mu.RUnlock()
	return a.v.approvals[approvalKey(contract, owner, operator)], nil
}

func (a *assets) SafeTransferFrom(c ctx.Ctx, contract, from, to domain.Address, id domain.TokenId, amount *big.Int) error {
	a.v.mu.Lock()
	defer a.v.mu.Unlock()

	from, to, contract = from.ToLower(), to.ToLower(), contract.ToLower()
	if from != a.v.operator && !a.v.approvals[approvalKey(contract, from, a.v.operator)] {
		c.WithFields(log.Fields{
			"contract": contract,
			"from":     from,
		}).Warn("operator not approved")
		return domain.ErrSellerAccessRevoked
	}
	if err := debit(a.v.assets, assetKey(contract, id, from), amount); err != nil {
		return err
	}
	credit(a.v.assets, assetKey(contract, id, to), amount)
	return nil
}

type currencies struct {
	v *Vault
}

func (cu *currencies) BalanceOf(c ctx.Ctx, tokenAddr, owner domain.Address) (*big.Int, error) {
	cu.v.mu.RLock()
	defer cu.v.mu.RUnlock()
	return read(cu.v.balances, balanceKey(tokenAddr, owner)), nil
}

func (cu *currencies) Allowance(c ctx.Ctx, tokenAddr, owner, spender domain.Address) (*big.Int, error) {
	cu.v.mu.RLock()
	defer cu.v.mu.RUnlock()
	return read(cu.v.allowances, allowanceKey(tokenAddr, owner, spender)), nil
}

func (cu *currencies) TransferFrom(c ctx.Ctx, tokenAddr, from, to domain.Address, amount *big.Int) error {
	cu.v.mu.Lock()
	defer cu.v.mu.Unlock()

	tokenAddr, from, to = tokenAddr.ToLower(), from.ToLower(), to.ToLower()
	ak := allowanceKey(tokenAddr, from, cu.v.operator)
	if read(cu.v.allowances, ak).Cmp(amount) < 0 {
		return domain.ErrBuyerAllowanceInsufficient
	}
	if err := debit(cu.v.balances, balanceKey(tokenAddr, from), amount); err != nil {
		return err
	}
	// balance was checked first so the allowance is only spent on success
	_ = debit(cu.v.allowances, ak, amount)
	credit(cu.v.balances, balanceKey(tokenAddr, to), amount)
	return nil
}

func (cu *currencies) Transfer(c ctx.Ctx, tokenAddr, to domain.Address, amount *big.Int) error {
	cu.v.mu.Lock()
	defer cu.v.mu.Unlock()

	tokenAddr = tokenAddr.ToLower()
	if err := debit(cu.v.balances, balanceKey(tokenAddr, cu.v.operator), amount); err != nil {
		return err
	}
	credit(cu.v.balances, balanceKey(tokenAddr, to), amount)
	return nil
}

type native struct {
	v *Vault
}

func (n *native) BalanceOf(c ctx.Ctx, owner domain.Address) (*big.Int, error) {
	n.v.mu.RLock()
	defer n.v.mu.RUnlock()
	return read(n.v.native, owner.ToLowerStr()), nil
}

func (n *native) Transfer(c ctx.Ctx, from, to domain.Address, amount *big.Int) error {
	n.v.mu.Lock()
	defer n.v.mu.Unlock()

	if err := debit(n.v.native, from.ToLowerStr(), amount); err != nil {
		return err
	}
	credit(n.v.native, to.ToLowerStr(), amount)
	return nil
}
