package repository

import (
	"sort"
	"strings"
	"sync"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/order"
)

type memoryRepo struct {
	mu     sync.RWMutex
	seq    int64
	orders map[int64]*order.Order
}

// NewMemoryRepo keeps orders in process, for tests and single node runs
func NewMemoryRepo() order.Repo {
	return &memoryRepo{
		orders: make(map[int64]*order.Order),
	}
}

func (m *memoryRepo) Create(c ctx.Ctx, o *order.Order) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	res := *o
	res.Id = m.seq
	stored := res
	m.orders[res.Id] = &stored
	return &res, nil
}

func (m *memoryRepo) FindOne(c ctx.Ctx, id int64) (*order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	res := *o
	return &res, nil
}

func match(o *order.Order, opts order.FindAllOptions) bool {
	if opts.Seller != nil && o.Seller != *opts.Seller {
		return false
	}
	if opts.AssetContract != nil && o.AssetContract != *opts.AssetContract {
		return false
	}
	if opts.AssetId != nil && o.AssetId != *opts.AssetId {
		return false
	}
	if opts.State != nil && o.State != *opts.State {
		return false
	}
	if opts.DeadlineGT != nil && o.Deadline <= *opts.DeadlineGT {
		return false
	}
	return true
}

func (m *memoryRepo) filter(opts ...order.FindAllOptionsFunc) ([]*order.Order, order.FindAllOptions, error) {
	options, err := order.GetFindAllOptions(opts...)
	if err != nil {
		return nil, options, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	res := []*order.Order{}
	for _, o := range m.orders {
		if match(o, options) {
			cp := *o
			res = append(res, &cp)
		}
	}
	return res, options, nil
}

// less supports the sort keys the mongo repo is queried with, "-" for descending
func less(sortKey string) func(a, b *order.Order) bool {
	desc := strings.HasPrefix(sortKey, "-")
	var fn func(a, b *order.Order) bool
	switch strings.TrimPrefix(sortKey, "-") {
	case "deadline":
		fn = func(a, b *order.Order) bool {
			if a.Deadline == b.Deadline {
				return a.Id < b.Id
			}
			return a.Deadline < b.Deadline
		}
	case "createdAt":
		fn = func(a, b *order.Order) bool {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.Id < b.Id
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	default:
		fn = func(a, b *order.Order) bool { return a.Id < b.Id }
	}
	if desc {
		return func(a, b *order.Order) bool { return fn(b, a) }
	}
	return fn
}

func (m *memoryRepo) FindAll(c ctx.Ctx, opts ...order.FindAllOptionsFunc) ([]*order.Order, error) {
	res, options, err := m.filter(opts...)
	if err != nil {
		return nil, err
	}

	sortKey := "id"
	if options.Sort != nil {
		sortKey = *options.Sort
	}
	fn := less(sortKey)
	sort.Slice(res, func(i, j int) bool { return fn(res[i], res[j]) })

	if options.Offset != nil {
		offset := int(*options.Offset)
		if offset >= len(res) {
			return []*order.Order{}, nil
		}
		res = res[offset:]
	}
	if options.Limit != nil && *options.Limit > 0 && int(*options.Limit) < len(res) {
		res = res[:*options.Limit]
	}
	return res, nil
}

func (m *memoryRepo) Count(c ctx.Ctx, opts ...order.FindAllOptionsFunc) (int, error) {
	res, _, err := m.filter(opts...)
	if err != nil {
		return 0, err
	}
	return len(res), nil
}

func (m *memoryRepo) OrderCount(c ctx.Ctx) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seq, nil
}

func (m *memoryRepo) Transition(c ctx.Ctx, id int64, from order.State, patchable order.OrderPatchable) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.State != from {
		return domain.ErrStateConflict
	}

	if patchable.ClearSale {
		o.Buyer, o.Currency, o.FeeAmount = "", "", ""
	}
	if patchable.State != nil {
		o.State = *patchable.State
	}
	if patchable.UpdatedAt != nil {
		o.UpdatedAt = *patchable.UpdatedAt
	}
	if patchable.Buyer != nil {
		o.Buyer = *patchable.Buyer
	}
	if patchable.Currency != nil {
		o.Currency = *patchable.Currency
	}
	if patchable.FeeAmount != nil {
		o.FeeAmount = *patchable.FeeAmount
	}
	return nil
}
