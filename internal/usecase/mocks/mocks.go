package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/usecase"
)

// MockTransactionManager is a mock implementation of TransactionManager.
// By default it serializes transactions with a single mutex held from Begin
// until Commit or Rollback, which mirrors the row-lock discipline of the real
// store closely enough for concurrency tests at the usecase level.
type MockTransactionManager struct {
	mu sync.Mutex

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	return &MockTransaction{release: m.mu.Unlock}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	once    sync.Once
	release func()

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	if t.release != nil {
		t.once.Do(t.release)
	}
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	if t.release != nil {
		t.once.Do(t.release)
	}
	return nil
}

// MockBalanceRepository is a mock implementation of BalanceRepository backed
// by an in-memory map.
type MockBalanceRepository struct {
	mu       sync.RWMutex
	balances map[usecase.BalanceKey]*domain.Balance

	GetFunc              func(ctx context.Context, userID string, asset domain.Asset) (*domain.Balance, error)
	GetForUpdateFunc     func(ctx context.Context, tx usecase.Transaction, userID string, asset domain.Asset) (*domain.Balance, error)
	GetManyForUpdateFunc func(ctx context.Context, tx usecase.Transaction, keys []usecase.BalanceKey) ([]*domain.Balance, error)
	UpdateAmountFunc     func(ctx context.Context, tx usecase.Transaction, userID string, asset domain.Asset, amount domain.Amount, updatedAt time.Time) error
	ListByUserFunc       func(ctx context.Context, userID string) ([]*domain.Balance, error)
	SumByAssetFunc       func(ctx context.Context) (map[domain.Asset]domain.Amount, error)
}

func NewMockBalanceRepository() *MockBalanceRepository {
	return &MockBalanceRepository{
		balances: make(map[usecase.BalanceKey]*domain.Balance),
	}
}

// Seed sets a balance directly, bypassing the ledger operations.
func (m *MockBalanceRepository) Seed(userID string, asset domain.Asset, amount domain.Amount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := usecase.BalanceKey{UserID: userID, Asset: asset}
	m.balances[key] = &domain.Balance{UserID: userID, Asset: asset, Amount: amount}
}

func (m *MockBalanceRepository) snapshot(userID string, asset domain.Asset) *domain.Balance {
	key := usecase.BalanceKey{UserID: userID, Asset: asset}
	if b, ok := m.balances[key]; ok {
		copied := *b
		return &copied
	}
	return &domain.Balance{UserID: userID, Asset: asset, Amount: domain.ZeroAmount}
}

func (m *MockBalanceRepository) Get(ctx context.Context, userID string, asset domain.Asset) (*domain.Balance, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, asset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot(userID, asset), nil
}

func (m *MockBalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, userID string, asset domain.Asset) (*domain.Balance, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, tx, userID, asset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot(userID, asset), nil
}

func (m *MockBalanceRepository) GetManyForUpdate(ctx context.Context, tx usecase.Transaction, keys []usecase.BalanceKey) ([]*domain.Balance, error) {
	if m.GetManyForUpdateFunc != nil {
		return m.GetManyForUpdateFunc(ctx, tx, keys)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	balances := make([]*domain.Balance, 0, len(keys))
	for _, key := range keys {
		balances = append(balances, m.snapshot(key.UserID, key.Asset))
	}
	return balances, nil
}

func (m *MockBalanceRepository) UpdateAmount(ctx context.Context, tx usecase.Transaction, userID string, asset domain.Asset, amount domain.Amount, updatedAt time.Time) error {
	if m.UpdateAmountFunc != nil {
		return m.UpdateAmountFunc(ctx, tx, userID, asset, amount, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := usecase.BalanceKey{UserID: userID, Asset: asset}
	b, ok := m.balances[key]
	if !ok {
		b = &domain.Balance{UserID: userID, Asset: asset}
		m.balances[key] = b
	}
	b.Amount = amount
	b.Version++
	b.UpdatedAt = updatedAt
	return nil
}

func (m *MockBalanceRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Balance, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var balances []*domain.Balance
	for key, b := range m.balances {
		if key.UserID == userID {
			copied := *b
			balances = append(balances, &copied)
		}
	}
	return balances, nil
}

func (m *MockBalanceRepository) SumByAsset(ctx context.Context) (map[domain.Asset]domain.Amount, error) {
	if m.SumByAssetFunc != nil {
		return m.SumByAssetFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sums := make(map[domain.Asset]domain.Amount)
	for key, b := range m.balances {
		total, ok := sums[key.Asset]
		if !ok {
			total = domain.ZeroAmount
		}
		sums[key.Asset] = total.Add(b.Amount)
	}
	return sums, nil
}

// MockWalletRepository is a mock implementation of WalletRepository.
type MockWalletRepository struct {
	mu      sync.RWMutex
	wallets map[usecase.BalanceKey]*domain.WalletRegistration

	UpsertFunc func(ctx context.Context, reg *domain.WalletRegistration) error
	GetFunc    func(ctx context.Context, userID string, asset domain.Asset) (*domain.WalletRegistration, error)
}

func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		wallets: make(map[usecase.BalanceKey]*domain.WalletRegistration),
	}
}

func (m *MockWalletRepository) Upsert(ctx context.Context, reg *domain.WalletRegistration) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, reg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[usecase.BalanceKey{UserID: reg.UserID, Asset: reg.Asset}] = reg
	return nil
}

func (m *MockWalletRepository) Get(ctx context.Context, userID string, asset domain.Asset) (*domain.WalletRegistration, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, asset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if reg, ok := m.wallets[usecase.BalanceKey{UserID: userID, Asset: asset}]; ok {
		return reg, nil
	}
	return nil, domain.ErrNoRegisteredWallet
}

// MockAirdropRepository is a mock implementation of AirdropRepository.
type MockAirdropRepository struct {
	mu       sync.RWMutex
	airdrops map[string]*domain.Airdrop

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, airdrop *domain.Airdrop) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Airdrop, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Airdrop, error)
	AddClaimantFunc      func(ctx context.Context, tx usecase.Transaction, id, userID string, close bool, now time.Time) error
	CloseFunc            func(ctx context.Context, tx usecase.Transaction, id string, now time.Time) error
	GetLatestActiveFunc  func(ctx context.Context, now time.Time) (*domain.Airdrop, error)
	CloseExpiredFunc     func(ctx context.Context, now time.Time) (int64, error)
}

func NewMockAirdropRepository() *MockAirdropRepository {
	return &MockAirdropRepository{
		airdrops: make(map[string]*domain.Airdrop),
	}
}

func (m *MockAirdropRepository) Create(ctx context.Context, tx usecase.Transaction, airdrop *domain.Airdrop) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, airdrop)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *airdrop
	copied.Claimants = append([]string(nil), airdrop.Claimants...)
	m.airdrops[airdrop.ID] = &copied
	return nil
}

func (m *MockAirdropRepository) GetByID(ctx context.Context, id string) (*domain.Airdrop, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.airdrops[id]
	if !ok {
		return nil, domain.ErrAirdropNotFound
	}
	copied := *a
	copied.Claimants = append([]string(nil), a.Claimants...)
	return &copied, nil
}

func (m *MockAirdropRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Airdrop, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockAirdropRepository) AddClaimant(ctx context.Context, tx usecase.Transaction, id, userID string, close bool, now time.Time) error {
	if m.AddClaimantFunc != nil {
		return m.AddClaimantFunc(ctx, tx, id, userID, close, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.airdrops[id]
	if !ok {
		return domain.ErrAirdropNotFound
	}
	a.Claimants = append(a.Claimants, userID)
	if close {
		a.Active = false
	}
	return nil
}

func (m *MockAirdropRepository) Close(ctx context.Context, tx usecase.Transaction, id string, now time.Time) error {
	if m.CloseFunc != nil {
		return m.CloseFunc(ctx, tx, id, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.airdrops[id]; ok {
		a.Active = false
	}
	return nil
}

func (m *MockAirdropRepository) GetLatestActive(ctx context.Context, now time.Time) (*domain.Airdrop, error) {
	if m.GetLatestActiveFunc != nil {
		return m.GetLatestActiveFunc(ctx, now)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.Airdrop
	for _, a := range m.airdrops {
		if !a.Open(now) {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, domain.ErrAirdropNotFound
	}
	copied := *latest
	copied.Claimants = append([]string(nil), latest.Claimants...)
	return &copied, nil
}

func (m *MockAirdropRepository) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.CloseExpiredFunc != nil {
		return m.CloseExpiredFunc(ctx, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var closed int64
	for _, a := range m.airdrops {
		if a.Active && a.Expired(now) {
			a.Active = false
			closed++
		}
	}
	return closed, nil
}

// MockHistoryRepository is a mock implementation of HistoryRepository.
type MockHistoryRepository struct {
	mu      sync.RWMutex
	entries []*domain.HistoryEntry
	seq     int64

	CreateFunc     func(ctx context.Context, tx usecase.Transaction, entry *domain.HistoryEntry) error
	ListByUserFunc func(ctx context.Context, userID string, limit, offset int) ([]*domain.HistoryEntry, error)
	SumByKindFunc  func(ctx context.Context, kind domain.HistoryKind) (map[domain.Asset]domain.Amount, error)
}

func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{}
}

func (m *MockHistoryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.HistoryEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	copied := *entry
	copied.Seq = m.seq
	m.entries = append(m.entries, &copied)
	return nil
}

func (m *MockHistoryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.HistoryEntry, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*domain.HistoryEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UserID == userID {
			matched = append(matched, m.entries[i])
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MockHistoryRepository) SumByKind(ctx context.Context, kind domain.HistoryKind) (map[domain.Asset]domain.Amount, error) {
	if m.SumByKindFunc != nil {
		return m.SumByKindFunc(ctx, kind)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sums := make(map[domain.Asset]domain.Amount)
	for _, e := range m.entries {
		if e.Kind != kind {
			continue
		}
		total, ok := sums[e.Asset]
		if !ok {
			total = domain.ZeroAmount
		}
		sums[e.Asset] = total.Add(e.Amount)
	}
	return sums, nil
}

// Entries returns a copy of everything recorded so far.
func (m *MockHistoryRepository) Entries() []*domain.HistoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.HistoryEntry(nil), m.entries...)
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%06d", m.counter)
}

// MockSettler is a mock implementation of Settler.
type MockSettler struct {
	mu    sync.Mutex
	calls int

	SendFunc func(ctx context.Context, asset domain.Asset, destination string, amount domain.Amount) (string, error)
}

func NewMockSettler() *MockSettler {
	return &MockSettler{}
}

func (m *MockSettler) Send(ctx context.Context, asset domain.Asset, destination string, amount domain.Amount) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, asset, destination, amount)
	}
	return "mock-tx-reference", nil
}

// Calls returns how many times Send was invoked.
func (m *MockSettler) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockSettlerRegistry is a mock implementation of SettlerRegistry.
type MockSettlerRegistry struct {
	settlers map[domain.Asset]usecase.Settler
}

func NewMockSettlerRegistry() *MockSettlerRegistry {
	return &MockSettlerRegistry{settlers: make(map[domain.Asset]usecase.Settler)}
}

func (m *MockSettlerRegistry) Register(asset domain.Asset, s usecase.Settler) {
	m.settlers[asset] = s
}

func (m *MockSettlerRegistry) For(asset domain.Asset) (usecase.Settler, bool) {
	s, ok := m.settlers[asset]
	return s, ok
}
