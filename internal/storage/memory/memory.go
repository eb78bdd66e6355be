// internal/storage/memory/memory.go
package memory

import (
	"budget-tracker/internal/domain"
	"budget-tracker/internal/storage"
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Storage keeps all rows in maps behind a single lock. Ownership of
// sub-categories and operations follows their parent category and account.
type Storage struct {
	mu sync.RWMutex

	nextID int64

	users         map[int64]domain.User
	accounts      map[int64]domain.Account
	categories    map[int64]domain.Category
	subCategories map[int64]domain.SubCategory
	types         map[int64]domain.Type
	operations    map[int64]domain.Operation

	now func() time.Time
}

var _ storage.Storage = (*Storage)(nil)

func New() *Storage {
	return &Storage{
		users:         make(map[int64]domain.User),
		accounts:      make(map[int64]domain.Account),
		categories:    make(map[int64]domain.Category),
		subCategories: make(map[int64]domain.SubCategory),
		types:         make(map[int64]domain.Type),
		operations:    make(map[int64]domain.Operation),
		now:           time.Now,
	}
}

func (s *Storage) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Storage) newID() int64 {
	s.nextID++
	return s.nextID
}

// sortedByID returns map values ordered by id.
func sortedByID[T any](m map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func paginate[T any](items []T, page domain.Page) []T {
	from, to := page.Apply(len(items))
	return items[from:to]
}

// === UserStorage ===

func (s *Storage) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.Email = storage.NormalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return domain.User{}, fmt.Errorf("create user: %w", storage.ErrAlreadyExists)
		}
	}
	u.ID = s.newID()
	u.CreatedAt = s.now().UTC()
	u.Active = true
	s.users[u.ID] = u
	return u, nil
}

func (s *Storage) RegisterUser(ctx context.Context, u domain.User, defaults domain.Defaults) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.Email = storage.NormalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return domain.User{}, fmt.Errorf("register user: %w", storage.ErrAlreadyExists)
		}
	}
	if err := checkDefaults(defaults); err != nil {
		return domain.User{}, fmt.Errorf("seed defaults: %w", err)
	}

	u.ID = s.newID()
	u.CreatedAt = s.now().UTC()
	u.Active = true
	s.users[u.ID] = u

	for _, name := range defaults.Types {
		t := domain.Type{ID: s.newID(), Name: storage.NormalizeName(name), UserID: u.ID}
		s.types[t.ID] = t
	}
	for _, dc := range defaults.Categories {
		c := domain.Category{ID: s.newID(), Name: storage.NormalizeName(dc.Name), UserID: u.ID}
		s.categories[c.ID] = c
		for _, name := range dc.SubCategories {
			sc := domain.SubCategory{ID: s.newID(), Name: storage.NormalizeName(name), CategoryID: c.ID}
			s.subCategories[sc.ID] = sc
		}
	}
	return u, nil
}

// checkDefaults rejects the name clashes the unique constraints would, so
// RegisterUser can fail before touching any map.
func checkDefaults(defaults domain.Defaults) error {
	types := make(map[string]bool, len(defaults.Types))
	for _, name := range defaults.Types {
		name = storage.NormalizeName(name)
		if types[name] {
			return fmt.Errorf("type %q: %w", name, storage.ErrAlreadyExists)
		}
		types[name] = true
	}
	categories := make(map[string]bool, len(defaults.Categories))
	for _, dc := range defaults.Categories {
		name := storage.NormalizeName(dc.Name)
		if categories[name] {
			return fmt.Errorf("category %q: %w", name, storage.ErrAlreadyExists)
		}
		categories[name] = true
		subs := make(map[string]bool, len(dc.SubCategories))
		for _, sub := range dc.SubCategories {
			sub = storage.NormalizeName(sub)
			if subs[sub] {
				return fmt.Errorf("sub-category %q: %w", sub, storage.ErrAlreadyExists)
			}
			subs[sub] = true
		}
	}
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("get user: %w", storage.ErrNotFound)
	}
	return u, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = storage.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("get user by email: %w", storage.ErrNotFound)
}

func (s *Storage) UpdateUser(ctx context.Context, id int64, upd domain.UserUpdate) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("update user: %w", storage.ErrNotFound)
	}
	if upd.Email != nil {
		email := storage.NormalizeEmail(*upd.Email)
		for _, other := range s.users {
			if other.ID != id && other.Email == email {
				return domain.User{}, fmt.Errorf("update user: %w", storage.ErrAlreadyExists)
			}
		}
		u.Email = email
	}
	if upd.DisplayName != nil {
		name := *upd.DisplayName
		u.DisplayName = &name
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.Active != nil {
		u.Active = *upd.Active
	}
	s.users[id] = u
	return u, nil
}

func (s *Storage) SetLastLogin(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("set last login: %w", storage.ErrNotFound)
	}
	at = at.UTC()
	u.LastLogin = &at
	s.users[id] = u
	return nil
}

// === AccountStorage ===

func (s *Storage) GetAccount(ctx context.Context, userID, id int64) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.ownAccount(userID, id)
	if !ok {
		return domain.Account{}, fmt.Errorf("get account: %w", storage.ErrNotFound)
	}
	return a, nil
}

func (s *Storage) ListAccounts(ctx context.Context, userID int64, page domain.Page) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := sortedByID(s.accounts, func(a domain.Account) bool { return a.UserID == userID })
	return paginate(all, page), nil
}

func (s *Storage) CreateAccount(ctx context.Context, userID int64, a domain.Account) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !domain.ValidMoney(a.Balance) {
		return domain.Account{}, fmt.Errorf("create account: balance %s: %w", a.Balance, storage.ErrInvalidValue)
	}
	a.ID = s.newID()
	a.Name = storage.NormalizeName(a.Name)
	a.Kind = storage.NormalizeName(a.Kind)
	a.Balance = a.Balance.Round(2)
	a.UserID = userID
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Storage) UpdateAccount(ctx context.Context, userID, id int64, upd domain.AccountUpdate) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.ownAccount(userID, id)
	if !ok {
		return domain.Account{}, fmt.Errorf("update account: %w", storage.ErrNotFound)
	}
	if upd.Name != nil {
		a.Name = storage.NormalizeName(*upd.Name)
	}
	if upd.Balance != nil {
		if !domain.ValidMoney(*upd.Balance) {
			return domain.Account{}, fmt.Errorf("update account: balance %s: %w", *upd.Balance, storage.ErrInvalidValue)
		}
		a.Balance = upd.Balance.Round(2)
	}
	if upd.Kind != nil {
		a.Kind = storage.NormalizeName(*upd.Kind)
	}
	s.accounts[id] = a
	return a, nil
}

func (s *Storage) DeleteAccount(ctx context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownAccount(userID, id); !ok {
		return fmt.Errorf("delete account: %w", storage.ErrNotFound)
	}
	delete(s.accounts, id)
	for opID, op := range s.operations {
		if op.AccountID == id {
			delete(s.operations, opID)
		}
	}
	return nil
}

func (s *Storage) ownAccount(userID, id int64) (domain.Account, bool) {
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return domain.Account{}, false
	}
	return a, true
}

// === CategoryStorage ===

func (s *Storage) GetCategory(ctx context.Context, userID, id int64) (domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.ownCategory(userID, id)
	if !ok {
		return domain.Category{}, fmt.Errorf("get category: %w", storage.ErrNotFound)
	}
	return c, nil
}

func (s *Storage) GetCategoryByName(ctx context.Context, userID int64, name string) (domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name = storage.NormalizeName(name)
	for _, c := range s.categories {
		if c.UserID == userID && c.Name == name {
			return c, nil
		}
	}
	return domain.Category{}, fmt.Errorf("get category by name: %w", storage.ErrNotFound)
}

func (s *Storage) ListCategories(ctx context.Context, userID int64, page domain.Page) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := sortedByID(s.categories, func(c domain.Category) bool { return c.UserID == userID })
	return paginate(all, page), nil
}

func (s *Storage) ListCategoriesWithSubCategories(ctx context.Context, userID int64, page domain.Page) ([]domain.CategoryWithSubCategories, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := sortedByID(s.categories, func(c domain.Category) bool { return c.UserID == userID })
	cats := paginate(all, page)
	out := make([]domain.CategoryWithSubCategories, 0, len(cats))
	for _, c := range cats {
		out = append(out, domain.CategoryWithSubCategories{
			Category:      c,
			SubCategories: s.subCategoriesOf(c.ID),
		})
	}
	return out, nil
}

func (s *Storage) CreateCategory(ctx context.Context, userID int64, name string) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = storage.NormalizeName(name)
	if s.categoryNameTaken(userID, name, 0) {
		return domain.Category{}, fmt.Errorf("create category %q: %w", name, storage.ErrAlreadyExists)
	}
	c := domain.Category{ID: s.newID(), Name: name, UserID: userID}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Storage) UpdateCategory(ctx context.Context, userID, id int64, upd domain.CategoryUpdate) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.ownCategory(userID, id)
	if !ok {
		return domain.Category{}, fmt.Errorf("update category: %w", storage.ErrNotFound)
	}
	if upd.Name != nil {
		name := storage.NormalizeName(*upd.Name)
		if s.categoryNameTaken(userID, name, id) {
			return domain.Category{}, fmt.Errorf("update category %q: %w", name, storage.ErrAlreadyExists)
		}
		c.Name = name
	}
	s.categories[id] = c
	return c, nil
}

func (s *Storage) DeleteCategory(ctx context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownCategory(userID, id); !ok {
		return fmt.Errorf("delete category: %w", storage.ErrNotFound)
	}
	delete(s.categories, id)
	for scID, sc := range s.subCategories {
		if sc.CategoryID == id {
			s.removeSubCategory(scID)
		}
	}
	return nil
}

func (s *Storage) ownCategory(userID, id int64) (domain.Category, bool) {
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return domain.Category{}, false
	}
	return c, true
}

func (s *Storage) categoryNameTaken(userID int64, name string, exceptID int64) bool {
	for _, c := range s.categories {
		if c.UserID == userID && c.Name == name && c.ID != exceptID {
			return true
		}
	}
	return false
}

// === SubCategoryStorage ===

func (s *Storage) GetSubCategory(ctx context.Context, userID, id int64) (domain.SubCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.ownSubCategory(userID, id)
	if !ok {
		return domain.SubCategory{}, fmt.Errorf("get sub-category: %w", storage.ErrNotFound)
	}
	return sc, nil
}

func (s *Storage) GetSubCategoryByName(ctx context.Context, userID int64, name string) (domain.SubCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name = storage.NormalizeName(name)
	matches := sortedByID(s.subCategories, func(sc domain.SubCategory) bool {
		_, owned := s.ownCategory(userID, sc.CategoryID)
		return owned && sc.Name == name
	})
	if len(matches) == 0 {
		return domain.SubCategory{}, fmt.Errorf("get sub-category by name: %w", storage.ErrNotFound)
	}
	return matches[0], nil
}

func (s *Storage) ListSubCategories(ctx context.Context, userID int64, page domain.Page) ([]domain.SubCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := sortedByID(s.subCategories, func(sc domain.SubCategory) bool {
		_, ok := s.ownCategory(userID, sc.CategoryID)
		return ok
	})
	return paginate(all, page), nil
}

func (s *Storage) ListSubCategoriesByCategory(ctx context.Context, userID, categoryID int64) ([]domain.SubCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.ownCategory(userID, categoryID); !ok {
		return nil, fmt.Errorf("list sub-categories: %w", storage.ErrNotFound)
	}
	return s.subCategoriesOf(categoryID), nil
}

func (s *Storage) CreateSubCategory(ctx context.Context, userID int64, sc domain.SubCategory) (domain.SubCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownCategory(userID, sc.CategoryID); !ok {
		return domain.SubCategory{}, &storage.ReferenceError{Entity: "category", ID: sc.CategoryID}
	}
	sc.Name = storage.NormalizeName(sc.Name)
	if s.subCategoryNameTaken(sc.CategoryID, sc.Name, 0) {
		return domain.SubCategory{}, fmt.Errorf("create sub-category %q: %w", sc.Name, storage.ErrAlreadyExists)
	}
	sc.ID = s.newID()
	s.subCategories[sc.ID] = sc
	return sc, nil
}

func (s *Storage) UpdateSubCategory(ctx context.Context, userID, id int64, upd domain.SubCategoryUpdate) (domain.SubCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.ownSubCategory(userID, id)
	if !ok {
		return domain.SubCategory{}, fmt.Errorf("update sub-category: %w", storage.ErrNotFound)
	}
	if upd.CategoryID != nil {
		if _, ok := s.ownCategory(userID, *upd.CategoryID); !ok {
			return domain.SubCategory{}, &storage.ReferenceError{Entity: "category", ID: *upd.CategoryID}
		}
		sc.CategoryID = *upd.CategoryID
	}
	if upd.Name != nil {
		sc.Name = storage.NormalizeName(*upd.Name)
	}
	if s.subCategoryNameTaken(sc.CategoryID, sc.Name, id) {
		return domain.SubCategory{}, fmt.Errorf("update sub-category %q: %w", sc.Name, storage.ErrAlreadyExists)
	}
	s.subCategories[id] = sc
	return sc, nil
}

func (s *Storage) DeleteSubCategory(ctx context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownSubCategory(userID, id); !ok {
		return fmt.Errorf("delete sub-category: %w", storage.ErrNotFound)
	}
	s.removeSubCategory(id)
	return nil
}

// removeSubCategory deletes a sub-category and detaches its operations.
func (s *Storage) removeSubCategory(id int64) {
	delete(s.subCategories, id)
	for opID, op := range s.operations {
		if op.SubCategoryID != nil && *op.SubCategoryID == id {
			op.SubCategoryID = nil
			s.operations[opID] = op
		}
	}
}

func (s *Storage) ownSubCategory(userID, id int64) (domain.SubCategory, bool) {
	sc, ok := s.subCategories[id]
	if !ok {
		return domain.SubCategory{}, false
	}
	if _, ok := s.ownCategory(userID, sc.CategoryID); !ok {
		return domain.SubCategory{}, false
	}
	return sc, true
}

func (s *Storage) subCategoriesOf(categoryID int64) []domain.SubCategory {
	return sortedByID(s.subCategories, func(sc domain.SubCategory) bool { return sc.CategoryID == categoryID })
}

func (s *Storage) subCategoryNameTaken(categoryID int64, name string, exceptID int64) bool {
	for _, sc := range s.subCategories {
		if sc.CategoryID == categoryID && sc.Name == name && sc.ID != exceptID {
			return true
		}
	}
	return false
}

// === TypeStorage ===

func (s *Storage) GetType(ctx context.Context, userID, id int64) (domain.Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.ownType(userID, id)
	if !ok {
		return domain.Type{}, fmt.Errorf("get type: %w", storage.ErrNotFound)
	}
	return t, nil
}

func (s *Storage) GetTypeByName(ctx context.Context, userID int64, name string) (domain.Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name = storage.NormalizeName(name)
	for _, t := range s.types {
		if t.UserID == userID && t.Name == name {
			return t, nil
		}
	}
	return domain.Type{}, fmt.Errorf("get type by name: %w", storage.ErrNotFound)
}

func (s *Storage) ListTypes(ctx context.Context, userID int64, page domain.Page) ([]domain.Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := sortedByID(s.types, func(t domain.Type) bool { return t.UserID == userID })
	return paginate(all, page), nil
}

func (s *Storage) CreateType(ctx context.Context, userID int64, name string) (domain.Type, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = storage.NormalizeName(name)
	if s.typeNameTaken(userID, name, 0) {
		return domain.Type{}, fmt.Errorf("create type %q: %w", name, storage.ErrAlreadyExists)
	}
	t := domain.Type{ID: s.newID(), Name: name, UserID: userID}
	s.types[t.ID] = t
	return t, nil
}

func (s *Storage) UpdateType(ctx context.Context, userID, id int64, upd domain.TypeUpdate) (domain.Type, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.ownType(userID, id)
	if !ok {
		return domain.Type{}, fmt.Errorf("update type: %w", storage.ErrNotFound)
	}
	if upd.Name != nil {
		name := storage.NormalizeName(*upd.Name)
		if s.typeNameTaken(userID, name, id) {
			return domain.Type{}, fmt.Errorf("update type %q: %w", name, storage.ErrAlreadyExists)
		}
		t.Name = name
	}
	s.types[id] = t
	return t, nil
}

func (s *Storage) DeleteType(ctx context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownType(userID, id); !ok {
		return fmt.Errorf("delete type: %w", storage.ErrNotFound)
	}
	for _, op := range s.operations {
		if op.TypeID == id {
			return fmt.Errorf("delete type: %w", storage.ErrInUse)
		}
	}
	delete(s.types, id)
	return nil
}

func (s *Storage) ownType(userID, id int64) (domain.Type, bool) {
	t, ok := s.types[id]
	if !ok || t.UserID != userID {
		return domain.Type{}, false
	}
	return t, true
}

func (s *Storage) typeNameTaken(userID int64, name string, exceptID int64) bool {
	for _, t := range s.types {
		if t.UserID == userID && t.Name == name && t.ID != exceptID {
			return true
		}
	}
	return false
}

// === OperationStorage ===

func (s *Storage) GetOperation(ctx context.Context, userID, id int64) (domain.Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	op, ok := s.ownOperation(userID, id)
	if !ok {
		return domain.Operation{}, fmt.Errorf("get operation: %w", storage.ErrNotFound)
	}
	return op, nil
}

func (s *Storage) ListOperations(ctx context.Context, userID int64, filter domain.OperationFilter) ([]domain.Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Operation, 0)
	for _, op := range s.operations {
		if _, ok := s.ownAccount(userID, op.AccountID); !ok {
			continue
		}
		if matches(op, filter) {
			out = append(out, op)
		}
	}
	slices.SortFunc(out, func(a, b domain.Operation) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return paginate(out, filter.Page), nil
}

func matches(op domain.Operation, f domain.OperationFilter) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(op.Description), strings.ToLower(f.Search)) {
		return false
	}
	if f.AccountID != nil && op.AccountID != *f.AccountID {
		return false
	}
	if f.TypeID != nil && op.TypeID != *f.TypeID {
		return false
	}
	if f.SubCategoryID != nil && (op.SubCategoryID == nil || *op.SubCategoryID != *f.SubCategoryID) {
		return false
	}
	if f.From != nil && op.Date.Before(f.From.Time) {
		return false
	}
	if f.To != nil && op.Date.After(f.To.Time) {
		return false
	}
	return true
}

func (s *Storage) CreateOperation(ctx context.Context, userID int64, op domain.Operation) (domain.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !domain.ValidMoney(op.Amount) {
		return domain.Operation{}, fmt.Errorf("create operation: amount %s: %w", op.Amount, storage.ErrInvalidValue)
	}
	if err := s.checkOperationRefs(userID, op.AccountID, op.TypeID, op.SubCategoryID); err != nil {
		return domain.Operation{}, err
	}
	op.ID = s.newID()
	op.Description = storage.NormalizeName(op.Description)
	op.Amount = op.Amount.Round(2)
	op.Date = domain.DateOf(op.Date.Time)
	s.operations[op.ID] = op
	return op, nil
}

func (s *Storage) UpdateOperation(ctx context.Context, userID, id int64, upd domain.OperationUpdate) (domain.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.ownOperation(userID, id)
	if !ok {
		return domain.Operation{}, fmt.Errorf("update operation: %w", storage.ErrNotFound)
	}
	if upd.Date != nil {
		op.Date = domain.DateOf(upd.Date.Time)
	}
	if upd.Description != nil {
		op.Description = storage.NormalizeName(*upd.Description)
	}
	if upd.Amount != nil {
		if !domain.ValidMoney(*upd.Amount) {
			return domain.Operation{}, fmt.Errorf("update operation: amount %s: %w", *upd.Amount, storage.ErrInvalidValue)
		}
		op.Amount = upd.Amount.Round(2)
	}
	if upd.AccountID != nil {
		op.AccountID = *upd.AccountID
	}
	if upd.TypeID != nil {
		op.TypeID = *upd.TypeID
	}
	if upd.SubCategoryID.Set {
		op.SubCategoryID = upd.SubCategoryID.Value
	}
	if err := s.checkOperationRefs(userID, op.AccountID, op.TypeID, op.SubCategoryID); err != nil {
		return domain.Operation{}, err
	}
	s.operations[id] = op
	return op, nil
}

func (s *Storage) DeleteOperation(ctx context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownOperation(userID, id); !ok {
		return fmt.Errorf("delete operation: %w", storage.ErrNotFound)
	}
	delete(s.operations, id)
	return nil
}

func (s *Storage) ownOperation(userID, id int64) (domain.Operation, bool) {
	op, ok := s.operations[id]
	if !ok {
		return domain.Operation{}, false
	}
	if _, ok := s.ownAccount(userID, op.AccountID); !ok {
		return domain.Operation{}, false
	}
	return op, true
}

func (s *Storage) checkOperationRefs(userID, accountID, typeID int64, subCategoryID *int64) error {
	if _, ok := s.ownAccount(userID, accountID); !ok {
		return &storage.ReferenceError{Entity: "account", ID: accountID}
	}
	if _, ok := s.ownType(userID, typeID); !ok {
		return &storage.ReferenceError{Entity: "type", ID: typeID}
	}
	if subCategoryID != nil {
		if _, ok := s.ownSubCategory(userID, *subCategoryID); !ok {
			return &storage.ReferenceError{Entity: "sub-category", ID: *subCategoryID}
		}
	}
	return nil
}

// === StatsStorage ===

func (s *Storage) Stats(ctx context.Context, userID int64) (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st domain.Stats
	for _, a := range s.accounts {
		if a.UserID == userID {
			st.TotalAccounts++
			st.TotalBalance = st.TotalBalance.Add(a.Balance)
		}
	}
	for _, c := range s.categories {
		if c.UserID == userID {
			st.TotalCategories++
		}
	}
	for _, sc := range s.subCategories {
		if _, ok := s.ownCategory(userID, sc.CategoryID); ok {
			st.TotalSubCategories++
		}
	}
	for _, t := range s.types {
		if t.UserID == userID {
			st.TotalTypes++
		}
	}
	for _, op := range s.operations {
		if _, ok := s.ownAccount(userID, op.AccountID); ok {
			st.TotalOperations++
		}
	}
	return st, nil
}

func (s *Storage) MonthlySummary(ctx context.Context, userID int64, month string) (domain.MonthlySummary, error) {
	from, to, err := domain.MonthRange(month)
	if err != nil {
		return domain.MonthlySummary{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	byType := map[string]*domain.NamedTotal{}
	byCategory := map[string]*domain.NamedTotal{}
	add := func(m map[string]*domain.NamedTotal, name string, op domain.Operation) {
		nt, ok := m[name]
		if !ok {
			nt = &domain.NamedTotal{Name: name}
			m[name] = nt
		}
		nt.Total = nt.Total.Add(op.Amount)
		nt.Count++
	}

	for _, op := range s.operations {
		if _, ok := s.ownAccount(userID, op.AccountID); !ok {
			continue
		}
		if op.Date.Before(from.Time) || !op.Date.Before(to.Time) {
			continue
		}
		add(byType, s.types[op.TypeID].Name, op)

		catName := domain.UncategorizedName
		if op.SubCategoryID != nil {
			if sc, ok := s.subCategories[*op.SubCategoryID]; ok {
				catName = s.categories[sc.CategoryID].Name
			}
		}
		add(byCategory, catName, op)
	}

	return domain.MonthlySummary{
		Month:      month,
		ByType:     sortedTotals(byType),
		ByCategory: sortedTotals(byCategory),
	}, nil
}

func sortedTotals(m map[string]*domain.NamedTotal) []domain.NamedTotal {
	out := make([]domain.NamedTotal, 0, len(m))
	for _, nt := range m {
		out = append(out, *nt)
	}
	slices.SortFunc(out, func(a, b domain.NamedTotal) int { return cmp.Compare(a.Name, b.Name) })
	return out
}
