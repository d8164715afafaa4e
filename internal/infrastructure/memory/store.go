// Package memory implementa todos los puertos de almacenamiento en memoria.
// Se usa con STORE_DRIVER=memory en desarrollo y como almacén compartido en los tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/entitlements-api/internal/application/entitlement"
	"github.com/jhoicas/entitlements-api/internal/domain"
	"github.com/jhoicas/entitlements-api/internal/domain/catalog"
	"github.com/jhoicas/entitlements-api/internal/domain/entity"
	"github.com/jhoicas/entitlements-api/internal/domain/repository"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/catalogfile"
)

var (
	_ repository.OrganizationRepository = (*Store)(nil)
	_ repository.SubscriptionRepository = (*Store)(nil)
	_ repository.MembershipRepository   = (*Store)(nil)
	_ repository.RoleRepository         = (*Store)(nil)
	_ repository.ActivationRepository   = (*Store)(nil)
	_ repository.CatalogRepository      = (*Store)(nil)
	_ entitlement.LedgerTxRunner        = (*Store)(nil)
)

type membershipKey struct{ userID, organizationID string }

type ledgerKey struct {
	organizationID string
	code           entity.ModuleCode
}

// Store guarda todo en mapas protegidos por un RWMutex. Las escrituras del ledger
// se serializan además por organización con un semáforo de capacidad 1.
type Store struct {
	mu          sync.RWMutex
	snapshot    catalog.Snapshot
	orgs        map[string]entity.Organization
	subs        map[string]entity.Subscription
	memberships map[membershipKey]entity.Membership
	roles       map[string]entity.Role
	rolePerms   map[string][]entity.PermissionCode
	ledger      map[ledgerKey]entity.ModuleActivation

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	failErr error
	latency time.Duration
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		orgs:        make(map[string]entity.Organization),
		subs:        make(map[string]entity.Subscription),
		memberships: make(map[membershipKey]entity.Membership),
		roles:       make(map[string]entity.Role),
		rolePerms:   make(map[string][]entity.PermissionCode),
		ledger:      make(map[ledgerKey]entity.ModuleActivation),
		locks:       make(map[string]chan struct{}),
	}
}

// NewStoreFromData crea un almacén sembrado con el contenido de un archivo de catálogo.
func NewStoreFromData(d *catalogfile.Data) *Store {
	s := NewStore()
	s.SetCatalog(d.Catalog)
	for _, r := range d.Roles {
		s.PutRole(r)
	}
	for _, rp := range d.RolePermissions {
		s.GrantPermission(rp.RoleID, rp.PermissionCode)
	}
	for _, o := range d.Organizations {
		s.PutOrganization(o)
	}
	for _, sub := range d.Subscriptions {
		s.PutSubscription(sub)
	}
	for _, m := range d.Memberships {
		s.PutMembership(m)
	}
	for _, a := range d.Activations {
		s.PutActivation(a)
	}
	return s
}

// SetFailure hace que toda operación posterior devuelva err (nil la restablece).
// Sirve para simular un almacén caído.
func (s *Store) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// SetLatency añade un retardo a cada operación respetando la cancelación del contexto.
func (s *Store) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

// SetCatalog reemplaza el catálogo que devuelve Load.
func (s *Store) SetCatalog(snapshot catalog.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
}

// PutOrganization inserta o reemplaza una organización.
func (s *Store) PutOrganization(o entity.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	s.orgs[o.ID] = o
}

// PutSubscription inserta o reemplaza la suscripción de la organización.
func (s *Store) PutSubscription(sub entity.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.OrganizationID] = sub
}

// DeleteSubscription elimina la suscripción de la organización.
func (s *Store) DeleteSubscription(organizationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, organizationID)
}

// PutMembership inserta o reemplaza la membresía (userID, organizationID).
func (s *Store) PutMembership(m entity.Membership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships[membershipKey{m.UserID, m.OrganizationID}] = m
}

// PutRole inserta o reemplaza un rol.
func (s *Store) PutRole(r entity.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[r.ID] = r
}

// GrantPermission asigna codes al rol.
func (s *Store) GrantPermission(roleID string, codes ...entity.PermissionCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolePerms[roleID] = append(s.rolePerms[roleID], codes...)
}

// PutActivation escribe una fila del ledger sin pasar por el motor (siembra y tests).
func (s *Store) PutActivation(a entity.ModuleActivation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.ActivatedAt.IsZero() {
		a.ActivatedAt = time.Now()
	}
	if a.Status == "" {
		a.Status = entity.ActivationActive
	}
	s.ledger[ledgerKey{a.OrganizationID, a.ModuleCode}] = a
}

// begin aplica la latencia y la falla configuradas; todo error sale marcado como transitorio.
func (s *Store) begin(ctx context.Context) error {
	s.mu.RLock()
	failErr, latency := s.failErr, s.latency
	s.mu.RUnlock()
	if latency > 0 {
		t := time.NewTimer(latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return domain.Transient(ctx.Err())
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return domain.Transient(err)
	}
	return domain.Transient(failErr)
}

// Load devuelve el catálogo sembrado.
func (s *Store) Load(ctx context.Context) (catalog.Snapshot, error) {
	if err := s.begin(ctx); err != nil {
		return catalog.Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, nil
}

// GetByID devuelve la organización o (nil, nil).
func (s *Store) GetByID(ctx context.Context, id string) (*entity.Organization, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orgs[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

// GetCurrent devuelve la suscripción o (nil, nil).
func (s *Store) GetCurrent(ctx context.Context, organizationID string) (*entity.Subscription, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[organizationID]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

// GetActive devuelve la membresía activa o (nil, nil).
func (s *Store) GetActive(ctx context.Context, userID, organizationID string) (*entity.Membership, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[membershipKey{userID, organizationID}]
	if !ok || !m.IsActive {
		return nil, nil
	}
	return &m, nil
}

// GetRole devuelve el rol o (nil, nil).
func (s *Store) GetRole(ctx context.Context, roleID string) (*entity.Role, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// GetPermissionCodes devuelve una copia de los permisos del rol.
func (s *Store) GetPermissionCodes(ctx context.Context, roleID string) ([]entity.PermissionCode, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.PermissionCode(nil), s.rolePerms[roleID]...), nil
}

// Get devuelve la fila del ledger o (nil, nil).
func (s *Store) Get(ctx context.Context, organizationID string, code entity.ModuleCode) (*entity.ModuleActivation, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.ledger[ledgerKey{organizationID, code}]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// ListActive lista las filas activas de la organización ordenadas por código.
func (s *Store) ListActive(ctx context.Context, organizationID string) ([]*entity.ModuleActivation, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listActiveLocked(organizationID, nil), nil
}

// Upsert escribe directamente en el ledger. El motor nunca lo usa fuera de WithOrganizationLock.
func (s *Store) Upsert(ctx context.Context, a *entity.ModuleActivation) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("upsert: activación nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger[ledgerKey{a.OrganizationID, a.ModuleCode}] = *a
	return nil
}

func (s *Store) listActiveLocked(organizationID string, pending map[entity.ModuleCode]entity.ModuleActivation) []*entity.ModuleActivation {
	var out []*entity.ModuleActivation
	for k, a := range s.ledger {
		if k.organizationID != organizationID {
			continue
		}
		if _, overridden := pending[k.code]; overridden {
			continue
		}
		if a.IsActive() {
			a := a
			out = append(out, &a)
		}
	}
	for _, a := range pending {
		if a.IsActive() {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModuleCode < out[j].ModuleCode })
	return out
}

// WithOrganizationLock serializa por organización y aplica las escrituras de fn solo si
// fn termina sin error y el contexto sigue vivo.
func (s *Store) WithOrganizationLock(
	ctx context.Context,
	organizationID string,
	fn func(ctx context.Context, ledger repository.ActivationRepository) error,
) error {
	lock := s.orgLock(organizationID)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return domain.Transient(ctx.Err())
	}
	defer func() { <-lock }()

	tx := &txLedger{store: s, organizationID: organizationID, pending: make(map[entity.ModuleCode]entity.ModuleActivation)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := s.begin(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for code, a := range tx.pending {
		s.ledger[ledgerKey{organizationID, code}] = a
	}
	return nil
}

func (s *Store) orgLock(organizationID string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[organizationID]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[organizationID] = l
	}
	return l
}

// txLedger es la vista del ledger dentro de WithOrganizationLock: lee lo confirmado más lo pendiente.
type txLedger struct {
	store          *Store
	organizationID string
	pending        map[entity.ModuleCode]entity.ModuleActivation
}

func (t *txLedger) Get(ctx context.Context, organizationID string, code entity.ModuleCode) (*entity.ModuleActivation, error) {
	if organizationID == t.organizationID {
		if a, ok := t.pending[code]; ok {
			return &a, nil
		}
	}
	return t.store.Get(ctx, organizationID, code)
}

func (t *txLedger) ListActive(ctx context.Context, organizationID string) ([]*entity.ModuleActivation, error) {
	if err := t.store.begin(ctx); err != nil {
		return nil, err
	}
	var pending map[entity.ModuleCode]entity.ModuleActivation
	if organizationID == t.organizationID {
		pending = t.pending
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.store.listActiveLocked(organizationID, pending), nil
}

func (t *txLedger) Upsert(ctx context.Context, a *entity.ModuleActivation) error {
	if err := t.store.begin(ctx); err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("upsert: activación nil")
	}
	if a.OrganizationID != t.organizationID {
		return fmt.Errorf("upsert: la organización %s no está bloqueada en esta transacción", a.OrganizationID)
	}
	t.pending[a.ModuleCode] = *a
	return nil
}
