// Package memory implementa los puertos de persistencia sobre mapas en
// memoria. Se usa en pruebas de casos de uso: misma semántica observable que
// los adaptadores PostgreSQL (copias en lectura, reemplazo en escritura,
// rollback por snapshot), sin base de datos.
package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commercebox/quintal-core/internal/application/inventory"
	"github.com/commercebox/quintal-core/internal/domain"
	"github.com/commercebox/quintal-core/internal/domain/entity"
)

// Store contenedor de datos en memoria. No es seguro para uso concurrente:
// está pensado para pruebas de un solo goroutine.
type Store struct {
	lots       map[string]*entity.Lot
	lotSeq     int64
	lotMovs    []*entity.LotMovement
	unitStocks map[string]*entity.UnitStock
	unitMovs   []*entity.UnitMovement
	statuses   map[string]*entity.StockStatus
	changes    []*entity.StatusChange
	alerts     map[string]*entity.Alert
	products   map[string]*entity.Product
	suppliers  map[string]*entity.Supplier
	units      map[string]*entity.WeightUnit

	// BeforeTx se invoca al inicio de cada transacción; las pruebas lo usan
	// para simular escrituras concurrentes entre plan y aplicación.
	BeforeTx func()
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		lots:       make(map[string]*entity.Lot),
		unitStocks: make(map[string]*entity.UnitStock),
		statuses:   make(map[string]*entity.StockStatus),
		alerts:     make(map[string]*entity.Alert),
		products:   make(map[string]*entity.Product),
		suppliers:  make(map[string]*entity.Supplier),
		units:      make(map[string]*entity.WeightUnit),
	}
}

// Seed helpers

// AddProduct registra un producto de catálogo.
func (s *Store) AddProduct(p *entity.Product) { s.products[p.ID] = copyOf(p) }

// AddSupplier registra un proveedor.
func (s *Store) AddSupplier(sp *entity.Supplier) { s.suppliers[sp.ID] = copyOf(sp) }

// AddWeightUnit registra una unidad de peso.
func (s *Store) AddWeightUnit(u entity.WeightUnit) { s.units[u.ID] = &u }

// AddLot registra un quintal asignándole la siguiente secuencia.
func (s *Store) AddLot(l *entity.Lot) {
	s.lotSeq++
	c := copyOf(l)
	c.Seq = s.lotSeq
	s.lots[c.ID] = c
}

// SetUnitStock registra el stock por unidades de un producto.
func (s *Store) SetUnitStock(st *entity.UnitStock) { s.unitStocks[st.ProductID] = copyOf(st) }

// GetLot devuelve una copia del quintal almacenado (inspección en pruebas).
func (s *Store) GetLot(id string) *entity.Lot {
	if l, ok := s.lots[id]; ok {
		return copyOf(l)
	}
	return nil
}

// LotMovements copia de todos los movimientos de quintal registrados.
func (s *Store) LotMovements() []*entity.LotMovement {
	out := make([]*entity.LotMovement, len(s.lotMovs))
	for i, m := range s.lotMovs {
		out[i] = copyOf(m)
	}
	return out
}

// StatusChanges copia del historial de transiciones.
func (s *Store) StatusChanges() []*entity.StatusChange {
	out := make([]*entity.StatusChange, len(s.changes))
	for i, c := range s.changes {
		out[i] = copyOf(c)
	}
	return out
}

// ActiveAlerts copia de las alertas ACTIVAS.
func (s *Store) ActiveAlerts() []*entity.Alert {
	var out []*entity.Alert
	for _, a := range s.alerts {
		if a.Status == entity.AlertActive {
			out = append(out, copyOf(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func copyOf[T any](v *T) *T {
	c := *v
	return &c
}

// Repos devuelve el juego de repositorios atado directamente al almacén
// (equivalente a repos sobre el pool).
func (s *Store) Repos() inventory.TxRepos {
	return inventory.TxRepos{
		Lots:       &LotRepo{s: s},
		LotMovs:    &LotMovementRepo{s: s},
		UnitStocks: &UnitStockRepo{s: s},
		UnitMovs:   &UnitMovementRepo{s: s},
		Statuses:   &StockStatusRepo{s: s},
		Changes:    &StatusChangeRepo{s: s},
		Alerts:     &AlertRepo{s: s},
	}
}

// ProductRepo repositorio de catálogo atado al almacén.
func (s *Store) ProductRepo() *CatalogRepo { return &CatalogRepo{s: s} }

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner transacciones sobre el almacén: snapshot al inicio, restauración
// completa si fn devuelve error.
type TxRunner struct {
	Store *Store
}

type snapshot struct {
	lots       map[string]*entity.Lot
	lotSeq     int64
	lotMovs    []*entity.LotMovement
	unitStocks map[string]*entity.UnitStock
	unitMovs   []*entity.UnitMovement
	statuses   map[string]*entity.StockStatus
	changes    []*entity.StatusChange
	alerts     map[string]*entity.Alert
}

// Run ejecuta fn con repos del almacén; ante error restaura el estado previo.
func (t *TxRunner) Run(ctx context.Context, fn func(r inventory.TxRepos) error) error {
	if t.Store.BeforeTx != nil {
		t.Store.BeforeTx()
	}
	snap := t.Store.take()
	if err := fn(t.Store.Repos()); err != nil {
		t.Store.restore(snap)
		return err
	}
	return nil
}

func (s *Store) take() snapshot {
	return snapshot{
		lots:       copyMap(s.lots),
		lotSeq:     s.lotSeq,
		lotMovs:    append([]*entity.LotMovement(nil), s.lotMovs...),
		unitStocks: copyMap(s.unitStocks),
		unitMovs:   append([]*entity.UnitMovement(nil), s.unitMovs...),
		statuses:   copyMap(s.statuses),
		changes:    append([]*entity.StatusChange(nil), s.changes...),
		alerts:     copyMap(s.alerts),
	}
}

func (s *Store) restore(snap snapshot) {
	s.lots = snap.lots
	s.lotSeq = snap.lotSeq
	s.lotMovs = snap.lotMovs
	s.unitStocks = snap.unitStocks
	s.unitMovs = snap.unitMovs
	s.statuses = snap.statuses
	s.changes = snap.changes
	s.alerts = snap.alerts
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortLotsFIFO(lots []*entity.Lot) {
	sort.Slice(lots, func(i, j int) bool {
		if !lots[i].ReceivedAt.Equal(lots[j].ReceivedAt) {
			return lots[i].ReceivedAt.Before(lots[j].ReceivedAt)
		}
		return lots[i].Seq < lots[j].Seq
	})
}

// LotRepo implementación en memoria de repository.LotRepository.
type LotRepo struct {
	s *Store
}

func (r *LotRepo) Create(ctx context.Context, lot *entity.Lot) error {
	for _, existing := range r.s.lots {
		if existing.Code == lot.Code {
			return domain.ErrDuplicate
		}
	}
	r.s.lotSeq++
	lot.Seq = r.s.lotSeq
	r.s.lots[lot.ID] = copyOf(lot)
	return nil
}

func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	return r.s.GetLot(id), nil
}

func (r *LotRepo) GetByCode(ctx context.Context, code string) (*entity.Lot, error) {
	for _, l := range r.s.lots {
		if l.Code == code {
			return copyOf(l), nil
		}
	}
	return nil, nil
}

func (r *LotRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	return r.s.GetLot(id), nil
}

func (r *LotRepo) AvailableByProduct(ctx context.Context, productID string) ([]*entity.Lot, error) {
	var out []*entity.Lot
	for _, l := range r.s.lots {
		if l.ProductID == productID && l.State == entity.LotStateAvailable && l.CurrentWeight.IsPositive() {
			out = append(out, copyOf(l))
		}
	}
	sortLotsFIFO(out)
	return out, nil
}

func (r *LotRepo) ActiveByProduct(ctx context.Context, productID string) ([]*entity.Lot, error) {
	var out []*entity.Lot
	for _, l := range r.s.lots {
		if l.ProductID == productID && l.State != entity.LotStateDepleted {
			out = append(out, copyOf(l))
		}
	}
	sortLotsFIFO(out)
	return out, nil
}

func (r *LotRepo) UpdateWeight(ctx context.Context, lot *entity.Lot) error {
	stored, ok := r.s.lots[lot.ID]
	if !ok {
		return domain.ErrNotFound
	}
	c := copyOf(stored)
	c.CurrentWeight = lot.CurrentWeight
	c.State = lot.State
	c.UpdatedAt = lot.UpdatedAt
	r.s.lots[lot.ID] = c
	return nil
}

func (r *LotRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Lot, error) {
	var out []*entity.Lot
	for _, l := range r.s.lots {
		if l.ProductID == productID {
			out = append(out, copyOf(l))
		}
	}
	sortLotsFIFO(out)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *LotRepo) Expiring(ctx context.Context, now time.Time, days int) ([]*entity.Lot, error) {
	limit := now.AddDate(0, 0, days)
	var out []*entity.Lot
	for _, l := range r.s.lots {
		if l.State != entity.LotStateAvailable || !l.CurrentWeight.IsPositive() || l.ExpiresAt == nil {
			continue
		}
		if !l.ExpiresAt.Before(now) && !l.ExpiresAt.After(limit) {
			out = append(out, copyOf(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	return out, nil
}

func (r *LotRepo) BelowPercent(ctx context.Context, pct int64) ([]*entity.Lot, error) {
	var out []*entity.Lot
	for _, l := range r.s.lots {
		if l.State != entity.LotStateAvailable || !l.CurrentWeight.IsPositive() {
			continue
		}
		if l.PercentRemaining().LessThanOrEqual(decimal.NewFromInt(pct)) {
			out = append(out, copyOf(l))
		}
	}
	sortLotsFIFO(out)
	return out, nil
}

// LotMovementRepo implementación en memoria de repository.LotMovementRepository.
type LotMovementRepo struct {
	s *Store
}

func (r *LotMovementRepo) Create(ctx context.Context, m *entity.LotMovement) error {
	r.s.lotMovs = append(r.s.lotMovs, copyOf(m))
	return nil
}

func (r *LotMovementRepo) ListByLot(ctx context.Context, lotID string) ([]*entity.LotMovement, error) {
	var out []*entity.LotMovement
	for _, m := range r.s.lotMovs {
		if m.LotID == lotID {
			out = append(out, copyOf(m))
		}
	}
	return out, nil
}

func (r *LotMovementRepo) ListBySaleRef(ctx context.Context, saleRef string) ([]*entity.LotMovement, error) {
	var out []*entity.LotMovement
	for _, m := range r.s.lotMovs {
		if m.SaleRef == saleRef {
			out = append(out, copyOf(m))
		}
	}
	return out, nil
}

// UnitStockRepo implementación en memoria de repository.UnitStockRepository.
type UnitStockRepo struct {
	s *Store
}

func (r *UnitStockRepo) Get(ctx context.Context, productID string) (*entity.UnitStock, error) {
	if st, ok := r.s.unitStocks[productID]; ok {
		return copyOf(st), nil
	}
	return nil, nil
}

func (r *UnitStockRepo) GetForUpdate(ctx context.Context, productID string) (*entity.UnitStock, error) {
	return r.Get(ctx, productID)
}

func (r *UnitStockRepo) Upsert(ctx context.Context, stock *entity.UnitStock) error {
	r.s.unitStocks[stock.ProductID] = copyOf(stock)
	return nil
}

// UnitMovementRepo implementación en memoria de repository.UnitMovementRepository.
type UnitMovementRepo struct {
	s *Store
}

func (r *UnitMovementRepo) Create(ctx context.Context, m *entity.UnitMovement) error {
	r.s.unitMovs = append(r.s.unitMovs, copyOf(m))
	return nil
}

func (r *UnitMovementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.UnitMovement, error) {
	var out []*entity.UnitMovement
	for _, m := range r.s.unitMovs {
		if m.ProductID == productID {
			out = append(out, copyOf(m))
		}
	}
	return out, nil
}

func (r *UnitMovementRepo) ListBySaleRef(ctx context.Context, saleRef string) ([]*entity.UnitMovement, error) {
	var out []*entity.UnitMovement
	for _, m := range r.s.unitMovs {
		if m.SaleRef == saleRef {
			out = append(out, copyOf(m))
		}
	}
	return out, nil
}

// StockStatusRepo implementación en memoria de repository.StockStatusRepository.
type StockStatusRepo struct {
	s *Store
}

func (r *StockStatusRepo) Get(ctx context.Context, productID string) (*entity.StockStatus, error) {
	if st, ok := r.s.statuses[productID]; ok {
		return copyOf(st), nil
	}
	return nil, nil
}

func (r *StockStatusRepo) Upsert(ctx context.Context, status *entity.StockStatus) error {
	r.s.statuses[status.ProductID] = copyOf(status)
	return nil
}

func (r *StockStatusRepo) RequiringAttention(ctx context.Context) ([]*entity.StockStatus, error) {
	var out []*entity.StockStatus
	for _, st := range r.s.statuses {
		if st.RequiresAttention {
			out = append(out, copyOf(st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *StockStatusRepo) ListAll(ctx context.Context) ([]*entity.StockStatus, error) {
	var out []*entity.StockStatus
	for _, st := range r.s.statuses {
		out = append(out, copyOf(st))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// StatusChangeRepo implementación en memoria de repository.StatusChangeRepository.
type StatusChangeRepo struct {
	s *Store
}

func (r *StatusChangeRepo) Create(ctx context.Context, change *entity.StatusChange) error {
	r.s.changes = append(r.s.changes, copyOf(change))
	return nil
}

func (r *StatusChangeRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StatusChange, error) {
	var out []*entity.StatusChange
	for _, c := range r.s.changes {
		if c.ProductID == productID {
			out = append(out, copyOf(c))
		}
	}
	return out, nil
}

// AlertRepo implementación en memoria de repository.AlertRepository. Replica
// el índice único parcial: Create devuelve ErrDuplicate si ya hay una ACTIVA
// igual.
type AlertRepo struct {
	s *Store
}

func (r *AlertRepo) Create(ctx context.Context, alert *entity.Alert) error {
	for _, a := range r.s.alerts {
		if a.Status == entity.AlertActive && a.ProductID == alert.ProductID && a.Kind == alert.Kind && a.LotID == alert.LotID {
			return domain.ErrDuplicate
		}
	}
	r.s.alerts[alert.ID] = copyOf(alert)
	return nil
}

func (r *AlertRepo) GetByID(ctx context.Context, id string) (*entity.Alert, error) {
	if a, ok := r.s.alerts[id]; ok {
		return copyOf(a), nil
	}
	return nil, nil
}

func (r *AlertRepo) ActiveExists(ctx context.Context, productID, kind, lotID string) (bool, error) {
	for _, a := range r.s.alerts {
		if a.Status == entity.AlertActive && a.ProductID == productID && a.Kind == kind && a.LotID == lotID {
			return true, nil
		}
	}
	return false, nil
}

func (r *AlertRepo) ListActive(ctx context.Context) ([]*entity.Alert, error) {
	return r.s.ActiveAlerts(), nil
}

func (r *AlertRepo) ListActiveByProduct(ctx context.Context, productID string) ([]*entity.Alert, error) {
	var out []*entity.Alert
	for _, a := range r.s.alerts {
		if a.Status == entity.AlertActive && a.ProductID == productID {
			out = append(out, copyOf(a))
		}
	}
	return out, nil
}

func (r *AlertRepo) MarkAutoResolvable(ctx context.Context, productID string) error {
	for id, a := range r.s.alerts {
		if a.Status == entity.AlertActive && a.ProductID == productID {
			c := copyOf(a)
			c.AutoResolvable = true
			r.s.alerts[id] = c
		}
	}
	return nil
}

func (r *AlertRepo) Resolve(ctx context.Context, id, note string, at time.Time) error {
	a, ok := r.s.alerts[id]
	if !ok || a.Status != entity.AlertActive {
		return domain.ErrNotFound
	}
	c := copyOf(a)
	c.Status = entity.AlertResolved
	c.ResolutionNote = note
	c.ResolvedAt = &at
	r.s.alerts[id] = c
	return nil
}

// CatalogRepo catálogo en memoria: productos, proveedores y unidades de peso.
type CatalogRepo struct {
	s *Store
}

func (r *CatalogRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if p, ok := r.s.products[id]; ok {
		return copyOf(p), nil
	}
	return nil, nil
}

func (r *CatalogRepo) ListActive(ctx context.Context) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.s.products {
		if p.Active {
			out = append(out, copyOf(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SupplierRepo vista de proveedores del catálogo.
type SupplierRepo struct {
	s *Store
}

// SupplierRepo devuelve el repositorio de proveedores.
func (s *Store) SupplierRepo() *SupplierRepo { return &SupplierRepo{s: s} }

func (r *SupplierRepo) GetByID(ctx context.Context, id string) (*entity.Supplier, error) {
	if sp, ok := r.s.suppliers[id]; ok {
		return copyOf(sp), nil
	}
	return nil, nil
}

// WeightUnitRepo vista de unidades de peso del catálogo.
type WeightUnitRepo struct {
	s *Store
}

// WeightUnitRepo devuelve el repositorio de unidades de peso.
func (s *Store) WeightUnitRepo() *WeightUnitRepo { return &WeightUnitRepo{s: s} }

func (r *WeightUnitRepo) GetByID(ctx context.Context, id string) (*entity.WeightUnit, error) {
	if u, ok := r.s.units[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r *WeightUnitRepo) ListActive(ctx context.Context) ([]entity.WeightUnit, error) {
	var out []entity.WeightUnit
	for _, u := range r.s.units {
		if u.Active {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
