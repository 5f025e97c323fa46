// Package repotest provides an in-memory repository.Store for service tests.
//
// MemStore keeps every table in maps, enforces the constraints the schema
// declares (foreign keys, unique keys, checks) by returning the same
// *pgconn.PgError values Postgres would, and rolls back all writes made
// inside ExecTx when the callback fails. Failures can be injected on the
// n-th call of any query.
package repotest

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/expertauto/expertise/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Table names accepted by Count.
const (
	TableBureaux     = "bureaux"
	TableRapports    = "rapports"
	TableVehicules   = "vehicules"
	TableAssures     = "assures"
	TableChocs       = "chocs"
	TableFournitures = "fournitures"
	TableExports     = "rapport_exports"
	TableJobs        = "jobs"
)

type state struct {
	bureaux     map[uuid.UUID]repository.Bureau
	rapports    map[uuid.UUID]repository.Rapport
	vehicules   map[uuid.UUID]repository.Vehicule
	assures     map[uuid.UUID]repository.Assure
	chocs       map[uuid.UUID]repository.Choc
	fournitures map[uuid.UUID]repository.Fourniture
	exports     map[uuid.UUID]repository.RapportExport
	jobs        map[uuid.UUID]repository.Job
}

func newState() state {
	return state{
		bureaux:     map[uuid.UUID]repository.Bureau{},
		rapports:    map[uuid.UUID]repository.Rapport{},
		vehicules:   map[uuid.UUID]repository.Vehicule{},
		assures:     map[uuid.UUID]repository.Assure{},
		chocs:       map[uuid.UUID]repository.Choc{},
		fournitures: map[uuid.UUID]repository.Fourniture{},
		exports:     map[uuid.UUID]repository.RapportExport{},
		jobs:        map[uuid.UUID]repository.Job{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s state) clone() state {
	return state{
		bureaux:     cloneMap(s.bureaux),
		rapports:    cloneMap(s.rapports),
		vehicules:   cloneMap(s.vehicules),
		assures:     cloneMap(s.assures),
		chocs:       cloneMap(s.chocs),
		fournitures: cloneMap(s.fournitures),
		exports:     cloneMap(s.exports),
		jobs:        cloneMap(s.jobs),
	}
}

type injected struct {
	call int
	err  error
}

// MemStore is an in-memory repository.Store.
type MemStore struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	data  state
	now   time.Time
	calls map[string]int
	fail  map[string]injected

	// Commits and Rollbacks count finished transactions.
	Commits   int
	Rollbacks int
}

var _ repository.Store = (*MemStore)(nil)

// New returns an empty store.
func New() *MemStore {
	return &MemStore{
		data:  newState(),
		now:   time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC),
		calls: map[string]int{},
		fail:  map[string]injected{},
	}
}

// FailOn makes the n-th call (1-based, counted from now) of the named query
// return err. Pass n = 1 to fail the next call.
func (m *MemStore) FailOn(query string, n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[query] = injected{call: m.calls[query] + n, err: err}
}

// Calls returns how many times the named query ran.
func (m *MemStore) Calls(query string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[query]
}

// Count returns the number of rows in a table.
func (m *MemStore) Count(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch table {
	case TableBureaux:
		return len(m.data.bureaux)
	case TableRapports:
		return len(m.data.rapports)
	case TableVehicules:
		return len(m.data.vehicules)
	case TableAssures:
		return len(m.data.assures)
	case TableChocs:
		return len(m.data.chocs)
	case TableFournitures:
		return len(m.data.fournitures)
	case TableExports:
		return len(m.data.exports)
	case TableJobs:
		return len(m.data.jobs)
	}
	panic("repotest: unknown table " + table)
}

// Fournitures returns every stored parts row.
func (m *MemStore) Fournitures() []repository.Fourniture {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.Fourniture, 0, len(m.data.fournitures))
	for _, f := range m.data.fournitures {
		out = append(out, f)
	}
	return out
}

// Chocs returns every stored damage zone row.
func (m *MemStore) Chocs() []repository.Choc {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.Choc, 0, len(m.data.chocs))
	for _, c := range m.data.chocs {
		out = append(out, c)
	}
	return out
}

// Jobs returns every stored job.
func (m *MemStore) Jobs() []repository.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.Job, 0, len(m.data.jobs))
	for _, j := range m.data.jobs {
		out = append(out, j)
	}
	return out
}

// SeedBureau inserts an office and returns it.
func (m *MemStore) SeedBureau(code, name string) repository.Bureau {
	b, err := m.CreateBureau(context.Background(), repository.CreateBureauParams{
		ID:        uuid.New(),
		Code:      code,
		NomAgence: name,
	})
	if err != nil {
		panic(err)
	}
	return b
}

// ExecTx serializes transactions and restores the pre-transaction snapshot
// when fn fails.
func (m *MemStore) ExecTx(ctx context.Context, fn func(q repository.Querier) error) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	m.mu.Lock()
	snapshot := m.data.clone()
	m.mu.Unlock()

	rollback := func() {
		m.mu.Lock()
		m.data = snapshot
		m.Rollbacks++
		m.mu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err := fn(m); err != nil {
		rollback()
		return err
	}

	m.mu.Lock()
	m.Commits++
	m.mu.Unlock()
	return nil
}

// enter records a call and returns an injected error, if any. Caller holds mu.
func (m *MemStore) enter(ctx context.Context, query string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.calls[query]++
	if f, ok := m.fail[query]; ok && f.call == m.calls[query] {
		delete(m.fail, query)
		return f.err
	}
	return nil
}

func (m *MemStore) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func fkViolation(constraint, detail string) error {
	return &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23503",
		Message:        fmt.Sprintf("insert or update violates foreign key constraint %q", constraint),
		Detail:         detail,
		ConstraintName: constraint,
	}
}

func uniqueViolation(constraint, detail string) error {
	return &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23505",
		Message:        fmt.Sprintf("duplicate key value violates unique constraint %q", constraint),
		Detail:         detail,
		ConstraintName: constraint,
	}
}

func checkViolation(table, constraint string) error {
	return &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23514",
		Message:        fmt.Sprintf("new row for relation %q violates check constraint %q", table, constraint),
		ConstraintName: constraint,
		TableName:      table,
	}
}

// =============================================================================
// bureaux
// =============================================================================

func (m *MemStore) CreateBureau(ctx context.Context, arg repository.CreateBureauParams) (repository.Bureau, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "CreateBureau"); err != nil {
		return repository.Bureau{}, err
	}
	for _, b := range m.data.bureaux {
		if b.Code == arg.Code {
			return repository.Bureau{}, uniqueViolation("bureaux_code_key", fmt.Sprintf("Key (code)=(%s) already exists.", arg.Code))
		}
	}
	now := m.tick()
	b := repository.Bureau{
		ID:                   arg.ID,
		Code:                 arg.Code,
		NomAgence:            arg.NomAgence,
		ResponsableSinistres: arg.ResponsableSinistres,
		Telephone:            arg.Telephone,
		Email:                arg.Email,
		Adresse:              arg.Adresse,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	m.data.bureaux[b.ID] = b
	return b, nil
}

func (m *MemStore) GetBureauByID(ctx context.Context, id uuid.UUID) (repository.Bureau, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "GetBureauByID"); err != nil {
		return repository.Bureau{}, err
	}
	b, ok := m.data.bureaux[id]
	if !ok {
		return repository.Bureau{}, sql.ErrNoRows
	}
	return b, nil
}

func (m *MemStore) GetBureauByCode(ctx context.Context, code string) (repository.Bureau, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "GetBureauByCode"); err != nil {
		return repository.Bureau{}, err
	}
	for _, b := range m.data.bureaux {
		if b.Code == code {
			return b, nil
		}
	}
	return repository.Bureau{}, sql.ErrNoRows
}

func (m *MemStore) UpdateBureau(ctx context.Context, arg repository.UpdateBureauParams) (repository.Bureau, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "UpdateBureau"); err != nil {
		return repository.Bureau{}, err
	}
	b, ok := m.data.bureaux[arg.ID]
	if !ok {
		return repository.Bureau{}, sql.ErrNoRows
	}
	for _, other := range m.data.bureaux {
		if other.ID != arg.ID && other.Code == arg.Code {
			return repository.Bureau{}, uniqueViolation("bureaux_code_key", fmt.Sprintf("Key (code)=(%s) already exists.", arg.Code))
		}
	}
	b.Code = arg.Code
	b.NomAgence = arg.NomAgence
	b.ResponsableSinistres = arg.ResponsableSinistres
	b.Telephone = arg.Telephone
	b.Email = arg.Email
	b.Adresse = arg.Adresse
	b.UpdatedAt = m.tick()
	m.data.bureaux[b.ID] = b
	return b, nil
}

func (m *MemStore) ListBureaux(ctx context.Context, search string) ([]repository.Bureau, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "ListBureaux"); err != nil {
		return nil, err
	}
	needle := strings.ToLower(search)
	var out []repository.Bureau
	for _, b := range m.data.bureaux {
		if needle == "" || strings.Contains(strings.ToLower(b.Code), needle) ||
			strings.Contains(strings.ToLower(b.NomAgence), needle) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NomAgence < out[j].NomAgence })
	return out, nil
}

func (m *MemStore) DeleteBureau(ctx context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "DeleteBureau"); err != nil {
		return 0, err
	}
	if _, ok := m.data.bureaux[id]; !ok {
		return 0, nil
	}
	for _, r := range m.data.rapports {
		if r.BureauID == id {
			return 0, fkViolation("rapports_bureau_id_fkey",
				fmt.Sprintf("Key (id)=(%s) is still referenced from table \"rapports\".", id))
		}
	}
	delete(m.data.bureaux, id)
	return 1, nil
}

// =============================================================================
// rapports
// =============================================================================

func (m *MemStore) CreateRapport(ctx context.Context, arg repository.CreateRapportParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "CreateRapport"); err != nil {
		return err
	}
	if _, ok := m.data.rapports[arg.ID]; ok {
		return uniqueViolation("rapports_pkey", fmt.Sprintf("Key (id)=(%s) already exists.", arg.ID))
	}
	if _, ok := m.data.bureaux[arg.BureauID]; !ok {
		return fkViolation("rapports_bureau_id_fkey",
			fmt.Sprintf("Key (bureau_id)=(%s) is not present in table \"bureaux\".", arg.BureauID))
	}
	now := m.tick()
	m.data.rapports[arg.ID] = repository.Rapport{
		ID:                 arg.ID,
		TypeRapport:        arg.TypeRapport,
		NumeroOrdreService: arg.NumeroOrdreService,
		BureauID:           arg.BureauID,
		NumeroSinistre:     arg.NumeroSinistre,
		DateSinistre:       arg.DateSinistre,
		DateVisite:         arg.DateVisite,
		Statut:             arg.Statut,
		MontantTotal:       arg.MontantTotal,
		Valuation:          arg.Valuation,
		UserID:             arg.UserID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	return nil
}

func (m *MemStore) GetRapportByID(ctx context.Context, id uuid.UUID) (repository.Rapport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "GetRapportByID"); err != nil {
		return repository.Rapport{}, err
	}
	r, ok := m.data.rapports[id]
	if !ok {
		return repository.Rapport{}, sql.ErrNoRows
	}
	return r, nil
}

func (m *MemStore) matchRapport(r repository.Rapport, search, statut, typeRapport string) bool {
	if statut != "" && r.Statut != statut {
		return false
	}
	if typeRapport != "" && r.TypeRapport != typeRapport {
		return false
	}
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(r.NumeroSinistre), needle) ||
		strings.Contains(strings.ToLower(r.NumeroOrdreService), needle)
}

func (m *MemStore) ListRapports(ctx context.Context, arg repository.ListRapportsParams) ([]repository.ListRapportsRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "ListRapports"); err != nil {
		return nil, err
	}
	var matched []repository.Rapport
	for _, r := range m.data.rapports {
		if m.matchRapport(r, arg.Search, arg.Statut, arg.TypeRapport) {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start := int(arg.Offset)
	if start > len(matched) {
		start = len(matched)
	}
	end := start + int(arg.Limit)
	if end > len(matched) {
		end = len(matched)
	}

	var out []repository.ListRapportsRow
	for _, r := range matched[start:end] {
		row := repository.ListRapportsRow{Rapport: r}
		if b, ok := m.data.bureaux[r.BureauID]; ok {
			row.BureauCode = b.Code
			row.BureauNomAgence = b.NomAgence
		}
		for _, v := range m.data.vehicules {
			if v.RapportID == r.ID {
				row.VehiculeMarque = sql.NullString{String: v.Marque, Valid: true}
				row.VehiculeType = sql.NullString{String: v.Type, Valid: true}
				row.VehiculeImmatriculation = sql.NullString{String: v.Immatriculation, Valid: true}
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *MemStore) CountRapports(ctx context.Context, arg repository.CountRapportsParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "CountRapports"); err != nil {
		return 0, err
	}
	var n int64
	for _, r := range m.data.rapports {
		if m.matchRapport(r, arg.Search, arg.Statut, arg.TypeRapport) {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) UpdateRapport(ctx context.Context, arg repository.UpdateRapportParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "UpdateRapport"); err != nil {
		return 0, err
	}
	r, ok := m.data.rapports[arg.ID]
	if !ok {
		return 0, nil
	}
	if _, ok := m.data.bureaux[arg.BureauID]; !ok {
		return 0, fkViolation("rapports_bureau_id_fkey",
			fmt.Sprintf("Key (bureau_id)=(%s) is not present in table \"bureaux\".", arg.BureauID))
	}
	r.TypeRapport = arg.TypeRapport
	r.NumeroOrdreService = arg.NumeroOrdreService
	r.BureauID = arg.BureauID
	r.NumeroSinistre = arg.NumeroSinistre
	r.DateSinistre = arg.DateSinistre
	r.DateVisite = arg.DateVisite
	r.Statut = arg.Statut
	r.UpdatedAt = m.tick()
	m.data.rapports[arg.ID] = r
	return 1, nil
}

func (m *MemStore) UpdateRapportStatut(ctx context.Context, arg repository.UpdateRapportStatutParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "UpdateRapportStatut"); err != nil {
		return 0, err
	}
	r, ok := m.data.rapports[arg.ID]
	if !ok {
		return 0, nil
	}
	r.Statut = arg.Statut
	r.UpdatedAt = m.tick()
	m.data.rapports[arg.ID] = r
	return 1, nil
}

func (m *MemStore) UpdateRapportValuation(ctx context.Context, arg repository.UpdateRapportValuationParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "UpdateRapportValuation"); err != nil {
		return 0, err
	}
	r, ok := m.data.rapports[arg.ID]
	if !ok {
		return 0, nil
	}
	r.MontantTotal = arg.MontantTotal
	r.Valuation = arg.Valuation
	r.UpdatedAt = m.tick()
	m.data.rapports[arg.ID] = r
	return 1, nil
}

// DeleteRapport applies the schema's ON DELETE CASCADE to dependents still
// present.
func (m *MemStore) DeleteRapport(ctx context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "DeleteRapport"); err != nil {
		return 0, err
	}
	if _, ok := m.data.rapports[id]; !ok {
		return 0, nil
	}
	for cid, c := range m.data.chocs {
		if c.RapportID != id {
			continue
		}
		for fid, f := range m.data.fournitures {
			if f.ChocID == cid {
				delete(m.data.fournitures, fid)
			}
		}
		delete(m.data.chocs, cid)
	}
	for vid, v := range m.data.vehicules {
		if v.RapportID == id {
			delete(m.data.vehicules, vid)
		}
	}
	for aid, a := range m.data.assures {
		if a.RapportID == id {
			delete(m.data.assures, aid)
		}
	}
	for eid, e := range m.data.exports {
		if e.RapportID == id {
			delete(m.data.exports, eid)
		}
	}
	delete(m.data.rapports, id)
	return 1, nil
}

// =============================================================================
// vehicules / assures
// =============================================================================

func (m *MemStore) CreateVehicule(ctx context.Context, arg repository.CreateVehiculeParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "CreateVehicule"); err != nil {
		return err
	}
	if _, ok := m.data.rapports[arg.RapportID]; !ok {
		return fkViolation("vehicules_rapport_id_fkey", "Key (rapport_id) is not present in table \"rapports\".")
	}
	for _, v := range m.data.vehicules {
		if v.RapportID == arg.RapportID {
			return uniqueViolation("vehicules_rapport_id_key", "Key (rapport_id) already exists.")
		}
	}
	if len([]rune(arg.NumeroChassis)) != 17 {
		return checkViolation("vehicules", "vehicules_numero_chassis_check")
	}
	now := m.tick()
	m.data.vehicules[arg.ID] = repository.Vehicule{
		ID:                  arg.ID,
		RapportID:           arg.RapportID,
		Marque:              arg.Marque,
		Type:                arg.Type,
		Genre:               arg.Genre,
		Immatriculation:     arg.Immatriculation,
		NumeroChassis:       arg.NumeroChassis,
		Kilometrage:         arg.Kilometrage,
		DateMiseCirculation: arg.DateMiseCirculation,
		Couleur:             arg.Couleur,
		SourceEnergie:       arg.SourceEnergie,
		PuissanceFiscale:    arg.PuissanceFiscale,
		ValeurNeuve:         arg.ValeurNeuve,
		ChargeUtile:         arg.ChargeUtile,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	return nil
}

func (m *MemStore) GetVehiculeByRapportID(ctx context.Context, rapportID uuid.UUID) (repository.Vehicule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "GetVehiculeByRapportID"); err != nil {
		return repository.Vehicule{}, err
	}
	for _, v := range m.data.vehicules {
		if v.RapportID == rapportID {
			return v, nil
		}
	}
	return repository.Vehicule{}, sql.ErrNoRows
}

func (m *MemStore) DeleteVehiculeByRapportID(ctx context.Context, rapportID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "DeleteVehiculeByRapportID"); err != nil {
		return 0, err
	}
	var n int64
	for id, v := range m.data.vehicules {
		if v.RapportID == rapportID {
			delete(m.data.vehicules, id)
			n++
		}
	}
	return n, nil
}

func (m *MemStore) CreateAssure(ctx context.Context, arg repository.CreateAssureParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "CreateAssure"); err != nil {
		return err
	}
	if _, ok := m.data.rapports[arg.RapportID]; !ok {
		return fkViolation("assures_rapport_id_fkey", "Key (rapport_id) is not present in table \"rapports\".")
	}
	for _, a := range m.data.assures {
		if a.RapportID == arg.RapportID {
			return uniqueViolation("assures_rapport_id_key", "Key (rapport_id) already exists.")
		}
	}
	now := m.tick()
	m.data.assures[arg.ID] = repository.Assure{
		ID:        arg.ID,
		RapportID: arg.RapportID,
		Nom:       arg.Nom,
		Prenom:    arg.Prenom,
		Telephone: arg.Telephone,
		Email:     arg.Email,
		Adresse:   arg.Adresse,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (m *MemStore) GetAssureByRapportID(ctx context.Context, rapportID uuid.UUID) (repository.Assure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "GetAssureByRapportID"); err != nil {
		return repository.Assure{}, err
	}
	for _, a := range m.data.assures {
		if a.RapportID == rapportID {
			return a, nil
		}
	}
	return repository.Assure{}, sql.ErrNoRows
}

func (m *MemStore) DeleteAssureByRapportID(ctx context.Context, rapportID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "DeleteAssureByRapportID"); err != nil {
		return 0, err
	}
	var n int64
	for id, a := range m.data.assures {
		if a.RapportID == rapportID {
			delete(m.data.assures, id)
			n++
		}
	}
	return n, nil
}

// =============================================================================
// chocs / fournitures
// =============================================================================

func (m *MemStore) CreateChoc(ctx context.Context, arg repository.CreateChocParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "CreateChoc"); err != nil {
		return err
	}
	if _, ok := m.data.rapports[arg.RapportID]; !ok {
		return fkViolation("chocs_rapport_id_fkey", "Key (rapport_id) is not present in table \"rapports\".")
	}
	if arg.Ordre < 1 {
		return checkViolation("chocs", "chocs_ordre_check")
	}
	for _, c := range m.data.chocs {
		if c.RapportID == arg.RapportID && c.Ordre == arg.Ordre {
			return uniqueViolation("chocs_rapport_id_ordre_key", "Key (rapport_id, ordre) already exists.")
		}
	}
	now := m.tick()
	m.data.chocs[arg.ID] = repository.Choc{
		ID:                arg.ID,
		RapportID:         arg.RapportID,
		NomChoc:           arg.NomChoc,
		Description:       arg.Description,
		ModeleVehiculeSvg: arg.ModeleVehiculeSvg,
		TempsReparation:   arg.TempsReparation,
		TauxHoraire:       arg.TauxHoraire,
		MontantPeinture:   arg.MontantPeinture,
		Ordre:             arg.Ordre,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return nil
}

func (m *MemStore) ListChocsByRapportID(ctx context.Context, rapportID uuid.UUID) ([]repository.Choc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "ListChocsByRapportID"); err != nil {
		return nil, err
	}
	var out []repository.Choc
	for _, c := range m.data.chocs {
		if c.RapportID == rapportID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordre < out[j].Ordre })
	return out, nil
}

func (m *MemStore) DeleteChocsByRapportID(ctx context.Context, rapportID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "DeleteChocsByRapportID"); err != nil {
		return 0, err
	}
	var n int64
	for id, c := range m.data.chocs {
		if c.RapportID != rapportID {
			continue
		}
		for fid, f := range m.data.fournitures {
			if f.ChocID == id {
				delete(m.data.fournitures, fid)
			}
		}
		delete(m.data.chocs, id)
		n++
	}
	return n, nil
}

func (m *MemStore) CreateFourniture(ctx context.Context, arg repository.CreateFournitureParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "CreateFourniture"); err != nil {
		return err
	}
	if _, ok := m.data.chocs[arg.ChocID]; !ok {
		return fkViolation("fournitures_choc_id_fkey", "Key (choc_id) is not present in table \"chocs\".")
	}
	if arg.Quantite < 1 {
		return checkViolation("fournitures", "fournitures_quantite_check")
	}
	if !arg.PrixTotal.Equal(arg.PrixUnitaire.Mul(decimal.NewFromInt32(arg.Quantite))) {
		return checkViolation("fournitures", "fournitures_prix_total_check")
	}
	now := m.tick()
	m.data.fournitures[arg.ID] = repository.Fourniture{
		ID:           arg.ID,
		ChocID:       arg.ChocID,
		Designation:  arg.Designation,
		Reference:    arg.Reference,
		Quantite:     arg.Quantite,
		PrixUnitaire: arg.PrixUnitaire,
		PrixTotal:    arg.PrixTotal,
		Ordre:        arg.Ordre,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return nil
}

func (m *MemStore) ListFournituresByRapportID(ctx context.Context, rapportID uuid.UUID) ([]repository.Fourniture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "ListFournituresByRapportID"); err != nil {
		return nil, err
	}
	var out []repository.Fourniture
	for _, f := range m.data.fournitures {
		if c, ok := m.data.chocs[f.ChocID]; ok && c.RapportID == rapportID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := m.data.chocs[out[i].ChocID].Ordre, m.data.chocs[out[j].ChocID].Ordre
		if ci != cj {
			return ci < cj
		}
		return out[i].Ordre < out[j].Ordre
	})
	return out, nil
}

func (m *MemStore) DeleteFournituresByChocID(ctx context.Context, chocID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "DeleteFournituresByChocID"); err != nil {
		return 0, err
	}
	var n int64
	for id, f := range m.data.fournitures {
		if f.ChocID == chocID {
			delete(m.data.fournitures, id)
			n++
		}
	}
	return n, nil
}

// =============================================================================
// rapport_exports
// =============================================================================

func (m *MemStore) CreateRapportExport(ctx context.Context, arg repository.CreateRapportExportParams) (repository.RapportExport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "CreateRapportExport"); err != nil {
		return repository.RapportExport{}, err
	}
	if _, ok := m.data.rapports[arg.RapportID]; !ok {
		return repository.RapportExport{}, fkViolation("rapport_exports_rapport_id_fkey",
			"Key (rapport_id) is not present in table \"rapports\".")
	}
	e := repository.RapportExport{
		ID:           arg.ID,
		RapportID:    arg.RapportID,
		UserID:       arg.UserID,
		Format:       arg.Format,
		StorageKey:   arg.StorageKey,
		SizeBytes:    arg.SizeBytes,
		MontantTotal: arg.MontantTotal,
		GeneratedAt:  m.tick(),
	}
	m.data.exports[e.ID] = e
	return e, nil
}

func (m *MemStore) ListRapportExportsByRapportID(ctx context.Context, rapportID uuid.UUID) ([]repository.RapportExport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "ListRapportExportsByRapportID"); err != nil {
		return nil, err
	}
	var out []repository.RapportExport
	for _, e := range m.data.exports {
		if e.RapportID == rapportID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}

func (m *MemStore) DeleteRapportExportsByRapportID(ctx context.Context, rapportID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "DeleteRapportExportsByRapportID"); err != nil {
		return 0, err
	}
	var n int64
	for id, e := range m.data.exports {
		if e.RapportID == rapportID {
			delete(m.data.exports, id)
			n++
		}
	}
	return n, nil
}

// =============================================================================
// jobs
// =============================================================================

func (m *MemStore) EnqueueJob(ctx context.Context, arg repository.EnqueueJobParams) (repository.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "EnqueueJob"); err != nil {
		return repository.Job{}, err
	}
	j := repository.Job{
		ID:          uuid.New(),
		JobType:     arg.JobType,
		Payload:     arg.Payload,
		Status:      "pending",
		Priority:    arg.Priority,
		MaxAttempts: arg.MaxAttempts,
		ScheduledAt: arg.ScheduledAt,
		CreatedAt:   m.tick(),
	}
	m.data.jobs[j.ID] = j
	return j, nil
}

// DequeueJob ignores scheduled_at so tests need not wait for backoff.
func (m *MemStore) DequeueJob(ctx context.Context) (repository.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "DequeueJob"); err != nil {
		return repository.Job{}, err
	}
	var best *repository.Job
	for _, j := range m.data.jobs {
		if j.Status != "pending" {
			continue
		}
		if best == nil || j.Priority > best.Priority ||
			(j.Priority == best.Priority && j.CreatedAt.Before(best.CreatedAt)) {
			jj := j
			best = &jj
		}
	}
	if best == nil {
		return repository.Job{}, sql.ErrNoRows
	}
	return *best, nil
}

func (m *MemStore) UpdateJobStarted(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "UpdateJobStarted"); err != nil {
		return err
	}
	j := m.data.jobs[id]
	j.Status = "running"
	j.Attempts++
	j.StartedAt = sql.NullTime{Time: m.tick(), Valid: true}
	m.data.jobs[id] = j
	return nil
}

func (m *MemStore) UpdateJobCompleted(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "UpdateJobCompleted"); err != nil {
		return err
	}
	j := m.data.jobs[id]
	j.Status = "completed"
	j.ErrorMessage = sql.NullString{}
	j.CompletedAt = sql.NullTime{Time: m.tick(), Valid: true}
	m.data.jobs[id] = j
	return nil
}

func (m *MemStore) UpdateJobFailed(ctx context.Context, arg repository.UpdateJobFailedParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "UpdateJobFailed"); err != nil {
		return err
	}
	j := m.data.jobs[arg.ID]
	j.ErrorMessage = arg.ErrorMessage
	if arg.Permanent || j.Attempts >= j.MaxAttempts {
		j.Status = "failed"
		j.CompletedAt = sql.NullTime{Time: m.tick(), Valid: true}
	} else {
		j.Status = "pending"
	}
	m.data.jobs[arg.ID] = j
	return nil
}

func (m *MemStore) RecoverStaleJobs(ctx context.Context, thresholdSeconds float64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "RecoverStaleJobs"); err != nil {
		return 0, err
	}
	cutoff := m.now.Add(-time.Duration(thresholdSeconds * float64(time.Second)))
	var n int64
	for id, j := range m.data.jobs {
		if j.Status == "running" && j.StartedAt.Valid && j.StartedAt.Time.Before(cutoff) {
			j.Status = "pending"
			j.StartedAt = sql.NullTime{}
			m.data.jobs[id] = j
			n++
		}
	}
	return n, nil
}
