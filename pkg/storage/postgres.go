package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/opscart/tariff-optimizer/pkg/converter"
	"github.com/opscart/tariff-optimizer/pkg/models"
)

//go:embed migrations/*.sql
var postgresFS embed.FS

// PostgresStore implements Store interface using PostgreSQL
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore opens the database, checks connectivity and applies the
// schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := newPostgresStore(db)
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func newPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) migrate() error {
	schema, err := postgresFS.ReadFile("migrations/001_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// SaveSimulation assigns an id and creation time when missing.
func (s *PostgresStore) SaveSimulation(ctx context.Context, rec *models.SimulationRecord) error {
	if rec.Result == nil {
		return fmt.Errorf("simulation record has no result")
	}
	payload, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	query := `
		INSERT INTO simulations (
			id, supply_id, access_tariff, current_annual_cost,
			best_offer_id, best_savings, offer_count, result,
			created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.SupplyID, rec.AccessTariff, rec.CurrentAnnualCost,
		rec.BestOfferID, rec.BestSavings, rec.OfferCount, payload,
		rec.CreatedBy, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save simulation: %w", err)
	}
	return nil
}

const simulationColumns = `
	id, supply_id, access_tariff, current_annual_cost,
	best_offer_id, best_savings, offer_count, result,
	created_by, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSimulation(row rowScanner) (*models.SimulationRecord, error) {
	var rec models.SimulationRecord
	var bestOffer, createdBy sql.NullString
	var bestSavings sql.NullFloat64
	var payload []byte

	err := row.Scan(
		&rec.ID, &rec.SupplyID, &rec.AccessTariff, &rec.CurrentAnnualCost,
		&bestOffer, &bestSavings, &rec.OfferCount, &payload,
		&createdBy, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.BestOfferID = bestOffer.String
	rec.BestSavings = bestSavings.Float64
	rec.CreatedBy = createdBy.String

	var result models.EngineResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode result of %s: %w", rec.ID, err)
	}
	rec.Result = &result
	return &rec, nil
}

// GetSimulation retrieves a simulation by ID
func (s *PostgresStore) GetSimulation(ctx context.Context, id string) (*models.SimulationRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("simulation %s: %w", id, ErrNotFound)
	}

	query := `SELECT ` + simulationColumns + ` FROM simulations WHERE id = $1`

	rec, err := scanSimulation(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("simulation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListSimulations returns the newest simulations of a supply point first.
func (s *PostgresStore) ListSimulations(ctx context.Context, supplyID string, limit int) ([]*models.SimulationRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + simulationColumns + `
		FROM simulations
		WHERE supply_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, supplyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list simulations: %w", err)
	}
	defer rows.Close()

	var records []*models.SimulationRecord
	for rows.Next() {
		rec, err := scanSimulation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetSavingsSummary aggregates the stored simulations of a supply point.
func (s *PostgresStore) GetSavingsSummary(ctx context.Context, supplyID string) (*models.SavingsSummary, error) {
	query := `
		SELECT COUNT(*), COALESCE(MAX(best_savings), 0), COALESCE(AVG(best_savings), 0), MAX(created_at)
		FROM simulations
		WHERE supply_id = $1
	`

	summary := &models.SavingsSummary{SupplyID: supplyID}
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx, query, supplyID).Scan(
		&summary.Simulations, &summary.MaxSavings, &summary.AvgSavings, &last,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize simulations: %w", err)
	}
	if last.Valid {
		summary.LastSimulationAt = last.Time
	}
	return summary, nil
}

// ListActiveTariffs keeps a stable supplier/id order so rankings with tied
// savings do not depend on table layout.
func (s *PostgresStore) ListActiveTariffs(ctx context.Context, accessTariff string) ([]models.TariffCandidate, error) {
	query := `
		SELECT id, supplier, name, kind, access_tariff,
			power_p1, power_p2, power_p3, power_p4, power_p5, power_p6,
			energy_p1, energy_p2, energy_p3, energy_p4, energy_p5, energy_p6,
			monthly_fee, duration_months, permanence_months
		FROM tariffs
		WHERE active
			AND ($1::text = '' OR access_tariff IS NULL OR access_tariff = '' OR access_tariff = $1)
		ORDER BY supplier, id
	`

	rows, err := s.db.QueryContext(ctx, query, accessTariff)
	if err != nil {
		return nil, fmt.Errorf("failed to list tariffs: %w", err)
	}
	defer rows.Close()

	var tariffRows []converter.TariffRow
	for rows.Next() {
		var r converter.TariffRow
		err := rows.Scan(
			&r.ID, &r.Supplier, &r.Name, &r.Kind, &r.AccessTariff,
			&r.PowerPrice[0], &r.PowerPrice[1], &r.PowerPrice[2],
			&r.PowerPrice[3], &r.PowerPrice[4], &r.PowerPrice[5],
			&r.EnergyPrice[0], &r.EnergyPrice[1], &r.EnergyPrice[2],
			&r.EnergyPrice[3], &r.EnergyPrice[4], &r.EnergyPrice[5],
			&r.MonthlyFee, &r.DurationMonths, &r.PermanenceMonths,
		)
		if err != nil {
			return nil, err
		}
		tariffRows = append(tariffRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return converter.RowsToCandidates(tariffRows), nil
}

// UpsertTariff inserts or replaces a catalogue entry and marks it active.
func (s *PostgresStore) UpsertTariff(ctx context.Context, c *models.TariffCandidate) error {
	if err := c.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO tariffs (
			id, supplier, name, kind, access_tariff,
			power_p1, power_p2, power_p3, power_p4, power_p5, power_p6,
			energy_p1, energy_p2, energy_p3, energy_p4, energy_p5, energy_p6,
			monthly_fee, duration_months, permanence_months, active, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, TRUE, $21)
		ON CONFLICT (id) DO UPDATE SET
			supplier = EXCLUDED.supplier,
			name = EXCLUDED.name,
			kind = EXCLUDED.kind,
			access_tariff = EXCLUDED.access_tariff,
			power_p1 = EXCLUDED.power_p1, power_p2 = EXCLUDED.power_p2, power_p3 = EXCLUDED.power_p3,
			power_p4 = EXCLUDED.power_p4, power_p5 = EXCLUDED.power_p5, power_p6 = EXCLUDED.power_p6,
			energy_p1 = EXCLUDED.energy_p1, energy_p2 = EXCLUDED.energy_p2, energy_p3 = EXCLUDED.energy_p3,
			energy_p4 = EXCLUDED.energy_p4, energy_p5 = EXCLUDED.energy_p5, energy_p6 = EXCLUDED.energy_p6,
			monthly_fee = EXCLUDED.monthly_fee,
			duration_months = EXCLUDED.duration_months,
			permanence_months = EXCLUDED.permanence_months,
			active = TRUE,
			updated_at = EXCLUDED.updated_at
	`

	kind := c.Kind
	if kind == "" {
		kind = models.PricingFixed
	}
	pp, ep := c.PowerPrice, c.EnergyPrice
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.Supplier, c.Name, string(kind), c.AccessTariff,
		pp[0], pp[1], pp[2], pp[3], pp[4], pp[5],
		ep[0], ep[1], ep[2], ep[3], ep[4], ep[5],
		c.MonthlyFee, c.DurationMonths, c.PermanenceMonths, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert tariff %s: %w", c.ID, err)
	}
	return nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
