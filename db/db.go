package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"procurement/internal/apperrors"
	"procurement/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/multierr"
)

const uniqueViolation = "23505"

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// Connect открывает пул соединений к Postgres и проверяет его.
func Connect(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxIdle)
	return conn, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withTx выполняет fn в транзакции; при ошибке транзакция откатывается.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return multierr.Append(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	return tx.Commit()
}

// mapError переводит ошибки драйвера в типизированные ошибки приложения.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.Wrap(apperrors.CodeNotFound, err, what+" not found")
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return apperrors.Wrap(apperrors.CodeConflict, err, what+" already exists")
	}
	return err
}

// Employee (Пользователь)

func (s *Storage) CreateEmployee(ctx context.Context, e *models.Employee) error {
	query := `
        INSERT INTO employee (username, first_name, last_name)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query, e.Username, e.FirstName, e.LastName).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return mapError(err, "employee")
}

func (s *Storage) GetEmployeeByUsername(ctx context.Context, username string) (*models.Employee, error) {
	e := &models.Employee{}
	query := `SELECT * FROM employee WHERE username=$1`
	if err := s.db.GetContext(ctx, e, query, username); err != nil {
		return nil, mapError(err, "employee")
	}
	return e, nil
}

// Municipality (Муниципалитет)

func (s *Storage) CreateMunicipality(ctx context.Context, m *models.Municipality) error {
	query := `
        INSERT INTO municipality (name, province)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query, m.Name, m.Province).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return mapError(err, "municipality")
}

func (s *Storage) GetMunicipality(ctx context.Context, id int) (*models.Municipality, error) {
	m := &models.Municipality{}
	query := `SELECT * FROM municipality WHERE id=$1`
	if err := s.db.GetContext(ctx, m, query, id); err != nil {
		return nil, mapError(err, "municipality")
	}
	return m, nil
}

func (s *Storage) AddMunicipalityResponsible(ctx context.Context, userID, municipalityID int) error {
	query := `
        INSERT INTO municipality_responsible (user_id, municipality_id)
        VALUES ($1, $2)
        ON CONFLICT (user_id, municipality_id) DO NOTHING`
	_, err := s.db.ExecContext(ctx, query, userID, municipalityID)
	return err
}

func (s *Storage) IsUserResponsibleForMunicipality(ctx context.Context, userID int, municipalityID int) (bool, error) {
	var count int
	query := `SELECT COUNT(1) FROM municipality_responsible WHERE user_id=$1 AND municipality_id=$2`
	err := s.db.GetContext(ctx, &count, query, userID, municipalityID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Storage) GetResponsibleCount(ctx context.Context, municipalityID int) (int, error) {
	var count int
	query := `SELECT COUNT(1) FROM municipality_responsible WHERE municipality_id = $1`
	err := s.db.GetContext(ctx, &count, query, municipalityID)
	return count, err
}

// requireTransition: UPDATE с условием на текущий статус не затронул строк,
// значит запись уже перешла в другое состояние.
func requireTransition(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.New(apperrors.CodeConflict, what+" changed state concurrently")
	}
	return nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.New(apperrors.CodeNotFound, what+" not found")
	}
	return nil
}
