package department

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/klokku/timesheet/internal/database"
	log "github.com/sirupsen/logrus"
)

var ErrDepartmentNotFound = errors.New("department not found")
var ErrDepartmentInUse = errors.New("department is still referenced")
var ErrDuplicateName = errors.New("department name already exists")

type Repository interface {
	Create(ctx context.Context, d Department) (Department, error)
	Get(ctx context.Context, id int) (Department, error)
	List(ctx context.Context) ([]Department, error)
	Update(ctx context.Context, d Department) (Department, error)
	Delete(ctx context.Context, id int) error
}

type RepositoryImpl struct {
	db database.Pool
}

func NewRepository(db database.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Create(ctx context.Context, d Department) (Department, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO department (name) VALUES ($1) RETURNING id`, d.Name).Scan(&d.Id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Department{}, ErrDuplicateName
		}
		log.Errorf("could not create department: %v", err)
		return Department{}, err
	}
	return d, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (Department, error) {
	var d Department
	err := r.db.QueryRow(ctx, `SELECT id, name FROM department WHERE id = $1`, id).Scan(&d.Id, &d.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Department{}, ErrDepartmentNotFound
	}
	return d, err
}

func (r *RepositoryImpl) List(ctx context.Context) ([]Department, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM department ORDER BY name`)
	if err != nil {
		log.Errorf("could not query departments: %v", err)
		return nil, err
	}
	defer rows.Close()
	var departments []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.Id, &d.Name); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (r *RepositoryImpl) Update(ctx context.Context, d Department) (Department, error) {
	result, err := r.db.Exec(ctx, `UPDATE department SET name = $1 WHERE id = $2`, d.Name, d.Id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Department{}, ErrDuplicateName
		}
		return Department{}, err
	}
	if result.RowsAffected() == 0 {
		return Department{}, ErrDepartmentNotFound
	}
	return d, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, `DELETE FROM department WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrDepartmentInUse
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrDepartmentNotFound
	}
	return nil
}
