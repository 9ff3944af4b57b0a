package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/observer"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

// --- Retry Logic Configuration ---
const (
	defaultRetryInitialInterval = 50 * time.Millisecond
	defaultRetryMaxInterval     = 2 * time.Second
	readRetryMaxElapsedTime     = 5 * time.Second
	commitRetryMaxElapsedTime   = 15 * time.Second

	connectInitialInterval = 1 * time.Second
	connectMaxInterval     = 15 * time.Second
	connectMaxElapsedTime  = 1 * time.Minute
)

// newRetryPolicy creates a new exponential backoff policy with context awareness.
func newRetryPolicy(ctx context.Context, maxElapsedTime time.Duration) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultRetryInitialInterval
	b.MaxInterval = defaultRetryMaxInterval
	b.MaxElapsedTime = maxElapsedTime
	b.Reset()
	return backoff.WithContext(b, ctx)
}

// retryableOperation wraps a database operation with retry logic.
func retryableOperation(ctx context.Context, policy backoff.BackOffContext, opName string, operation func() error) error {
	notify := func(err error, d time.Duration) {
		logger.FromContext(ctx).Warn("Retrying DB operation",
			zap.String("operation", opName),
			zap.Error(err),
			zap.Duration("after", d),
		)
	}

	return backoff.RetryNotify(func() error {
		err := operation()
		if err == nil {
			return nil
		}
		if apperrors.IsRetryable(err) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) ||
			errors.Is(err, gorm.ErrInvalidTransaction) ||
			errors.Is(err, gorm.ErrDuplicatedKey) ||
			errors.Is(err, gorm.ErrForeignKeyViolated) ||
			isAppError(err) {
			return backoff.Permanent(err)
		}
		if isTransientError(err) {
			return err
		}
		return backoff.Permanent(err)
	}, policy, notify)
}

// isTransientError checks if the error suggests a temporary issue like a network problem.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Class 08 connection exception, class 53 insufficient resources,
	// deadlock and serialization failure.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") ||
			strings.HasPrefix(pgErr.Code, "53") ||
			pgErr.Code == "40P01" ||
			pgErr.Code == "40001" {
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	transientIndicators := []string{
		"connection refused",
		"network is unreachable",
		"i/o timeout",
		"broken pipe",
		"connection reset by peer",
		"could not translate host name",
		"no route to host",
		"database system is starting up",
		"connection timed out",
		"connection reset",
	}
	for _, indicator := range transientIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// isAppError reports whether err already carries a domain sentinel, in which
// case it is passed through untouched.
func isAppError(err error) bool {
	for _, target := range []error{
		apperrors.ErrNotFound,
		apperrors.ErrValidation,
		apperrors.ErrDuplicate,
		apperrors.ErrConflict,
		apperrors.ErrBadRequest,
		apperrors.ErrForbidden,
		apperrors.ErrUnauthorized,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// PostgresRepo implements every repository interface on one gorm handle.
type PostgresRepo struct {
	db *gorm.DB
}

// NewPostgresRepoFromDB wraps an already opened gorm handle.
func NewPostgresRepoFromDB(db *gorm.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// NewPostgresRepo connects with exponential backoff and, when autoMigrate is
// set, brings the schema up to date.
func NewPostgresRepo(dsn string, autoMigrate bool) (*PostgresRepo, error) {
	operationConnect := func() (*gorm.DB, error) {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
			NowFunc: func() time.Time {
				return utils.Now()
			},
		})
		if err != nil {
			if isTransientError(err) {
				logger.Log.Warn("Failed to connect to postgres (transient), retrying...", zap.Error(err))
				return nil, err
			}
			return nil, backoff.Permanent(fmt.Errorf("failed to connect to postgres: %w", err))
		}
		return db, nil
	}

	notify := func(err error, d time.Duration) {
		logger.Log.Warn("Retrying DB connection", zap.Error(err), zap.Duration("after", d))
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = connectInitialInterval
	b.MaxInterval = connectMaxInterval
	b.MaxElapsedTime = connectMaxElapsedTime

	db, err := backoff.RetryNotifyWithData(operationConnect, b, notify)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres after retries: %w", err)
	}

	repo := &PostgresRepo{db: db}
	if autoMigrate {
		if err := repo.Migrate(context.Background()); err != nil {
			_ = repo.Close(context.Background())
			return nil, err
		}
	} else {
		logger.Log.Info("Auto-migration disabled")
	}
	return repo, nil
}

// Migrate runs AutoMigrate for every model and then creates the indexes gorm
// tags cannot express.
func (r *PostgresRepo) Migrate(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Running auto-migration")

	err := r.db.WithContext(ctx).AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Franchise{},
		&model.QRCode{},
		&model.Patient{},
		&model.MedicalHistory{},
		&model.Doctor{},
		&model.Case{},
		&model.TreatmentPlan{},
		&model.Payment{},
		&model.Media{},
		&model.Message{},
	)
	if err != nil {
		return fmt.Errorf("%w: auto-migration failed: %w", apperrors.ErrDatabase, err)
	}

	indexes := map[string]string{
		"idx_users_email_lower":       `CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users USING btree (lower(email));`,
		"idx_franchises_name_lower":   `CREATE INDEX IF NOT EXISTS idx_franchises_name_lower ON franchises USING btree (lower(name));`,
		"idx_cases_pending":           `CREATE INDEX IF NOT EXISTS idx_cases_pending ON cases USING btree (created_at) WHERE status IN ('NEW','IN_REVIEW','DOCTOR_ASSIGNED','TREATMENT_PLANNED');`,
		"idx_cases_patient_franchise": `CREATE INDEX IF NOT EXISTS idx_cases_patient_franchise ON cases USING btree (patient_id, franchise_id, created_at);`,
		"idx_treatment_plans_case":    `CREATE INDEX IF NOT EXISTS idx_treatment_plans_case_created ON treatment_plans USING btree (case_id, created_at);`,
	}
	for indexName, indexSQL := range indexes {
		if err := r.db.WithContext(ctx).Exec(indexSQL).Error; err != nil {
			log.Warn("Failed to create index", zap.String("indexName", indexName), zap.Error(err))
		}
	}

	log.Info("Auto-migration finished")
	return nil
}

// Ping checks that the database answers.
func (r *PostgresRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping failed: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

// Close closes the database connection
func (r *PostgresRepo) Close(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to get underlying SQL DB for closing", zap.Error(err))
		return nil
	}

	if closeErr := sqlDB.Close(); closeErr != nil {
		logger.FromContext(ctx).Error("Failed to close database connection", zap.Error(closeErr))
		return fmt.Errorf("failed to close SQL DB: %w", closeErr)
	}

	logger.FromContext(ctx).Info("Database connection closed successfully")
	return nil
}

// read runs a query under the read retry policy and records its duration.
func (r *PostgresRepo) read(ctx context.Context, op, entity string, fn func(db *gorm.DB) error) error {
	start := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, readRetryMaxElapsedTime), op, func() error {
		return fn(r.db.WithContext(ctx))
	})
	observer.ObserveDbOperationDuration(op, entity, time.Since(start), err)
	return checkConstraintViolation(err)
}

// write runs a single statement under the commit retry policy.
func (r *PostgresRepo) write(ctx context.Context, op, entity string, fn func(db *gorm.DB) error) error {
	start := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), op, func() error {
		return fn(r.db.WithContext(ctx))
	})
	observer.ObserveDbOperationDuration(op, entity, time.Since(start), err)
	if err != nil {
		logger.FromContext(ctx).Error("DB write failed", zap.String("operation", op), zap.Error(err))
	}
	return checkConstraintViolation(err)
}

// transaction runs fn in a transaction under the commit retry policy. The
// transaction is rolled back when fn fails or panics.
func (r *PostgresRepo) transaction(ctx context.Context, op, entity string, fn func(tx *gorm.DB) error) error {
	operation := func() error {
		tx := r.db.WithContext(ctx).Begin()
		if tx.Error != nil {
			return fmt.Errorf("failed to begin transaction: %w", tx.Error)
		}
		var txErr error
		defer func() {
			if p := recover(); p != nil {
				tx.Rollback()
				panic(p)
			} else if txErr != nil {
				if rbErr := tx.Rollback().Error; rbErr != nil && !errors.Is(rbErr, gorm.ErrInvalidTransaction) {
					logger.FromContext(ctx).Error("Failed to rollback transaction after error", zap.Error(rbErr), zap.NamedError("originalTxError", txErr))
				}
			}
		}()

		if txErr = fn(tx); txErr != nil {
			return txErr
		}
		if commitErr := tx.Commit().Error; commitErr != nil {
			txErr = fmt.Errorf("failed to commit %s: %w", op, commitErr)
			return txErr
		}
		return nil
	}

	start := utils.Now()
	err := retryableOperation(ctx, newRetryPolicy(ctx, commitRetryMaxElapsedTime), op, operation)
	observer.ObserveDbOperationDuration(op, entity, time.Since(start), err)
	if err != nil {
		logger.FromContext(ctx).Error("DB transaction failed", zap.String("operation", op), zap.Error(err))
	}
	return checkConstraintViolation(err)
}

// checkConstraintViolation inspects database errors and maps them to standard apperrors.
func checkConstraintViolation(err error) error {
	if err == nil {
		return nil
	}
	if isAppError(err) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", apperrors.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		// Class 23 integrity constraint violation
		case "23505":
			return fmt.Errorf("%w: constraint %s: %w", apperrors.ErrDuplicate, pgErr.ConstraintName, err)
		case "23503":
			return fmt.Errorf("%w: constraint %s: %w", apperrors.ErrBadRequest, pgErr.ConstraintName, err)
		case "23502":
			return fmt.Errorf("%w: null value in column %s: %w", apperrors.ErrBadRequest, pgErr.ColumnName, err)
		case "23514":
			return fmt.Errorf("%w: constraint %s: %w", apperrors.ErrBadRequest, pgErr.ConstraintName, err)

		// Class 22 data exception
		case "22001":
			return fmt.Errorf("%w: value too long for column %s: %w", apperrors.ErrBadRequest, pgErr.ColumnName, err)
		case "22P02":
			return fmt.Errorf("%w: invalid input syntax for type %s: %w", apperrors.ErrBadRequest, pgErr.DataTypeName, err)

		case "40001", "40P01":
			return apperrors.NewRetryable(fmt.Errorf("%w: %w", apperrors.ErrDatabase, err), "transaction rollback (%s)", pgErr.Code)

		default:
			if strings.HasPrefix(pgErr.Code, "53") {
				return fmt.Errorf("%w: insufficient resources (%s): %w", apperrors.ErrDatabase, pgErr.Code, err)
			}
			if strings.HasPrefix(pgErr.Code, "08") {
				return apperrors.NewRetryable(fmt.Errorf("%w: %w", apperrors.ErrDatabase, err), "connection error (%s)", pgErr.Code)
			}
			return fmt.Errorf("%w: unhandled pgcode %s: %w", apperrors.ErrDatabase, pgErr.Code, err)
		}
	}

	return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
}
