package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/xy-planning-network/retention"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

const violatesFK = "violates foreign key constraint"

var (
	errNilArg       = errors.New("nil arg")
	safeGORMSession = &gorm.Session{}
)

type DB struct {
	// *gorm.DB's methods are generally unsafe to use.
	// Specifically, some *gorm.DB methods are not thread-safe
	// and mutate the state of the *gorm.DB backing DB.
	//
	// If a *gorm.DB method calls *gorm.DB.getInstance,
	// this appears to render a method "safe" since it creates a new pointer.
	//
	// If a *gorm.DB method does not, be aware.
	// One solution is to use *gorm.DB.Session to force a clean pointer.
	db *gorm.DB
}

// NewDB constructs a *DB from a *gorm.DB.
func NewDB(db *gorm.DB) *DB { return &DB{db: db} }

// DB exposes the underlying *gorm.DB backing DB.
//
// NB: use in exceptional circumstances only.
func (db *DB) DB() *gorm.DB { return db.db }

// WithContext scopes the current query to ctx.
func (db *DB) WithContext(ctx context.Context) *DB { return &DB{db: db.db.WithContext(ctx)} }

// txKey carries the transaction opened by AccountStore.Lock.
type txKey struct{}

// conn scopes the current query to ctx,
// joining the transaction ctx carries, if any.
func (db *DB) conn(ctx context.Context) *DB {
	if tx, ok := ctx.Value(txKey{}).(*DB); ok {
		return tx.WithContext(ctx)
	}

	return db.WithContext(ctx)
}

// **************************************************************************
// FINISHER METHODS
//
// These methods close out a current query, executing it.
// All finisher methods are terminal and cannot be chained.
// They return any errors occuring within the query chain
// or when executing the query.
//
// **************************************************************************

// Create inserts value into the database, updating value with new data yielding from that insertion.
//
// If value violates a foreign key constraint defined by the database, ErrNotValid returns.
// If value violates a unique constraint defined by the database, ErrExists returns.
func (db *DB) Create(value any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	if v, ok := value.(Updates); ok {
		if err := v.valid(); err != nil {
			return err
		}

		value = map[string]any(v)
	}

	err := db.db.Session(&gorm.Session{FullSaveAssociations: false}).Create(value).Error
	switch {
	case err == nil:
		return nil

	case errors.Is(err, schema.ErrUnsupportedDataType), errors.Is(err, gorm.ErrInvalidData):
		return fmt.Errorf("%w: %T is not a database table", retention.ErrMissingData, value)

	case strings.Contains(err.Error(), violatesFK), errConstraintViolation.MatchString(err.Error()):
		return fmt.Errorf("%w: %s", retention.ErrNotValid, err)

	case errUniqViolation.MatchString(err.Error()):
		return fmt.Errorf("%w: %s", retention.ErrExists, err)

	default:
		return fmt.Errorf("%w: failed creating %T: %s", retention.ErrUnexpected, value, err)
	}
}

// Exec executes SQL query sql, passing values to it.
//
// If the query executed does not affect any records, Exec return ErrNotFound.
// There are many use cases where the caller ought to specifically ignore this error,
// since the execution may not change existing records.
func (db *DB) Exec(sql string, values ...any) error {
	_, err := db.ExecAffected(sql, values...)
	return err
}

// ExecAffected behaves like Exec, returning the number of affected records as well.
func (db *DB) ExecAffected(sql string, values ...any) (int64, error) {
	if db.db.Error != nil {
		return 0, db.db.Error
	}

	res := db.db.Exec(sql, values...)
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %s", retention.ErrUnexpected, res.Error)
	}

	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("%w: exec failed to affect any rows", retention.ErrNotFound)
	}

	return res.RowsAffected, nil
}

// Find retrieves all records matching the current query
// and stores them in dest.
//
// Unlike First, Find does not return ErrNotFound when no records match;
// dest is left empty.
func (db *DB) Find(dest any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	err := db.db.Find(dest).Error
	if err != nil && errSQLScan.MatchString(err.Error()) {
		return fmt.Errorf("%w: %T cannot be scanned into", retention.ErrNotValid, dest)
	}

	if err != nil && errSQLSyntax.MatchString(err.Error()) {
		return fmt.Errorf("%w: %s", retention.ErrNotValid, err)
	}

	if err != nil {
		return fmt.Errorf("%w: %s", retention.ErrUnexpected, err)
	}

	return nil
}

// First retrieves a single record from the database matching the query
// and stores it in dest.
//
// If no matches are found, First returns ErrNotFound.
func (db *DB) First(dest any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	err := db.db.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %T", retention.ErrNotFound, dest)
	}

	if err != nil && errSQLSyntax.MatchString(err.Error()) {
		return fmt.Errorf("%w: %s", retention.ErrNotValid, err)
	}

	if err != nil {
		return fmt.Errorf("%w: %s", retention.ErrUnexpected, err)
	}

	return nil
}

// Update replaces existing data on all records matching the query with values.
//
// If no records are updated, ErrNotFound returns.
// The caller ought to specifically handle this error
// when its expected a query may not mutate records.
func (db *DB) Update(values Updates) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	if err := values.valid(); err != nil {
		return err
	}

	res := db.db.Updates(map[string]any(values))
	switch {
	case res.RowsAffected == 0 && res.Error == nil:
		return fmt.Errorf("%w", retention.ErrNotFound)

	case res.Error == nil:
		return nil

	case errUniqViolation.MatchString(res.Error.Error()):
		return fmt.Errorf("%w: %s", retention.ErrExists, res.Error)

	case errCheckViolation.MatchString(res.Error.Error()):
		return fmt.Errorf("%w: %s", retention.ErrNotValid, res.Error)

	default:
		return fmt.Errorf("%w: %s", retention.ErrUnexpected, res.Error)
	}
}

// **************************************************************************
// QUERY BUILDING METHODS
//
// Query building methods initiate a query and then add clauses to it
// until a finisher method is called.
//
// **************************************************************************

// Locking applies SELECT ... FOR UPDATE to the current query.
// Use inside a transaction.
func (db *DB) Locking() *DB {
	return &DB{db: db.db.Clauses(clause.Locking{Strength: "UPDATE"})}
}

// Model declares the table used for the query.
//
// Model computes the name for the database table from the type of model,
// taking the plural of the table, for example:
// - Account -> accounts
// - LegalHold -> legal_holds
//
// Unless, model implements: func TableName() string
// The value returned from that function is used instead.
func (db *DB) Model(model any) *DB { return &DB{db: db.db.Model(model)} }

// Order applies an ORDER BY clause to the current query.
func (db *DB) Order(order string) *DB { return &DB{db: db.db.Order(order)} }

// Table defines which database table to query for the current query.
func (db *DB) Table(name string) *DB { return &DB{db: db.db.Table(name)} }

// Where applies the query fragment to the current query
// as a WHERE or AND clause.
//
// Where supports one or none args.
// If more than one arg is passed, finisher methods will return ErrNotValid.
func (db *DB) Where(query string, args ...any) *DB {
	if len(args) > 1 {
		gdb := db.DB().Session(safeGORMSession)
		_ = gdb.AddError(fmt.Errorf("%w: Where supports one or none args", retention.ErrNotValid))
		return &DB{db: gdb}
	}

	for _, arg := range args {
		if arg == nil {
			gdb := db.DB().Session(safeGORMSession)
			_ = gdb.AddError(fmt.Errorf("%w: %s", retention.ErrNotValid, errNilArg))
			return &DB{db: gdb}
		}
	}

	return &DB{db.db.Where(query, args...)}
}

// **************************************************************************
// TRANSACTION METHODS
//
// These methods control database transactions.
// **************************************************************************

// Begin initializes a database transaction.
func (db *DB) Begin(opts ...*sql.TxOptions) *DB {
	return &DB{db: db.db.Begin(opts...)}
}

// Commit completes the current transaction,
// applying any state changes and making them visible to other database connections.
func (db *DB) Commit() error {
	if db.db.Error != nil {
		return db.db.Error
	}

	if err := db.db.Commit().Error; err != nil {
		return fmt.Errorf("%w: failed committing tx: %s", retention.ErrUnexpected, err)
	}

	return nil
}

// Rollback reverts the current transaction.
// If no transaction is open, Rollback returns an error.
func (db *DB) Rollback() error {
	err := db.db.Rollback().Error
	if err != nil {
		return fmt.Errorf("%w: failed rolling back tx: %s", retention.ErrUnexpected, err)
	}

	return nil
}

// Transaction runs fn inside a database transaction,
// committing when fn returns nil and rolling back otherwise.
func (db *DB) Transaction(fn func(tx *DB) error) error {
	tx := db.Begin()
	if tx.db.Error != nil {
		return fmt.Errorf("%w: failed beginning tx: %s", retention.ErrUnexpected, tx.db.Error)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
