package sql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/dklimov/circles/internal/domain"
	"github.com/dklimov/circles/internal/filter"
	"github.com/dklimov/circles/internal/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// isUniqueViolation checks if an error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	// PostgreSQL
	if strings.Contains(errStr, "duplicate key value violates unique constraint") {
		return true
	}
	return false
}

// wrapUniqueError converts UNIQUE violations to domain.ErrAlreadyExists.
func wrapUniqueError(err error) error {
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Store implements the storage.Storage interface using SQL.
type Store struct {
	db *sqlx.DB
}

// New creates a new SQL store.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Run migrations
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction.
func (s *Store) BeginTx(ctx context.Context) (storage.Transaction, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps a database transaction.
type Tx struct {
	tx *sqlx.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// Close is a no-op for transactions (they should be committed or rolled back).
func (t *Tx) Close() error {
	return nil
}

// BeginTx is not supported within a transaction.
func (t *Tx) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

// helper to get the correct database interface
type dbInterface interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// filterable columns per table; filter fields map 1:1 to column names.
var (
	groupColumns = map[string]string{
		"id":         "id",
		"name":       "name",
		"is_private": "is_private",
	}
	memberColumns = map[string]string{
		"id":       "id",
		"user_id":  "user_id",
		"group_id": "group_id",
		"is_admin": "is_admin",
		"is_owner": "is_owner",
	}
	requestColumns = map[string]string{
		"id":       "id",
		"user_id":  "user_id",
		"group_id": "group_id",
		"status":   "status",
	}
)

// whereClause renders a filter set as a SQL WHERE clause over the
// allowed columns. The filter-set semantics match the in-memory
// evaluation: active filters are ANDed in declaration order.
func whereClause(fs *filter.FilterSet, columns map[string]string) (string, []any, error) {
	filters := fs.Filters()
	if len(filters) == 0 {
		return "", nil, nil
	}

	var (
		predicates []string
		args       []any
	)
	for _, f := range filters {
		column, ok := columns[f.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: cannot filter on %q", domain.ErrInvalidInput, f.Field)
		}
		predicate, arg := f.Predicate(column, len(args)+1)
		predicates = append(predicates, predicate)
		args = append(args, arg)
	}
	return " WHERE " + strings.Join(predicates, " AND "), args, nil
}

// setClause renders a partial-update SET clause. With no field list all
// columns except id and created_at are written. updated_at is always
// written from the entity.
func setClause(fields []string, columns map[string]string, values map[string]any) (string, []any, error) {
	if len(fields) == 0 {
		for field := range columns {
			if field != "id" {
				fields = append(fields, field)
			}
		}
	}

	var (
		assignments []string
		args        []any
	)
	for _, field := range fields {
		column, ok := columns[field]
		if !ok || field == "id" {
			return "", nil, fmt.Errorf("%w: cannot update %q", domain.ErrInvalidInput, field)
		}
		value, ok := values[field]
		if !ok {
			return "", nil, fmt.Errorf("%w: cannot update %q", domain.ErrInvalidInput, field)
		}
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}
	assignments = append(assignments, fmt.Sprintf("updated_at = $%d", len(args)+1))
	return strings.Join(assignments, ", "), args, nil
}

// ============================================
// Groups
// ============================================

const groupSelect = `SELECT id, name, description, is_private, created_at, updated_at FROM groups`

func getGroup(ctx context.Context, db dbInterface, id string) (*domain.Group, error) {
	var group domain.Group
	err := db.GetContext(ctx, &group, groupSelect+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func listGroups(ctx context.Context, db dbInterface, fs *filter.FilterSet) ([]*domain.Group, error) {
	where, args, err := whereClause(fs, groupColumns)
	if err != nil {
		return nil, err
	}
	var groups []*domain.Group
	if err := db.SelectContext(ctx, &groups, groupSelect+where+` ORDER BY created_at, id`, args...); err != nil {
		return nil, err
	}
	return groups, nil
}

func listGroupsForUser(ctx context.Context, db dbInterface, userID string) ([]*domain.Group, error) {
	var groups []*domain.Group
	err := db.SelectContext(ctx, &groups,
		`SELECT g.id, g.name, g.description, g.is_private, g.created_at, g.updated_at
		 FROM groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.user_id = $1
		 ORDER BY g.created_at, g.id`, userID)
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func createGroup(ctx context.Context, db dbInterface, group *domain.Group) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO groups (id, name, description, is_private, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		group.ID, group.Name, group.Description, group.IsPrivate, group.CreatedAt, group.UpdatedAt)
	return wrapUniqueError(err)
}

func createGroups(ctx context.Context, db dbInterface, groups []*domain.Group) error {
	for _, group := range groups {
		if err := createGroup(ctx, db, group); err != nil {
			return err
		}
	}
	return nil
}

func updateGroup(ctx context.Context, db dbInterface, group *domain.Group, fields ...string) error {
	columns := map[string]string{
		"name":        "name",
		"description": "description",
		"is_private":  "is_private",
	}
	values := map[string]any{
		"name":        group.Name,
		"description": group.Description,
		"is_private":  group.IsPrivate,
	}
	set, args, err := setClause(fields, columns, values)
	if err != nil {
		return err
	}
	args = append(args, group.UpdatedAt, group.ID)
	_, err = db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE groups SET %s WHERE id = $%d`, set, len(args)),
		args...)
	return err
}

func deleteGroup(ctx context.Context, db dbInterface, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, id string) (*domain.Group, error) {
	return getGroup(ctx, s.db, id)
}

func (t *Tx) GetGroup(ctx context.Context, id string) (*domain.Group, error) {
	return getGroup(ctx, t.tx, id)
}

func (s *Store) ListGroups(ctx context.Context, fs *filter.FilterSet) ([]*domain.Group, error) {
	return listGroups(ctx, s.db, fs)
}

func (t *Tx) ListGroups(ctx context.Context, fs *filter.FilterSet) ([]*domain.Group, error) {
	return listGroups(ctx, t.tx, fs)
}

func (s *Store) ListGroupsForUser(ctx context.Context, userID string) ([]*domain.Group, error) {
	return listGroupsForUser(ctx, s.db, userID)
}

func (t *Tx) ListGroupsForUser(ctx context.Context, userID string) ([]*domain.Group, error) {
	return listGroupsForUser(ctx, t.tx, userID)
}

func (s *Store) CreateGroup(ctx context.Context, group *domain.Group) error {
	return createGroup(ctx, s.db, group)
}

func (t *Tx) CreateGroup(ctx context.Context, group *domain.Group) error {
	return createGroup(ctx, t.tx, group)
}

func (s *Store) CreateGroups(ctx context.Context, groups []*domain.Group) error {
	return createGroups(ctx, s.db, groups)
}

func (t *Tx) CreateGroups(ctx context.Context, groups []*domain.Group) error {
	return createGroups(ctx, t.tx, groups)
}

func (s *Store) UpdateGroup(ctx context.Context, group *domain.Group, fields ...string) error {
	return updateGroup(ctx, s.db, group, fields...)
}

func (t *Tx) UpdateGroup(ctx context.Context, group *domain.Group, fields ...string) error {
	return updateGroup(ctx, t.tx, group, fields...)
}

func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	return deleteGroup(ctx, s.db, id)
}

func (t *Tx) DeleteGroup(ctx context.Context, id string) error {
	return deleteGroup(ctx, t.tx, id)
}

// ============================================
// Group members
// ============================================

const memberSelect = `SELECT id, user_id, group_id, is_admin, is_owner, created_at, updated_at FROM group_members`

func getMember(ctx context.Context, db dbInterface, id string) (*domain.GroupMember, error) {
	var member domain.GroupMember
	err := db.GetContext(ctx, &member, memberSelect+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func listMembers(ctx context.Context, db dbInterface, fs *filter.FilterSet) ([]*domain.GroupMember, error) {
	where, args, err := whereClause(fs, memberColumns)
	if err != nil {
		return nil, err
	}
	var members []*domain.GroupMember
	if err := db.SelectContext(ctx, &members, memberSelect+where+` ORDER BY created_at, id`, args...); err != nil {
		return nil, err
	}
	return members, nil
}

func createMember(ctx context.Context, db dbInterface, member *domain.GroupMember) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO group_members (id, user_id, group_id, is_admin, is_owner, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		member.ID, member.UserID, member.GroupID, member.IsAdmin, member.IsOwner,
		member.CreatedAt, member.UpdatedAt)
	return wrapUniqueError(err)
}

func createMembers(ctx context.Context, db dbInterface, members []*domain.GroupMember) error {
	for _, member := range members {
		if err := createMember(ctx, db, member); err != nil {
			return err
		}
	}
	return nil
}

func updateMember(ctx context.Context, db dbInterface, member *domain.GroupMember, fields ...string) error {
	columns := map[string]string{
		"is_admin": "is_admin",
		"is_owner": "is_owner",
	}
	values := map[string]any{
		"is_admin": member.IsAdmin,
		"is_owner": member.IsOwner,
	}
	set, args, err := setClause(fields, columns, values)
	if err != nil {
		return err
	}
	args = append(args, member.UpdatedAt, member.ID)
	_, err = db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE group_members SET %s WHERE id = $%d`, set, len(args)),
		args...)
	return err
}

func deleteMember(ctx context.Context, db dbInterface, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM group_members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func getMemberByUserAndGroup(ctx context.Context, db dbInterface, userID, groupID string) (*domain.GroupMember, error) {
	var member domain.GroupMember
	err := db.GetContext(ctx, &member,
		memberSelect+` WHERE user_id = $1 AND group_id = $2`, userID, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func deleteMembersByGroup(ctx context.Context, db dbInterface, groupID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1`, groupID)
	return err
}

func (s *Store) GetMember(ctx context.Context, id string) (*domain.GroupMember, error) {
	return getMember(ctx, s.db, id)
}

func (t *Tx) GetMember(ctx context.Context, id string) (*domain.GroupMember, error) {
	return getMember(ctx, t.tx, id)
}

func (s *Store) ListMembers(ctx context.Context, fs *filter.FilterSet) ([]*domain.GroupMember, error) {
	return listMembers(ctx, s.db, fs)
}

func (t *Tx) ListMembers(ctx context.Context, fs *filter.FilterSet) ([]*domain.GroupMember, error) {
	return listMembers(ctx, t.tx, fs)
}

func (s *Store) CreateMember(ctx context.Context, member *domain.GroupMember) error {
	return createMember(ctx, s.db, member)
}

func (t *Tx) CreateMember(ctx context.Context, member *domain.GroupMember) error {
	return createMember(ctx, t.tx, member)
}

func (s *Store) CreateMembers(ctx context.Context, members []*domain.GroupMember) error {
	return createMembers(ctx, s.db, members)
}

func (t *Tx) CreateMembers(ctx context.Context, members []*domain.GroupMember) error {
	return createMembers(ctx, t.tx, members)
}

func (s *Store) UpdateMember(ctx context.Context, member *domain.GroupMember, fields ...string) error {
	return updateMember(ctx, s.db, member, fields...)
}

func (t *Tx) UpdateMember(ctx context.Context, member *domain.GroupMember, fields ...string) error {
	return updateMember(ctx, t.tx, member, fields...)
}

func (s *Store) DeleteMember(ctx context.Context, id string) error {
	return deleteMember(ctx, s.db, id)
}

func (t *Tx) DeleteMember(ctx context.Context, id string) error {
	return deleteMember(ctx, t.tx, id)
}

func (s *Store) GetMemberByUserAndGroup(ctx context.Context, userID, groupID string) (*domain.GroupMember, error) {
	return getMemberByUserAndGroup(ctx, s.db, userID, groupID)
}

func (t *Tx) GetMemberByUserAndGroup(ctx context.Context, userID, groupID string) (*domain.GroupMember, error) {
	return getMemberByUserAndGroup(ctx, t.tx, userID, groupID)
}

func (s *Store) DeleteMembersByGroup(ctx context.Context, groupID string) error {
	return deleteMembersByGroup(ctx, s.db, groupID)
}

func (t *Tx) DeleteMembersByGroup(ctx context.Context, groupID string) error {
	return deleteMembersByGroup(ctx, t.tx, groupID)
}

// ============================================
// Group requests
// ============================================

const requestSelect = `SELECT id, user_id, group_id, message, status, created_at, updated_at FROM group_requests`

func getRequest(ctx context.Context, db dbInterface, id string) (*domain.GroupRequest, error) {
	var request domain.GroupRequest
	err := db.GetContext(ctx, &request, requestSelect+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func listRequests(ctx context.Context, db dbInterface, fs *filter.FilterSet) ([]*domain.GroupRequest, error) {
	where, args, err := whereClause(fs, requestColumns)
	if err != nil {
		return nil, err
	}
	var requests []*domain.GroupRequest
	if err := db.SelectContext(ctx, &requests, requestSelect+where+` ORDER BY created_at, id`, args...); err != nil {
		return nil, err
	}
	return requests, nil
}

func createRequest(ctx context.Context, db dbInterface, request *domain.GroupRequest) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO group_requests (id, user_id, group_id, message, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		request.ID, request.UserID, request.GroupID, request.Message, request.Status,
		request.CreatedAt, request.UpdatedAt)
	return wrapUniqueError(err)
}

func createRequests(ctx context.Context, db dbInterface, requests []*domain.GroupRequest) error {
	for _, request := range requests {
		if err := createRequest(ctx, db, request); err != nil {
			return err
		}
	}
	return nil
}

func updateRequest(ctx context.Context, db dbInterface, request *domain.GroupRequest, fields ...string) error {
	columns := map[string]string{
		"message": "message",
		"status":  "status",
	}
	values := map[string]any{
		"message": request.Message,
		"status":  request.Status,
	}
	set, args, err := setClause(fields, columns, values)
	if err != nil {
		return err
	}
	args = append(args, request.UpdatedAt, request.ID)
	_, err = db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE group_requests SET %s WHERE id = $%d`, set, len(args)),
		args...)
	return err
}

func deleteRequest(ctx context.Context, db dbInterface, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM group_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func getPendingRequestByUserAndGroup(ctx context.Context, db dbInterface, userID, groupID string) (*domain.GroupRequest, error) {
	var request domain.GroupRequest
	err := db.GetContext(ctx, &request,
		requestSelect+` WHERE user_id = $1 AND group_id = $2 AND status = $3`,
		userID, groupID, domain.RequestPending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func deleteRequestsByGroup(ctx context.Context, db dbInterface, groupID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM group_requests WHERE group_id = $1`, groupID)
	return err
}

func (s *Store) GetRequest(ctx context.Context, id string) (*domain.GroupRequest, error) {
	return getRequest(ctx, s.db, id)
}

func (t *Tx) GetRequest(ctx context.Context, id string) (*domain.GroupRequest, error) {
	return getRequest(ctx, t.tx, id)
}

func (s *Store) ListRequests(ctx context.Context, fs *filter.FilterSet) ([]*domain.GroupRequest, error) {
	return listRequests(ctx, s.db, fs)
}

func (t *Tx) ListRequests(ctx context.Context, fs *filter.FilterSet) ([]*domain.GroupRequest, error) {
	return listRequests(ctx, t.tx, fs)
}

func (s *Store) CreateRequest(ctx context.Context, request *domain.GroupRequest) error {
	return createRequest(ctx, s.db, request)
}

func (t *Tx) CreateRequest(ctx context.Context, request *domain.GroupRequest) error {
	return createRequest(ctx, t.tx, request)
}

func (s *Store) CreateRequests(ctx context.Context, requests []*domain.GroupRequest) error {
	return createRequests(ctx, s.db, requests)
}

func (t *Tx) CreateRequests(ctx context.Context, requests []*domain.GroupRequest) error {
	return createRequests(ctx, t.tx, requests)
}

func (s *Store) UpdateRequest(ctx context.Context, request *domain.GroupRequest, fields ...string) error {
	return updateRequest(ctx, s.db, request, fields...)
}

func (t *Tx) UpdateRequest(ctx context.Context, request *domain.GroupRequest, fields ...string) error {
	return updateRequest(ctx, t.tx, request, fields...)
}

func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	return deleteRequest(ctx, s.db, id)
}

func (t *Tx) DeleteRequest(ctx context.Context, id string) error {
	return deleteRequest(ctx, t.tx, id)
}

func (s *Store) GetPendingRequestByUserAndGroup(ctx context.Context, userID, groupID string) (*domain.GroupRequest, error) {
	return getPendingRequestByUserAndGroup(ctx, s.db, userID, groupID)
}

func (t *Tx) GetPendingRequestByUserAndGroup(ctx context.Context, userID, groupID string) (*domain.GroupRequest, error) {
	return getPendingRequestByUserAndGroup(ctx, t.tx, userID, groupID)
}

func (s *Store) DeleteRequestsByGroup(ctx context.Context, groupID string) error {
	return deleteRequestsByGroup(ctx, s.db, groupID)
}

func (t *Tx) DeleteRequestsByGroup(ctx context.Context, groupID string) error {
	return deleteRequestsByGroup(ctx, t.tx, groupID)
}
