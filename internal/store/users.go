package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/lodboard/internal/session"
)

var userColumns = []string{"user_sn", "role", "organization_id", "grade", "class"}

// userRepo implements UserRepo and session.UserFinder.
type userRepo struct {
	s *Store
}

var _ session.UserFinder = (*userRepo)(nil)

func (r *userRepo) FindUser(ctx context.Context, userSn string) (*session.User, error) {
	query, args := r.s.builder().Select(userColumns...).
		From(r.s.builder().Table(TableUsers)).
		Where(entsql.EQ("user_sn", userSn)).
		Limit(1).
		Query()

	u, err := scanUser(r.s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", userSn, err)
	}
	return &u, nil
}

// scanUser reads one users row. Organization, grade and class are nullable
// (and numeric in the hosted schema); NULL reads as "".
func scanUser(sc scanner) (session.User, error) {
	var (
		u                 session.User
		org, grade, class sql.NullString
	)
	if err := sc.Scan(&u.UserSn, &u.Role, &org, &grade, &class); err != nil {
		return session.User{}, err
	}
	u.OrganizationID, u.Grade, u.Class = org.String, grade.String, class.String
	return u, nil
}

func (r *userRepo) ListStudents(ctx context.Context, orgID, grade, class string) ([]session.User, error) {
	query, args := r.s.builder().Select(userColumns...).
		From(r.s.builder().Table(TableUsers)).
		Where(entsql.And(
			entsql.EQ("organization_id", orgID),
			entsql.EQ("grade", grade),
			entsql.EQ("class", class),
			entsql.EQ("role", string(session.RoleStudent)),
		)).
		OrderBy("user_sn").
		Query()

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var out []session.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
