package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hotel_core/internal/domain"
)

func (r *Repo) ListPolicies(ctx context.Context, hotelID int64) ([]domain.DiscountPolicy, error) {
	rows, err := r.db.QueryContext(ctx, listPoliciesSQL, hotelID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	out := []domain.DiscountPolicy{}
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		out = append(out, p)
	}
	return out, storageErr(rows.Err())
}

func (r *Repo) GetPolicy(ctx context.Context, id int64) (domain.DiscountPolicy, error) {
	p, err := scanPolicy(r.db.QueryRowContext(ctx, getPolicySQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DiscountPolicy{}, fmt.Errorf("policy %d: %w", id, domain.ErrNotFound)
	}
	return p, storageErr(err)
}

func (r *Repo) CreatePolicy(ctx context.Context, p domain.DiscountPolicy) (domain.DiscountPolicy, error) {
	var rate, amt any
	switch p.Kind {
	case domain.DiscountPercentage:
		rate = domain.Amount(p.Rate).String()
	case domain.DiscountFixedAmount:
		amt = p.Amount.String()
	}
	res, err := r.db.ExecContext(ctx, insertPolicySQL, p.HotelID, p.Name, p.MinDays, string(p.Kind), rate, amt)
	if err != nil {
		return domain.DiscountPolicy{}, storageErr(err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return domain.DiscountPolicy{}, storageErr(err)
	}
	return p, nil
}

func (r *Repo) DeletePolicy(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deletePolicySQL, id)
	if err != nil {
		return storageErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("policy %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

type scanner interface{ Scan(dest ...any) error }

// scanPolicy reads policyColumns. The stored rate has two decimals of a
// percent, which is exactly the basis-point unit of DiscountPolicy.Rate.
func scanPolicy(s scanner) (domain.DiscountPolicy, error) {
	var (
		p          domain.DiscountPolicy
		kind       string
		rate, amtS sql.NullString
	)
	if err := s.Scan(&p.ID, &p.HotelID, &p.Name, &p.MinDays, &kind, &rate, &amtS); err != nil {
		return domain.DiscountPolicy{}, err
	}
	p.Kind = domain.DiscountKind(kind)
	r, err := amount(rate)
	if err != nil {
		return domain.DiscountPolicy{}, err
	}
	p.Rate = int64(r)
	if p.Amount, err = amount(amtS); err != nil {
		return domain.DiscountPolicy{}, err
	}
	return p, nil
}
