package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Bootstrap creates the tables the service needs. Statements are idempotent
// so repeated startups are safe.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`create table if not exists store_status (
			id smallint primary key default 1 check (id = 1),
			is_enabled boolean not null default true,
			note text not null default '',
			updated_at timestamptz not null default now()
		)`,
		`insert into store_status (id) values (1) on conflict (id) do nothing`,

		`create table if not exists store_shifts (
			id bigserial primary key,
			name text not null unique,
			start_time text not null,
			end_time text not null,
			cutoff_minutes integer not null default 15 check (cutoff_minutes >= 0),
			is_active boolean not null default true,
			created_at timestamptz not null default now(),
			updated_at timestamptz not null default now()
		)`,

		`create table if not exists store_exceptions (
			id bigserial primary key,
			date date not null unique,
			is_closed boolean not null default true,
			note text not null default '',
			created_at timestamptz not null default now(),
			updated_at timestamptz not null default now()
		)`,

		`create table if not exists operators (
			id bigserial primary key,
			email text not null unique,
			name text not null default '',
			password_hash text not null,
			created_at timestamptz not null default now()
		)`,

		`create table if not exists customers (
			id bigserial primary key,
			phone text not null unique,
			name text not null default '',
			email text not null default '',
			address text not null default '',
			created_at timestamptz not null default now()
		)`,

		`create table if not exists orders (
			id bigserial primary key,
			order_number text not null unique,
			status text not null default 'PLACED',
			payment_method text not null default 'ONLINE',
			tracking_code text,
			idempotency_key text unique,
			customer_id bigint references customers(id),
			customer_name text not null default '',
			customer_phone text not null,
			customer_email text not null default '',
			customer_address text not null default '',
			shift_name text not null default '',
			total_amount numeric(10,2) not null default 0,
			placed_at timestamptz not null default now(),
			updated_at timestamptz not null default now()
		)`,
		`create index if not exists idx_orders_status_placed on orders (status, placed_at)`,
		`create index if not exists idx_orders_customer_phone on orders (customer_phone)`,

		`create table if not exists order_lines (
			id bigserial primary key,
			order_id bigint not null references orders(id) on delete cascade,
			category text not null check (category in ('combo', 'item', 'snack')),
			item_id bigint not null,
			name text not null,
			unit_price numeric(10,2) not null check (unit_price >= 0),
			quantity integer not null check (quantity > 0)
		)`,
		`create index if not exists idx_order_lines_order on order_lines (order_id)`,

		`create table if not exists order_events (
			id bigserial primary key,
			order_id bigint not null references orders(id) on delete cascade,
			action text not null,
			note text not null default '',
			created_at timestamptz not null default now()
		)`,
		`create index if not exists idx_order_events_order on order_events (order_id)`,

		`create table if not exists cart_drafts (
			session_key text primary key,
			lines jsonb not null default '[]',
			total_amount numeric(10,2) not null default 0,
			updated_at timestamptz not null default now()
		)`,

		`create table if not exists order_notifications (
			id bigserial primary key,
			order_id bigint not null references orders(id) on delete cascade,
			channel text not null,
			recipient text not null,
			body text not null,
			created_at timestamptz not null default now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
